package config

import (
	"os"

	"github.com/decker502/halfslg/pkg/embedded"
)

// readDataFile 读取配置文件
// 嵌入资源中存在该路径时优先读取嵌入资源，否则从磁盘读取
func readDataFile(path string) ([]byte, error) {
	if embedded.Exists(path) {
		return embedded.ReadFile(path)
	}
	return os.ReadFile(path)
}
