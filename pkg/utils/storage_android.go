//go:build android

package utils

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// EnsureStorageDir 在 gdata 初始化前准备 Android 存储目录
//
// gdata 在 Android 上写入 /data/data/{package}/saves，但不会预先创建该目录。
//
// 返回：
//   - string: 存储目录
//   - error: 无法识别包名、创建目录失败或目录不可写时返回错误
func EnsureStorageDir() (string, error) {
	pkg, err := androidPackageName()
	if err != nil {
		return "", fmt.Errorf("failed to detect Android package: %w", err)
	}

	dir := filepath.Join("/data/data", pkg, "saves")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}

	marker := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(marker, nil, 0644); err != nil {
		return "", fmt.Errorf("storage directory %s is not writable: %w", dir, err)
	}
	_ = os.Remove(marker)
	return dir, nil
}

// androidPackageName 读取进程名（即应用包名）
// /proc/self/cmdline 以 NUL 分隔参数，只取第一个
func androidPackageName() (string, error) {
	data, err := os.ReadFile("/proc/self/cmdline")
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	name := string(bytes.TrimSpace(data))
	if name == "" {
		return "", fmt.Errorf("empty /proc/self/cmdline")
	}
	return name, nil
}
