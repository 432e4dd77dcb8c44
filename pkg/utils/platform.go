//go:build !mobile

package utils

import "os"

// MobileEmulateEnv 桌面端设置为 "1" 时按移动端处理（用于本地调试触摸布局）
const MobileEmulateEnv = "HALFSLG_MOBILE_EMULATE"

// IsMobile 是否在移动设备上运行
func IsMobile() bool {
	return os.Getenv(MobileEmulateEnv) == "1"
}
