//go:build !android

package utils

// EnsureStorageDir 非 Android 平台由 gdata 自行创建存储目录
//
// 返回：
//   - string: 总是为空，表示使用 gdata 默认位置
func EnsureStorageDir() (string, error) {
	return "", nil
}
