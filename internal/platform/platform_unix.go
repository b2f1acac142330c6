//go:build !windows

package platform

func isWindowsAdmin() bool {
	return false
}
