// Package platform holds host-level helpers: where configuration lives and
// what the machine is called.
package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// IsLinux returns true if running on Linux
func IsLinux() bool {
	return runtime.GOOS == "linux"
}

// IsDarwin returns true if running on macOS
func IsDarwin() bool {
	return runtime.GOOS == "darwin"
}

// IsWindows returns true if running on Windows
func IsWindows() bool {
	return runtime.GOOS == "windows"
}

// IsRoot checks if the current user has root privileges.
// On Windows, checks for Administrator group membership.
func IsRoot() bool {
	if IsWindows() {
		return isWindowsAdmin()
	}
	return os.Geteuid() == 0
}

// ConfigDir returns the appropriate config directory for the OS.
// Uses system-wide paths when running as root, user-local paths otherwise.
func ConfigDir() string {
	if !IsRoot() {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, ".wuscore")
		}
	}

	if IsLinux() {
		return "/etc/wuscore"
	}
	if IsDarwin() {
		return "/usr/local/etc/wuscore"
	}
	return `C:\ProgramData\wuscore`
}

// DefaultStorePath is where completed work units are recorded.
func DefaultStorePath() string {
	return filepath.Join(ConfigDir(), "records.db")
}

// NodeName returns the host name, cleaned up for use as a node ID.
func NodeName() string {
	name := ""
	if info, err := host.Info(); err == nil {
		name = info.Hostname
	}
	if name == "" {
		name, _ = os.Hostname()
	}
	if name == "" {
		return "unknown"
	}
	return SanitizeNodeID(name)
}

// SanitizeNodeID replaces characters outside [A-Za-z0-9._-] with '-' and
// caps the result at 64 characters.
func SanitizeNodeID(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '_', r == '-':
			return r
		}
		return '-'
	}, name)
	if len(clean) > 64 {
		clean = clean[:64]
	}
	return clean
}
