package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestIsLinux(t *testing.T) {
	if IsLinux() != (runtime.GOOS == "linux") {
		t.Errorf("IsLinux() = %v on %s", IsLinux(), runtime.GOOS)
	}
}

func TestIsDarwin(t *testing.T) {
	if IsDarwin() != (runtime.GOOS == "darwin") {
		t.Errorf("IsDarwin() = %v on %s", IsDarwin(), runtime.GOOS)
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Fatal("ConfigDir() returned empty string")
	}

	// When not running as root, ConfigDir returns ~/.wuscore
	if !IsRoot() {
		home, err := os.UserHomeDir()
		if err != nil {
			t.Fatalf("Failed to get home dir: %v", err)
		}
		expected := filepath.Join(home, ".wuscore")
		if dir != expected {
			t.Errorf("ConfigDir() as non-root = %s, want %s", dir, expected)
		}
		return
	}

	switch runtime.GOOS {
	case "linux":
		if dir != "/etc/wuscore" {
			t.Errorf("ConfigDir() on Linux as root = %s, want /etc/wuscore", dir)
		}
	case "darwin":
		if dir != "/usr/local/etc/wuscore" {
			t.Errorf("ConfigDir() on macOS as root = %s, want /usr/local/etc/wuscore", dir)
		}
	}
}

func TestDefaultStorePath(t *testing.T) {
	if got := DefaultStorePath(); got != filepath.Join(ConfigDir(), "records.db") {
		t.Errorf("DefaultStorePath() = %s", got)
	}
}

func TestNodeName(t *testing.T) {
	name := NodeName()
	if name == "" {
		t.Fatal("NodeName() returned empty string")
	}
	if SanitizeNodeID(name) != name {
		t.Errorf("NodeName() = %q is not sanitized", name)
	}
}

func TestSanitizeNodeID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"gpu-box-1", "gpu-box-1"},
		{"my host.local", "my-host.local"},
		{"node:7/a", "node-7-a"},
		{"réseau", "r-seau"},
		{strings.Repeat("a", 80), strings.Repeat("a", 64)},
	}

	for _, tt := range tests {
		if got := SanitizeNodeID(tt.in); got != tt.want {
			t.Errorf("SanitizeNodeID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
