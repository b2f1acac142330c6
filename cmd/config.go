// cmd/config.go
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aceteam-ai/wuscore/internal/platform"
	"github.com/aceteam-ai/wuscore/internal/publish"
	"github.com/aceteam-ai/wuscore/internal/score"
	"gopkg.in/yaml.v3"
)

// Config defines the structure of the config.yaml file.
type Config struct {
	// Slots adds to or overrides the built-in slot map (FS00: CPU, FS01: GPU)
	Slots map[string]string `yaml:"slots,omitempty"`

	Store struct {
		Path string `yaml:"path,omitempty"`
	} `yaml:"store"`

	Redis struct {
		URL      string `yaml:"url,omitempty"`
		Password string `yaml:"password,omitempty"`
		Stream   string `yaml:"stream,omitempty"`
		Channel  string `yaml:"channel,omitempty"`
	} `yaml:"redis"`

	NodeID string `yaml:"node_id,omitempty"`

	Sync struct {
		Interval  time.Duration `yaml:"interval,omitempty"`
		BatchSize int           `yaml:"batch_size,omitempty"`
		Rate      float64       `yaml:"rate,omitempty"`
	} `yaml:"sync"`
}

func defaultConfig() *Config {
	c := &Config{}
	c.Store.Path = platform.DefaultStorePath()
	c.Redis.URL = "redis://localhost:6379"
	c.Redis.Stream = publish.DefaultStream
	c.Sync.Interval = 60 * time.Second
	c.Sync.BatchSize = 50
	c.Sync.Rate = 5
	return c
}

// configPath returns --config if set, else <config dir>/config.yaml.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return filepath.Join(platform.ConfigDir(), "config.yaml")
}

// loadConfig reads the config file over the defaults, then applies environment
// overrides. A missing default config file is not an error; a missing file
// named with --config is.
func loadConfig() (*Config, error) {
	path := configPath()
	cfg, err := readConfig(path)
	if err != nil {
		if os.IsNotExist(err) && cfgFile == "" {
			Debug("no config at %s, using defaults", path)
			cfg = defaultConfig()
		} else if os.IsNotExist(err) {
			return nil, fmt.Errorf("config not found at %s", path)
		} else {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func readConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("could not read config %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not parse config %s: %w", path, err)
	}
	cfg.Store.Path = expandHome(cfg.Store.Path)
	Debug("loaded config from %s", path)
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Redis.URL = getEnvOrDefault("WUSCORE_REDIS_URL", c.Redis.URL)
	c.Redis.Password = getEnvOrDefault("WUSCORE_REDIS_PASSWORD", c.Redis.Password)
	c.Store.Path = expandHome(getEnvOrDefault("WUSCORE_STORE_PATH", c.Store.Path))
	c.NodeID = getEnvOrDefault("WUSCORE_NODE_ID", c.NodeID)
}

// SlotMap returns the built-in slot map with the configured overrides applied.
func (c *Config) SlotMap() (score.SlotMap, error) {
	overrides := make(map[string]score.SlotType, len(c.Slots))
	for slot, name := range c.Slots {
		t, err := score.ParseSlotType(name)
		if err != nil {
			return nil, fmt.Errorf("config slot %s: %w", slot, err)
		}
		overrides[slot] = t
	}
	return score.DefaultSlotMap().With(overrides), nil
}

// ResolvedNodeID returns the configured node ID or the sanitized host name.
func (c *Config) ResolvedNodeID() string {
	if c.NodeID != "" {
		return c.NodeID
	}
	return platform.NodeName()
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
