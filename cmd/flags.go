// cmd/flags.go
package cmd

import "github.com/spf13/cobra"

var (
	storePath string
	redisURL  string
	nodeID    string
)

func addStoreFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&storePath, "store", "", "record database path (env: WUSCORE_STORE_PATH)")
}

func addRedisFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&redisURL, "redis-url", "", "Redis URL (env: WUSCORE_REDIS_URL)")
	cmd.Flags().StringVar(&nodeID, "node-id", "", "node ID attached to published data (default: host name)")
}

// applyFlagOverrides applies command-line flags over the loaded config.
func applyFlagOverrides(cfg *Config) {
	if storePath != "" {
		cfg.Store.Path = expandHome(storePath)
	}
	if redisURL != "" {
		cfg.Redis.URL = redisURL
	}
	if nodeID != "" {
		cfg.NodeID = nodeID
	}
}
