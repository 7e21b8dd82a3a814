// Package config loads the application configuration from defaults, an
// optional config file, and KASSA_* environment variables, in increasing
// order of precedence.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration.
type Config struct {
	// DataDir is the central store's data directory, typically a mounted
	// share visible to every device.
	DataDir string `mapstructure:"data_dir"`

	// StateDir is the device-local state directory (SQLite slots, logs).
	StateDir string `mapstructure:"state_dir"`

	// SyncIntervalMinutes is the periodic reconciliation interval.
	SyncIntervalMinutes int `mapstructure:"sync_interval_minutes"`

	// LogFile, when set, is written (with rotation) in addition to stderr.
	LogFile string `mapstructure:"log_file"`

	// DashboardPort is the debug dashboard's listen port.
	DashboardPort int `mapstructure:"dashboard_port"`

	Features Features `mapstructure:"features"`
}

// Features are the deployment's feature flags.
type Features struct {
	// CloudSync enables pushing and pulling the central store. Off means
	// the device runs standalone on its local log.
	CloudSync bool `mapstructure:"cloud_sync"`

	// OfflineMode starts the device in the offline state until a
	// connectivity notification arrives.
	OfflineMode bool `mapstructure:"offline_mode"`

	// DebugTools enables the sync dashboard.
	DebugTools bool `mapstructure:"debug_tools"`
}

// SyncInterval returns the reconciliation interval as a duration.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalMinutes) * time.Minute
}

// DeviceDB returns the path of the device-local SQLite database.
func (c *Config) DeviceDB() string {
	return filepath.Join(c.StateDir, "device.db")
}

// Load reads the configuration. cfgFile may be empty; then only defaults
// and environment variables apply.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("data_dir", "./data")
	v.SetDefault("state_dir", ".kassa")
	v.SetDefault("sync_interval_minutes", 5)
	v.SetDefault("dashboard_port", 8484)
	v.SetDefault("features.cloud_sync", true)
	v.SetDefault("features.offline_mode", true)
	v.SetDefault("features.debug_tools", true)

	v.SetEnvPrefix("KASSA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return &cfg, nil
}
