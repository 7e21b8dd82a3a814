package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DataDir != "./data" {
		t.Errorf("DataDir = %q, want ./data", cfg.DataDir)
	}
	if cfg.StateDir != ".kassa" {
		t.Errorf("StateDir = %q, want .kassa", cfg.StateDir)
	}
	if cfg.SyncIntervalMinutes != 5 {
		t.Errorf("SyncIntervalMinutes = %d, want 5", cfg.SyncIntervalMinutes)
	}
	if cfg.DashboardPort != 8484 {
		t.Errorf("DashboardPort = %d, want 8484", cfg.DashboardPort)
	}
	if !cfg.Features.CloudSync {
		t.Error("Features.CloudSync default = false, want true")
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("KASSA_DATA_DIR", "/mnt/shared")
	t.Setenv("KASSA_SYNC_INTERVAL_MINUTES", "10")
	t.Setenv("KASSA_FEATURES_CLOUD_SYNC", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DataDir != "/mnt/shared" {
		t.Errorf("DataDir = %q, want /mnt/shared", cfg.DataDir)
	}
	if cfg.SyncIntervalMinutes != 10 {
		t.Errorf("SyncIntervalMinutes = %d, want 10", cfg.SyncIntervalMinutes)
	}
	if cfg.Features.CloudSync {
		t.Error("Features.CloudSync = true, want env override to false")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kassa.yaml")
	content := []byte("data_dir: /srv/kassa\nsync_interval_minutes: 2\nfeatures:\n  debug_tools: false\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DataDir != "/srv/kassa" {
		t.Errorf("DataDir = %q, want /srv/kassa", cfg.DataDir)
	}
	if cfg.SyncIntervalMinutes != 2 {
		t.Errorf("SyncIntervalMinutes = %d, want 2", cfg.SyncIntervalMinutes)
	}
	if cfg.Features.DebugTools {
		t.Error("Features.DebugTools = true, want file override to false")
	}
	// Values absent from the file keep their defaults.
	if cfg.DashboardPort != 8484 {
		t.Errorf("DashboardPort = %d, want default 8484", cfg.DashboardPort)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load() with a missing config file succeeded, want error")
	}
}

func TestSyncInterval(t *testing.T) {
	cfg := &Config{SyncIntervalMinutes: 3}
	if got := cfg.SyncInterval(); got != 3*time.Minute {
		t.Errorf("SyncInterval() = %v, want 3m", got)
	}
}

func TestDeviceDB(t *testing.T) {
	cfg := &Config{StateDir: "/var/lib/kassa"}
	if got := cfg.DeviceDB(); got != filepath.Join("/var/lib/kassa", "device.db") {
		t.Errorf("DeviceDB() = %q", got)
	}
}
