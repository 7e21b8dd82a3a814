package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/chiro-bmb/kassa/internal/config"
	"github.com/chiro-bmb/kassa/internal/engine"
	"github.com/chiro-bmb/kassa/internal/kv"
	"github.com/chiro-bmb/kassa/internal/localstore"
	"github.com/chiro-bmb/kassa/internal/remotestore"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "kassa",
	Short: "Offline-first cashier order log with central-store sync",
	Long: `kassa records point-of-sale orders on the device and keeps them
reconciled with a shared central store.

Orders are always written locally first, so the register keeps working
without connectivity; a background reconciliation pass uploads unsynced
orders and merges remote changes whenever the central store is reachable.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: KASSA_* environment)")
}

// app bundles the wired-up core for one command invocation.
type app struct {
	cfg    *config.Config
	engine *engine.Engine
	logger *log.Logger

	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// openApp wires stores and engine from configuration. One-shot commands call
// this, run one operation, and Close.
func openApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg, "[kassa] ")
	a := &app{cfg: cfg, logger: logger}

	var slots localstore.KV
	device, err := kv.OpenSQLite(cfg.DeviceDB())
	if err != nil {
		// Total storage failure degrades to memory-only operation instead
		// of refusing to start the register.
		logger.Printf("Device storage unavailable, running in memory: %v", err)
		slots = kv.NewMemory()
	} else {
		slots = device
		a.closers = append(a.closers, device.Close)
	}

	local := localstore.New(slots, localstore.NewMirror(), newLogger(cfg, "[localstore] "))
	remote := remotestore.New(cfg.DataDir, newLogger(cfg, "[remotestore] "))

	engineCfg := engine.DefaultConfig()
	engineCfg.Logger = newLogger(cfg, "[engine] ")
	a.engine = engine.New(local, remote, engineCfg)

	if cfg.Features.CloudSync && !cfg.Features.OfflineMode {
		a.engine.SetOnline(true)
	} else if cfg.Features.CloudSync {
		// Offline mode starts pessimistic; a probe flips it when the data
		// directory is actually reachable.
		a.engine.SetOnline(dirReachable(cfg.DataDir))
	}

	return a, nil
}

// dirReachable is the connectivity probe for share-backed deployments: the
// device counts as online when the central data directory is accessible.
func dirReachable(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// newLogger builds a prefixed logger writing to stderr and, when configured,
// a rotated log file.
func newLogger(cfg *config.Config, prefix string) *log.Logger {
	var w io.Writer = os.Stderr
	if cfg.LogFile != "" {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	}
	return log.New(w, prefix, log.LstdFlags)
}

func exitErr(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
