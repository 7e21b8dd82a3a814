package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chiro-bmb/kassa/internal/daemon"
	"github.com/chiro-bmb/kassa/internal/dashboard"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the background sync daemon",
	Long: `Run the sync daemon in the foreground:

  1. Reconciles with the central store on a recurring timer
  2. Re-syncs immediately when connectivity comes back
  3. Watches the central data directory for writes by other devices
  4. Serves the debug dashboard (WebSocket) when enabled`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			exitErr("Error: %v", err)
		}
		defer a.Close()

		if !a.cfg.Features.CloudSync {
			exitErr("Error: cloud sync is disabled in configuration")
		}

		// Dashboard first, so the initial sync is already observable.
		if a.cfg.Features.DebugTools {
			server := dashboard.NewServer(&dashboard.Config{
				Port:   a.cfg.DashboardPort,
				Logger: newLogger(a.cfg, "[dashboard] "),
			})
			if err := server.Start(); err != nil {
				a.logger.Printf("Dashboard disabled: %v", err)
			} else {
				defer func() { _ = server.Stop() }()
				a.engine.SetEvents(dashboard.NewHandler(server, a.logger))
				fmt.Printf("Dashboard listening on %s\n", server.Addr())
			}
		}

		cfg := daemon.DefaultConfig()
		cfg.SyncInterval = a.cfg.SyncInterval()
		cfg.Logger = newLogger(a.cfg, "[daemon] ")
		cfg.Probe = func() bool { return dirReachable(a.cfg.DataDir) }

		d, err := daemon.New(a.engine, a.cfg.DataDir, cfg)
		if err != nil {
			exitErr("Error: %v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Syncing %s every %v (Ctrl-C to stop)\n", a.cfg.DataDir, cfg.SyncInterval)
		if err := d.Start(ctx); err != nil {
			exitErr("Error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
