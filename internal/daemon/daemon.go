// Package daemon provides the background process that keeps the device
// reconciled with the central store.
//
// The daemon:
//  1. Runs a full reconciliation pass on a recurring timer (default 5 min)
//  2. Triggers an immediate pass when connectivity comes back
//  3. Watches the central store's data directory and re-syncs (debounced)
//     when another device writes it
//  4. Handles graceful shutdown
//
// Connectivity is pushed into the daemon via NotifyOnline; an optional probe
// function can be installed to generate those notifications on platforms
// without a native signal.
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/chiro-bmb/kassa/internal/engine"
)

// Config holds configuration for the daemon.
type Config struct {
	// SyncInterval is how often to run a full reconciliation pass
	SyncInterval time.Duration

	// DebounceInterval is how long to wait before reacting to remote file
	// changes. This batches rapid updates from another device together
	DebounceInterval time.Duration

	// Probe, when set, is called every ProbeInterval to determine
	// connectivity and feeds NotifyOnline. Leave nil when the platform
	// pushes connectivity changes itself.
	Probe func() bool

	// ProbeInterval is how often to call Probe (default 15s).
	ProbeInterval time.Duration

	// Logger for daemon activity
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SyncInterval:     5 * time.Minute,
		DebounceInterval: 500 * time.Millisecond,
		ProbeInterval:    15 * time.Second,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon orchestrates periodic sync, connectivity handling and remote-change
// watching.
type Daemon struct {
	engine    *engine.Engine
	remoteDir string
	config    *Config

	watcher       *fsnotify.Watcher
	changeQueue   map[string]time.Time // filepath -> timestamp
	changeQueueMu sync.Mutex

	wg sync.WaitGroup
}

// New creates a new Daemon instance.
//
// remoteDir is the central store's data directory; it is watched for writes
// by other devices. Use Start() to begin syncing.
func New(eng *engine.Engine, remoteDir string, config *Config) (*Daemon, error) {
	if eng == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if remoteDir == "" {
		return nil, fmt.Errorf("remoteDir cannot be empty")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = DefaultConfig().Logger
	}
	if config.SyncInterval <= 0 {
		config.SyncInterval = 5 * time.Minute
	}
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = 500 * time.Millisecond
	}
	if config.ProbeInterval <= 0 {
		config.ProbeInterval = 15 * time.Second
	}

	return &Daemon{
		engine:      eng,
		remoteDir:   remoteDir,
		config:      config,
		changeQueue: make(map[string]time.Time),
	}, nil
}

// NotifyOnline records a connectivity change. A transition from offline to
// online triggers an immediate reconciliation pass.
func (d *Daemon) NotifyOnline(online bool) {
	wasOnline := d.engine.Online()
	d.engine.SetOnline(online)
	if online && !wasOnline {
		d.config.Logger.Printf("Back online, syncing")
		go d.engine.FullSync()
	}
}

// Start begins the daemon's operation.
//
// The daemon performs an initial full sync, then runs the periodic sync
// loop, the connectivity probe (if configured) and the remote-directory
// watcher until ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting sync daemon")

	if d.config.Probe != nil {
		d.NotifyOnline(d.config.Probe())
	}

	// Initial pass; failures inside the pass are already logged.
	d.engine.FullSync()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	d.watcher = watcher
	if err := watcher.Add(d.remoteDir); err != nil {
		// A missing or unreachable share is routine when offline; the
		// periodic loop still runs.
		d.config.Logger.Printf("Cannot watch remote directory %s: %v", d.remoteDir, err)
	}

	d.wg.Add(3)
	go d.syncLoop(ctx)
	go d.watchLoop(ctx)
	go d.probeLoop(ctx)

	<-ctx.Done()
	d.config.Logger.Println("Stopping sync daemon")
	_ = watcher.Close()
	d.wg.Wait()
	return nil
}

// syncLoop runs the recurring reconciliation timer.
func (d *Daemon) syncLoop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.engine.FullSync()
		}
	}
}

// probeLoop polls the connectivity probe when one is configured.
func (d *Daemon) probeLoop(ctx context.Context) {
	defer d.wg.Done()
	if d.config.Probe == nil {
		return
	}

	ticker := time.NewTicker(d.config.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.NotifyOnline(d.config.Probe())
		}
	}
}

// watchLoop reacts to writes in the central store's directory, debouncing
// bursts so one pass covers a batch of updates from another device.
func (d *Daemon) watchLoop(ctx context.Context) {
	defer d.wg.Done()

	debounce := time.NewTicker(d.config.DebounceInterval)
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if !isOrdersFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			d.changeQueueMu.Lock()
			d.changeQueue[event.Name] = time.Now()
			d.changeQueueMu.Unlock()

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)

		case <-debounce.C:
			if d.drainChanges() {
				d.config.Logger.Println("Remote store changed, syncing")
				d.engine.FullSync()
			}
		}
	}
}

// drainChanges reports whether any queued change is old enough to process,
// clearing the queue if so.
func (d *Daemon) drainChanges() bool {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	if len(d.changeQueue) == 0 {
		return false
	}
	cutoff := time.Now().Add(-d.config.DebounceInterval)
	for _, at := range d.changeQueue {
		if at.After(cutoff) {
			return false
		}
	}
	d.changeQueue = make(map[string]time.Time)
	return true
}

// isOrdersFile reports whether the changed path is the central order
// document (backup writes are ignored).
func isOrdersFile(path string) bool {
	return filepath.Base(path) == "orders.json"
}
