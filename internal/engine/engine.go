// Package engine orchestrates two-way synchronization between the device's
// local order store and the shared central store.
//
// The engine:
//  1. Applies every create/update/delete/recover to the local store first
//     (optimistic, works offline)
//  2. Attempts a best-effort push to the central store when online
//  3. Periodically reconciles both stores with a two-phase pass
//     (upload unsynced records, then download and merge remote records)
//  4. Repairs duplicate and corrupted records on the read path
//
// All local-store writes are serialized behind a single mutex so overlapping
// sync passes and user mutations can never clobber each other's batched
// writes. Connectivity is an externally pushed input via SetOnline.
package engine

import (
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/chiro-bmb/kassa/internal/localstore"
	"github.com/chiro-bmb/kassa/internal/order"
	"github.com/chiro-bmb/kassa/internal/remotestore"
)

// Remote is the transport boundary to the central order store.
//
// List never fails (the store falls back to its own backup and mirror);
// Upsert and Delete report failures so the engine can defer the record to
// the next reconciliation pass.
type Remote interface {
	List() []order.Order
	Upsert(o order.Order) (remotestore.UpsertStatus, error)
	Delete(id string) error
}

// Config holds configuration for the engine.
type Config struct {
	// Logger for engine activity
	Logger *log.Logger

	// Events receives telemetry about mutations, sync passes and integrity
	// repairs. Nil means no telemetry.
	Events Events

	// Clock returns the current time. Overridable in tests.
	Clock func() time.Time

	// NewID generates order identifiers. Overridable in tests.
	NewID func() string

	// MaxIDAttempts bounds the retry loop when a freshly generated id
	// collides with an existing record.
	MaxIDAttempts int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Logger:        log.New(os.Stderr, "[engine] ", log.LstdFlags),
		Events:        NopEvents{},
		Clock:         time.Now,
		NewID:         func() string { return uuid.NewString() },
		MaxIDAttempts: 5,
	}
}

// Engine is the sync engine.
type Engine struct {
	local  *localstore.Store
	remote Remote
	config *Config

	online atomic.Bool

	// mu serializes every read-modify-write of the local store.
	mu sync.Mutex

	// syncMu serializes full reconciliation passes so timer, reconnect and
	// manual triggers queue instead of interleaving.
	syncMu sync.Mutex
}

// New creates an Engine over the given stores.
func New(local *localstore.Store, remote Remote, config *Config) *Engine {
	defaults := DefaultConfig()
	if config == nil {
		config = defaults
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
	if config.Events == nil {
		config.Events = NopEvents{}
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if config.NewID == nil {
		config.NewID = defaults.NewID
	}
	if config.MaxIDAttempts <= 0 {
		config.MaxIDAttempts = defaults.MaxIDAttempts
	}
	return &Engine{local: local, remote: remote, config: config}
}

// SetEvents installs a telemetry sink. Call before any background activity
// (daemon, dashboard) starts; the engine reads the sink without locking.
func (e *Engine) SetEvents(events Events) {
	if events == nil {
		events = NopEvents{}
	}
	e.config.Events = events
}

// SetOnline records a connectivity change pushed from the platform.
// The engine never polls; callers (the daemon) feed this flag.
func (e *Engine) SetOnline(online bool) {
	if e.online.Swap(online) != online {
		e.config.Logger.Printf("Connectivity changed: online=%v", online)
		e.config.Events.OnlineChanged(online)
	}
}

// Online reports the last pushed connectivity state.
func (e *Engine) Online() bool {
	return e.online.Load()
}

func (e *Engine) now() string {
	return order.Now(e.config.Clock())
}

// pushBestEffort attempts to persist one record to the central store.
// Failures are logged and swallowed; the record stays unsynced and the next
// reconciliation pass retries. Returns true when the store accepted the
// record (a skipped write counts: the store simply holds a newer version,
// which the next download pass will bring back).
func (e *Engine) pushBestEffort(o order.Order) bool {
	if !e.Online() {
		return false
	}
	status, err := e.remote.Upsert(o.CloudCopy())
	if err != nil {
		e.config.Logger.Printf("Failed to push order %s: %v", o.ID, err)
		return false
	}
	if status == remotestore.Skipped {
		e.config.Logger.Printf("Push of order %s skipped: central store holds a newer version", o.ID)
	}
	return true
}

// markSynced flips the synced flag on the record with the given id, but only
// if its version still equals the version that was pushed. A record the user
// edited mid-push keeps its unsynced flag and is retried on the next pass.
func (e *Engine) markSynced(id string, pushedBase int, stampModified bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	orders := e.local.List()
	for i := range orders {
		if orders[i].ID != id {
			continue
		}
		if orders[i].Version != pushedBase || orders[i].SyncedToCloud {
			return
		}
		orders[i].SyncedToCloud = true
		if stampModified {
			orders[i].LastModified = e.now()
		}
		if err := e.local.ReplaceAll(orders); err != nil {
			e.config.Logger.Printf("Failed to persist synced flag for %s: %v", id, err)
		}
		return
	}
}
