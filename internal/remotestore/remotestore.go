// Package remotestore provides the central order store shared by all devices.
//
// The store is a keyed JSON document (orders.json) in a configurable data
// directory, typically a mounted share reachable only when the device is
// online. A backup copy (orders.backup.json) is refreshed after every
// successful read and before every write; if the main document turns out
// corrupt, the store restores from the backup and retries once. When the
// directory is unwritable the store keeps an in-process mirror so writes are
// not lost for the remainder of the process.
//
// Concurrent devices are coordinated by the write rule alone: an upsert only
// overwrites a stored record when the incoming version is strictly greater.
// No remote-side locking is assumed.
package remotestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/chiro-bmb/kassa/internal/order"
)

const (
	ordersFile = "orders.json"
	backupFile = "orders.backup.json"
)

var (
	// ErrNotFound is returned when an operation references an unknown order id.
	ErrNotFound = errors.New("order not found")
	// ErrConflict is returned by Update when a newer version exists.
	ErrConflict = errors.New("conflict: newer version exists")
)

// Store is the central order store.
type Store struct {
	dir    string
	logger *log.Logger

	mu sync.Mutex

	// In-process fallback used when the data directory is unwritable.
	// Initialized on first use, lives for the process lifetime.
	memory   []order.Order
	memoryOK bool
}

// New creates a Store rooted at dir.
//
// The directory is created if missing; failure to create it is tolerated
// here and surfaces as per-operation fallbacks instead.
//
// If logger is nil, a default logger writing to stderr is used.
func New(dir string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(os.Stderr, "[remotestore] ", log.LstdFlags)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Printf("Failed to create data directory %s: %v", dir, err)
	}
	return &Store{dir: dir, logger: logger}
}

func (s *Store) path() string       { return filepath.Join(s.dir, ordersFile) }
func (s *Store) backupPath() string { return filepath.Join(s.dir, backupFile) }

// List returns all orders known centrally.
//
// On read or parse failure it restores from the backup copy and retries
// once; if that also fails it serves the in-process mirror, or an empty
// list. List never returns an error.
func (s *Store) List() []order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readWithRecovery()
}

// UpsertStatus reports what an Upsert did.
type UpsertStatus int

const (
	// Inserted means the record was new and was added.
	Inserted UpsertStatus = iota
	// Updated means an existing record was overwritten.
	Updated
	// Skipped means the write rule rejected the record. This is not an
	// error; the stored record is simply newer.
	Skipped
)

// String returns a human-readable representation of the status.
func (st UpsertStatus) String() string {
	switch st {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Upsert inserts the record, or overwrites an existing one according to the
// write rule: when both sides carry a version, the incoming version must be
// strictly greater; when neither does, the incoming record always overwrites
// (unconditional last-write for legacy records).
//
// A rejected write is not an error: Upsert returns Skipped so the caller can
// log it, and the stored record stays untouched.
func (s *Store) Upsert(o order.Order) (UpsertStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := s.readWithRecovery()
	for i := range orders {
		if orders[i].ID != o.ID {
			continue
		}
		existing := orders[i]
		if o.Version != 0 && existing.Version != 0 && o.Version <= existing.Version {
			s.logger.Printf("Skipped upsert for order %s: incoming version %d <= existing version %d",
				shortID(o.ID), o.Version, existing.Version)
			return Skipped, nil
		}
		orders[i] = o
		s.writeWithBackup(orders)
		s.logger.Printf("Updated order %s (version %d)", shortID(o.ID), o.Version)
		return Updated, nil
	}

	if o.Version == 0 {
		o.Version = 1
	}
	orders = append(orders, o)
	s.writeWithBackup(orders)
	s.logger.Printf("Added order %s (version %d)", shortID(o.ID), o.Version)
	return Inserted, nil
}

// Update overwrites an existing record under optimistic concurrency: the
// incoming version must be strictly greater than the stored one, otherwise
// ErrConflict is returned and the stored record is left unchanged. Unlike
// Upsert this is the explicit, user-initiated edit path, so a rejected write
// is surfaced as an error rather than silently skipped.
func (s *Store) Update(o order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := s.readWithRecovery()
	for i := range orders {
		if orders[i].ID != o.ID {
			continue
		}
		existing := orders[i]
		if o.Version != 0 && existing.Version != 0 && o.Version <= existing.Version {
			return fmt.Errorf("%w (stored version %d, incoming %d)", ErrConflict, existing.Version, o.Version)
		}
		orders[i] = o
		s.writeWithBackup(orders)
		return nil
	}
	return ErrNotFound
}

// Delete removes the record with the given id. The store keeps no history of
// deleted records; the caller is expected to have preserved a copy in its
// local soft-deleted slot first.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := s.readWithRecovery()
	remaining := orders[:0:0]
	found := false
	for _, o := range orders {
		if o.ID == id {
			found = true
			continue
		}
		remaining = append(remaining, o)
	}
	if !found {
		return ErrNotFound
	}
	s.writeWithBackup(remaining)
	s.logger.Printf("Deleted order %s", shortID(id))
	return nil
}

// readWithRecovery reads and parses the main document. Caller holds s.mu.
func (s *Store) readWithRecovery() []order.Order {
	s.ensureInitialized()

	if orders, ok := s.readFile(s.path()); ok {
		// Refresh the backup after every successful read.
		s.copyToBackup()
		return orders
	}

	s.logger.Printf("Main store unreadable, restoring from backup")
	if s.restoreFromBackup() {
		if orders, ok := s.readFile(s.path()); ok {
			return orders
		}
	}

	if s.memoryOK {
		s.logger.Printf("Serving %d orders from memory fallback", len(s.memory))
		return append([]order.Order(nil), s.memory...)
	}
	return []order.Order{}
}

// writeWithBackup persists the full order set. Caller holds s.mu.
//
// The previous main document is copied to the backup before writing. The
// in-process mirror is updated even when the filesystem write fails, so the
// state survives an unwritable medium for the rest of the process.
func (s *Store) writeWithBackup(orders []order.Order) bool {
	s.memory = append([]order.Order(nil), orders...)
	s.memoryOK = true

	s.copyToBackup()

	data, err := json.MarshalIndent(orders, "", "  ")
	if err != nil {
		s.logger.Printf("Failed to encode orders: %v", err)
		return false
	}
	if err := os.WriteFile(s.path(), data, 0644); err != nil {
		s.logger.Printf("Failed to write orders file, keeping memory fallback: %v", err)
		return false
	}
	return true
}

// readFile reads one document and validates that it parses as an array.
func (s *Store) readFile(path string) ([]order.Order, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Printf("Failed to read %s: %v", filepath.Base(path), err)
		return nil, false
	}
	var orders []order.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		s.logger.Printf("Failed to parse %s: %v", filepath.Base(path), err)
		return nil, false
	}
	if orders == nil {
		orders = []order.Order{}
	}
	return orders, true
}

func (s *Store) copyToBackup() {
	data, err := os.ReadFile(s.path())
	if err != nil {
		return
	}
	if err := os.WriteFile(s.backupPath(), data, 0644); err != nil {
		s.logger.Printf("Failed to refresh backup: %v", err)
	}
}

func (s *Store) restoreFromBackup() bool {
	data, err := os.ReadFile(s.backupPath())
	if err != nil {
		s.logger.Printf("No usable backup: %v", err)
		return false
	}
	if err := os.WriteFile(s.path(), data, 0644); err != nil {
		s.logger.Printf("Failed to restore from backup: %v", err)
		return false
	}
	s.logger.Printf("Restored store from backup")
	return true
}

// ensureInitialized creates an empty document if none exists yet.
func (s *Store) ensureInitialized() {
	if _, err := os.Stat(s.path()); err == nil {
		return
	}
	if err := os.WriteFile(s.path(), []byte("[]"), 0644); err != nil {
		s.logger.Printf("Failed to initialize orders file: %v", err)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
