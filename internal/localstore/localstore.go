// Package localstore provides the device-side order store.
//
// Orders live in three JSON-encoded slots of a key-value store: the active
// slot, a shadow backup of the active slot, and the soft-deleted slot. Every
// write snapshots the previous active content into the backup first, so a
// corrupted write can always be recovered from. A process-lifetime in-memory
// mirror is kept alongside the durable slots; if the storage medium fails
// completely, reads fall back to the mirror and the device keeps operating in
// memory-only mode until restart.
package localstore

import (
	"encoding/json"
	"log"
	"os"
	"sync"

	"github.com/chiro-bmb/kassa/internal/order"
)

// Slot keys inside the key-value store.
const (
	ActiveKey  = "kassa-orders"
	BackupKey  = "kassa-orders-backup"
	DeletedKey = "kassa-deleted-orders"
)

// Mirror is the process-scoped fallback copy of the active slot.
//
// It is created once at startup and handed to the store explicitly, so the
// fallback path is visible in the wiring instead of hiding behind a package
// global. It lives for the whole process; there is no teardown.
type Mirror struct {
	mu     sync.RWMutex
	orders []order.Order
	filled bool
}

// NewMirror returns an empty mirror.
func NewMirror() *Mirror {
	return &Mirror{}
}

func (m *Mirror) set(orders []order.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append([]order.Order(nil), orders...)
	m.filled = true
}

func (m *Mirror) get() ([]order.Order, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.filled {
		return nil, false
	}
	return append([]order.Order(nil), m.orders...), true
}

// Store is the local record store.
type Store struct {
	kv     KV
	mirror *Mirror
	logger *log.Logger
}

// KV is the slice of the key-value boundary the store needs.
type KV interface {
	GetItem(key string) (value string, ok bool, err error)
	SetItem(key, value string) error
}

// New creates a Store over the given key-value storage.
//
// If logger is nil, a default logger writing to stderr is used.
func New(store KV, mirror *Mirror, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(os.Stderr, "[localstore] ", log.LstdFlags)
	}
	if mirror == nil {
		mirror = NewMirror()
	}
	return &Store{kv: store, mirror: mirror, logger: logger}
}

// List returns all active orders, most recent first.
//
// List never fails: if the active slot is unreadable or corrupt it falls back
// to the backup slot, then to the in-process mirror, and finally to an empty
// list.
func (s *Store) List() []order.Order {
	if orders, ok := s.decodeSlot(ActiveKey); ok {
		s.mirror.set(orders)
		return orders
	}

	s.logger.Printf("Active slot unreadable, trying backup")
	if orders, ok := s.decodeSlot(BackupKey); ok {
		s.logger.Printf("Recovered %d orders from backup slot", len(orders))
		s.mirror.set(orders)
		return orders
	}

	if orders, ok := s.mirror.get(); ok {
		s.logger.Printf("Storage unreadable, serving %d orders from memory", len(orders))
		return orders
	}

	return []order.Order{}
}

// ListRaw returns the raw JSON elements of the active slot, with the same
// fallback chain as List. The integrity checker uses this to detect records
// that decode into something other than a valid order.
func (s *Store) ListRaw() []json.RawMessage {
	for _, key := range []string{ActiveKey, BackupKey} {
		value, ok, err := s.kv.GetItem(key)
		if err != nil || !ok {
			continue
		}
		var raw []json.RawMessage
		if err := json.Unmarshal([]byte(value), &raw); err != nil {
			s.logger.Printf("Failed to parse slot %s: %v", key, err)
			continue
		}
		return raw
	}

	// Mirror contents are well-formed by construction; re-encode them.
	orders, ok := s.mirror.get()
	if !ok {
		return nil
	}
	raw := make([]json.RawMessage, 0, len(orders))
	for _, o := range orders {
		data, err := json.Marshal(o)
		if err != nil {
			continue
		}
		raw = append(raw, data)
	}
	return raw
}

// ReplaceAll overwrites the active slot with the given orders.
//
// The previous active content is snapshotted into the backup slot first, so a
// failed or corrupted write never destroys the last readable state. The
// mirror is updated unconditionally; a storage failure degrades the device to
// memory-only operation instead of losing the records.
func (s *Store) ReplaceAll(orders []order.Order) error {
	// Mirror first: even a total storage failure must not lose this state.
	s.mirror.set(orders)

	if current, ok, err := s.kv.GetItem(ActiveKey); err == nil && ok {
		if err := s.kv.SetItem(BackupKey, current); err != nil {
			s.logger.Printf("Failed to snapshot backup slot: %v", err)
		}
	}

	data, err := json.Marshal(orders)
	if err != nil {
		return err
	}
	if err := s.kv.SetItem(ActiveKey, string(data)); err != nil {
		s.logger.Printf("Failed to write active slot, continuing in memory: %v", err)
		return err
	}

	// Refresh the backup with the same content once the write succeeded.
	if err := s.kv.SetItem(BackupKey, string(data)); err != nil {
		s.logger.Printf("Failed to refresh backup slot: %v", err)
	}
	return nil
}

// decodeSlot reads one slot and decodes it as an order array.
//
// Decoding is per element: a record with a wrong-typed field is skipped with
// a log line instead of failing the slot, so one damaged record can never
// empty the list that mutations are based on. Only an unparseable array
// fails the slot and moves List down the fallback chain.
func (s *Store) decodeSlot(key string) ([]order.Order, bool) {
	value, ok, err := s.kv.GetItem(key)
	if err != nil {
		s.logger.Printf("Failed to read slot %s: %v", key, err)
		return nil, false
	}
	if !ok {
		// An absent active slot is a fresh device, not a failure.
		if key == ActiveKey {
			return []order.Order{}, true
		}
		return nil, false
	}
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(value), &raw); err != nil {
		s.logger.Printf("Failed to parse slot %s: %v", key, err)
		return nil, false
	}
	orders := make([]order.Order, 0, len(raw))
	for _, element := range raw {
		var o order.Order
		if err := json.Unmarshal(element, &o); err != nil {
			s.logger.Printf("Skipping undecodable record in slot %s: %v", key, err)
			continue
		}
		orders = append(orders, o)
	}
	return orders, true
}
