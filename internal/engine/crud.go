package engine

import (
	"fmt"

	"github.com/chiro-bmb/kassa/internal/order"
)

// Create persists a new order from the given draft.
//
// The draft's identity and sync metadata are overwritten: a fresh UUID is
// assigned, version starts at 1 and the record is unsynced. The order is
// prepended to the local store (most-recent-first is a product convenience,
// not a correctness requirement), then a best-effort push to the central
// store is attempted; a failed push leaves the record unsynced for the next
// reconciliation pass.
//
// The id-collision guard retries with a fresh UUID a bounded number of times
// and then fails loudly rather than recursing forever.
func (e *Engine) Create(draft order.Order) (order.Order, error) {
	newOrder := draft
	newOrder.SyncedToCloud = false
	newOrder.Version = 1
	newOrder.LastModified = e.now()
	newOrder.DeletedAt = ""
	if newOrder.Timestamp == "" {
		newOrder.Timestamp = e.now()
	}
	if newOrder.Items == nil {
		newOrder.Items = []order.LineItem{}
	}

	e.mu.Lock()
	orders := e.local.List()

	assigned := false
	for attempt := 0; attempt < e.config.MaxIDAttempts; attempt++ {
		id := e.config.NewID()
		if containsID(orders, id) {
			e.config.Logger.Printf("Duplicate order id generated, retrying (attempt %d)", attempt+1)
			continue
		}
		newOrder.ID = id
		assigned = true
		break
	}
	if !assigned {
		e.mu.Unlock()
		return order.Order{}, fmt.Errorf("%w after %d attempts", ErrIDCollision, e.config.MaxIDAttempts)
	}

	orders = append([]order.Order{newOrder}, orders...)
	if err := e.local.ReplaceAll(orders); err != nil {
		e.config.Logger.Printf("Local write failed, order %s held in memory: %v", newOrder.ID, err)
	}
	e.mu.Unlock()

	e.config.Events.OrderChanged("created", newOrder)

	if e.pushBestEffort(newOrder) {
		e.markSynced(newOrder.ID, newOrder.Version, true)
		newOrder.SyncedToCloud = true
	}
	return newOrder, nil
}

// Update applies a user edit to an existing order.
//
// The incoming record carries the version the editor fetched; if the store
// meanwhile holds a higher version the edit is rejected with ErrConflict and
// nothing is mutated. Otherwise the version is incremented by one, the record
// is marked unsynced and persisted, and a best-effort push is attempted.
//
// ErrNotFound is returned when the id is not in the active local store.
func (e *Engine) Update(o order.Order) (order.Order, error) {
	e.mu.Lock()
	orders := e.local.List()

	index := -1
	for i := range orders {
		if orders[i].ID == o.ID {
			index = i
			break
		}
	}
	if index == -1 {
		e.mu.Unlock()
		return order.Order{}, fmt.Errorf("update %s: %w", o.ID, ErrNotFound)
	}
	if stored := orders[index]; o.Version < stored.Version {
		e.mu.Unlock()
		return order.Order{}, fmt.Errorf("update %s: %w (stored version %d, incoming %d)",
			o.ID, ErrConflict, stored.Version, o.Version)
	}

	updated := o
	updated.Version = o.Version + 1
	updated.SyncedToCloud = false
	updated.LastModified = e.now()
	updated.DeletedAt = ""

	orders[index] = updated
	if err := e.local.ReplaceAll(orders); err != nil {
		e.config.Logger.Printf("Local write failed for update of %s: %v", o.ID, err)
	}
	e.mu.Unlock()

	e.config.Events.OrderChanged("updated", updated)

	if e.pushBestEffort(updated) {
		e.markSynced(updated.ID, updated.Version, true)
		updated.SyncedToCloud = true
	}
	return updated, nil
}

// Delete soft-deletes an order: a timestamped copy is appended to the
// soft-deleted slot, the record is removed from the active store, and a
// best-effort remote delete is attempted. A failed remote delete does not
// block the operation; the record is deleted locally regardless.
//
// ErrNotFound is returned when the id is not in the active local store.
func (e *Engine) Delete(id string) error {
	e.mu.Lock()
	orders := e.local.List()

	index := -1
	for i := range orders {
		if orders[i].ID == id {
			index = i
			break
		}
	}
	if index == -1 {
		e.mu.Unlock()
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}

	tombstone := orders[index]
	tombstone.DeletedAt = e.now()
	if err := e.local.AppendDeleted(tombstone); err != nil {
		// Proceed with the deletion anyway; the slot write already logged.
		e.config.Logger.Printf("Could not preserve deleted copy of %s: %v", id, err)
	}

	remaining := append(append([]order.Order(nil), orders[:index]...), orders[index+1:]...)
	if err := e.local.ReplaceAll(remaining); err != nil {
		e.config.Logger.Printf("Local write failed for delete of %s: %v", id, err)
	}
	e.mu.Unlock()

	e.config.Events.OrderChanged("deleted", tombstone)

	if e.Online() {
		if err := e.remote.Delete(id); err != nil {
			e.config.Logger.Printf("Failed to delete order %s from central store: %v", id, err)
		}
	}
	return nil
}

// Recover restores a soft-deleted order to the active set with a fresh,
// higher version and the unsynced flag, then attempts a best-effort push.
//
// ErrNotFound is returned when the id is not in the soft-deleted slot;
// ErrExists when an active record with that id already exists.
func (e *Engine) Recover(id string) (order.Order, error) {
	e.mu.Lock()

	orders := e.local.List()
	if containsID(orders, id) {
		e.mu.Unlock()
		return order.Order{}, fmt.Errorf("recover %s: %w", id, ErrExists)
	}

	tombstone, ok := e.local.RemoveDeleted(id)
	if !ok {
		e.mu.Unlock()
		return order.Order{}, fmt.Errorf("recover %s: %w", id, ErrNotFound)
	}

	recovered := tombstone
	recovered.DeletedAt = ""
	recovered.Version = tombstone.Version + 1
	recovered.SyncedToCloud = false
	recovered.LastModified = e.now()

	orders = append(orders, recovered)
	if err := e.local.ReplaceAll(orders); err != nil {
		e.config.Logger.Printf("Local write failed for recover of %s: %v", id, err)
	}
	e.mu.Unlock()

	e.config.Events.OrderChanged("recovered", recovered)

	if e.pushBestEffort(recovered) {
		e.markSynced(recovered.ID, recovered.Version, false)
		recovered.SyncedToCloud = true
	}
	return recovered, nil
}

func containsID(orders []order.Order, id string) bool {
	for i := range orders {
		if orders[i].ID == id {
			return true
		}
	}
	return false
}
