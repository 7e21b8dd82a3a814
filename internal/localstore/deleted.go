package localstore

import (
	"encoding/json"

	"github.com/chiro-bmb/kassa/internal/order"
)

// Soft-deleted orders live in their own slot, independent of the active slot
// and its backup. Delete moves a record here; Recover moves it back.

// ListDeleted returns the contents of the soft-deleted slot.
func (s *Store) ListDeleted() []order.Order {
	value, ok, err := s.kv.GetItem(DeletedKey)
	if err != nil || !ok {
		if err != nil {
			s.logger.Printf("Failed to read deleted slot: %v", err)
		}
		return []order.Order{}
	}
	var orders []order.Order
	if err := json.Unmarshal([]byte(value), &orders); err != nil {
		s.logger.Printf("Failed to parse deleted slot: %v", err)
		return []order.Order{}
	}
	return orders
}

// AppendDeleted adds a record to the soft-deleted slot. The caller stamps
// DeletedAt before calling.
func (s *Store) AppendDeleted(o order.Order) error {
	deleted := append(s.ListDeleted(), o)
	return s.writeDeleted(deleted)
}

// RemoveDeleted removes the record with the given id from the soft-deleted
// slot and returns it. The second return is false when no such record exists.
func (s *Store) RemoveDeleted(id string) (order.Order, bool) {
	deleted := s.ListDeleted()
	for i, o := range deleted {
		if o.ID == id {
			remaining := append(append([]order.Order(nil), deleted[:i]...), deleted[i+1:]...)
			if err := s.writeDeleted(remaining); err != nil {
				s.logger.Printf("Failed to update deleted slot: %v", err)
			}
			return o, true
		}
	}
	return order.Order{}, false
}

func (s *Store) writeDeleted(orders []order.Order) error {
	data, err := json.Marshal(orders)
	if err != nil {
		return err
	}
	if err := s.kv.SetItem(DeletedKey, string(data)); err != nil {
		s.logger.Printf("Failed to write deleted slot: %v", err)
		return err
	}
	return nil
}
