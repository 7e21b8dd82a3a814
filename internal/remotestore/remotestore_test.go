package remotestore

import (
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/chiro-bmb/kassa/internal/order"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	return New(dir, log.New(io.Discard, "", 0)), dir
}

func remoteOrder(id string, version int) order.Order {
	return order.Order{
		ID:        id,
		Items:     []order.LineItem{{Name: "waffle", Price: 3, Quantity: 1}},
		Total:     3,
		Timestamp: "2026-06-01T12:00:00Z",
		Version:   version,
	}
}

func TestListEmptyStore(t *testing.T) {
	s, dir := newTestStore(t)

	orders := s.List()
	if len(orders) != 0 {
		t.Fatalf("List() returned %d orders, want 0", len(orders))
	}

	// The store initializes an empty document on first access.
	if _, err := os.Stat(filepath.Join(dir, "orders.json")); err != nil {
		t.Errorf("orders.json not created: %v", err)
	}
}

func TestUpsertInsertsNewRecord(t *testing.T) {
	s, _ := newTestStore(t)

	status, err := s.Upsert(remoteOrder("a", 1))
	if err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	if status != Inserted {
		t.Errorf("Upsert() status = %v, want Inserted", status)
	}

	orders := s.List()
	if len(orders) != 1 || orders[0].ID != "a" {
		t.Fatalf("List() = %+v, want the inserted record", orders)
	}
}

func TestUpsertDefaultsLegacyInsertToVersionOne(t *testing.T) {
	s, _ := newTestStore(t)

	if _, err := s.Upsert(remoteOrder("legacy", 0)); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	if got := s.List()[0].Version; got != 1 {
		t.Errorf("inserted legacy record has version %d, want 1", got)
	}
}

func TestUpsertWriteRule(t *testing.T) {
	tests := []struct {
		name       string
		existing   int
		incoming   int
		wantStatus UpsertStatus
		wantStored int
	}{
		{"newer version overwrites", 2, 3, Updated, 3},
		{"equal version skipped", 2, 2, Skipped, 2},
		{"older version skipped", 3, 2, Skipped, 3},
		{"legacy incoming overwrites", 2, 0, Updated, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			if _, err := s.Upsert(remoteOrder("x", tt.existing)); err != nil {
				t.Fatalf("seed Upsert() error: %v", err)
			}

			status, err := s.Upsert(remoteOrder("x", tt.incoming))
			if err != nil {
				t.Fatalf("Upsert() error: %v", err)
			}
			if status != tt.wantStatus {
				t.Errorf("Upsert() status = %v, want %v", status, tt.wantStatus)
			}
			if got := s.List()[0].Version; got != tt.wantStored {
				t.Errorf("stored version = %d, want %d", got, tt.wantStored)
			}
		})
	}
}

func TestUpdateRejectsStaleVersion(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.Upsert(remoteOrder("x", 3)); err != nil {
		t.Fatalf("seed Upsert() error: %v", err)
	}

	err := s.Update(remoteOrder("x", 2))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Update() error = %v, want ErrConflict", err)
	}
	if got := s.List()[0].Version; got != 3 {
		t.Errorf("stored version changed to %d after rejected update", got)
	}

	if err := s.Update(remoteOrder("x", 4)); err != nil {
		t.Fatalf("Update() with newer version error: %v", err)
	}
	if got := s.List()[0].Version; got != 4 {
		t.Errorf("stored version = %d, want 4", got)
	}
}

func TestUpdateUnknownID(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.Update(remoteOrder("missing", 1)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.Upsert(remoteOrder("a", 1)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Upsert(remoteOrder("b", 1)); err != nil {
		t.Fatal(err)
	}

	if err := s.Delete("a"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	orders := s.List()
	if len(orders) != 1 || orders[0].ID != "b" {
		t.Fatalf("List() after delete = %+v, want only b", orders)
	}

	if err := s.Delete("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() of missing id error = %v, want ErrNotFound", err)
	}
}

func TestRecoversFromCorruptMainDocument(t *testing.T) {
	s, dir := newTestStore(t)
	if _, err := s.Upsert(remoteOrder("a", 1)); err != nil {
		t.Fatal(err)
	}
	// A read refreshes the backup copy.
	s.List()

	if err := os.WriteFile(filepath.Join(dir, "orders.json"), []byte("{corrupt"), 0644); err != nil {
		t.Fatal(err)
	}

	orders := s.List()
	if len(orders) != 1 || orders[0].ID != "a" {
		t.Fatalf("List() after corruption = %+v, want restored record", orders)
	}

	// The main document itself must have been repaired, not just the
	// returned slice.
	data, err := os.ReadFile(filepath.Join(dir, "orders.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == "{corrupt" {
		t.Error("main document was not restored from backup")
	}
}

func TestServesMemoryWhenDirectoryUnusable(t *testing.T) {
	s, dir := newTestStore(t)
	if _, err := s.Upsert(remoteOrder("a", 1)); err != nil {
		t.Fatal(err)
	}

	// Corrupt both documents; only the in-process fallback remains.
	if err := os.WriteFile(filepath.Join(dir, "orders.json"), []byte("bad"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "orders.backup.json"), []byte("bad"), 0644); err != nil {
		t.Fatal(err)
	}

	orders := s.List()
	if len(orders) != 1 || orders[0].ID != "a" {
		t.Fatalf("List() = %+v, want memory fallback contents", orders)
	}
}
