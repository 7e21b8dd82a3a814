package kv

import (
	"path/filepath"
	"testing"
)

// storeUnderTest exercises the Store contract shared by all implementations.
func storeUnderTest(t *testing.T, s Store) {
	t.Helper()

	if _, ok, err := s.GetItem("absent"); err != nil || ok {
		t.Fatalf("GetItem(absent) = ok=%v err=%v, want miss without error", ok, err)
	}

	if err := s.SetItem("slot", "first"); err != nil {
		t.Fatalf("SetItem() error: %v", err)
	}
	value, ok, err := s.GetItem("slot")
	if err != nil || !ok {
		t.Fatalf("GetItem(slot) = ok=%v err=%v, want hit", ok, err)
	}
	if value != "first" {
		t.Errorf("GetItem(slot) = %q, want %q", value, "first")
	}

	if err := s.SetItem("slot", "second"); err != nil {
		t.Fatalf("SetItem() overwrite error: %v", err)
	}
	value, _, _ = s.GetItem("slot")
	if value != "second" {
		t.Errorf("GetItem(slot) after overwrite = %q, want %q", value, "second")
	}
}

func TestMemoryStore(t *testing.T) {
	storeUnderTest(t, NewMemory())
}

func TestDirStore(t *testing.T) {
	s, err := OpenDir(filepath.Join(t.TempDir(), "state"))
	if err != nil {
		t.Fatalf("OpenDir() error: %v", err)
	}
	storeUnderTest(t, s)
}

func TestDirStoreFlattensPathSeparators(t *testing.T) {
	root := filepath.Join(t.TempDir(), "state")
	s, err := OpenDir(root)
	if err != nil {
		t.Fatal(err)
	}

	key := "nested/slot"
	if err := s.SetItem(key, "v"); err != nil {
		t.Fatalf("SetItem() error: %v", err)
	}
	value, ok, err := s.GetItem(key)
	if err != nil || !ok || value != "v" {
		t.Fatalf("GetItem(%q) = %q ok=%v err=%v", key, value, ok, err)
	}

	// The file must live directly under the state directory.
	matches, err := filepath.Glob(filepath.Join(root, "*.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Errorf("found %d slot files directly under root, want 1", len(matches))
	}
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	defer s.Close()

	storeUnderTest(t, s)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetItem("slot", "kept"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer reopened.Close()

	value, ok, err := reopened.GetItem("slot")
	if err != nil || !ok || value != "kept" {
		t.Fatalf("GetItem(slot) after reopen = %q ok=%v err=%v", value, ok, err)
	}
}
