package kv

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Dir is a Store that keeps one file per key inside a state directory.
// Useful when SQLite is unavailable and for inspecting slots by hand.
type Dir struct {
	root string
}

// OpenDir creates the state directory if needed and returns a Store over it.
func OpenDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &Dir{root: root}, nil
}

// path maps a slot key to a filename. Keys are simple slot names, but slashes
// are flattened so a key can never escape the state directory.
func (d *Dir) path(key string) string {
	safe := strings.ReplaceAll(key, string(os.PathSeparator), "_")
	return filepath.Join(d.root, safe+".json")
}

// GetItem implements Store.
func (d *Dir) GetItem(key string) (string, bool, error) {
	data, err := os.ReadFile(d.path(key))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read slot %s: %w", key, err)
	}
	return string(data), true, nil
}

// SetItem implements Store. The value is written to a temp file and renamed
// so a crash mid-write cannot leave a half-written slot.
func (d *Dir) SetItem(key, value string) error {
	path := d.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0644); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit slot %s: %w", key, err)
	}
	return nil
}
