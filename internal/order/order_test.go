package order

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	valid := Order{
		ID:        "o-1",
		Items:     []LineItem{{Name: "cola", Price: 2, Quantity: 1}},
		Total:     2,
		Timestamp: "2026-06-01T12:00:00Z",
	}

	tests := []struct {
		name    string
		mutate  func(*Order)
		wantErr bool
	}{
		{
			name:    "valid order",
			mutate:  func(o *Order) {},
			wantErr: false,
		},
		{
			name:    "empty items is still an array",
			mutate:  func(o *Order) { o.Items = []LineItem{} },
			wantErr: false,
		},
		{
			name:    "missing id",
			mutate:  func(o *Order) { o.ID = "" },
			wantErr: true,
		},
		{
			name:    "missing items",
			mutate:  func(o *Order) { o.Items = nil },
			wantErr: true,
		},
		{
			name:    "missing timestamp",
			mutate:  func(o *Order) { o.Timestamp = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := valid
			tt.mutate(&o)
			err := o.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCloudCopyStripsLocalFields(t *testing.T) {
	o := Order{
		ID:            "o-1",
		Items:         []LineItem{},
		Timestamp:     "2026-06-01T12:00:00Z",
		Version:       3,
		SyncedToCloud: true,
		LastModified:  "2026-06-01T13:00:00Z",
		DeletedAt:     "2026-06-01T14:00:00Z",
	}

	c := o.CloudCopy()
	if c.SyncedToCloud || c.LastModified != "" || c.DeletedAt != "" {
		t.Errorf("CloudCopy kept local-only fields: %+v", c)
	}
	if c.Version != 3 {
		t.Errorf("CloudCopy changed version: got %d, want 3", c.Version)
	}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for _, field := range []string{"syncedToCloud", "lastModified", "deletedAt"} {
		if strings.Contains(string(data), field) {
			t.Errorf("wire form contains local-only field %s: %s", field, data)
		}
	}
}

func TestCloudCopyDefaultsLegacyVersion(t *testing.T) {
	o := Order{ID: "o-1", Items: []LineItem{}, Timestamp: "2026-06-01T12:00:00Z"}
	if got := o.CloudCopy().Version; got != 1 {
		t.Errorf("CloudCopy version = %d, want 1", got)
	}
}

func TestModTime(t *testing.T) {
	tests := []struct {
		name         string
		timestamp    string
		lastModified string
		want         string
	}{
		{
			name:         "prefers lastModified",
			timestamp:    "2026-06-01T12:00:00Z",
			lastModified: "2026-06-01T15:00:00Z",
			want:         "2026-06-01T15:00:00Z",
		},
		{
			name:      "falls back to timestamp",
			timestamp: "2026-06-01T12:00:00Z",
			want:      "2026-06-01T12:00:00Z",
		},
		{
			name:      "unparseable yields zero time",
			timestamp: "yesterday-ish",
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Order{Timestamp: tt.timestamp, LastModified: tt.lastModified}
			got := o.ModTime()
			if tt.want == "" {
				if !got.IsZero() {
					t.Errorf("ModTime() = %v, want zero time", got)
				}
				return
			}
			want, _ := time.Parse(time.RFC3339, tt.want)
			if !got.Equal(want) {
				t.Errorf("ModTime() = %v, want %v", got, want)
			}
		})
	}
}
