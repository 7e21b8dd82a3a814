// Package order provides the order record synchronized between a device and
// the central store.
//
// An order is created on the device at checkout time and carries a
// client-generated UUID, so records can be created while offline and merged
// later. Two fields are device-local annotations that never travel to the
// central store: SyncedToCloud and LastModified. CloudCopy strips them before
// upload.
package order

import (
	"fmt"
	"time"
)

// PaymentMethod is how the customer paid.
type PaymentMethod string

const (
	// PaymentCash is a cash payment.
	PaymentCash PaymentMethod = "cash"
	// PaymentPayconiq is a mobile payment via Payconiq.
	PaymentPayconiq PaymentMethod = "payconiq"
)

// LineItem is a single cart line: one menu item at a unit price.
type LineItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Order represents one transaction record.
//
// Version starts at 1 on creation and is incremented by exactly 1 on every
// local mutation. It is the primary conflict-resolution signal: the central
// store only accepts a write whose version is strictly greater than the one
// it already holds. A zero Version marks a legacy record written before
// versioning existed; the resolver treats it as 0 and falls back to
// timestamps.
//
// Timestamps are RFC 3339 strings rather than time.Time so that records
// written by older devices (or hand-edited store files) survive a round trip
// byte for byte.
type Order struct {
	ID            string        `json:"id"`
	Items         []LineItem    `json:"items"`
	Total         float64       `json:"total"`
	AmountPaid    float64       `json:"amountPaid"`
	Change        float64       `json:"change"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Timestamp     string        `json:"timestamp"`
	CustomerName  string        `json:"customerName,omitempty"`
	Version       int           `json:"version,omitempty"`

	// Device-local annotations. Never sent to the central store.
	SyncedToCloud bool   `json:"syncedToCloud,omitempty"`
	LastModified  string `json:"lastModified,omitempty"`

	// DeletedAt is set only on copies living in the soft-deleted slot.
	DeletedAt string `json:"deletedAt,omitempty"`
}

// Validate checks that the record is structurally sound: a non-empty id, an
// items array, and a string timestamp. Records failing this are dropped by
// the integrity checker rather than propagated.
func (o *Order) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("id is required")
	}
	if o.Items == nil {
		return fmt.Errorf("items array is required")
	}
	if o.Timestamp == "" {
		return fmt.Errorf("timestamp is required")
	}
	return nil
}

// CloudCopy returns a copy with the device-local fields stripped, ready to be
// sent to the central store. A missing version is defaulted to 1 so that
// legacy callers still produce a comparable record.
func (o Order) CloudCopy() Order {
	c := o
	c.SyncedToCloud = false
	c.LastModified = ""
	c.DeletedAt = ""
	if c.Version == 0 {
		c.Version = 1
	}
	return c
}

// ModTime returns the record's last modification instant for tie-breaking:
// LastModified when present, otherwise the creation timestamp. Unparseable
// strings yield the zero time, which always loses a strictly-newer check.
func (o *Order) ModTime() time.Time {
	s := o.LastModified
	if s == "" {
		s = o.Timestamp
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Now formats t the way order timestamps are stored.
func Now(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
