// Package integrity detects and repairs damage in the local order log:
// duplicated identifiers and structurally invalid records.
package integrity

import (
	"encoding/json"
	"log"
	"os"

	"github.com/chiro-bmb/kassa/internal/order"
)

// Report summarizes one integrity pass.
type Report struct {
	// Duplicates is the number of records dropped for reusing an id already
	// seen earlier in the list.
	Duplicates int `json:"duplicates"`
	// Corrupted is the number of records dropped for failing structural
	// validation (missing id, non-array items, non-numeric total, missing
	// timestamp).
	Corrupted int `json:"corrupted"`
	// Fixed is true when anything was dropped and the cleaned set should be
	// written back.
	Fixed bool `json:"fixed"`
}

// Check scans the raw active slot and returns the cleaned order list plus a
// report of what was removed.
//
// For a duplicated id only the first-encountered record is kept; the rest
// are discarded. A record is valid iff it has a non-empty id, an array-typed
// items field, a numeric total, and a string timestamp; anything else is
// counted as corrupted and dropped.
//
// If logger is nil, a default logger writing to stderr is used.
func Check(raw []json.RawMessage, logger *log.Logger) ([]order.Order, Report) {
	if logger == nil {
		logger = log.New(os.Stderr, "[integrity] ", log.LstdFlags)
	}

	var report Report
	seen := make(map[string]bool, len(raw))
	clean := make([]order.Order, 0, len(raw))

	for _, element := range raw {
		var o order.Order
		if err := json.Unmarshal(element, &o); err != nil {
			report.Corrupted++
			logger.Printf("Dropping corrupted record: %v", err)
			continue
		}
		if err := o.Validate(); err != nil {
			report.Corrupted++
			logger.Printf("Dropping invalid record %q: %v", o.ID, err)
			continue
		}
		if !hasTotal(element) {
			report.Corrupted++
			logger.Printf("Dropping record %q: missing total", o.ID)
			continue
		}
		if seen[o.ID] {
			report.Duplicates++
			logger.Printf("Duplicate order id %s, keeping first occurrence", o.ID)
			continue
		}
		seen[o.ID] = true
		clean = append(clean, o)
	}

	report.Fixed = report.Duplicates > 0 || report.Corrupted > 0
	return clean, report
}

// hasTotal reports whether the raw element carries a numeric total key. The
// decoded struct cannot tell a missing total from a zero one, so the raw
// element is inspected separately.
func hasTotal(element json.RawMessage) bool {
	var fields struct {
		Total *float64 `json:"total"`
	}
	if err := json.Unmarshal(element, &fields); err != nil {
		return false
	}
	return fields.Total != nil
}
