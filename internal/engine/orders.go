package engine

import (
	"github.com/chiro-bmb/kassa/internal/integrity"
	"github.com/chiro-bmb/kassa/internal/order"
)

// Orders returns the clean, deduplicated local order list.
//
// If the device is online a full reconciliation pass runs first (failures
// are swallowed; the local list is still served). Every read goes through
// the integrity checker; if it dropped anything the cleaned set is persisted
// before returning.
func (e *Engine) Orders() []order.Order {
	if e.Online() {
		e.FullSync()
	}
	clean, _ := e.checkIntegrity()
	return clean
}

// IntegrityCheck runs one integrity pass over the local store and reports
// what it repaired.
func (e *Engine) IntegrityCheck() integrity.Report {
	_, report := e.checkIntegrity()
	e.config.Events.IntegrityChecked(report)
	return report
}

func (e *Engine) checkIntegrity() ([]order.Order, integrity.Report) {
	e.mu.Lock()
	defer e.mu.Unlock()

	raw := e.local.ListRaw()
	clean, report := integrity.Check(raw, e.config.Logger)
	if report.Fixed {
		e.config.Logger.Printf("Integrity repair: %d duplicates, %d corrupted records removed",
			report.Duplicates, report.Corrupted)
		if err := e.local.ReplaceAll(clean); err != nil {
			e.config.Logger.Printf("Failed to persist integrity repair: %v", err)
		}
	}
	return clean, report
}

// ListDeleted exposes the soft-deleted slot for admin screens.
func (e *Engine) ListDeleted() []order.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.local.ListDeleted()
}
