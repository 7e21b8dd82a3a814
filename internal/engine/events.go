package engine

import (
	"github.com/chiro-bmb/kassa/internal/integrity"
	"github.com/chiro-bmb/kassa/internal/order"
)

// Events receives engine telemetry. Implementations must not block; the
// engine calls them synchronously from mutation and sync paths.
type Events interface {
	// OrderChanged fires after a local mutation was persisted.
	// Action is one of "created", "updated", "deleted", "recovered".
	OrderChanged(action string, o order.Order)

	// SyncCompleted fires after every full reconciliation pass, including
	// no-op passes.
	SyncCompleted(result SyncResult)

	// IntegrityChecked fires after an integrity pass.
	IntegrityChecked(report integrity.Report)

	// OnlineChanged fires when the pushed connectivity state flips.
	OnlineChanged(online bool)
}

// NopEvents discards all telemetry.
type NopEvents struct{}

func (NopEvents) OrderChanged(string, order.Order)  {}
func (NopEvents) SyncCompleted(SyncResult)          {}
func (NopEvents) IntegrityChecked(integrity.Report) {}
func (NopEvents) OnlineChanged(bool)                {}
