package engine

import (
	"time"

	"github.com/chiro-bmb/kassa/internal/order"
	"github.com/chiro-bmb/kassa/internal/resolve"
)

// SyncResult summarizes one full reconciliation pass.
type SyncResult struct {
	// Uploaded is the number of local records the central store accepted
	// during the upload phase.
	Uploaded int `json:"uploaded"`
	// Downloaded is the number of records added or updated locally during
	// the download phase.
	Downloaded int `json:"downloaded"`
	// Duration is how long the pass took.
	Duration time.Duration `json:"duration"`
}

// FullSync runs the two-way reconciliation pass: upload unsynced local
// records, then download and merge the remote set.
//
// FullSync never runs while offline; it returns an immediate zero result.
// The two phases always both execute: each catches and logs its own failures
// and reports a partial count rather than aborting the pass. Overlapping
// invocations (timer, reconnect, manual) queue behind a sync mutex so their
// batched writes cannot interleave.
func (e *Engine) FullSync() SyncResult {
	if !e.Online() {
		e.config.Logger.Printf("Skipping sync: device is offline")
		return SyncResult{}
	}

	e.syncMu.Lock()
	defer e.syncMu.Unlock()

	start := e.config.Clock()
	result := SyncResult{
		Uploaded:   e.uploadLocalOrders(),
		Downloaded: e.downloadRemoteOrders(),
	}
	result.Duration = e.config.Clock().Sub(start)

	e.config.Logger.Printf("Sync complete: uploaded=%d downloaded=%d duration=%v",
		result.Uploaded, result.Downloaded, result.Duration.Round(time.Millisecond))
	e.config.Events.SyncCompleted(result)
	return result
}

// uploadLocalOrders pushes every unsynced local record to the central store.
//
// Successful pushes are applied back to the local store in a single batched
// write at the end of the phase: each uploaded record is marked synced,
// stamped, and has its version incremented by one. A record the user edited
// while the push was in flight is left alone and retried next pass.
func (e *Engine) uploadLocalOrders() int {
	snapshot := e.snapshotLocal()

	// pushed maps order id to the local version it had when pushed.
	pushed := make(map[string]int)
	for _, o := range snapshot {
		if o.SyncedToCloud {
			continue
		}
		if _, err := e.remote.Upsert(o.CloudCopy()); err != nil {
			e.config.Logger.Printf("Failed to upload order %s: %v", o.ID, err)
			continue
		}
		pushed[o.ID] = o.Version
	}
	if len(pushed) == 0 {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	orders := e.local.List()
	changed := false
	for i := range orders {
		base, ok := pushed[orders[i].ID]
		if !ok || orders[i].SyncedToCloud || orders[i].Version != base {
			continue
		}
		orders[i].SyncedToCloud = true
		orders[i].LastModified = e.now()
		orders[i].Version++
		changed = true
	}
	if changed {
		if err := e.local.ReplaceAll(orders); err != nil {
			e.config.Logger.Printf("Failed to persist upload results: %v", err)
		}
	}
	return len(pushed)
}

// downloadRemoteOrders fetches the full remote set and merges it into the
// local store via the conflict resolver. Remote-wins outcomes are applied to
// a working copy and persisted in one batched write if anything changed.
func (e *Engine) downloadRemoteOrders() int {
	remoteOrders := e.remote.List()

	e.mu.Lock()
	defer e.mu.Unlock()

	working := e.local.List()
	byID := make(map[string]int, len(working))
	for i := range working {
		byID[working[i].ID] = i
	}

	now := e.config.Clock()
	added, updated := 0, 0
	for _, remote := range remoteOrders {
		index, exists := byID[remote.ID]
		if !exists {
			merged, _ := resolve.Resolve(nil, remote, now)
			working = append(working, merged)
			byID[merged.ID] = len(working) - 1
			added++
			continue
		}
		local := working[index]
		merged, decision := resolve.Resolve(&local, remote, now)
		if decision == resolve.KeepRemote {
			working[index] = merged
			updated++
		}
	}

	if added+updated > 0 {
		if err := e.local.ReplaceAll(working); err != nil {
			e.config.Logger.Printf("Failed to persist download results: %v", err)
		}
		e.config.Logger.Printf("Download merged %d new and %d updated orders", added, updated)
	}
	return added + updated
}

func (e *Engine) snapshotLocal() []order.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.local.List()
}
