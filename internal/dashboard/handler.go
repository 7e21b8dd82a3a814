package dashboard

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/chiro-bmb/kassa/internal/engine"
	"github.com/chiro-bmb/kassa/internal/integrity"
	"github.com/chiro-bmb/kassa/internal/order"
)

// OrderUpdateData contains order change information
type OrderUpdateData struct {
	OrderID string  `json:"order_id"`
	Action  string  `json:"action"` // created, updated, deleted, recovered
	Total   float64 `json:"total,omitempty"`
	Version int     `json:"version,omitempty"`
	Synced  bool    `json:"synced"`
}

// SyncCompleteData contains reconciliation pass information
type SyncCompleteData struct {
	Uploaded   int           `json:"uploaded"`
	Downloaded int           `json:"downloaded"`
	Duration   time.Duration `json:"duration"`
}

// StatsData accumulates counters since the handler was created
type StatsData struct {
	TotalSyncs      int `json:"total_syncs"`
	TotalUploaded   int `json:"total_uploaded"`
	TotalDownloaded int `json:"total_downloaded"`
	TotalRepaired   int `json:"total_repaired"`
}

// Handler bridges engine telemetry to the WebSocket server. It implements
// engine.Events.
type Handler struct {
	server *Server
	logger *log.Logger

	statsMu sync.Mutex
	stats   StatsData
}

// NewHandler creates an event handler connected to a dashboard server
func NewHandler(server *Server, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{server: server, logger: logger}
}

// Stats returns a copy of the accumulated counters.
func (h *Handler) Stats() StatsData {
	h.statsMu.Lock()
	defer h.statsMu.Unlock()
	return h.stats
}

// OrderChanged implements engine.Events.
func (h *Handler) OrderChanged(action string, o order.Order) {
	h.post(MessageTypeOrderUpdate, OrderUpdateData{
		OrderID: o.ID,
		Action:  action,
		Total:   o.Total,
		Version: o.Version,
		Synced:  o.SyncedToCloud,
	})
}

// SyncCompleted implements engine.Events.
func (h *Handler) SyncCompleted(result engine.SyncResult) {
	h.statsMu.Lock()
	h.stats.TotalSyncs++
	h.stats.TotalUploaded += result.Uploaded
	h.stats.TotalDownloaded += result.Downloaded
	h.statsMu.Unlock()

	h.post(MessageTypeSyncComplete, SyncCompleteData{
		Uploaded:   result.Uploaded,
		Downloaded: result.Downloaded,
		Duration:   result.Duration,
	})
}

// IntegrityChecked implements engine.Events.
func (h *Handler) IntegrityChecked(report integrity.Report) {
	h.statsMu.Lock()
	h.stats.TotalRepaired += report.Duplicates + report.Corrupted
	h.statsMu.Unlock()

	h.post(MessageTypeIntegrity, report)
}

// OnlineChanged implements engine.Events.
func (h *Handler) OnlineChanged(online bool) {
	h.post(MessageTypeOnline, map[string]bool{"online": online})
}

func (h *Handler) post(typ MessageType, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal %s data: %v", typ, err)
		return
	}
	h.server.Broadcast(Message{
		Type:      typ,
		Timestamp: time.Now(),
		Data:      payload,
	})
}
