package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

// SnapshotHandler serves the persisted snapshot endpoints.
type SnapshotHandler struct {
	snapshots domain.SnapshotStore
	logger    *slog.Logger
}

// NewSnapshotHandler creates a SnapshotHandler backed by the given store.
func NewSnapshotHandler(snapshots domain.SnapshotStore, logger *slog.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		snapshots: snapshots,
		logger:    logHandler(logger, "snapshots"),
	}
}

// ListRecent returns the most recently persisted snapshots, newest first.
// GET /api/snapshots/recent?limit=50
func (h *SnapshotHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r)

	recs, err := h.snapshots.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("list recent snapshots", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list snapshots")
		return
	}
	if recs == nil {
		recs = []domain.SnapshotRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"snapshots": recs,
		"count":     len(recs),
	})
}
