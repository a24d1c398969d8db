package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

// EdgeHandler serves the computed-edge endpoints.
type EdgeHandler struct {
	edges  domain.EdgeStore
	logger *slog.Logger
}

// NewEdgeHandler creates an EdgeHandler backed by the given store.
func NewEdgeHandler(edges domain.EdgeStore, logger *slog.Logger) *EdgeHandler {
	return &EdgeHandler{
		edges:  edges,
		logger: logHandler(logger, "edges"),
	}
}

// ListRecent returns the most recently computed edges, newest first.
// GET /api/edges/recent?limit=50
func (h *EdgeHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r)

	recs, err := h.edges.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("list recent edges", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list edges")
		return
	}
	if recs == nil {
		recs = []domain.EdgeRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"edges": recs,
		"count": len(recs),
	})
}
