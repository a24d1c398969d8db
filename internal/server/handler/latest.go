package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

// LatestEdgeSource reads the most recent edge per tag. The Redis edge cache
// implements it.
type LatestEdgeSource interface {
	GetAll(ctx context.Context, tags []string) (map[string]domain.EdgeRecord, error)
}

// LatestHandler serves the latest edge per registry tag from the cache.
type LatestHandler struct {
	cache  LatestEdgeSource
	tags   []string
	logger *slog.Logger
}

// NewLatestHandler creates a LatestHandler over the given cache and tag set.
func NewLatestHandler(cache LatestEdgeSource, tags []string, logger *slog.Logger) *LatestHandler {
	return &LatestHandler{
		cache:  cache,
		tags:   tags,
		logger: logHandler(logger, "latest"),
	}
}

// Latest returns the most recent cached edge for every registry tag. Tags
// with no cached edge are omitted.
// GET /api/edges/latest
func (h *LatestHandler) Latest(w http.ResponseWriter, r *http.Request) {
	edges, err := h.cache.GetAll(r.Context(), h.tags)
	if err != nil {
		h.logger.Error("read edge cache", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to read edge cache")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"edges": edges,
		"count": len(edges),
	})
}
