package handler

import (
	"context"
	"time"

	"talent-match/internal/delivery/http/dto"
	"talent-match/internal/delivery/http/middleware"
	"talent-match/internal/pkg/response"
	"talent-match/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

const searchCachePattern = "match:search:*"

type TaxonomyRefresher interface {
	Refresh(ctx context.Context) (*usecase.TaxonomyView, error)
}

type CacheEvicter interface {
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
}

type TaxonomyHandler struct {
	snapshot TaxonomyRefresher
	cache    CacheEvicter
	logger   *zap.Logger
}

func NewTaxonomyHandler(snapshot TaxonomyRefresher, cache CacheEvicter, logger *zap.Logger) *TaxonomyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaxonomyHandler{snapshot: snapshot, cache: cache, logger: logger}
}

func (h *TaxonomyHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/taxonomy/reload", h.Reload)
}

// Reload swaps in a fresh taxonomy snapshot. Cached search pages are keyed by
// taxonomy version so they would expire on their own; evicting them frees
// memory early.
func (h *TaxonomyHandler) Reload(c fiber.Ctx) error {
	view, err := h.snapshot.Refresh(c.Context())
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}

	evicted := 0
	if h.cache != nil {
		n, err := h.cache.DeleteByPattern(c.Context(), searchCachePattern)
		if err != nil {
			h.logger.Warn("search cache eviction failed", zap.Error(err))
		}
		evicted = n
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.TaxonomyReloadResponse{
		Version:      view.Version,
		Generation:   view.Generation,
		Nodes:        view.Graph.Len(),
		LoadedAt:     view.LoadedAt.UTC().Format(time.RFC3339),
		CacheEvicted: evicted,
	})
}
