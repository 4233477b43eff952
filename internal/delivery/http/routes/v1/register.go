package v1

import (
	"talent-match/internal/delivery/http/handler"

	"github.com/gofiber/fiber/v3"
)

// Handlers groups the v1 endpoints. A nil handler leaves its routes
// unregistered.
type Handlers struct {
	Match    *handler.MatchHandler
	Taxonomy *handler.TaxonomyHandler
}

func Register(r fiber.Router, h Handlers) {
	if r == nil {
		return
	}

	if h.Match != nil {
		h.Match.RegisterRoutes(r)
	}
	if h.Taxonomy != nil {
		h.Taxonomy.RegisterRoutes(r)
	}
}
