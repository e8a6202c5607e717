// AngelaMos | 2026
// handler.go

package stats

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/asset-manager/internal/core"
	"github.com/carterperez-dev/templates/asset-manager/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stats/me", h.Mine)
}

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/stats", h.Dashboard)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.Guard(r.Context(), middleware.RoleAdmin); err != nil {
		core.JSONError(w, err)
		return
	}

	dashboard, err := h.service.Dashboard(r.Context())
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, dashboard)
}

func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Guard(r.Context(), middleware.RoleUser)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	summary, err := h.service.ForOwner(r.Context(), caller.ID)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, summary)
}
