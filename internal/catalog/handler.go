// AngelaMos | 2026
// handler.go

package catalog

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/asset-manager/internal/core"
	"github.com/carterperez-dev/templates/asset-manager/internal/middleware"
)

type Handler struct {
	service   *Service
	kind      Kind
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		kind:      service.Kind(),
		validator: core.NewValidator(),
	}
}

// RegisterRoutes exposes the read-only list to any signed-in user; the
// asset form needs it.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/"+h.kind.Plural, h.List)
}

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/"+h.kind.Plural, func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.Guard(r.Context(), middleware.RoleUser); err != nil {
		core.JSONError(w, err)
		return
	}

	entries, err := h.service.List(r.Context())
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, map[string][]Entry{h.kind.Plural: entries})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.Guard(r.Context(), middleware.RoleAdmin); err != nil {
		core.JSONError(w, err)
		return
	}

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	entry, err := h.service.Create(r.Context(), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, map[string]any{"success": true, h.kind.Singular: entry})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.Guard(r.Context(), middleware.RoleAdmin); err != nil {
		core.JSONError(w, err)
		return
	}

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	entry, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, map[string]any{"success": true, h.kind.Singular: entry})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.Guard(r.Context(), middleware.RoleAdmin); err != nil {
		core.JSONError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, map[string]bool{"success": true})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (EntryRequest, bool) {
	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return req, false
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return req, false
	}

	return req, true
}
