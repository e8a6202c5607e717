// AngelaMos | 2026
// handler.go

package profile

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
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/profile", func(r chi.Router) {
		r.Post("/request-update", h.RequestUpdate)
		r.Get("/requests", h.ListMine)
	})
}

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/profile-requests", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/approve", h.Decide)
	})
}

func (h *Handler) RequestUpdate(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Guard(r.Context(), middleware.RoleUser)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	var in UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(in); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	req, err := h.service.RequestUpdate(r.Context(), caller, in)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, RequestResponse{Success: true, Request: req})
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Guard(r.Context(), middleware.RoleUser)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	requests, err := h.service.ListMine(r.Context(), caller)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ListResponse{Requests: requests})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.Guard(r.Context(), middleware.RoleAdmin); err != nil {
		core.JSONError(w, err)
		return
	}

	requests, err := h.service.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ListResponse{Requests: requests})
}

func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	reviewer, err := middleware.Guard(r.Context(), middleware.RoleAdmin)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	var in DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(in); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	req, err := h.service.Decide(r.Context(), reviewer, in)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, RequestResponse{Success: true, Request: req})
}
