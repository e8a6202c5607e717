// AngelaMos | 2026
// handler.go

package asset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/templates/asset-manager/internal/core"
	"github.com/carterperez-dev/templates/asset-manager/internal/middleware"
)

const multipartMemory = 8 << 20

type Handler struct {
	service   *Service
	validator *validator.Validate
	now       func() time.Time
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
		now:       time.Now,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/assets", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/export", h.Export)
		r.Post("/register-warranty", h.RegisterWarranty)
		r.Get("/{assetID}", h.Get)
	})
}

// RegisterAdminRoutes mounts asset administration on a router that
// already enforces the admin role.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/assets", func(r chi.Router) {
		r.Get("/", h.AdminList)
		r.Get("/export", h.AdminExport)
		r.Delete("/{assetID}", h.Delete)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Guard(r.Context(), middleware.RoleUser)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	var (
		req     CreateAssetRequest
		uploads []Upload
	)

	if isMultipart(r) {
		var cleanup func()
		req, uploads, cleanup, err = h.parseMultipart(r)
		if cleanup != nil {
			defer cleanup()
		}
	} else {
		err = json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			err = core.InvalidInputError("invalid request body")
		}
	}
	if err != nil {
		core.JSONError(w, err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Create(r.Context(), caller, req, uploads)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, resp)
}

func (h *Handler) parseMultipart(
	r *http.Request,
) (CreateAssetRequest, []Upload, func(), error) {
	var req CreateAssetRequest

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return req, nil, nil, core.InvalidInputError("invalid multipart form")
	}

	form := r.MultipartForm
	cleanup := func() {
		//nolint:errcheck // temp files only
		_ = form.RemoveAll()
	}

	req.Name = r.FormValue("name")
	req.Category = r.FormValue("category")
	req.Department = r.FormValue("department")
	req.DatePurchased = r.FormValue("date_purchased")
	req.Status = r.FormValue("status")
	req.Description = r.FormValue("description")

	if raw := strings.TrimSpace(r.FormValue("cost")); raw != "" {
		cost, err := decimal.NewFromString(raw)
		if err != nil {
			return req, nil, cleanup, core.InvalidInputError("cost must be a number")
		}
		req.Cost = &cost
	}

	var uploads []Upload
	for _, fh := range form.File["images"] {
		if fh.Size == 0 {
			continue
		}

		f, err := fh.Open()
		if err != nil {
			continue
		}

		prev := cleanup
		cleanup = func() {
			//nolint:errcheck // read-only upload handle
			_ = f.Close()
			prev()
		}

		uploads = append(uploads, Upload{Filename: fh.Filename, Body: f})
	}

	return req, uploads, cleanup, nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Guard(r.Context(), middleware.RoleUser)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	resp, err := h.service.List(r.Context(), caller, filterFromQuery(r))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.Guard(r.Context(), middleware.RoleAdmin); err != nil {
		core.JSONError(w, err)
		return
	}

	resp, err := h.service.ListAll(r.Context(), filterFromQuery(r))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, resp)
}

func filterFromQuery(r *http.Request) ListFilter {
	q := r.URL.Query()
	return ListFilter{
		Category:   strings.TrimSpace(q.Get("category")),
		Department: strings.TrimSpace(q.Get("department")),
		Status:     strings.TrimSpace(q.Get("status")),
		Search:     strings.TrimSpace(q.Get("search")),
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Guard(r.Context(), middleware.RoleUser)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	a, err := h.service.Get(r.Context(), caller, chi.URLParam(r, "assetID"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, map[string]AssetResponse{"asset": ToAssetResponse(a)})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.Guard(r.Context(), middleware.RoleAdmin); err != nil {
		core.JSONError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "assetID")); err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, map[string]bool{"success": true})
}

func (h *Handler) RegisterWarranty(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Guard(r.Context(), middleware.RoleUser)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	var req RegisterWarrantyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.RegisterWarranty(r.Context(), caller, req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, middleware.RoleUser)
}

func (h *Handler) AdminExport(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, middleware.RoleAdmin)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, role string) {
	caller, err := middleware.Guard(r.Context(), role)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatPDF {
		core.BadRequest(w, "format must be one of: csv pdf")
		return
	}

	assets, err := h.service.Export(r.Context(), caller, role == middleware.RoleAdmin)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	now := h.now()
	var buf bytes.Buffer
	contentType := "text/csv; charset=utf-8"

	if format == FormatPDF {
		contentType = "application/pdf"
		title := "My Assets"
		if role == middleware.RoleAdmin {
			title = "All Assets"
		}
		err = WritePDF(&buf, title, assets, now)
	} else {
		err = WriteCSV(&buf, assets)
	}
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", ExportFilename(format, now)))
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // best-effort response write
	_, _ = buf.WriteTo(w)
}
