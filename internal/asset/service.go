// AngelaMos | 2026
// service.go

package asset

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/asset-manager/internal/auth"
	"github.com/carterperez-dev/templates/asset-manager/internal/core"
	"github.com/carterperez-dev/templates/asset-manager/internal/email"
	"github.com/carterperez-dev/templates/asset-manager/internal/middleware"
	"github.com/carterperez-dev/templates/asset-manager/internal/outbox"
	"github.com/carterperez-dev/templates/asset-manager/internal/storage"
	"github.com/carterperez-dev/templates/asset-manager/internal/warranty"
)

const listUnavailableHint = "Run `assetctl migrate up` or start the API with database.auto_migrate enabled."

type ImageStore interface {
	PutImage(ctx context.Context, r io.Reader, index int) (*storage.Object, error)
	KeyFromURL(url string) (string, bool)
	Delete(ctx context.Context, key string) error
}

type WarrantyClient interface {
	MirrorEnabled() bool
	Register(ctx context.Context, reg warranty.Registration) (json.RawMessage, error)
	Mirror(ctx context.Context, reg warranty.Registration) error
}

type Notifier interface {
	AssetCreated(ctx context.Context, to string, asset email.AssetSummary) bool
}

type Enqueuer interface {
	Enqueue(task outbox.Task) bool
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (*auth.UserInfo, error)
}

type Service struct {
	repo      Repository
	images    ImageStore
	warranty  WarrantyClient
	notifier  Notifier
	queue     Enqueuer
	users     UserLookup
	maxImages int
}

type Deps struct {
	Repo      Repository
	Images    ImageStore
	Warranty  WarrantyClient
	Notifier  Notifier
	Queue     Enqueuer
	Users     UserLookup
	MaxImages int
}

func NewService(d Deps) *Service {
	maxImages := d.MaxImages
	if maxImages <= 0 {
		maxImages = 4
	}

	return &Service{
		repo:      d.Repo,
		images:    d.Images,
		warranty:  d.Warranty,
		notifier:  d.Notifier,
		queue:     d.Queue,
		users:     d.Users,
		maxImages: maxImages,
	}
}

// Create stores the images that can be stored, inserts the asset owned by
// the caller, then queues the confirmation email and the warranty mirror.
func (s *Service) Create(
	ctx context.Context,
	caller *middleware.Caller,
	req CreateAssetRequest,
	uploads []Upload,
) (*CreateAssetResponse, error) {
	if req.Cost.IsNegative() {
		return nil, core.InvalidInputError("cost must be greater than or equal to 0")
	}

	purchased, err := time.Parse(DateLayout, req.DatePurchased)
	if err != nil {
		return nil, core.InvalidInputError("date_purchased must be a date formatted as 2006-01-02")
	}

	status := strings.ToLower(strings.TrimSpace(req.Status))
	if status == "" {
		status = StatusActive
	}

	a := &Asset{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(req.Name),
		Category:      strings.TrimSpace(req.Category),
		Department:    strings.TrimSpace(req.Department),
		DatePurchased: &purchased,
		Status:        status,
		ImageURLs:     s.storeImages(ctx, uploads),
		CreatedBy:     &caller.ID,
	}
	a.Cost.Decimal = *req.Cost
	a.Cost.Valid = true

	if d := strings.TrimSpace(req.Description); d != "" {
		a.Description = &d
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.discardImages(ctx, a.ImageURLs)
		if core.IsUndefinedTable(err) {
			return nil, core.NotConfiguredError(Table)
		}
		return nil, err
	}

	queued := false
	if s.notifier != nil {
		queued = s.notifier.AssetCreated(ctx, caller.Email, email.AssetSummary{
			Name:          a.Name,
			Category:      a.Category,
			Department:    a.Department,
			Cost:          a.CostString(),
			DatePurchased: a.DatePurchased,
		})
	}

	s.mirror(ctx, a)

	return &CreateAssetResponse{
		Success:     true,
		Asset:       ToAssetResponse(a),
		EmailQueued: queued,
	}, nil
}

func (s *Service) storeImages(ctx context.Context, uploads []Upload) ImageURLs {
	if s.images == nil || len(uploads) == 0 {
		return nil
	}

	if len(uploads) > s.maxImages {
		slog.InfoContext(ctx, "extra images ignored",
			"received", len(uploads),
			"kept", s.maxImages,
		)
		uploads = uploads[:s.maxImages]
	}

	var urls ImageURLs
	for i, u := range uploads {
		obj, err := s.images.PutImage(ctx, u.Body, i)
		if err != nil {
			slog.WarnContext(ctx, "image skipped",
				"filename", u.Filename,
				"error", err,
			)
			continue
		}
		urls = append(urls, obj.URL)
	}

	return urls
}

func (s *Service) discardImages(ctx context.Context, urls []string) {
	if s.images == nil {
		return
	}

	for _, url := range urls {
		key, ok := s.images.KeyFromURL(url)
		if !ok {
			continue
		}
		if err := s.images.Delete(ctx, key); err != nil && !errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "remove image failed", "key", key, "error", err)
		}
	}
}

// mirror forwards a new asset to the warranty service under the
// configured service account.
func (s *Service) mirror(ctx context.Context, a *Asset) {
	if s.warranty == nil || s.queue == nil || !s.warranty.MirrorEnabled() {
		return
	}

	var notes []string
	if a.Description != nil {
		notes = append(notes, *a.Description)
	}
	if len(a.ImageURLs) > 0 {
		notes = append(notes, "Image URLs: "+strings.Join(a.ImageURLs, ", "))
	}

	reg := warranty.Registration{
		AssetName:     a.Name,
		Category:      a.Category,
		DatePurchased: a.DatePurchasedString(),
		Cost:          a.CostString(),
		Department:    a.Department,
		Status:        a.Status,
		Notes:         strings.Join(notes, " | "),
		ImageURLs:     a.ImageURLs,
	}

	if !s.queue.Enqueue(outbox.Task{
		Kind: "warranty.mirror",
		Run: func(ctx context.Context) error {
			return s.warranty.Mirror(ctx, reg)
		},
	}) {
		slog.WarnContext(ctx, "warranty mirror not queued", "asset_id", a.ID)
	}
}

// List returns the caller's assets. A missing table is reported inside a
// successful response.
func (s *Service) List(
	ctx context.Context,
	caller *middleware.Caller,
	filter ListFilter,
) (*ListResponse, error) {
	filter.OwnerID = caller.ID
	return s.list(ctx, filter)
}

func (s *Service) ListAll(ctx context.Context, filter ListFilter) (*ListResponse, error) {
	filter.OwnerID = ""
	return s.list(ctx, filter)
}

func (s *Service) list(ctx context.Context, filter ListFilter) (*ListResponse, error) {
	assets, err := s.repo.List(ctx, filter)
	if err != nil {
		if core.IsUndefinedTable(err) {
			return &ListResponse{
				Assets: []AssetResponse{},
				Error:  "Assets table not found. The database schema has not been set up.",
				Hint:   listUnavailableHint,
			}, nil
		}
		return nil, err
	}

	return &ListResponse{Assets: ToAssetResponseList(assets)}, nil
}

// Export returns the assets an export should contain. A missing table
// exports nothing.
func (s *Service) Export(
	ctx context.Context,
	caller *middleware.Caller,
	all bool,
) ([]Asset, error) {
	filter := ListFilter{OwnerID: caller.ID}
	if all {
		filter.OwnerID = ""
	}

	assets, err := s.repo.List(ctx, filter)
	if core.IsUndefinedTable(err) {
		return []Asset{}, nil
	}
	return assets, err
}

// Get returns an asset visible to the caller. Assets owned by someone else
// are reported as missing unless the caller is an admin.
func (s *Service) Get(ctx context.Context, caller *middleware.Caller, id string) (*Asset, error) {
	if uuid.Validate(id) != nil {
		return nil, core.NotFoundError("Asset")
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}

	if !caller.IsAdmin() && !a.OwnedBy(caller.ID) {
		return nil, core.NotFoundError("Asset")
	}

	return a, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return core.NotFoundError("Asset")
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return lookupError(err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err)
	}

	s.discardImages(ctx, a.ImageURLs)
	return nil
}

// RegisterWarranty records the warranty with the external service first.
// Only once that succeeds is the asset moved to "warranty registered"; a
// failure of that local update is logged and the call still succeeds.
func (s *Service) RegisterWarranty(
	ctx context.Context,
	caller *middleware.Caller,
	req RegisterWarrantyRequest,
) (*RegisterWarrantyResponse, error) {
	expiry, err := time.Parse(DateLayout, req.WarrantyExpiryDate)
	if err != nil {
		return nil, core.InvalidInputError(
			"warranty_expiry_date must be a date formatted as 2006-01-02")
	}

	a, err := s.Get(ctx, caller, req.AssetID)
	if err != nil {
		return nil, err
	}

	if a.IsWarrantyRegistered() {
		return nil, core.InvalidInputError("Warranty is already registered for this asset")
	}

	months := DefaultWarrantyMonths
	if req.WarrantyPeriodMonths != nil && *req.WarrantyPeriodMonths > 0 {
		months = *req.WarrantyPeriodMonths
	}

	status := a.Status
	if status == "" {
		status = "Active"
	}

	result, err := s.warranty.Register(ctx, warranty.Registration{
		AssetName:            a.Name,
		Category:             a.Category,
		DatePurchased:        a.DatePurchasedString(),
		Cost:                 a.CostString(),
		Department:           a.Department,
		Status:               status,
		UserID:               warranty.ExternalUserID(caller.ID),
		UserName:             s.displayName(ctx, caller),
		WarrantyPeriodMonths: months,
		WarrantyExpiryDate:   req.WarrantyExpiryDate,
		Notes:                req.Notes,
	})
	if err != nil {
		return nil, upstreamError(err)
	}

	update := WarrantyUpdate{
		PeriodMonths: months,
		ExpiryDate:   expiry,
		RegisteredBy: caller.ID,
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		update.Notes = &notes
	}

	if err := s.repo.RegisterWarranty(ctx, a.ID, update); err != nil {
		slog.ErrorContext(ctx, "warranty registered externally but asset update failed",
			"asset_id", a.ID,
			"error", err,
		)
	}

	return &RegisterWarrantyResponse{
		Success:  true,
		Message:  "Warranty registered successfully",
		Warranty: result,
	}, nil
}

func (s *Service) displayName(ctx context.Context, caller *middleware.Caller) string {
	if s.users != nil {
		u, err := s.users.GetByID(ctx, caller.ID)
		if err == nil && strings.TrimSpace(u.Name) != "" {
			return u.Name
		}
	}
	return caller.Email
}

func lookupError(err error) error {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return core.NotFoundError("Asset")
	case core.IsUndefinedTable(err):
		return core.NotConfiguredError(Table)
	default:
		return err
	}
}

func upstreamError(err error) error {
	appErr := core.UpstreamError("Warranty service", err)
	appErr.Message = "Failed to register warranty with external service"

	var statusErr *warranty.StatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		appErr.Message = statusErr.Message
	}

	return appErr
}
