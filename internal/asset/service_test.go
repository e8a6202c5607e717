// AngelaMos | 2026
// service_test.go

package asset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/asset-manager/internal/auth"
	"github.com/carterperez-dev/templates/asset-manager/internal/core"
	"github.com/carterperez-dev/templates/asset-manager/internal/email"
	"github.com/carterperez-dev/templates/asset-manager/internal/middleware"
	"github.com/carterperez-dev/templates/asset-manager/internal/outbox"
	"github.com/carterperez-dev/templates/asset-manager/internal/stats"
	"github.com/carterperez-dev/templates/asset-manager/internal/storage"
	"github.com/carterperez-dev/templates/asset-manager/internal/warranty"
)

type memRepo struct {
	mu         sync.Mutex
	assets     map[string]*Asset
	createErr  error
	listErr    error
	warrantyFn func(id string) error
}

func newMemRepo() *memRepo {
	return &memRepo{assets: make(map[string]*Asset)}
}

func (m *memRepo) Create(_ context.Context, a *Asset) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.assets[a.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, f ListFilter) ([]Asset, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Asset{}
	for _, a := range m.assets {
		if f.OwnerID == "" || a.OwnedBy(f.OwnerID) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assets[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.assets, id)
	return nil
}

func (m *memRepo) RegisterWarranty(_ context.Context, id string, w WarrantyUpdate) error {
	if m.warrantyFn != nil {
		if err := m.warrantyFn(id); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok || a.IsWarrantyRegistered() {
		return core.ErrNotFound
	}
	a.Status = StatusWarrantyRegistered
	a.WarrantyPeriodMonths = &w.PeriodMonths
	a.WarrantyExpiryDate = &w.ExpiryDate
	a.WarrantyNotes = w.Notes
	a.WarrantyRegisteredBy = &w.RegisteredBy
	return nil
}

func (m *memRepo) StatsRows(_ context.Context, ownerID string) ([]stats.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := make([]stats.Row, 0, len(m.assets))
	for _, a := range m.assets {
		if ownerID != "" && !a.OwnedBy(ownerID) {
			continue
		}
		rows = append(rows, stats.Row{
			ID:         a.ID,
			Name:       a.Name,
			Category:   a.Category,
			Department: a.Department,
			Status:     a.Status,
			Cost:       a.Cost,
			CreatedAt:  a.CreatedAt,
		})
	}
	return rows, nil
}

type fakeWarranty struct {
	mirror    bool
	err       error
	registers []warranty.Registration
	mirrored  []warranty.Registration
}

func (f *fakeWarranty) MirrorEnabled() bool { return f.mirror }

func (f *fakeWarranty) Register(_ context.Context, reg warranty.Registration) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.registers = append(f.registers, reg)
	return json.RawMessage(`{"id":1}`), nil
}

func (f *fakeWarranty) Mirror(_ context.Context, reg warranty.Registration) error {
	f.mirrored = append(f.mirrored, reg)
	return nil
}

type fakeImages struct {
	stored  int
	deleted []string
}

func (f *fakeImages) PutImage(_ context.Context, r io.Reader, index int) (*storage.Object, error) {
	data, _ := io.ReadAll(r)
	if !bytes.HasPrefix(data, []byte("IMG")) {
		return nil, storage.ErrNotImage
	}
	f.stored++
	key := "assets/img-" + string(rune('0'+index)) + ".png"
	return &storage.Object{Key: key, URL: "http://files/" + key}, nil
}

func (f *fakeImages) KeyFromURL(url string) (string, bool) {
	return strings.TrimPrefix(url, "http://files/"), strings.HasPrefix(url, "http://files/")
}

func (f *fakeImages) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

type fakeNotifier struct {
	to []string
}

func (f *fakeNotifier) AssetCreated(_ context.Context, to string, _ email.AssetSummary) bool {
	f.to = append(f.to, to)
	return true
}

type runQueue struct {
	tasks []outbox.Task
}

func (q *runQueue) Enqueue(task outbox.Task) bool {
	q.tasks = append(q.tasks, task)
	return true
}

type fakeUsers struct{}

func (fakeUsers) GetByID(_ context.Context, id string) (*auth.UserInfo, error) {
	return &auth.UserInfo{ID: id, Name: "Uma User"}, nil
}

type fixture struct {
	svc      *Service
	repo     *memRepo
	warranty *fakeWarranty
	images   *fakeImages
	notifier *fakeNotifier
	queue    *runQueue
}

func newFixture() *fixture {
	f := &fixture{
		repo:     newMemRepo(),
		warranty: &fakeWarranty{mirror: true},
		images:   &fakeImages{},
		notifier: &fakeNotifier{},
		queue:    &runQueue{},
	}
	f.svc = NewService(Deps{
		Repo:      f.repo,
		Images:    f.images,
		Warranty:  f.warranty,
		Notifier:  f.notifier,
		Queue:     f.queue,
		Users:     fakeUsers{},
		MaxImages: 4,
	})
	return f
}

var (
	owner = &middleware.Caller{ID: uuid.NewString(), Email: "u@example.com", Role: middleware.RoleUser}
	other = &middleware.Caller{ID: uuid.NewString(), Email: "o@example.com", Role: middleware.RoleUser}
	admin = &middleware.Caller{ID: uuid.NewString(), Email: "a@example.com", Role: middleware.RoleAdmin}
)

func laptopRequest() CreateAssetRequest {
	cost := decimal.NewFromInt(1200)
	return CreateAssetRequest{
		Name:          "Laptop-1",
		Category:      "Laptops",
		Department:    "IT",
		DatePurchased: "2024-01-01",
		Cost:          &cost,
	}
}

func TestCreateStoresStatusLowercase(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, status := range []string{"Active", " ACTIVE ", "active"} {
		req := laptopRequest()
		req.Status = status

		resp, err := f.svc.Create(ctx, owner, req, nil)
		require.NoError(t, err)
		assert.Equal(t, StatusActive, resp.Asset.Status, status)
	}

	rows, err := f.repo.StatsRows(ctx, "")
	require.NoError(t, err)
	s := stats.Aggregate(rows, time.Now())
	assert.Equal(t, stats.Counts{{Name: StatusActive, Count: 3}}, s.StatusCounts)
}

func TestCreateAndList(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, owner, laptopRequest(), nil)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, StatusActive, resp.Asset.Status)
	assert.Equal(t, "2024-01-01", *resp.Asset.DatePurchased)
	assert.Equal(t, json.Number("1200"), *resp.Asset.Cost)
	assert.True(t, resp.EmailQueued)
	assert.Equal(t, []string{owner.Email}, f.notifier.to)

	mine, err := f.svc.List(ctx, owner, ListFilter{})
	require.NoError(t, err)
	require.Len(t, mine.Assets, 1)
	assert.Equal(t, "Laptop-1", mine.Assets[0].Name)

	theirs, err := f.svc.List(ctx, other, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, theirs.Assets)
}

func TestCreateRejectsNegativeCost(t *testing.T) {
	f := newFixture()
	req := laptopRequest()
	neg := decimal.NewFromInt(-1)
	req.Cost = &neg

	_, err := f.svc.Create(context.Background(), owner, req, nil)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestCreateKeepsAtMostFourImagesAndSkipsBadOnes(t *testing.T) {
	f := newFixture()

	uploads := []Upload{
		{Filename: "a.png", Body: strings.NewReader("IMG-a")},
		{Filename: "notes.txt", Body: strings.NewReader("hello")},
		{Filename: "c.png", Body: strings.NewReader("IMG-c")},
		{Filename: "d.png", Body: strings.NewReader("IMG-d")},
		{Filename: "e.png", Body: strings.NewReader("IMG-e")},
	}

	resp, err := f.svc.Create(context.Background(), owner, laptopRequest(), uploads)
	require.NoError(t, err)

	assert.Equal(t, 3, f.images.stored)
	assert.Len(t, resp.Asset.ImageURLs, 3)
}

func TestCreateQueuesWarrantyMirror(t *testing.T) {
	f := newFixture()
	req := laptopRequest()
	req.Description = "Dev machine"

	_, err := f.svc.Create(context.Background(), owner, req,
		[]Upload{{Filename: "a.png", Body: strings.NewReader("IMG")}})
	require.NoError(t, err)

	require.Len(t, f.queue.tasks, 1)
	assert.Equal(t, "warranty.mirror", f.queue.tasks[0].Kind)
	require.NoError(t, f.queue.tasks[0].Run(context.Background()))

	require.Len(t, f.warranty.mirrored, 1)
	got := f.warranty.mirrored[0]
	assert.Equal(t, "1200", got.Cost)
	assert.Equal(t, "Dev machine | Image URLs: http://files/assets/img-0.png", got.Notes)
}

func TestCreateWithoutMirror(t *testing.T) {
	f := newFixture()
	f.warranty.mirror = false

	_, err := f.svc.Create(context.Background(), owner, laptopRequest(), nil)
	require.NoError(t, err)
	assert.Empty(t, f.queue.tasks)
}

func TestCreateUnmigrated(t *testing.T) {
	f := newFixture()
	f.repo.createErr = &pgconn.PgError{Code: "42P01"}

	_, err := f.svc.Create(context.Background(), owner, laptopRequest(),
		[]Upload{{Filename: "a.png", Body: strings.NewReader("IMG")}})

	var appErr *core.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, core.KindBackendNotConfigured, appErr.Kind)
	assert.NotEmpty(t, appErr.Hint)
	assert.Equal(t, []string{"assets/img-0.png"}, f.images.deleted)
}

func TestListUnmigratedReturnsEmptyWithHint(t *testing.T) {
	f := newFixture()
	f.repo.listErr = &pgconn.PgError{Code: "42P01"}

	resp, err := f.svc.List(context.Background(), owner, ListFilter{})
	require.NoError(t, err)

	assert.NotNil(t, resp.Assets)
	assert.Empty(t, resp.Assets)
	assert.NotEmpty(t, resp.Error)
	assert.NotEmpty(t, resp.Hint)
}

func TestGetVisibility(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, owner, laptopRequest(), nil)
	require.NoError(t, err)
	id := resp.Asset.ID

	_, err = f.svc.Get(ctx, owner, id)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, admin, id)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, other, id)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.svc.Get(ctx, owner, "not-a-uuid")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRegisterWarrantyOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, owner, laptopRequest(), nil)
	require.NoError(t, err)

	req := RegisterWarrantyRequest{
		AssetID:            created.Asset.ID,
		WarrantyExpiryDate: "2026-01-01",
	}

	resp, err := f.svc.RegisterWarranty(ctx, owner, req)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.JSONEq(t, `{"id":1}`, string(resp.Warranty))

	require.Len(t, f.warranty.registers, 1)
	sent := f.warranty.registers[0]
	assert.Equal(t, DefaultWarrantyMonths, sent.WarrantyPeriodMonths)
	assert.Equal(t, "Uma User", sent.UserName)
	assert.Equal(t, warranty.ExternalUserID(owner.ID), sent.UserID)

	stored, err := f.repo.GetByID(ctx, created.Asset.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusWarrantyRegistered, stored.Status)
	assert.Equal(t, 24, *stored.WarrantyPeriodMonths)

	_, err = f.svc.RegisterWarranty(ctx, owner, req)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Len(t, f.warranty.registers, 1)
}

func TestRegisterWarrantyRejectsLegacyStatusCasing(t *testing.T) {
	f := newFixture()
	id := uuid.NewString()
	f.repo.assets[id] = &Asset{ID: id, Status: "Warranty Registered", CreatedBy: &owner.ID}

	_, err := f.svc.RegisterWarranty(context.Background(), owner, RegisterWarrantyRequest{
		AssetID:            id,
		WarrantyExpiryDate: "2026-01-01",
	})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestRegisterWarrantyUpstreamFailureLeavesAssetAlone(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, owner, laptopRequest(), nil)
	require.NoError(t, err)

	f.warranty.err = &warranty.StatusError{StatusCode: http.StatusBadGateway, Message: "service down"}

	_, err = f.svc.RegisterWarranty(ctx, owner, RegisterWarrantyRequest{
		AssetID:            created.Asset.ID,
		WarrantyExpiryDate: "2026-01-01",
	})

	var appErr *core.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, core.KindUpstreamFailure, appErr.Kind)
	assert.Equal(t, "service down", appErr.Message)

	stored, err := f.repo.GetByID(ctx, created.Asset.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, stored.Status)
}

func TestRegisterWarrantyLocalFailureStillSucceeds(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, owner, laptopRequest(), nil)
	require.NoError(t, err)

	f.repo.warrantyFn = func(string) error { return errors.New("connection lost") }

	resp, err := f.svc.RegisterWarranty(ctx, owner, RegisterWarrantyRequest{
		AssetID:            created.Asset.ID,
		WarrantyExpiryDate: "2026-01-01",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestRegisterWarrantyMissingAsset(t *testing.T) {
	f := newFixture()

	_, err := f.svc.RegisterWarranty(context.Background(), owner, RegisterWarrantyRequest{
		AssetID:            uuid.NewString(),
		WarrantyExpiryDate: "2026-01-01",
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, f.warranty.registers)
}

func TestDeleteRemovesImages(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, owner, laptopRequest(),
		[]Upload{{Filename: "a.png", Body: strings.NewReader("IMG")}})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, created.Asset.ID))
	assert.Equal(t, []string{"assets/img-0.png"}, f.images.deleted)

	assert.ErrorIs(t, f.svc.Delete(ctx, created.Asset.ID), core.ErrNotFound)
}
