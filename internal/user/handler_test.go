// AngelaMos | 2026
// handler_test.go

package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/asset-manager/internal/core"
	"github.com/carterperez-dev/templates/asset-manager/internal/middleware"
)

type fakeRepo struct {
	Repository
	created []*User
	deleted []string
}

func (f *fakeRepo) Create(_ context.Context, u *User) error {
	for _, existing := range f.created {
		if existing.Email == u.Email {
			return core.ErrDuplicateKey
		}
	}
	f.created = append(f.created, u)
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	if id == "missing" {
		return core.ErrNotFound
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeNotifier struct {
	sent   []string
	accept bool
}

func (f *fakeNotifier) UserCredentials(_ context.Context, to, _, _ string) bool {
	f.sent = append(f.sent, to)
	return f.accept
}

func adminRouter(h *Handler, caller *middleware.Caller) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithCaller(req.Context(), caller)))
		})
	})
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		h.RegisterAdminRoutes(r)
	})
	return r
}

var adminCaller = &middleware.Caller{ID: "admin-1", Role: middleware.RoleAdmin}

func TestCreateUserForcesUserRole(t *testing.T) {
	repo := &fakeRepo{}
	notifier := &fakeNotifier{accept: true}
	h := NewHandler(NewService(repo, notifier))

	body := `{"email":"New@Example.com","password":"s3cret-pass","role":"admin"}`
	rec := httptest.NewRecorder()
	adminRouter(h, adminCaller).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/admin/create-user", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp CreateUserResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, RoleUser, resp.User.Role)
	assert.Equal(t, "new@example.com", resp.User.Email)
	assert.True(t, resp.EmailQueued)
	assert.Equal(t, []string{"new@example.com"}, notifier.sent)
	require.Len(t, repo.created, 1)
	assert.NotEqual(t, "s3cret-pass", repo.created[0].PasswordHash)
}

func TestCreateUserReportsEmailNotQueued(t *testing.T) {
	h := NewHandler(NewService(&fakeRepo{}, &fakeNotifier{accept: false}))

	rec := httptest.NewRecorder()
	adminRouter(h, adminCaller).ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/admin/create-user", strings.NewReader(`{"email":"x@example.com","password":"longenough"}`)))

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp CreateUserResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.EmailQueued)
}

func TestCreateUserValidation(t *testing.T) {
	h := NewHandler(NewService(&fakeRepo{}, nil))

	rec := httptest.NewRecorder()
	adminRouter(h, adminCaller).ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/admin/create-user", strings.NewReader(`{"password":"longenough"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body core.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "email is required", body.Error)
}

func TestCreateUserForbiddenForNonAdminEvenWithBadPayload(t *testing.T) {
	h := NewHandler(NewService(&fakeRepo{}, nil))

	rec := httptest.NewRecorder()
	adminRouter(h, &middleware.Caller{ID: "u1", Role: middleware.RoleUser}).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/admin/create-user", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteUser(t *testing.T) {
	repo := &fakeRepo{}
	h := NewHandler(NewService(repo, nil))
	router := adminRouter(h, adminCaller)

	tests := []struct {
		name     string
		target   string
		wantCode int
		wantMsg  string
	}{
		{"self", adminCaller.ID, http.StatusBadRequest, "You cannot delete your own account"},
		{"missing", "missing", http.StatusNotFound, "User not found"},
		{"other", "u2", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/admin/users/"+tt.target, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantMsg != "" {
				var body core.ErrorResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Equal(t, tt.wantMsg, body.Error)
			}
		})
	}

	assert.Equal(t, []string{"u2"}, repo.deleted)
}
