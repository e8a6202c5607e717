// AngelaMos | 2026
// catalog_test.go

package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/asset-manager/internal/core"
	"github.com/carterperez-dev/templates/asset-manager/internal/middleware"
)

var undefinedTable = &pgconn.PgError{Code: "42P01", Message: `relation "asset_categories" does not exist`}

func setup(t *testing.T, kind Kind, caller *middleware.Caller) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	h := NewHandler(NewService(NewRepository(sqlx.NewDb(db, "pgx"), kind), kind))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithCaller(req.Context(), caller)))
		})
	})
	h.RegisterRoutes(r)
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		h.RegisterAdminRoutes(r)
	})

	return r, mock
}

func send(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var (
	adminCaller = &middleware.Caller{ID: "admin-1", Role: middleware.RoleAdmin}
	userCaller  = &middleware.Caller{ID: "user-1", Role: middleware.RoleUser}
)

func TestListForUsers(t *testing.T) {
	h, mock := setup(t, Departments, userCaller)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, description, created_at, updated_at FROM departments ORDER BY created_at DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_at", "updated_at"}).
			AddRow("d1", "IT", nil, now, now))

	rec := send(h, http.MethodGet, "/departments", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body["departments"], 1)
	assert.Equal(t, "IT", body["departments"][0].Name)
}

func TestListUnmigratedIsEmpty(t *testing.T) {
	h, mock := setup(t, Categories, userCaller)

	mock.ExpectQuery("FROM asset_categories").WillReturnError(undefinedTable)

	rec := send(h, http.MethodGet, "/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"categories":[]}`, rec.Body.String())
}

func TestCreate(t *testing.T) {
	h, mock := setup(t, Categories, adminCaller)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO asset_categories (id,name,description) VALUES ($1,$2,$3) RETURNING created_at, updated_at")).
		WithArgs(sqlmock.AnyArg(), "Laptops", nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	rec := send(h, http.MethodPost, "/admin/categories", `{"name":"  Laptops "}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Success  bool  `json:"success"`
		Category Entry `json:"category"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "Laptops", body.Category.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRequiresName(t *testing.T) {
	h, _ := setup(t, Categories, adminCaller)

	rec := send(h, http.MethodPost, "/admin/categories", `{"description":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "name is required")

	rec = send(h, http.MethodPost, "/admin/categories", `{"name":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateUnmigratedHasHint(t *testing.T) {
	h, mock := setup(t, Categories, adminCaller)

	mock.ExpectQuery("INSERT INTO asset_categories").WillReturnError(undefinedTable)

	rec := send(h, http.MethodPost, "/admin/categories", `{"name":"Laptops"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body core.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "asset_categories")
	assert.NotEmpty(t, body.Hint)
}

func TestNonAdminIsForbiddenRegardlessOfPayload(t *testing.T) {
	h, mock := setup(t, Categories, userCaller)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/admin/categories", ""},
		{http.MethodPost, "/admin/categories", `{}`},
		{http.MethodPost, "/admin/categories", `not json`},
		{http.MethodPut, "/admin/categories/x", `{"name":"a"}`},
		{http.MethodDelete, "/admin/categories/x", ""},
	} {
		rec := send(h, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusForbidden, rec.Code, tc.method+" "+tc.path)
	}

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMissing(t *testing.T) {
	h, mock := setup(t, Departments, adminCaller)
	id := uuid.NewString()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE departments SET name = $1, description = $2, updated_at = NOW() WHERE id = $3")).
		WithArgs("Ops", nil, id).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}))

	rec := send(h, http.MethodPut, "/admin/departments/"+id, `{"name":"Ops"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Department not found"}`, rec.Body.String())
}

func TestDeleteIsUnconditional(t *testing.T) {
	h, mock := setup(t, Categories, adminCaller)
	id := uuid.NewString()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM asset_categories WHERE id = $1")).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := send(h, http.MethodDelete, "/admin/categories/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}
