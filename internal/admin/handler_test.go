// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/asset-manager/internal/middleware"
)

type fakeQueue struct{ depth, capacity int }

func (q fakeQueue) Depth() int    { return q.depth }
func (q fakeQueue) Capacity() int { return q.capacity }

func newRouter(h *Handler, caller *middleware.Caller) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if caller != nil {
				req = req.WithContext(middleware.WithCaller(req.Context(), caller))
			}
			next.ServeHTTP(w, req)
		})
	})
	h.RegisterAdminRoutes(r)
	return r
}

func TestGetSystemStats(t *testing.T) {
	h := NewHandler(HandlerConfig{
		DBStats: func() sql.DBStats {
			return sql.DBStats{MaxOpenConnections: 25, OpenConnections: 3, InUse: 1, Idle: 2}
		},
		DBPing:    func(context.Context) error { return nil },
		RedisPing: func(context.Context) error { return errors.New("down") },
		Queue:     fakeQueue{depth: 2, capacity: 256},
	})

	admin := &middleware.Caller{ID: "a-1", Role: middleware.RoleAdmin}

	t.Run("admin sees pool and queue state", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newRouter(h, admin).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/system/", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var body SystemStatsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.Database.Healthy)
		require.NotNil(t, body.Database.Stats)
		assert.Equal(t, 25, body.Database.Stats.MaxOpenConnections)
		assert.False(t, body.Redis.Healthy)
		assert.Nil(t, body.Redis.Stats)
		require.NotNil(t, body.Outbox)
		assert.Equal(t, 2, body.Outbox.Depth)
		assert.Equal(t, 256, body.Outbox.Capacity)
		assert.NotEmpty(t, body.Runtime.GoVersion)
	})

	tests := []struct {
		name   string
		caller *middleware.Caller
		path   string
		status int
	}{
		{"anonymous", nil, "/system/", http.StatusUnauthorized},
		{"plain user", &middleware.Caller{ID: "u-1", Role: middleware.RoleUser}, "/system/", http.StatusForbidden},
		{"plain user runtime", &middleware.Caller{ID: "u-1", Role: middleware.RoleUser}, "/system/runtime", http.StatusForbidden},
		{"admin runtime", admin, "/system/runtime", http.StatusOK},
		{"admin db", admin, "/system/db", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newRouter(h, tt.caller).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
