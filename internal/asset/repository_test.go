// AngelaMos | 2026
// repository_test.go

package asset

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/asset-manager/internal/core"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(sqlx.NewDb(db, "pgx")), mock
}

func TestRepositoryCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO assets (id,name,category,department,date_purchased,cost,status,description,image_urls,created_by) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING created_at, updated_at")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	owner := "u1"
	a := &Asset{
		ID:        "a1",
		Name:      "Laptop-1",
		Status:    StatusActive,
		Cost:      decimal.NewNullDecimal(decimal.NewFromInt(1200)),
		ImageURLs: ImageURLs{"http://files/assets/x.png"},
		CreatedBy: &owner,
	}
	require.NoError(t, repo.Create(context.Background(), a))
	assert.Equal(t, now, a.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreateUndefinedTable(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO assets")).
		WillReturnError(&pgconn.PgError{Code: "42P01", Message: `relation "assets" does not exist`})

	err := repo.Create(context.Background(), &Asset{ID: "a1"})
	assert.True(t, core.IsUndefinedTable(err))
}

func TestRepositoryListFilters(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM assets WHERE created_by = $1 AND category = $2 AND (name ILIKE $3 OR description ILIKE $4) ORDER BY created_at DESC, id")).
		WithArgs("u1", "Laptops", "%50\\%%", "%50\\%%").
		WillReturnRows(sqlmock.NewRows(assetColumns))

	assets, err := repo.List(context.Background(), ListFilter{
		OwnerID:  "u1",
		Category: "Laptops",
		Search:   "50%",
	})
	require.NoError(t, err)
	assert.NotNil(t, assets)
	assert.Empty(t, assets)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByIDMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM assets WHERE id = $1")).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows(assetColumns))

	_, err := repo.GetByID(context.Background(), "a1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepositoryRegisterWarrantyGuard(t *testing.T) {
	repo, mock := newMockRepo(t)
	expiry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $6 AND LOWER(COALESCE(status, '')) <> $7")).
		WithArgs(StatusWarrantyRegistered, 24, expiry, sqlmock.AnyArg(), "u1", "a1", StatusWarrantyRegistered).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RegisterWarranty(context.Background(), "a1", WarrantyUpdate{
		PeriodMonths: 24,
		ExpiryDate:   expiry,
		RegisteredBy: "u1",
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryStatsRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, category, department, status, cost, created_at FROM assets")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "category", "department", "status", "cost", "created_at"}).
			AddRow("a1", "Laptop-1", "Laptops", nil, "active", "1200.00", now))

	rows, err := repo.StatsRows(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Laptops", rows[0].Category)
	assert.Empty(t, rows[0].Department)
	require.NoError(t, mock.ExpectationsWereMet())
}
