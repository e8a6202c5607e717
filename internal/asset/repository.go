// AngelaMos | 2026
// repository.go

package asset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/templates/asset-manager/internal/core"
	"github.com/carterperez-dev/templates/asset-manager/internal/stats"
)

const Table = "assets"

type Repository interface {
	Create(ctx context.Context, asset *Asset) error
	GetByID(ctx context.Context, id string) (*Asset, error)
	List(ctx context.Context, filter ListFilter) ([]Asset, error)
	Delete(ctx context.Context, id string) error
	RegisterWarranty(ctx context.Context, id string, w WarrantyUpdate) error
	StatsRows(ctx context.Context, ownerID string) ([]stats.Row, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

var assetColumns = []string{
	"id",
	"name",
	"category",
	"department",
	"date_purchased",
	"cost",
	"status",
	"description",
	"image_urls",
	"created_by",
	"warranty_period_months",
	"warranty_expiry_date",
	"warranty_notes",
	"warranty_registered_at",
	"warranty_registered_by",
	"created_at",
	"updated_at",
}

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

func (r *repository) Create(ctx context.Context, a *Asset) error {
	query, args, err := psql().
		Insert(Table).
		Columns(
			"id",
			"name",
			"category",
			"department",
			"date_purchased",
			"cost",
			"status",
			"description",
			"image_urls",
			"created_by",
		).
		Values(
			a.ID,
			a.Name,
			a.Category,
			a.Department,
			a.DatePurchased,
			a.Cost,
			a.Status,
			a.Description,
			a.ImageURLs,
			a.CreatedBy,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert asset: %w", err)
	}

	if err := r.db.QueryRowxContext(ctx, query, args...).
		Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		return fmt.Errorf("create asset: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Asset, error) {
	query, args, err := psql().
		Select(assetColumns...).
		From(Table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get asset: %w", err)
	}

	var a Asset
	err = r.db.GetContext(ctx, &a, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get asset: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}

	return &a, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Asset, error) {
	builder := applyFilter(psql().Select(assetColumns...).From(Table), filter).
		OrderBy("created_at DESC", "id")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list assets: %w", err)
	}

	assets := []Asset{}
	if err := r.db.SelectContext(ctx, &assets, query, args...); err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}

	return assets, nil
}

func applyFilter(b sq.SelectBuilder, f ListFilter) sq.SelectBuilder {
	if f.OwnerID != "" {
		b = b.Where(sq.Eq{"created_by": f.OwnerID})
	}
	if f.Category != "" {
		b = b.Where(sq.Eq{"category": f.Category})
	}
	if f.Department != "" {
		b = b.Where(sq.Eq{"department": f.Department})
	}
	if f.Status != "" {
		b = b.Where(sq.Expr("LOWER(status) = ?", strings.ToLower(f.Status)))
	}
	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		b = b.Where(sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"description": pattern},
		})
	}
	return b
}

func (r *repository) Delete(ctx context.Context, id string) error {
	query, args, err := psql().Delete(Table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete asset: %w", err)
	}

	return r.execOne(ctx, "delete asset", query, args...)
}

// RegisterWarranty moves the asset into the registered state. The status
// guard makes a concurrent second registration affect no rows.
func (r *repository) RegisterWarranty(
	ctx context.Context,
	id string,
	w WarrantyUpdate,
) error {
	query, args, err := psql().
		Update(Table).
		Set("status", StatusWarrantyRegistered).
		Set("warranty_period_months", w.PeriodMonths).
		Set("warranty_expiry_date", w.ExpiryDate).
		Set("warranty_notes", w.Notes).
		Set("warranty_registered_at", sq.Expr("NOW()")).
		Set("warranty_registered_by", w.RegisteredBy).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Where(sq.Expr("LOWER(COALESCE(status, '')) <> ?", StatusWarrantyRegistered)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build register warranty: %w", err)
	}

	return r.execOne(ctx, "register warranty", query, args...)
}

func (r *repository) StatsRows(ctx context.Context, ownerID string) ([]stats.Row, error) {
	builder := psql().
		Select("id", "name", "category", "department", "status", "cost", "created_at").
		From(Table)
	if ownerID != "" {
		builder = builder.Where(sq.Eq{"created_by": ownerID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stats rows: %w", err)
	}

	var raw []statsRow
	if err := r.db.SelectContext(ctx, &raw, query, args...); err != nil {
		return nil, fmt.Errorf("load stats rows: %w", err)
	}

	rows := make([]stats.Row, 0, len(raw))
	for _, s := range raw {
		rows = append(rows, stats.Row{
			ID:         s.ID,
			Name:       s.Name,
			Category:   s.Category.String,
			Department: s.Department.String,
			Status:     s.Status.String,
			Cost:       s.Cost,
			CreatedAt:  s.CreatedAt,
		})
	}

	return rows, nil
}

type statsRow struct {
	ID         string              `db:"id"`
	Name       string              `db:"name"`
	Category   sql.NullString      `db:"category"`
	Department sql.NullString      `db:"department"`
	Status     sql.NullString      `db:"status"`
	Cost       decimal.NullDecimal `db:"cost"`
	CreatedAt  time.Time           `db:"created_at"`
}

func (r *repository) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
