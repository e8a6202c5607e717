// AngelaMos | 2026
// repository.go

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/carterperez-dev/templates/asset-manager/internal/core"
)

type Repository interface {
	List(ctx context.Context) ([]Entry, error)
	Create(ctx context.Context, e *Entry) error
	Update(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db   core.DBTX
	kind Kind
}

func NewRepository(db core.DBTX, kind Kind) Repository {
	return &repository{db: db, kind: kind}
}

func (r *repository) psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

func (r *repository) List(ctx context.Context) ([]Entry, error) {
	query, args, err := r.psql().
		Select("id", "name", "description", "created_at", "updated_at").
		From(r.kind.Table).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list %s: %w", r.kind.Plural, err)
	}

	entries := []Entry{}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.kind.Plural, err)
	}

	return entries, nil
}

func (r *repository) Create(ctx context.Context, e *Entry) error {
	query, args, err := r.psql().
		Insert(r.kind.Table).
		Columns("id", "name", "description").
		Values(e.ID, e.Name, e.Description).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create %s: %w", r.kind.Singular, err)
	}

	if err := r.db.QueryRowxContext(ctx, query, args...).
		Scan(&e.CreatedAt, &e.UpdatedAt); err != nil {
		return fmt.Errorf("create %s: %w", r.kind.Singular, err)
	}

	return nil
}

func (r *repository) Update(ctx context.Context, e *Entry) error {
	query, args, err := r.psql().
		Update(r.kind.Table).
		Set("name", e.Name).
		Set("description", e.Description).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": e.ID}).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update %s: %w", r.kind.Singular, err)
	}

	err = r.db.QueryRowxContext(ctx, query, args...).Scan(&e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update %s: %w", r.kind.Singular, core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update %s: %w", r.kind.Singular, err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	query, args, err := r.psql().Delete(r.kind.Table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete %s: %w", r.kind.Singular, err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.kind.Singular, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.kind.Singular, err)
	}
	if n == 0 {
		return fmt.Errorf("delete %s: %w", r.kind.Singular, core.ErrNotFound)
	}

	return nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+r.kind.Table); err != nil {
		return 0, fmt.Errorf("count %s: %w", r.kind.Plural, err)
	}
	return n, nil
}
