// AngelaMos | 2026
// repository.go

package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/templates/asset-manager/internal/core"
)

type Repository interface {
	Create(ctx context.Context, req *Request) error
	GetByID(ctx context.Context, id string) (*Request, error)
	HasPending(ctx context.Context, userID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]Request, error)
	List(ctx context.Context, status string) ([]Request, error)
	Decide(ctx context.Context, id, status string, notes *string, reviewerID string) (*Request, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const requestColumns = `id, user_id, current_name, current_email, requested_name,
	requested_email, status, admin_notes, reviewed_by, reviewed_at,
	created_at, updated_at`

func (r *repository) Create(ctx context.Context, req *Request) error {
	query := `
		INSERT INTO profile_update_requests (
			id, user_id, current_name, current_email,
			requested_name, requested_email, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		req.ID,
		req.UserID,
		req.CurrentName,
		req.CurrentEmail,
		req.RequestedName,
		req.RequestedEmail,
		req.Status,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKey(err) {
			return fmt.Errorf("create profile request: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create profile request: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Request, error) {
	query := `SELECT ` + requestColumns + ` FROM profile_update_requests WHERE id = $1`

	var req Request
	err := r.db.GetContext(ctx, &req, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get profile request: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile request: %w", err)
	}

	return &req, nil
}

func (r *repository) HasPending(ctx context.Context, userID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM profile_update_requests
			WHERE user_id = $1 AND status = 'pending'
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID); err != nil {
		return false, fmt.Errorf("check pending profile request: %w", err)
	}

	return exists, nil
}

func (r *repository) ListByUser(ctx context.Context, userID string) ([]Request, error) {
	query := `SELECT ` + requestColumns + `
		FROM profile_update_requests
		WHERE user_id = $1
		ORDER BY created_at DESC`

	requests := []Request{}
	if err := r.db.SelectContext(ctx, &requests, query, userID); err != nil {
		return nil, fmt.Errorf("list profile requests: %w", err)
	}

	return requests, nil
}

func (r *repository) List(ctx context.Context, status string) ([]Request, error) {
	query := `SELECT ` + requestColumns + `
		FROM profile_update_requests
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC`

	requests := []Request{}
	if err := r.db.SelectContext(ctx, &requests, query, status); err != nil {
		return nil, fmt.Errorf("list profile requests: %w", err)
	}

	return requests, nil
}

// Decide moves a pending request to status. A request that is no longer
// pending is left untouched and reported as ErrNotFound.
func (r *repository) Decide(
	ctx context.Context,
	id, status string,
	notes *string,
	reviewerID string,
) (*Request, error) {
	query := `
		UPDATE profile_update_requests
		SET status = $2,
			admin_notes = $3,
			reviewed_by = $4,
			reviewed_at = NOW(),
			updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + requestColumns

	var req Request
	err := r.db.GetContext(ctx, &req, query, id, status, notes, reviewerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("decide profile request: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("decide profile request: %w", err)
	}

	return &req, nil
}
