// AngelaMos | 2026
// service.go

package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/asset-manager/internal/core"
)

// Service manages one catalog table. Names are free text: duplicates are
// allowed and deleting an entry does not look at assets using its name.
type Service struct {
	repo Repository
	kind Kind
}

func NewService(repo Repository, kind Kind) *Service {
	return &Service{repo: repo, kind: kind}
}

func (s *Service) Kind() Kind {
	return s.kind
}

// List reads an unmigrated table as empty.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	entries, err := s.repo.List(ctx)
	if core.IsUndefinedTable(err) {
		return []Entry{}, nil
	}
	return entries, err
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) Create(ctx context.Context, req EntryRequest) (*Entry, error) {
	e := &Entry{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: optional(req.Description),
	}

	if e.Name == "" {
		return nil, core.InvalidInputError(s.kind.Resource + " name is required")
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, s.writeError(err)
	}

	return e, nil
}

func (s *Service) Update(ctx context.Context, id string, req EntryRequest) (*Entry, error) {
	if uuid.Validate(id) != nil {
		return nil, core.NotFoundError(s.kind.Resource)
	}

	e := &Entry{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		Description: optional(req.Description),
	}

	if e.Name == "" {
		return nil, core.InvalidInputError(s.kind.Resource + " name is required")
	}

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, s.writeError(err)
	}

	return e, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return core.NotFoundError(s.kind.Resource)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.writeError(err)
	}

	return nil
}

func (s *Service) writeError(err error) error {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return core.NotFoundError(s.kind.Resource)
	case core.IsUndefinedTable(err):
		return core.NotConfiguredError(s.kind.Table)
	default:
		return err
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
