// AngelaMos | 2026
// service.go

package stats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/templates/asset-manager/internal/core"
)

// AssetSource returns the rows to aggregate. An empty owner means every
// asset.
type AssetSource interface {
	StatsRows(ctx context.Context, ownerID string) ([]Row, error)
}

type Counter interface {
	Count(ctx context.Context) (int, error)
}

type Dashboard struct {
	*Summary

	TotalUsers       int        `json:"totalUsers"`
	TotalCategories  int        `json:"totalCategories"`
	TotalDepartments int        `json:"totalDepartments"`
	TopCategories    []TopEntry `json:"topCategories"`
	TopDepartments   []TopEntry `json:"topDepartments"`
	TopStatuses      []TopEntry `json:"topStatuses"`
}

type Service struct {
	assets      AssetSource
	users       Counter
	categories  Counter
	departments Counter
	now         func() time.Time
}

func NewService(assets AssetSource, users, categories, departments Counter) *Service {
	return &Service{
		assets:      assets,
		users:       users,
		categories:  categories,
		departments: departments,
		now:         time.Now,
	}
}

// Dashboard runs every query concurrently and aggregates once they have
// all returned. Any failure yields no dashboard at all; unmigrated tables
// read as empty and a failed user count reads as zero.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	ctx, span := core.StartSpan(ctx, "stats.dashboard")

	var (
		rows        []Row
		users       int
		categories  int
		departments int
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		rows, err = s.assets.StatsRows(gctx, "")
		if core.IsUndefinedTable(err) {
			rows, err = nil, nil
		}
		if err != nil {
			return fmt.Errorf("load assets: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		n, err := s.users.Count(gctx)
		if err != nil {
			slog.WarnContext(gctx, "count users failed", "error", err)
			return nil
		}
		users = n
		return nil
	})

	g.Go(func() error {
		n, err := countOrZero(gctx, s.categories)
		if err != nil {
			return fmt.Errorf("count categories: %w", err)
		}
		categories = n
		return nil
	})

	g.Go(func() error {
		n, err := countOrZero(gctx, s.departments)
		if err != nil {
			return fmt.Errorf("count departments: %w", err)
		}
		departments = n
		return nil
	})

	if err := g.Wait(); err != nil {
		core.EndSpan(span, err)
		return nil, err
	}

	core.AddSpanEvent(ctx, "stats.queries_joined",
		attribute.Int("stats.assets", len(rows)),
	)

	summary := Aggregate(rows, s.now())
	core.EndSpan(span, nil)

	return &Dashboard{
		Summary:          summary,
		TotalUsers:       users,
		TotalCategories:  categories,
		TotalDepartments: departments,
		TopCategories:    Top(summary.CategoryCounts, DefaultTopSize),
		TopDepartments:   Top(summary.DepartmentCounts, DefaultTopSize),
		TopStatuses:      Top(summary.StatusCounts, DefaultTopSize),
	}, nil
}

// ForOwner summarises the assets created by one user.
func (s *Service) ForOwner(ctx context.Context, ownerID string) (*Summary, error) {
	rows, err := s.assets.StatsRows(ctx, ownerID)
	if core.IsUndefinedTable(err) {
		rows, err = nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load assets: %w", err)
	}

	return Aggregate(rows, s.now()), nil
}

func countOrZero(ctx context.Context, c Counter) (int, error) {
	n, err := c.Count(ctx)
	if core.IsUndefinedTable(err) {
		return 0, nil
	}
	return n, err
}
