// AngelaMos | 2026
// aggregate.go

package stats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	RecentWindow   = 24 * time.Hour
	RecentLimit    = 10
	DefaultTopSize = 5

	UnknownStatus        = "unknown"
	UncategorizedLabel   = "Uncategorized"
	UnassignedDepartment = "Unassigned"
)

// Row is the slice of an asset the aggregator looks at. Cost is left
// untyped because rows may come from the database, a CSV import, or JSON.
type Row struct {
	ID         string
	Name       string
	Category   string
	Department string
	Status     string
	Cost       any
	CreatedAt  time.Time
}

// Count is one bucket of a grouping.
type Count struct {
	Name  string
	Count int
}

// Counts keeps buckets in the order their label was first seen. It
// marshals as a JSON object in that order.
type Counts []Count

func (c Counts) Get(name string) int {
	for _, b := range c {
		if b.Name == name {
			return b.Count
		}
	}
	return 0
}

func (c Counts) Total() int {
	total := 0
	for _, b := range c {
		total += b.Count
	}
	return total
}

func (c Counts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, b := range c {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(b.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", b.Count)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Money marshals as a bare JSON number.
type Money struct {
	decimal.Decimal
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

type TopEntry struct {
	Name    string `json:"name"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// RecentAsset keeps missing values as null: an asset without a cost or
// category is not shown as 0 or "".
type RecentAsset struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Category   *string   `json:"category"`
	Department string    `json:"department"`
	Cost       *Money    `json:"cost"`
	CreatedAt  time.Time `json:"created_at"`
}

type Summary struct {
	TotalAssets      int           `json:"totalAssets"`
	TotalValue       Money         `json:"totalValue"`
	RecentActivity   int           `json:"recentActivity"`
	StatusCounts     Counts        `json:"statusCounts"`
	CategoryCounts   Counts        `json:"categoryCounts"`
	DepartmentCounts Counts        `json:"departmentCounts"`
	RecentAssets     []RecentAsset `json:"recentAssets"`
}

// Aggregate summarises rows in a single pass. The recent window is
// [now-24h, now], so the same rows can give different results at
// different times.
func Aggregate(rows []Row, now time.Time) *Summary {
	since := now.Add(-RecentWindow)

	total := decimal.Zero
	status := newGrouper(UnknownStatus)
	category := newGrouper(UncategorizedLabel)
	department := newGrouper(UnassignedDepartment)
	recent := make([]RecentAsset, 0)

	for _, row := range rows {
		cost := ParseCost(row.Cost)
		total = total.Add(cost)

		status.add(row.Status)
		category.add(row.Category)
		department.add(row.Department)

		if !row.CreatedAt.Before(since) && !row.CreatedAt.After(now) {
			recent = append(recent, RecentAsset{
				ID:         row.ID,
				Name:       row.Name,
				Category:   optionalString(row.Category),
				Department: row.Department,
				Cost:       optionalCost(row.Cost, cost),
				CreatedAt:  row.CreatedAt,
			})
		}
	}

	activity := len(recent)

	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}

	return &Summary{
		TotalAssets:      len(rows),
		TotalValue:       Money{total},
		RecentActivity:   activity,
		StatusCounts:     status.counts,
		CategoryCounts:   category.counts,
		DepartmentCounts: department.counts,
		RecentAssets:     recent,
	}
}

// Top returns the n largest buckets, count descending. Ties keep their
// original order. Percent is round(100*count/total) over every bucket;
// when rounding pushes the listed percents past 100, the entries that
// rounded up the most give back one point each, later entries first.
func Top(counts Counts, n int) []TopEntry {
	sorted := make(Counts, len(counts))
	copy(sorted, counts)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})

	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}

	total := counts.Total()
	out := make([]TopEntry, 0, len(sorted))
	sum := 0

	for _, b := range sorted {
		percent := 0
		if total > 0 {
			percent = int(math.Round(100 * float64(b.Count) / float64(total)))
		}
		sum += percent
		out = append(out, TopEntry{Name: b.Name, Count: b.Count, Percent: percent})
	}

	if sum > 100 {
		trimOvershoot(out, total, sum-100)
	}

	return out
}

// trimOvershoot lowers excess entries by one point. Rounding error is
// compared in integer units of 1/total percent.
func trimOvershoot(entries []TopEntry, total, excess int) {
	order := make([]int, len(entries))
	for i := range order {
		order[len(order)-1-i] = i
	}

	roundedUp := func(i int) int {
		return entries[i].Percent*total - 100*entries[i].Count
	}

	sort.SliceStable(order, func(a, b int) bool {
		return roundedUp(order[a]) > roundedUp(order[b])
	})

	for _, i := range order {
		if excess == 0 {
			return
		}
		if entries[i].Percent > 0 {
			entries[i].Percent--
			excess--
		}
	}
}

// ParseCost reads a cost leniently. Missing or non-numeric values count
// as zero.
func ParseCost(v any) decimal.Decimal {
	switch c := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return c
	case *decimal.Decimal:
		if c == nil {
			return decimal.Zero
		}
		return *c
	case decimal.NullDecimal:
		if !c.Valid {
			return decimal.Zero
		}
		return c.Decimal
	case float64:
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(c)
	case float32:
		return ParseCost(float64(c))
	case int:
		return decimal.NewFromInt(int64(c))
	case int64:
		return decimal.NewFromInt(c)
	case int32:
		return decimal.NewFromInt32(c)
	case json.Number:
		return ParseCost(c.String())
	case []byte:
		return ParseCost(string(c))
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(c), ",", "")
		s = strings.TrimPrefix(s, "$")
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

func optionalString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// optionalCost is nil when the row carries no cost at all.
func optionalCost(raw any, parsed decimal.Decimal) *Money {
	switch c := raw.(type) {
	case nil:
		return nil
	case *decimal.Decimal:
		if c == nil {
			return nil
		}
	case decimal.NullDecimal:
		if !c.Valid {
			return nil
		}
	}
	return &Money{parsed}
}

type grouper struct {
	fallback string
	index    map[string]int
	counts   Counts
}

func newGrouper(fallback string) *grouper {
	return &grouper{
		fallback: fallback,
		index:    make(map[string]int),
		counts:   Counts{},
	}
}

func (g *grouper) add(label string) {
	if strings.TrimSpace(label) == "" {
		label = g.fallback
	}

	if i, ok := g.index[label]; ok {
		g.counts[i].Count++
		return
	}

	g.index[label] = len(g.counts)
	g.counts = append(g.counts, Count{Name: label, Count: 1})
}
