// AngelaMos | 2026
// entity.go

package asset

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusActive             = "active"
	StatusWarrantyRegistered = "warranty registered"

	DefaultWarrantyMonths = 24
	DateLayout            = "2006-01-02"
)

type Asset struct {
	ID            string              `db:"id"`
	Name          string              `db:"name"`
	Category      string              `db:"category"`
	Department    string              `db:"department"`
	DatePurchased *time.Time          `db:"date_purchased"`
	Cost          decimal.NullDecimal `db:"cost"`
	Status        string              `db:"status"`
	Description   *string             `db:"description"`
	ImageURLs     ImageURLs           `db:"image_urls"`
	CreatedBy     *string             `db:"created_by"`

	WarrantyPeriodMonths *int       `db:"warranty_period_months"`
	WarrantyExpiryDate   *time.Time `db:"warranty_expiry_date"`
	WarrantyNotes        *string    `db:"warranty_notes"`
	WarrantyRegisteredAt *time.Time `db:"warranty_registered_at"`
	WarrantyRegisteredBy *string    `db:"warranty_registered_by"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IsWarrantyRegistered compares case-insensitively; older rows carry
// "Warranty Registered".
func (a *Asset) IsWarrantyRegistered() bool {
	return strings.EqualFold(strings.TrimSpace(a.Status), StatusWarrantyRegistered)
}

func (a *Asset) OwnedBy(userID string) bool {
	return a.CreatedBy != nil && *a.CreatedBy == userID
}

// CostString renders the cost the way the warranty service expects it.
func (a *Asset) CostString() string {
	if !a.Cost.Valid {
		return "0"
	}
	return a.Cost.Decimal.String()
}

func (a *Asset) DatePurchasedString() string {
	if a.DatePurchased == nil {
		return ""
	}
	return a.DatePurchased.Format(DateLayout)
}

// ImageURLs is stored as a JSONB array.
type ImageURLs []string

func (u ImageURLs) Value() (driver.Value, error) {
	if len(u) == 0 {
		return nil, nil
	}

	b, err := json.Marshal([]string(u))
	if err != nil {
		return nil, fmt.Errorf("encode image urls: %w", err)
	}
	return string(b), nil
}

func (u *ImageURLs) Scan(src any) error {
	var raw []byte

	switch v := src.(type) {
	case nil:
		*u = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("image_urls: unsupported column type")
	}

	var urls []string
	if err := json.Unmarshal(raw, &urls); err != nil {
		return fmt.Errorf("decode image urls: %w", err)
	}

	*u = urls
	return nil
}

// WarrantyUpdate is the local record written once the warranty service
// has accepted a registration.
type WarrantyUpdate struct {
	PeriodMonths int
	ExpiryDate   time.Time
	Notes        *string
	RegisteredBy string
}
