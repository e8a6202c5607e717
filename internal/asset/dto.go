// AngelaMos | 2026
// dto.go

package asset

import (
	"encoding/json"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

type CreateAssetRequest struct {
	Name          string           `json:"name"           validate:"required,max=255"`
	Category      string           `json:"category"       validate:"required,max=100"`
	Department    string           `json:"department"     validate:"required,max=100"`
	DatePurchased string           `json:"date_purchased" validate:"required,datetime=2006-01-02"`
	Cost          *decimal.Decimal `json:"cost"           validate:"required"`
	Status        string           `json:"status"         validate:"omitempty,max=50"`
	Description   string           `json:"description"    validate:"omitempty,max=2000"`
}

// Upload is one image part of a multipart asset submission.
type Upload struct {
	Filename string
	Body     io.Reader
}

type RegisterWarrantyRequest struct {
	AssetID              string `json:"asset_id"               validate:"required"`
	WarrantyPeriodMonths *int   `json:"warranty_period_months" validate:"omitempty,gte=0,lte=600"`
	WarrantyExpiryDate   string `json:"warranty_expiry_date"   validate:"required,datetime=2006-01-02"`
	Notes                string `json:"notes"                  validate:"omitempty,max=2000"`
}

type ListFilter struct {
	OwnerID    string
	Category   string
	Department string
	Status     string
	Search     string
}

type AssetResponse struct {
	ID                   string       `json:"id"`
	Name                 string       `json:"name"`
	Category             string       `json:"category"`
	Department           string       `json:"department"`
	DatePurchased        *string      `json:"date_purchased"`
	Cost                 *json.Number `json:"cost"`
	Status               string       `json:"status"`
	Description          *string      `json:"description"`
	ImageURLs            []string     `json:"image_urls"`
	CreatedBy            *string      `json:"created_by,omitempty"`
	WarrantyPeriodMonths *int         `json:"warranty_period_months,omitempty"`
	WarrantyExpiryDate   *string      `json:"warranty_expiry_date,omitempty"`
	WarrantyNotes        *string      `json:"warranty_notes,omitempty"`
	WarrantyRegisteredAt *time.Time   `json:"warranty_registered_at,omitempty"`
	WarrantyRegisteredBy *string      `json:"warranty_registered_by,omitempty"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// ListResponse carries an error and hint alongside an empty list when the
// assets table has not been created, so dashboards still render.
type ListResponse struct {
	Assets []AssetResponse `json:"assets"`
	Error  string          `json:"error,omitempty"`
	Hint   string          `json:"hint,omitempty"`
}

type CreateAssetResponse struct {
	Success     bool          `json:"success"`
	Asset       AssetResponse `json:"asset"`
	EmailQueued bool          `json:"email_queued"`
}

type RegisterWarrantyResponse struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Warranty json.RawMessage `json:"warranty"`
}

func ToAssetResponse(a *Asset) AssetResponse {
	resp := AssetResponse{
		ID:                   a.ID,
		Name:                 a.Name,
		Category:             a.Category,
		Department:           a.Department,
		Status:               a.Status,
		Description:          a.Description,
		ImageURLs:            []string(a.ImageURLs),
		CreatedBy:            a.CreatedBy,
		WarrantyPeriodMonths: a.WarrantyPeriodMonths,
		WarrantyNotes:        a.WarrantyNotes,
		WarrantyRegisteredAt: a.WarrantyRegisteredAt,
		WarrantyRegisteredBy: a.WarrantyRegisteredBy,
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}

	if resp.ImageURLs == nil {
		resp.ImageURLs = []string{}
	}

	if a.DatePurchased != nil {
		d := a.DatePurchased.Format(DateLayout)
		resp.DatePurchased = &d
	}

	if a.WarrantyExpiryDate != nil {
		d := a.WarrantyExpiryDate.Format(DateLayout)
		resp.WarrantyExpiryDate = &d
	}

	if a.Cost.Valid {
		n := json.Number(a.Cost.Decimal.String())
		resp.Cost = &n
	}

	return resp
}

func ToAssetResponseList(assets []Asset) []AssetResponse {
	out := make([]AssetResponse, 0, len(assets))
	for i := range assets {
		out = append(out, ToAssetResponse(&assets[i]))
	}
	return out
}
