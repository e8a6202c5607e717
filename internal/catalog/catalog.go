// AngelaMos | 2026
// catalog.go

package catalog

import (
	"time"
)

// Kind names one catalog table and how it is presented over the API.
type Kind struct {
	Table    string
	Resource string
	Singular string
	Plural   string
}

var (
	Categories = Kind{
		Table:    "asset_categories",
		Resource: "Category",
		Singular: "category",
		Plural:   "categories",
	}

	Departments = Kind{
		Table:    "departments",
		Resource: "Department",
		Singular: "department",
		Plural:   "departments",
	}
)

type Entry struct {
	ID          string    `db:"id"          json:"id"`
	Name        string    `db:"name"        json:"name"`
	Description *string   `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at"  json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"  json:"updated_at"`
}

type EntryRequest struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Description string `json:"description" validate:"omitempty,max=1000"`
}
