// AngelaMos | 2026
// entity.go

package profile

import (
	"time"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"

	ActionApprove = "approve"
	ActionReject  = "reject"

	Table = "profile_update_requests"
)

// Request is a user's ask to change their name or email. It leaves the
// pending state exactly once.
type Request struct {
	ID             string     `db:"id"              json:"id"`
	UserID         string     `db:"user_id"         json:"user_id"`
	CurrentName    *string    `db:"current_name"    json:"current_name"`
	CurrentEmail   string     `db:"current_email"   json:"current_email"`
	RequestedName  *string    `db:"requested_name"  json:"requested_name"`
	RequestedEmail string     `db:"requested_email" json:"requested_email"`
	Status         string     `db:"status"          json:"status"`
	AdminNotes     *string    `db:"admin_notes"     json:"admin_notes"`
	ReviewedBy     *string    `db:"reviewed_by"     json:"reviewed_by"`
	ReviewedAt     *time.Time `db:"reviewed_at"     json:"reviewed_at"`
	CreatedAt      time.Time  `db:"created_at"      json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"      json:"updated_at"`
}

func (r *Request) IsPending() bool {
	return r.Status == StatusPending
}

type UpdateRequest struct {
	RequestedName  string `json:"requested_name"  validate:"omitempty,max=100"`
	RequestedEmail string `json:"requested_email" validate:"required,email,max=255"`
}

type DecisionRequest struct {
	RequestID  string `json:"request_id"  validate:"required"`
	Action     string `json:"action"      validate:"required,oneof=approve reject"`
	AdminNotes string `json:"admin_notes" validate:"omitempty,max=2000"`
}

type RequestResponse struct {
	Success bool     `json:"success"`
	Request *Request `json:"request"`
}

type ListResponse struct {
	Requests []Request `json:"requests"`
}
