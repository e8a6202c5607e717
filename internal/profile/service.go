// AngelaMos | 2026
// service.go

package profile

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/asset-manager/internal/auth"
	"github.com/carterperez-dev/templates/asset-manager/internal/core"
	"github.com/carterperez-dev/templates/asset-manager/internal/email"
	"github.com/carterperez-dev/templates/asset-manager/internal/middleware"
)

// Directory is the user store the workflow reads from and, on approval,
// writes to.
type Directory interface {
	GetByID(ctx context.Context, id string) (*auth.UserInfo, error)
	UpdateIdentity(ctx context.Context, userID, name, email string) error
	AdminEmails(ctx context.Context) ([]string, error)
}

type Notifier interface {
	ProfileRequested(ctx context.Context, admins []string, req email.ProfileRequestSummary) bool
	ProfileApproved(ctx context.Context, to string, d email.ProfileDecision) bool
	ProfileRejected(ctx context.Context, to string, d email.ProfileDecision) bool
}

type Service struct {
	repo      Repository
	directory Directory
	notifier  Notifier
}

func NewService(repo Repository, directory Directory, notifier Notifier) *Service {
	return &Service{repo: repo, directory: directory, notifier: notifier}
}

// RequestUpdate files a pending change for the caller. A user has at most
// one pending request; the partial unique index enforces it under races.
func (s *Service) RequestUpdate(
	ctx context.Context,
	caller *middleware.Caller,
	in UpdateRequest,
) (*Request, error) {
	currentName := ""
	currentEmail := caller.Email

	if u, err := s.directory.GetByID(ctx, caller.ID); err == nil {
		currentName = u.Name
		currentEmail = u.Email
	} else if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	requestedEmail := strings.ToLower(strings.TrimSpace(in.RequestedEmail))
	requestedName := strings.TrimSpace(in.RequestedName)

	if strings.EqualFold(requestedEmail, currentEmail) && requestedName == currentName {
		return nil, core.InvalidInputError(
			"No changes detected. Please provide different name or email.")
	}

	pending, err := s.repo.HasPending(ctx, caller.ID)
	if err != nil {
		return nil, s.writeError(err)
	}
	if pending {
		return nil, errPendingExists()
	}

	req := &Request{
		ID:             uuid.NewString(),
		UserID:         caller.ID,
		CurrentName:    optional(currentName),
		CurrentEmail:   currentEmail,
		RequestedName:  optional(requestedName),
		RequestedEmail: requestedEmail,
		Status:         StatusPending,
	}

	if err := s.repo.Create(ctx, req); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, errPendingExists()
		}
		return nil, s.writeError(err)
	}

	s.notifyAdmins(ctx, req)

	return req, nil
}

func (s *Service) notifyAdmins(ctx context.Context, req *Request) {
	if s.notifier == nil {
		return
	}

	admins, err := s.directory.AdminEmails(ctx)
	if err != nil {
		slog.WarnContext(ctx, "load admin emails failed", "error", err)
		return
	}

	s.notifier.ProfileRequested(ctx, admins, email.ProfileRequestSummary{
		UserEmail:      req.CurrentEmail,
		CurrentName:    orNA(req.CurrentName),
		RequestedName:  orNA(req.RequestedName),
		RequestedEmail: req.RequestedEmail,
	})
}

func (s *Service) ListMine(ctx context.Context, caller *middleware.Caller) ([]Request, error) {
	requests, err := s.repo.ListByUser(ctx, caller.ID)
	if core.IsUndefinedTable(err) {
		return []Request{}, nil
	}
	return requests, err
}

func (s *Service) List(ctx context.Context, status string) ([]Request, error) {
	requests, err := s.repo.List(ctx, status)
	if core.IsUndefinedTable(err) {
		return []Request{}, nil
	}
	return requests, err
}

// Decide approves or rejects a pending request. Approval then updates the
// user's name and email; that update and the notification are best-effort
// and never undo the decision.
func (s *Service) Decide(
	ctx context.Context,
	reviewer *middleware.Caller,
	in DecisionRequest,
) (*Request, error) {
	notes := strings.TrimSpace(in.AdminNotes)
	if in.Action == ActionReject && notes == "" {
		return nil, core.InvalidInputError("admin_notes is required when rejecting a request")
	}

	if uuid.Validate(in.RequestID) != nil {
		return nil, core.NotFoundError("Profile update request")
	}

	current, err := s.repo.GetByID(ctx, in.RequestID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("Profile update request")
		}
		return nil, s.writeError(err)
	}

	if !current.IsPending() {
		return nil, errAlreadyProcessed()
	}

	status := StatusApproved
	if in.Action == ActionReject {
		status = StatusRejected
	}

	decided, err := s.repo.Decide(ctx, current.ID, status, optional(notes), reviewer.ID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, errAlreadyProcessed()
		}
		return nil, s.writeError(err)
	}

	if status == StatusApproved {
		s.applyIdentity(ctx, decided)
	}

	s.notifyDecision(ctx, decided)

	return decided, nil
}

func (s *Service) applyIdentity(ctx context.Context, req *Request) {
	name := deref(req.RequestedName)
	if name == "" {
		name = deref(req.CurrentName)
	}

	if err := s.directory.UpdateIdentity(ctx, req.UserID, name, req.RequestedEmail); err != nil {
		slog.ErrorContext(ctx, "apply approved profile update failed",
			"request_id", req.ID,
			"user_id", req.UserID,
			"error", err,
		)
	}
}

func (s *Service) notifyDecision(ctx context.Context, req *Request) {
	if s.notifier == nil {
		return
	}

	d := email.ProfileDecision{
		Name:  orNA(req.RequestedName),
		Email: req.RequestedEmail,
		Notes: deref(req.AdminNotes),
	}

	if req.Status == StatusApproved {
		s.notifier.ProfileApproved(ctx, req.RequestedEmail, d)
		return
	}

	s.notifier.ProfileRejected(ctx, req.CurrentEmail, d)
}

func (s *Service) writeError(err error) error {
	if core.IsUndefinedTable(err) {
		return core.NotConfiguredError(Table)
	}
	return err
}

func errPendingExists() error {
	return core.InvalidInputError(
		"You already have a pending profile update request. Please wait for admin approval.")
}

func errAlreadyProcessed() error {
	return core.InvalidInputError("This request has already been processed")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orNA(s *string) string {
	if v := deref(s); v != "" {
		return v
	}
	return "N/A"
}
