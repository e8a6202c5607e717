// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/asset-manager/internal/auth"
	"github.com/carterperez-dev/templates/asset-manager/internal/core"
)

// Notifier delivers account emails. It reports whether the message was
// accepted for delivery.
type Notifier interface {
	UserCredentials(ctx context.Context, to, name, password string) bool
}

type Service struct {
	repo     Repository
	notifier Notifier
}

func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

// CreateUser provisions a regular account on behalf of an admin and queues
// the credentials email. The role is always "user".
func (s *Service) CreateUser(
	ctx context.Context,
	req CreateUserRequest,
) (*CreateUserResponse, error) {
	user, err := s.create(ctx, req.Email, req.Password, req.Name, RoleUser)
	if err != nil {
		return nil, err
	}

	queued := false
	if s.notifier != nil {
		queued = s.notifier.UserCredentials(ctx, user.Email, user.Name, req.Password)
	}

	return &CreateUserResponse{
		User:        ToUserResponse(user),
		EmailQueued: queued,
	}, nil
}

// CreateAdmin bootstraps an administrator from the command line.
func (s *Service) CreateAdmin(
	ctx context.Context,
	email, password, name string,
) (*User, error) {
	return s.create(ctx, email, password, name, RoleAdmin)
}

func (s *Service) create(
	ctx context.Context,
	email, password, name, role string,
) (*User, error) {
	hash, err := core.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	user := &User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
		Role:         role,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.InvalidInputError("A user with this email already exists")
		}
		return nil, err
	}

	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

// DeleteUser hard deletes targetID. Admins cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, requesterID, targetID string) error {
	if requesterID == targetID {
		return core.InvalidInputError("You cannot delete your own account")
	}

	if err := s.repo.Delete(ctx, targetID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.NotFoundError("User")
		}
		return err
	}

	return nil
}

// UpdateIdentity replaces the display name and email of a user.
func (s *Service) UpdateIdentity(ctx context.Context, userID, name, email string) error {
	return s.repo.UpdateIdentity(ctx, userID, name, strings.ToLower(email))
}

func (s *Service) AdminEmails(ctx context.Context) ([]string, error) {
	return s.repo.EmailsByRole(ctx, RoleAdmin)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		CreatedAt:    u.CreatedAt,
	}
}

var _ auth.UserProvider = (*Service)(nil)
