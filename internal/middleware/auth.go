// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/carterperez-dev/templates/asset-manager/internal/core"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const callerKey contextKey = "caller"

type TokenVerifier interface {
	VerifyAccessToken(
		ctx context.Context,
		token string,
	) (*AccessTokenClaims, error)
}

type AccessTokenClaims struct {
	UserID    string
	Email     string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// Caller is the identity resolved from the bearer token of one request.
type Caller struct {
	ID        string
	Email     string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

func (c *Caller) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}

func Authenticator(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("missing authorization token"),
				)
				return
			}

			claims, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), callerFromClaims(claims))))
		})
	}
}

func callerFromClaims(claims *AccessTokenClaims) *Caller {
	role := claims.Role
	if role == "" {
		role = RoleUser
	}

	return &Caller{
		ID:        claims.UserID,
		Email:     claims.Email,
		Role:      role,
		TokenID:   claims.TokenID,
		ExpiresAt: claims.ExpiresAt,
	}
}

// Guard is the one role check every protected operation goes through. A
// missing identity is Unauthorized; a non-admin asking for admin is
// Forbidden. Any role satisfies RoleUser.
func Guard(ctx context.Context, required string) (*Caller, error) {
	caller := CallerFrom(ctx)
	if caller == nil || caller.ID == "" {
		return nil, core.UnauthorizedError("")
	}

	if required == RoleAdmin && caller.Role != RoleAdmin {
		return nil, core.ForbiddenError("")
	}

	return caller, nil
}

// Require runs Guard before the handler, so callers without the role are
// rejected before their payload is looked at.
func Require(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := Guard(r.Context(), role); err != nil {
				core.JSONError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return Require(RoleAdmin)(next)
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func handleAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	switch {
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenRevoked):
		core.JSONError(w, core.TokenRevokedError())
	default:
		core.JSONError(w, core.TokenInvalidError())
	}
}

func WithCaller(ctx context.Context, caller *Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

func CallerFrom(ctx context.Context) *Caller {
	if caller, ok := ctx.Value(callerKey).(*Caller); ok {
		return caller
	}
	return nil
}

func GetUserID(ctx context.Context) string {
	if caller := CallerFrom(ctx); caller != nil {
		return caller.ID
	}
	return ""
}
