// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidInput  = errors.New("invalid input")
	ErrDuplicateKey  = errors.New("duplicate key")
	ErrNotConfigured = errors.New("backend not configured")
	ErrUpstream      = errors.New("upstream failure")

	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenRevoked = errors.New("token revoked")
)

// Kind is the stable error vocabulary exposed to API clients.
type Kind string

const (
	KindUnauthorized         Kind = "Unauthorized"
	KindForbidden            Kind = "Forbidden"
	KindInvalidInput         Kind = "InvalidInput"
	KindNotFound             Kind = "NotFound"
	KindBackendNotConfigured Kind = "BackendNotConfigured"
	KindBackendError         Kind = "BackendError"
	KindUpstreamFailure      Kind = "UpstreamFailure"
	KindInternal             Kind = "Internal"
)

type AppError struct {
	Err        error
	Kind       Kind
	Message    string
	Hint       string
	StatusCode int
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithHint(hint string) *AppError {
	e.Hint = hint
	return e
}

func NewAppError(err error, kind Kind, message string, status int) *AppError {
	return &AppError{
		Err:        err,
		Kind:       kind,
		Message:    message,
		StatusCode: status,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func UnauthorizedError(message string) *AppError {
	if message == "" {
		message = "Unauthorized"
	}
	return NewAppError(ErrUnauthorized, KindUnauthorized, message, http.StatusUnauthorized)
}

func ForbiddenError(message string) *AppError {
	if message == "" {
		message = "Forbidden: Admin access required"
	}
	return NewAppError(ErrForbidden, KindForbidden, message, http.StatusForbidden)
}

func InvalidInputError(message string) *AppError {
	return NewAppError(ErrInvalidInput, KindInvalidInput, message, http.StatusBadRequest)
}

func NotFoundError(resource string) *AppError {
	return NewAppError(
		ErrNotFound,
		KindNotFound,
		fmt.Sprintf("%s not found", resource),
		http.StatusNotFound,
	)
}

// NotConfiguredError reports a table that has not been migrated yet.
func NotConfiguredError(table string) *AppError {
	return NewAppError(
		ErrNotConfigured,
		KindBackendNotConfigured,
		fmt.Sprintf("Table %q not found. The database schema has not been set up.", table),
		http.StatusInternalServerError,
	).WithHint("Run `assetctl migrate up` or start the API with database.auto_migrate enabled.")
}

func UpstreamError(service string, err error) *AppError {
	return NewAppError(
		fmt.Errorf("%w: %w", ErrUpstream, err),
		KindUpstreamFailure,
		fmt.Sprintf("%s request failed", service),
		http.StatusInternalServerError,
	)
}

func InternalError(err error) *AppError {
	return NewAppError(err, KindInternal, "internal server error", http.StatusInternalServerError)
}

func TokenExpiredError() *AppError {
	return NewAppError(ErrTokenExpired, KindUnauthorized, "token has expired", http.StatusUnauthorized)
}

func TokenInvalidError() *AppError {
	return NewAppError(ErrTokenInvalid, KindUnauthorized, "invalid token", http.StatusUnauthorized)
}

func TokenRevokedError() *AppError {
	return NewAppError(ErrTokenRevoked, KindUnauthorized, "token has been revoked", http.StatusUnauthorized)
}

// ToAppError maps any error onto the API vocabulary. Wrapped sentinels keep
// their kind; Postgres errors are classified; everything else is internal.
func ToAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return NewAppError(err, KindNotFound, "resource not found", http.StatusNotFound)
	case errors.Is(err, ErrUnauthorized):
		return NewAppError(err, KindUnauthorized, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrForbidden):
		return NewAppError(err, KindForbidden, "Forbidden", http.StatusForbidden)
	case errors.Is(err, ErrInvalidInput):
		return NewAppError(err, KindInvalidInput, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrTokenExpired):
		return TokenExpiredError()
	case errors.Is(err, ErrTokenRevoked):
		return TokenRevokedError()
	case errors.Is(err, ErrTokenInvalid):
		return TokenInvalidError()
	}

	if pgErr := asPgError(err); pgErr != nil {
		return BackendFailure(err)
	}

	return InternalError(err)
}
