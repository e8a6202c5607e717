// AngelaMos | 2026
// pgerr.go

package core

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUndefinedTable  = "42P01"
	pgUniqueViolation = "23505"
)

func asPgError(err error) *pgconn.PgError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr
	}
	return nil
}

// IsUndefinedTable reports a relation that does not exist, i.e. an
// unmigrated database.
func IsUndefinedTable(err error) bool {
	if pgErr := asPgError(err); pgErr != nil {
		return pgErr.Code == pgUndefinedTable
	}
	return err != nil && strings.Contains(err.Error(), "does not exist") &&
		strings.Contains(err.Error(), "relation")
}

func IsDuplicateKey(err error) bool {
	if pgErr := asPgError(err); pgErr != nil {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

// isClientCorrectable covers data exceptions (22) and integrity
// violations (23): the request can be fixed by the caller.
func isClientCorrectable(pgErr *pgconn.PgError) bool {
	return strings.HasPrefix(pgErr.Code, "22") ||
		strings.HasPrefix(pgErr.Code, "23")
}

// BackendFailure converts a data store error into a BackendError. Client
// correctable failures pass the backend message through with 400; anything
// else is hidden behind a generic 500.
func BackendFailure(err error) *AppError {
	pgErr := asPgError(err)
	if pgErr != nil && isClientCorrectable(pgErr) {
		return NewAppError(err, KindBackendError, pgErr.Message, http.StatusBadRequest)
	}

	return NewAppError(
		err,
		KindBackendError,
		"internal server error",
		http.StatusInternalServerError,
	)
}
