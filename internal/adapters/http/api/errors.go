package api

import (
	"errors"
	"net/http"

	service "github.com/okian/highscore/internal/app"
	"github.com/okian/highscore/internal/domain/ranking"
	"github.com/okian/highscore/internal/domain/secret"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// Error codes carried in errorResponse.Code.
const (
	codeBadRequest         = "bad_request"
	codeNotFound           = "not_found"
	codeVerificationFailed = "verification_failed"
	codeStorageError       = "storage_error"
	codeUnavailable        = "unavailable"
	codeInternalError      = "internal_error"
)

// statusFor maps a service error to its HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidTableName),
		errors.Is(err, service.ErrInvalidEntry):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, service.ErrUnknownTable):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, secret.ErrVerificationFailed):
		return http.StatusForbidden, codeVerificationFailed
	case errors.Is(err, ranking.ErrStorage):
		return http.StatusInternalServerError, codeStorageError
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, codeUnavailable
	default:
		return http.StatusInternalServerError, codeInternalError
	}
}
