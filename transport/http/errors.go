package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletauth/core"
)

// Error codes returned in the "error" field of failed responses
const (
	CodeInvalidRequest            = "invalid_request"
	CodeInvalidAddress            = "invalid_address"
	CodeChallengeInvalidOrExpired = "challenge_invalid_or_expired"
	CodeSignatureMismatch         = "signature_mismatch"
	CodeInvalidSession            = "invalid_session"
	CodeStorageError              = "storage_error"
	CodeInternal                  = "internal_error"
	CodeRateLimited               = "rate_limited"
)

// classify maps a service error to a status code and a public error code.
// Only the category leaves the process, never the wrapped detail.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidAddress):
		return http.StatusBadRequest, CodeInvalidAddress
	case errors.Is(err, core.ErrChallengeInvalidOrExpired):
		return http.StatusUnauthorized, CodeChallengeInvalidOrExpired
	case errors.Is(err, core.ErrSignatureMismatch):
		return http.StatusUnauthorized, CodeSignatureMismatch
	case errors.Is(err, core.ErrInvalidSession):
		return http.StatusUnauthorized, CodeInvalidSession
	case errors.Is(err, core.ErrStorage):
		return http.StatusInternalServerError, CodeStorageError
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func (h *AuthHandlers) writeError(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		h.log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.JSON(status, gin.H{"error": code})
}
