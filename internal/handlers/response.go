package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/packlabs/packvault-backend/internal/vaulterr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondError maps the stable error taxonomy onto HTTP statuses so
// clients can branch on status or on the machine-readable code.
func RespondError(c *gin.Context, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(statusFor(err), ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    vaulterr.CodeOf(err),
		},
	})
}

func statusFor(err error) int {
	switch vaulterr.KindOf(err) {
	case vaulterr.KindValidation:
		return http.StatusBadRequest
	case vaulterr.KindNotFound:
		return http.StatusNotFound
	case vaulterr.KindAuthorization:
		return http.StatusForbidden
	case vaulterr.KindLimitExceeded, vaulterr.KindCooldown:
		return http.StatusTooManyRequests
	case vaulterr.KindSlippageExceeded:
		return http.StatusUnprocessableEntity
	case vaulterr.KindPaused:
		return http.StatusServiceUnavailable
	case vaulterr.KindReentrancy:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
