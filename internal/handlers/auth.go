package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/packlabs/packvault-backend/internal/authz"
	"github.com/packlabs/packvault-backend/internal/services"
	"github.com/packlabs/packvault-backend/internal/vaulterr"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Token mints an access token for a named principal. Identity proofing
// happens upstream of this service; the handler only validates shape.
func (ah *AuthHandler) Token(c *gin.Context) {
	var req struct {
		Subject string `json:"subject"`
		Role    string `json:"role"`
		TTLSecs int64  `json:"ttl_seconds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, vaulterr.New(vaulterr.KindValidation, "invalid_body", err))
		return
	}
	role, ok := authz.ParseRole(req.Role)
	if !ok {
		RespondError(c, vaulterr.Newf(vaulterr.KindValidation, "invalid_role", "unknown role %q", req.Role))
		return
	}
	ttl := time.Duration(req.TTLSecs) * time.Second
	token, err := ah.authService.IssueToken(req.Subject, role, ttl)
	if err != nil {
		RespondError(c, err)
		return
	}
	if ttl <= 0 {
		ttl = ah.authService.GetTokenTTL()
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"expires_in":   int(ttl.Seconds()),
	})
}
