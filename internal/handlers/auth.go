// internal/handlers/auth.go
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type AuthService interface {
	Signup(ctx context.Context, req *services.SignupRequest) (*services.AuthResult, error)
	Login(ctx context.Context, req *services.LoginRequest) (*services.AuthResult, error)
	SSO(ctx context.Context, req *services.SSORequest) (*services.AuthResult, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
}

type AuthHandler struct {
	authService AuthService
	session     config.SessionConfig
	now         func() time.Time
}

func NewAuthHandler(authService AuthService, session config.SessionConfig) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		session:     session,
		now:         time.Now,
	}
}

// POST /signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req services.SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Signup(c.Request.Context(), &req)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	h.setSessionCookie(c, result)
	utils.CreatedResponse(c, gin.H{"customer": result.Customer})
}

// POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	h.setSessionCookie(c, result)
	utils.SuccessResponse(c, gin.H{"customer": result.Customer})
}

// POST /sso
func (h *AuthHandler) SSO(c *gin.Context) {
	var req services.SSORequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.SSO(c.Request.Context(), &req)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	h.setSessionCookie(c, result)
	if result.Created {
		utils.CreatedResponse(c, gin.H{"customer": result.Customer})
		return
	}
	utils.SuccessResponse(c, gin.H{"customer": result.Customer})
}

// POST /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	if err := h.authService.Logout(c.Request.Context(), p.SessionID); err != nil {
		utils.Fail(c, err)
		return
	}

	h.clearSessionCookie(c)
	utils.MessageResponse(c, fmt.Sprintf("%s is now logged out.", p.Username))
}

// The storefront client is served from another origin, so the cookie has
// to be SameSite=None.
func (h *AuthHandler) setSessionCookie(c *gin.Context, result *services.AuthResult) {
	maxAge := int(result.ExpiresAt.Sub(h.now()).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}

	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(h.session.CookieName, result.Token, maxAge, "/", "", h.session.CookieSecure, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(h.session.CookieName, "", -1, "/", "", h.session.CookieSecure, true)
}
