// internal/middleware/auth.go
package middleware

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

// SessionStore looks up server-side sessions. It returns nil without an
// error when the session does not exist.
type SessionStore interface {
	FindSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
}

type Authenticator struct {
	tokens     *utils.TokenManager
	sessions   SessionStore
	cookieName string
	now        func() time.Time
}

func NewAuthenticator(tokens *utils.TokenManager, sessions SessionStore, cookieName string) *Authenticator {
	return &Authenticator{
		tokens:     tokens,
		sessions:   sessions,
		cookieName: cookieName,
		now:        time.Now,
	}
}

// Required rejects requests without a live session.
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := a.resolve(c)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		if principal == nil {
			utils.Fail(c, utils.AuthenticationError())
			return
		}

		utils.SetPrincipal(c, principal)
		c.Next()
	}
}

// Optional attaches the principal when a live session is presented and
// never rejects the request.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if principal, err := a.resolve(c); err == nil && principal != nil {
			utils.SetPrincipal(c, principal)
		}
		c.Next()
	}
}

func (a *Authenticator) resolve(c *gin.Context) (*utils.Principal, error) {
	token := a.extractToken(c)
	if token == "" {
		return nil, nil
	}

	claims, err := a.tokens.Validate(token)
	if err != nil {
		return nil, nil
	}

	sessionID, err := claims.SessionID()
	if err != nil {
		return nil, nil
	}

	session, err := a.sessions.FindSession(c.Request.Context(), sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.CustomerID != claims.CustomerID || session.Expired(a.now()) {
		return nil, nil
	}

	return &utils.Principal{
		CustomerID: claims.CustomerID,
		Username:   claims.Username,
		SessionID:  sessionID,
	}, nil
}

func (a *Authenticator) extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(a.cookieName); err == nil && cookie != "" {
		return cookie
	}

	// Extract token from "Bearer <token>"
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// OwnerResolver produces the id of the customer owning the resource a
// request targets.
type OwnerResolver func(c *gin.Context) (uint, error)

// ParamOwner treats the named path parameter as the owning customer id.
func ParamOwner(param string) OwnerResolver {
	return func(c *gin.Context) (uint, error) {
		id, err := strconv.ParseUint(c.Param(param), 10, 64)
		if err != nil {
			return 0, utils.AuthorizationError()
		}
		return uint(id), nil
	}
}

// ReviewOwner reads the owner from the review attached by LoadReview.
func ReviewOwner() OwnerResolver {
	return func(c *gin.Context) (uint, error) {
		review, ok := LoadedReview(c)
		if !ok {
			return 0, utils.NotFoundError(utils.MsgNotFound)
		}
		return review.CustomerID, nil
	}
}

// OwnerOnly allows the request only when the principal owns the resource.
// It expects Required to have run earlier in the chain.
func OwnerOnly(owner OwnerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := utils.GetPrincipal(c)
		if !ok {
			utils.Fail(c, utils.AuthenticationError())
			return
		}

		ownerID, err := owner(c)
		if err != nil {
			utils.Fail(c, err)
			return
		}

		if principal.CustomerID != ownerID {
			utils.Fail(c, utils.AuthorizationError())
			return
		}
		c.Next()
	}
}

// ReviewLoader fetches a review with its author and product. It returns nil
// without an error when the review does not exist.
type ReviewLoader interface {
	FindReview(ctx context.Context, id uint) (*models.Review, error)
}

const loadedReviewKey = "review"

// LoadReview fetches the review named by the :id parameter and attaches it
// to the context.
func LoadReview(loader ReviewLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			utils.Fail(c, utils.NotFoundError(utils.MsgNotFound))
			return
		}

		review, err := loader.FindReview(c.Request.Context(), uint(id))
		if err != nil {
			utils.Fail(c, err)
			return
		}
		if review == nil {
			utils.Fail(c, utils.NotFoundError(utils.MsgNotFound))
			return
		}

		c.Set(loadedReviewKey, review)
		c.Next()
	}
}

func LoadedReview(c *gin.Context) (*models.Review, bool) {
	if v, exists := c.Get(loadedReviewKey); exists {
		if review, ok := v.(*models.Review); ok && review != nil {
			return review, true
		}
	}
	return nil, false
}
