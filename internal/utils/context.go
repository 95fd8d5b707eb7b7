// internal/utils/context.go
package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Principal is the authenticated customer behind the current request.
type Principal struct {
	CustomerID uint
	Username   string
	SessionID  uuid.UUID
}

const principalContextKey = "principal"

func SetPrincipal(c *gin.Context, p *Principal) {
	c.Set(principalContextKey, p)
}

func GetPrincipal(c *gin.Context) (*Principal, bool) {
	if v, exists := c.Get(principalContextKey); exists {
		if p, ok := v.(*Principal); ok && p != nil {
			return p, true
		}
	}
	return nil, false
}

// GetCustomerIDFromContext returns the authenticated customer id, if any.
func GetCustomerIDFromContext(c *gin.Context) (uint, bool) {
	if p, ok := GetPrincipal(c); ok {
		return p.CustomerID, true
	}
	return 0, false
}
