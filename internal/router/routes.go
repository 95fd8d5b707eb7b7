// internal/router/routes.go
package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront-backend/internal/middleware"
)

// Access is the capability a route requires of its caller.
type Access int

const (
	// Public routes never look at the session.
	Public Access = iota
	// PublicRead routes attach the principal when present and never reject.
	// Only GET routes may be PublicRead.
	PublicRead
	// Authenticated routes require a live session.
	Authenticated
	// OwnerOnly routes require the principal to own the target resource.
	OwnerOnly
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case PublicRead:
		return "public-read"
	case Authenticated:
		return "authenticated"
	case OwnerOnly:
		return "owner-only"
	default:
		return fmt.Sprintf("access(%d)", int(a))
	}
}

// Route is one entry of the route table.
type Route struct {
	Method string
	Path   string
	Access Access
	// Owner resolves the owning customer of OwnerOnly routes.
	Owner middleware.OwnerResolver
	// Before runs ahead of the access checks.
	Before []gin.HandlerFunc
	// Load runs after authentication and before the owner check.
	Load []gin.HandlerFunc
	// Handlers are the validators and the final handler.
	Handlers []gin.HandlerFunc
}

// Chain turns the route's capability into its middleware chain. It panics
// on tables that could expose a mutation without a session check.
func (r Route) Chain(auth *middleware.Authenticator) []gin.HandlerFunc {
	if len(r.Handlers) == 0 {
		panic(fmt.Sprintf("route %s %s has no handler", r.Method, r.Path))
	}

	chain := append([]gin.HandlerFunc{}, r.Before...)

	switch r.Access {
	case Public:
	case PublicRead:
		if r.Method != http.MethodGet {
			panic(fmt.Sprintf("route %s %s: %s is only allowed on GET", r.Method, r.Path, r.Access))
		}
		chain = append(chain, auth.Optional())
	case Authenticated:
		chain = append(chain, auth.Required())
	case OwnerOnly:
		if r.Owner == nil {
			panic(fmt.Sprintf("route %s %s: %s needs an owner resolver", r.Method, r.Path, r.Access))
		}
		chain = append(chain, auth.Required())
		chain = append(chain, r.Load...)
		chain = append(chain, middleware.OwnerOnly(r.Owner))
	default:
		panic(fmt.Sprintf("route %s %s: unknown access %s", r.Method, r.Path, r.Access))
	}

	if r.Access != OwnerOnly {
		chain = append(chain, r.Load...)
	}
	return append(chain, r.Handlers...)
}

// Register adds every route of the table to group.
func Register(group gin.IRoutes, auth *middleware.Authenticator, routes []Route) {
	for _, r := range routes {
		group.Handle(r.Method, r.Path, r.Chain(auth)...)
	}
}
