// internal/handlers/common.go
package handlers

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/javajoker/storefront-backend/internal/middleware"
	"github.com/javajoker/storefront-backend/internal/utils"
)

// bindJSON decodes the request body into req. The body is cached so that
// validation middleware and handlers can both read it.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindBodyWith(req, binding.JSON); err != nil && !errors.Is(err, io.EOF) {
		utils.Fail(c, utils.ValidationError(middleware.MsgMalformedBody))
		return false
	}
	return true
}

// pathID parses a numeric path parameter. Anything else is reported as a
// missing resource.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.Fail(c, utils.NotFoundError(utils.MsgNotFound))
		return 0, false
	}
	return uint(id), true
}

// customerID is the :id of customer sub-resources. Owner checks have
// already matched it against the principal.
func customerID(c *gin.Context) (uint, bool) {
	return pathID(c, "id")
}

func principal(c *gin.Context) (*utils.Principal, bool) {
	p, ok := utils.GetPrincipal(c)
	if !ok {
		utils.Fail(c, utils.AuthenticationError())
	}
	return p, ok
}

func pagination(c *gin.Context) (utils.PaginationParams, bool) {
	params, err := utils.ParsePagination(c)
	if err != nil {
		utils.Fail(c, err)
		return params, false
	}
	return params, true
}
