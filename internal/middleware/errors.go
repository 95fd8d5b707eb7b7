// internal/middleware/errors.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront-backend/internal/utils"
)

// ErrorHandler renders the last error recorded on the context. Errors that
// are not AppErrors are logged and reported as a generic 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		if appErr, ok := utils.AsAppError(err); ok {
			utils.ErrorResponse(c, appErr)
			return
		}

		customerID, _ := utils.GetCustomerIDFromContext(c)
		logrus.WithError(err).WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"route":       c.FullPath(),
			"customer_id": customerID,
		}).Error("Unhandled request error")

		utils.InternalErrorResponse(c)
	}
}

func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.Fail(c, utils.NewError(http.StatusNotFound, utils.MsgNotFound))
	}
}
