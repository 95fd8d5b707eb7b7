// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ErrorBody struct {
	Status int    `json:"status"`
	Info   string `json:"info"`
}

type APIErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type MsgResponse struct {
	Msg string `json:"msg"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

func NoContentResponse(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func MessageResponse(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, MsgResponse{Msg: msg})
}

// ErrorResponse writes err in the body shape it was constructed with.
func ErrorResponse(c *gin.Context, err *AppError) {
	if err.Shape == ShapeMsg {
		c.JSON(err.Status, MsgResponse{Msg: err.Message})
		return
	}
	c.JSON(err.Status, APIErrorResponse{Error: ErrorBody{Status: err.Status, Info: err.Message}})
}

func InternalErrorResponse(c *gin.Context) {
	ErrorResponse(c, NewError(http.StatusInternalServerError, MsgInternal))
}

// Fail records err on the context for the terminal error handler and stops
// the handler chain.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
