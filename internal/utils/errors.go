// internal/utils/errors.go
package utils

import (
	"errors"
	"net/http"
)

// ErrorShape selects the JSON body an AppError is rendered with.
type ErrorShape int

const (
	// ShapeError renders {"error":{"status":N,"info":"..."}}.
	ShapeError ErrorShape = iota
	// ShapeMsg renders {"msg":"..."}.
	ShapeMsg
)

const (
	MsgUnauthenticated  = "Unauthenticated."
	MsgUnauthorised     = "Unauthorised."
	MsgNotFound         = "Not found."
	MsgMissingFields    = "Request body is missing required field(s)."
	MsgFieldsNotStrings = "Request body fields must all be in string format."
	MsgUsernameTaken    = "That username is taken."
	MsgEmailTaken       = "Email already in use."
	MsgInvalidUsername  = "Invalid username."
	MsgInvalidPassword  = "Invalid password."
	MsgInvalidIdentity  = "Invalid identity token."
	MsgInternal         = "Internal server error."

	MsgInsufficientStock = "Insufficient stock."
	MsgProductUnknown    = "Product id is invalid. Item does not exist."
)

// AppError is a client-facing failure with an explicit HTTP status.
type AppError struct {
	Status  int
	Message string
	Shape   ErrorShape
}

func (e *AppError) Error() string {
	return e.Message
}

func NewError(status int, message string) *AppError {
	return &AppError{Status: status, Message: message, Shape: ShapeError}
}

func NewMsgError(status int, message string) *AppError {
	return &AppError{Status: status, Message: message, Shape: ShapeMsg}
}

func ValidationError(message string) *AppError {
	return NewError(http.StatusBadRequest, message)
}

func ConflictError(message string) *AppError {
	return NewError(http.StatusBadRequest, message)
}

func NotFoundError(message string) *AppError {
	return NewError(http.StatusNotFound, message)
}

func AuthenticationError() *AppError {
	return NewError(http.StatusUnauthorized, MsgUnauthenticated)
}

func AuthorizationError() *AppError {
	return NewError(http.StatusForbidden, MsgUnauthorised)
}

// AsAppError unwraps err to an AppError if it carries one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
