// internal/utils/validator.go
package utils

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const MsgBlankFields = "Field(s) cannot be empty or blank."

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("notblank", validateNotBlank)
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// ValidateRequest validates s and converts the first violation into a 400
// AppError carrying the API's message for it.
func ValidateRequest(s interface{}) error {
	err := ValidateStruct(s)
	if err == nil {
		return nil
	}

	errs := GetValidationErrors(err)
	if len(errs) == 0 {
		return err
	}
	return ValidationError(errs[0].Message)
}

func validateNotBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return true
		}
		field = field.Elem()
	}
	if field.Kind() != reflect.String {
		return true
	}
	return strings.TrimSpace(field.String()) != ""
}

// Validation tags for common fields
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []FieldError {
	var fieldErrors []FieldError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			fieldErrors = append(fieldErrors, FieldError{
				Field:   e.Field(),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return fieldErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return MsgMissingFields
	case "notblank":
		return MsgBlankFields
	case "email":
		return "Invalid email format."
	case "min", "gte":
		return "`" + e.Field() + "` must be at least " + e.Param() + "."
	case "max", "lte":
		return "`" + e.Field() + "` must be at most " + e.Param() + "."
	default:
		return "`" + e.Field() + "` is invalid."
	}
}
