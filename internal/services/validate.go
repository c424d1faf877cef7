package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/transportmanager/apiserver/types"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return types.Role(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		return types.Status(fl.Field().String()).Valid()
	})
	return v
}

// validateStruct reports missing fields before invalid values, so a request
// that is both incomplete and malformed gets the "required" message.
func validateStruct(value any) *Error {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return internalError(err, MsgInternal)
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return ValidationError(MsgMissingFields)
		}
	}
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "role":
			return ValidationError(MsgInvalidRole)
		case "status":
			return ValidationError(MsgInvalidStatus)
		}
	}
	return ValidationError("invalid " + fieldErrs[0].Field())
}
