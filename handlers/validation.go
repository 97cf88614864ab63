package handlers

import (
	"errors"
	"reflect"
	"strings"

	"profile-service/middleware"
	"profile-service/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Optional fields validate as their value when supplied and as nil
	// otherwise, so "required" means "present and non-empty".
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if opt, ok := field.Interface().(models.Optional[string]); ok && opt.Set {
			return opt.Value
		}
		return nil
	}, models.Optional[string]{})
	return v
}

var fieldMessages = map[string]string{
	"name.required":     "Name is required",
	"email.required":    "Please include a valid email",
	"email.email":       "Please include a valid email",
	"password.required": "Password is required",
	"password.min":      "Please enter a password with 6 or more characters",
	"text.required":     "Text is required",
	"status.required":   "Status is required",
	"skills.required":   "Skills is required",
	"title.required":    "Title is required",
	"company.required":  "Company is required",
	"from.required":     "From date is required",
}

// validateStruct runs the struct tags of v and converts failures into a
// validation AppError carrying one entry per field.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fields := make([]middleware.FieldError, 0, len(validationErrs))
	for _, fe := range validationErrs {
		msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = "Invalid value for " + fe.Field()
		}
		fields = append(fields, middleware.FieldError{Param: fe.Field(), Msg: msg})
	}
	return middleware.NewValidationError(fields...)
}
