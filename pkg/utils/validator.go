package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "account-service/pkg/errors"
)

var (
	validate *validator.Validate

	phonePattern    = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	_ = validate.RegisterValidation("phone", validatePhone)
	_ = validate.RegisterValidation("username", validateUsername)
}

// ValidateStruct runs the struct tags and converts violations into a field map
// keyed by the json field name.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var violations validator.ValidationErrors
	if !errors.As(err, &violations) {
		return appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	fields := make(map[string][]string, len(violations))
	for _, fe := range violations {
		fields[fe.Field()] = append(fields[fe.Field()], describe(fe))
	}
	return appErrors.NewValidationError(fields)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without_all":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "phone":
		return "Enter a valid phone number."
	case "username":
		return "Enter a valid username. It may contain only letters, numbers, and @/./+/-/_ characters."
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "eqfield":
		return "Passwords do not match."
	default:
		return "Invalid value."
	}
}

func validatePhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(fl.Field().String())
}

func validateUsername(fl validator.FieldLevel) bool {
	return usernamePattern.MatchString(fl.Field().String())
}
