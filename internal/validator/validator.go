package validator

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// New creates a new validator instance with custom validations registered.
// This ensures consistent validation across the application and tests.
func New() *validator.Validate {
	v := validator.New()

	// Register custom "notblank" validator - rejects whitespace-only strings
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true // Not a string, let other validators handle it
		}
		return strings.TrimSpace(str) != ""
	})

	// Register custom "couponcode" validator: at least 4 characters, no
	// whitespace anywhere in the code.
	_ = v.RegisterValidation("couponcode", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true
		}
		if len(str) < 4 {
			return false
		}
		return !strings.ContainsFunc(str, unicode.IsSpace)
	})

	return v
}
