package utils

import (
	"github.com/go-playground/validator/v10"

	"Go-Recipe-Share/internal/validation"
)

var Validate *validator.Validate

// InitValidator registers the custom slug and username tags on top of the
// built-in ones. The pure validators in internal/validation stay the single
// source of truth for both request-shape and service-level checks.
func InitValidator() {
	Validate = validator.New()
	constraints := validation.DefaultConstraints()

	_ = Validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return constraints.Slug(fl.Field().String()) == nil
	})
	_ = Validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return constraints.Username(fl.Field().String()) == nil
	})
}
