package presenters

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"Go-Recipe-Share/domain"
)

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

func SuccessResponse(c *fiber.Ctx, data any, code int, message string) error {
	return c.Status(code).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *fiber.Ctx, code int, message string, err error) error {
	return c.Status(code).JSON(Response{
		Success: false,
		Message: message,
		Errors:  errorPayload(err),
	})
}

// errorPayload keeps field-keyed errors structured so clients can attach
// messages to form fields.
func errorPayload(err error) any {
	if err == nil {
		return nil
	}

	var fieldErr domain.ValidationError
	if errors.As(err, &fieldErr) {
		return map[string]string{fieldErr.Field: fieldErr.Message}
	}

	var structErrs validator.ValidationErrors
	if errors.As(err, &structErrs) {
		fields := make(map[string]string, len(structErrs))
		for _, fe := range structErrs {
			fields[fe.Field()] = "failed on the '" + fe.Tag() + "' rule"
		}
		return fields
	}

	return err.Error()
}
