// FILE: internal/pkg/serverutils/validator.go
package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ValidateRequest checks a bound request struct against its validate tags.
// Failures come back as a 400 fiber error so the error handler middleware
// renders them in the standard envelope.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		messages := make([]string, len(validationErrors))
		for i, fieldErr := range validationErrors {
			messages[i] = fmt.Sprintf("field '%s' failed on rule '%s'", fieldErr.Field(), fieldErr.Tag())
		}
		return fiber.NewError(fiber.StatusBadRequest, strings.Join(messages, "; "))
	}

	return fiber.NewError(fiber.StatusBadRequest, err.Error())
}
