package serverutils

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

type APIResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{Message: message, Data: data}
}

// ValidationError carries field-level validation failures to the error handler.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return &ValidationError{Fields: fields}
}

// ErrorHandlerMiddleware converts errors escaping controllers into JSON
// envelopes. Nothing reaches the client as a raw internal error.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var verr *ValidationError
		if errors.As(err, &verr) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Validation failed",
				"fields":  verr.Fields,
			})
		}

		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			return ctx.Status(ferr.Code).JSON(fiber.Map{"message": ferr.Message})
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal server error",
		})
	}
}
