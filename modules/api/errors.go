package api

import (
	"errors"
	"log"

	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/task"
	"github.com/example/task-manager/pkg/apperror"
	"github.com/gofiber/fiber/v2"
)

// writeError maps err onto a status code and JSON body. Unclassified
// errors are logged and reported as a bare 500.
func writeError(c *fiber.Ctx, err error) error {
	var ve *apperror.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(validationResponse(ve))
	case errors.Is(err, task.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Message: "Task not found"})
	case errors.Is(err, auth.ErrUserExists):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Message: "User already exists"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Message: "Invalid credentials"})
	case errors.Is(err, auth.ErrUserNotFound):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Message: "Not authorized, user not found"})
	default:
		log.Printf("[api] %s %s failed: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Message: "Server error"})
	}
}

func validationResponse(ve *apperror.ValidationError) ErrorResponse {
	fields := make([]FieldErrorResponse, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		fields = append(fields, FieldErrorResponse{Msg: f.Msg, Path: f.Path, Location: "body"})
	}
	return ErrorResponse{Message: "Validation failed", Errors: fields}
}

// customErrorHandler handles errors no handler turned into a response.
func customErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		message := fe.Message
		if fe.Code >= fiber.StatusInternalServerError {
			message = "Server error"
		}
		return c.Status(fe.Code).JSON(ErrorResponse{Message: message})
	}
	return writeError(c, err)
}
