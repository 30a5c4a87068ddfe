// Package httpx holds the JSON envelope every endpoint answers with and the
// fiber error handler that renders failures into it.
package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Envelope is the body shape of every response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
}

// OK writes a successful envelope.
func OK(c *fiber.Ctx, status int, data any, message string) error {
	return c.Status(status).JSON(Envelope{Success: true, Data: data, Message: message})
}

// List writes a successful envelope carrying a collection and its size.
func List[T any](c *fiber.Ctx, items []T) error {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	return c.Status(http.StatusOK).JSON(Envelope{Success: true, Data: items, Count: &n})
}

// Error is a failure that carries a payload alongside the message, for cases
// where the caller needs more than text to recover (e.g. the id of an order
// that was charged but not fulfilled).
type Error struct {
	Status  int
	Message string
	Data    any
}

func (e *Error) Error() string { return e.Message }

// NewError builds an Error with a payload.
func NewError(status int, message string, data any) *Error {
	return &Error{Status: status, Message: message, Data: data}
}

// ErrorHandler renders every error returned by a handler as an envelope.
// Errors that are neither *Error nor *fiber.Error are logged and hidden behind
// an opaque 500.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var withData *Error
		if errors.As(err, &withData) {
			return c.Status(withData.Status).JSON(Envelope{Success: false, Error: withData.Message, Data: withData.Data})
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(Envelope{Success: false, Error: fe.Message})
		}

		if logger != nil {
			logger.Error("unhandled error",
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.Any("error", err),
			)
		}
		return c.Status(http.StatusInternalServerError).JSON(Envelope{Success: false, Error: "Internal server error"})
	}
}
