package ports

import (
	"errors"

	"github.com/4chain-ag/go-feed-oracle/pkg/server/internal/app"
	"github.com/gofiber/fiber/v2"
	"github.com/gookit/slog"
)

// ErrorHandler returns a Fiber error handler that translates application-level errors
// into HTTP status codes and JSON responses carrying the error slug. Unrecognized
// errors are answered with a generic internal server error.
func ErrorHandler() fiber.ErrorHandler {
	codes := map[app.ErrorType]int{
		app.ErrorTypeAuthorization:        fiber.StatusUnauthorized,
		app.ErrorTypeAccessForbidden:      fiber.StatusForbidden,
		app.ErrorTypeIncorrectInput:       fiber.StatusBadRequest,
		app.ErrorTypeOperationTimeout:     fiber.StatusRequestTimeout,
		app.ErrorTypeProviderFailure:      fiber.StatusInternalServerError,
		app.ErrorTypeRawDataProcessing:    fiber.StatusInternalServerError,
		app.ErrorTypeUnsupportedOperation: fiber.StatusNotFound,
		app.ErrorTypeUnknown:              fiber.StatusInternalServerError,
	}

	return func(c *fiber.Ctx, err error) error {
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(ErrorResponse{Message: fiberErr.Message})
		}

		var appErr app.Error
		if !errors.As(err, &appErr) || appErr.IsZero() {
			slog.Errorf("[HTTP] unhandled error on %s %s: %v", c.Method(), c.Path(), err)
			return c.Status(fiber.StatusInternalServerError).JSON(NewUnhandledErrorTypeResponse())
		}

		code, ok := codes[appErr.ErrorType()]
		if !ok {
			code = fiber.StatusInternalServerError
		}
		if code >= fiber.StatusInternalServerError {
			slog.Errorf("[HTTP] %s %s failed with %s: %v", c.Method(), c.Path(), appErr.ErrorType(), appErr)
		}
		return c.Status(code).JSON(ErrorResponse{Message: appErr.Slug()})
	}
}

// NewUnhandledErrorTypeResponse is returned for errors that do not match any handled ErrorType.
func NewUnhandledErrorTypeResponse() ErrorResponse {
	return ErrorResponse{
		Message: "An internal error occurred during processing the request. Please try again later or contact the support team.",
	}
}

// NewRequestBodyParserError wraps a body parsing failure into an application error.
func NewRequestBodyParserError(err error) app.Error {
	return app.NewRawDataProcessingError(
		err.Error(),
		"Unable to process request with given request body. Please verify the request content and try again later.",
	)
}
