// http/middleware.go
package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/vinizap/lumi-notes/apperr"
)

type errorResponse struct {
	Detail    string    `json:"detail"`
	ErrorCode string    `json:"error_code,omitempty"`
	Details   any       `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorHandler renders apperr and fiber errors as JSON. Anything else is a 500
// whose cause is logged, not returned.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		appErr := apperr.Internal("Internal server error")
		status := appErr.HTTPStatus()

		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &appErr):
			status = appErr.HTTPStatus()
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			appErr = &apperr.Error{Message: fiberErr.Message}
		}

		body := errorResponse{
			Detail:    appErr.Message,
			ErrorCode: string(appErr.Code),
			Details:   appErr.Details,
			Timestamp: time.Now().UTC(),
		}

		if status >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		}
		return c.Status(status).JSON(body)
	}
}

// RequestLogger writes one access line per request.
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		evt := log.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			evt = log.Error()
		case status >= fiber.StatusBadRequest:
			evt = log.Warn()
		}
		evt.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Msg("request")
		return nil
	}
}
