package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"booktalk/internal/applog"
	"booktalk/internal/http/middleware"
	"booktalk/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "NO_DOCUMENT", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// serviceErrors is matched in order; the first errors.Is hit wins.
var serviceErrors = []errorMapping{
	{context.DeadlineExceeded, fiber.StatusGatewayTimeout, "TIMEOUT", "upstream service timed out"},
	{service.ErrEmptyInput, fiber.StatusBadRequest, "EMPTY_INPUT", "no content was provided"},
	{service.ErrUnsupportedType, fiber.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type"},
	{service.ErrNoDocument, fiber.StatusConflict, "NO_DOCUMENT", "upload a document before asking"},
	{service.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "file not found"},
	{service.ErrUpload, fiber.StatusBadGateway, "UPLOAD_FAILED", "document could not be registered"},
	{service.ErrTranscription, fiber.StatusBadGateway, "TRANSCRIPTION_FAILED", "question could not be transcribed"},
	{service.ErrAnswerGeneration, fiber.StatusBadGateway, "ANSWER_FAILED", "answer could not be generated"},
	{service.ErrSynthesis, fiber.StatusBadGateway, "SYNTHESIS_FAILED", "speech could not be synthesized"},
}

// writeServiceError logs err and answers with the mapped envelope.
func writeServiceError(c *fiber.Ctx, err error) error {
	fields := map[string]any{
		"request_id": requestIDFromCtx(c),
		"path":       c.Path(),
	}
	var se *service.StageError
	if errors.As(err, &se) {
		fields["stage"] = string(se.Stage)
	}

	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			if m.status >= fiber.StatusInternalServerError {
				applog.Error("http", "request_failed", err, fields)
			}
			return writeError(c, m.status, m.code, m.message)
		}
	}
	applog.Error("http", "request_failed", err, fields)
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		default:
			applog.Error("http", "unhandled_error", err, map[string]any{"request_id": requestIDFromCtx(c)})
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
