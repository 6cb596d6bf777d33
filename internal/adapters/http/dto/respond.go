package dto

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/glevine/backdropy/internal/domain"
	"github.com/glevine/backdropy/internal/platform/logging"
)

// MapDomainError maps a domain error to an HTTP status code and error
// response. Unknown errors become a generic 500.
func MapDomainError(err error) (int, *ErrorResponse) {
	if err == nil {
		return http.StatusOK, nil
	}

	switch {
	case domain.IsNotFound(err):
		return http.StatusNotFound, NewErrorResponse(
			ErrorCodeNotFound,
			err.Error(),
		)

	case domain.IsValidation(err):
		resp := NewErrorResponse(
			ErrorCodeValidation,
			err.Error(),
		)

		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) && validationErr.Field != "" {
			resp.Error.Details = map[string]string{
				validationErr.Field: validationErr.Message,
			}
		}

		return http.StatusBadRequest, resp

	case domain.IsStepFailed(err):
		resp := NewErrorResponse(
			ErrorCodeStepFailed,
			err.Error(),
		)

		var stepErr *domain.StepError
		if errors.As(err, &stepErr) {
			resp.Error.Details = map[string]string{
				"task": stepErr.Task,
				"step": stepErr.Step,
			}
		}

		return http.StatusUnprocessableEntity, resp

	case domain.IsUnavailable(err):
		return http.StatusServiceUnavailable, NewErrorResponse(
			ErrorCodeUnavailable,
			err.Error(),
		)

	default:
		// Unknown errors get a generic message to avoid leaking internals.
		return http.StatusInternalServerError, NewErrorResponse(
			ErrorCodeInternal,
			"an internal error occurred",
		)
	}
}

// HandleError writes an error response for the given error, mapping
// domain errors and attaching the trace ID when one is available.
func HandleError(c *gin.Context, err error) {
	status, errResp := MapDomainError(err)

	errResp.TraceID = GetTraceID(c)

	// Internal errors keep full details in the log only.
	if status == http.StatusInternalServerError {
		logger := logging.FromContext(c.Request.Context())
		logger.ErrorContext(c.Request.Context(), "internal error",
			"error", err.Error(),
			"trace_id", errResp.TraceID,
		)
	}

	c.JSON(status, errResp)
}

// HandleErrorCode writes an error response for adapter-level errors that
// do not originate from domain errors.
func HandleErrorCode(c *gin.Context, code, message string) {
	errResp := NewErrorResponse(code, message)
	errResp.TraceID = GetTraceID(c)

	c.JSON(HTTPStatusFromCode(code), errResp)
}

// HandleValidationErrors writes a 400 with field-level details.
func HandleValidationErrors(c *gin.Context, fieldErrors map[string]string) {
	errResp := NewErrorResponseWithDetails(
		ErrorCodeValidation,
		"request validation failed",
		fieldErrors,
	)
	errResp.TraceID = GetTraceID(c)

	c.JSON(http.StatusBadRequest, errResp)
}

// GetTraceID returns the current trace ID, or empty when no span is
// recording.
func GetTraceID(c *gin.Context) string {
	if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}

	return ""
}
