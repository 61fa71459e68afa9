package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/babulakterfsd/gizmobuy-backend/pkg/errors"
	"github.com/babulakterfsd/gizmobuy-backend/pkg/logger"
	"github.com/babulakterfsd/gizmobuy-backend/pkg/validator"
)

// Response is the standard JSON response envelope used across all endpoints.
type Response struct {
	StatusCode   int    `json:"statusCode"`
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	Data         any    `json:"data,omitempty"`
	ErrorDetails any    `json:"errorDetails,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
// If encoding fails, the error is logged but headers are already sent so nothing can be done.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a success envelope with the given status, message and payload.
func WriteSuccess(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{
		StatusCode: status,
		Success:    true,
		Message:    message,
		Data:       data,
	})
}

// WriteError writes a standardized error envelope based on the error type.
// It handles AppError and bare sentinel errors, and logs internal server
// errors. It prefers the request-scoped logger from context (set by the
// RequestLogger middleware) over the fallback logger.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	// Prefer the request-scoped logger (enriched with correlation_id, user_id,
	// trace_id, span_id) if the RequestLogger middleware has been mounted.
	l := logger.FromContext(r.Context())
	if l == slog.Default() {
		l = fallback
	}

	requestID := logger.CorrelationIDFromContext(r.Context())

	status := apperrors.HTTPStatus(err)
	message := "an internal error occurred"

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status = appErr.Status
		message = appErr.Message
	} else {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			message = "resource not found"
		case errors.Is(err, apperrors.ErrValidation):
			message = err.Error()
		case errors.Is(err, apperrors.ErrUnauthorized):
			message = "unauthorized"
		case errors.Is(err, apperrors.ErrForbidden):
			message = "forbidden"
		case errors.Is(err, apperrors.ErrGateway):
			message = "payment gateway failure"
		}
	}

	// Log server-side failures with request context.
	if status >= http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("correlation_id", requestID),
		)
	}

	WriteJSON(w, status, Response{
		StatusCode: status,
		Success:    false,
		Message:    message,
	})
}

// PaginatedData is a generic paginated list payload, carried in Response.Data.
type PaginatedData[T any] struct {
	Items      []T  `json:"items"`
	TotalCount int  `json:"totalCount"`
	Page       int  `json:"page"`
	PerPage    int  `json:"perPage"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
}

// NewPaginatedData constructs a PaginatedData from the given items, total
// count, page, and per-page values. It computes TotalPages and HasNext.
func NewPaginatedData[T any](items []T, totalCount, page, perPage int) PaginatedData[T] {
	totalPages := totalCount / perPage
	if totalCount%perPage > 0 {
		totalPages++
	}
	if items == nil {
		items = []T{}
	}
	return PaginatedData[T]{
		Items:      items,
		TotalCount: totalCount,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// WriteValidationError writes a standardized validation error envelope.
// It handles ValidationError from the validator package and returns
// field-level details.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, Response{
			StatusCode:   http.StatusBadRequest,
			Success:      false,
			Message:      "request validation failed",
			ErrorDetails: valErr.Fields(),
		})
		return
	}

	WriteJSON(w, http.StatusBadRequest, Response{
		StatusCode: http.StatusBadRequest,
		Success:    false,
		Message:    err.Error(),
	})
}

// ParseUUID validates that the given string is a valid UUID and returns it.
// If invalid, it writes a 400 Bad Request envelope and returns uuid.Nil plus
// false, signaling the caller to return early.
func ParseUUID(w http.ResponseWriter, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(param)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, Response{
			StatusCode: http.StatusBadRequest,
			Success:    false,
			Message:    "invalid id: " + param,
		})
		return uuid.Nil, false
	}
	return id, true
}
