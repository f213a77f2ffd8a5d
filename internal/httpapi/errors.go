package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/kakutei/tax-calculator/internal/calculation"
	"github.com/kakutei/tax-calculator/internal/domain"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "bad_request") }

// mapError turns an engine or validation error into a status and code.
func mapError(err error) (status int, code string) {
	switch {
	case errors.Is(err, domain.ErrUnknownCategory):
		return http.StatusUnprocessableEntity, "unknown_category"
	case errors.Is(err, calculation.ErrNegativeAmount):
		return http.StatusUnprocessableEntity, "negative_amount"
	case errors.Is(err, calculation.ErrInvalidBrackets):
		return http.StatusUnprocessableEntity, "invalid_brackets"
	case errors.Is(err, calculation.ErrInvalidInput):
		return http.StatusUnprocessableEntity, "validation_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "canceled"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeMappedErr(w http.ResponseWriter, err error) {
	status, code := mapError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeErr(w, status, msg, code)
}
