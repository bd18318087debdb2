package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"moneymood/internal/core"
	"moneymood/internal/log"
	"moneymood/internal/services"
)

const maxBodyBytes = 4 << 20

// sanitizeInput removes control characters except tab and newlines, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return core.NewError(core.KindInvalidInput, "request body is empty")
		}
		return core.WrapError(core.KindInvalidInput, "request body is not valid JSON", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error kind onto an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrExpenseNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrExpenseConflict):
		return http.StatusConflict
	}
	switch core.KindOf(err) {
	case core.KindValidation, core.KindCurrencyNotSupported:
		return http.StatusUnprocessableEntity
	case core.KindInvalidInput:
		return http.StatusBadRequest
	case core.KindNetwork:
		return http.StatusServiceUnavailable
	case core.KindRateLimitExceeded:
		return http.StatusTooManyRequests
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the AppError body. Server errors hide their cause.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := log.FromContext(r.Context())

	var appErr *core.Error
	switch {
	case errors.As(err, &appErr):
		body := *appErr
		if body.Details == "" && appErr.Err != nil {
			body.Details = appErr.Err.Error()
		}
		if status >= 500 {
			logger.ErrorContext(r.Context(), "Request failed", log.FieldError, err, log.FieldErrorKind, body.Kind)
			body.Details = ""
		}
		writeJSON(w, status, &body)
	case status == http.StatusNotFound:
		writeJSON(w, status, core.NewError(core.KindNotFound, err.Error()))
	case status == http.StatusConflict:
		writeJSON(w, status, core.NewError(core.KindConflict, err.Error()))
	default:
		logger.ErrorContext(r.Context(), "Request failed", log.FieldError, err)
		writeJSON(w, status, core.NewError(core.KindServer, "internal error"))
	}
}
