package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"

	"orgmap/pkg/app"
	"orgmap/pkg/session"
)

// ErrorEnvelope standardizes JSON error responses of the API.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// statusFor maps a domain error onto an HTTP status and envelope code.
func statusFor(err error) (int, string) {
	var (
		pe *app.ParseError
		xe *app.ProcessingError
		ve validator.ValidationErrors
		me *http.MaxBytesError
	)
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, session.ErrCapacity), errors.Is(err, session.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, session.ErrNoSuggester):
		return http.StatusConflict, "no_suggester"
	case errors.As(err, &me):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.As(err, &pe):
		return http.StatusBadRequest, app.Kind(err)
	case errors.Is(err, app.ErrIncompleteMapping):
		return http.StatusUnprocessableEntity, app.Kind(err)
	case errors.Is(err, app.ErrNoData):
		return http.StatusConflict, app.Kind(err)
	case errors.As(err, &xe):
		return http.StatusInternalServerError, app.Kind(err)
	case errors.As(err, &ve), errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "invalid_request"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return errors.Wrapf(errBadRequest, format, args...)
}

// validationMeta lists the failed rule of every invalid field.
func validationMeta(err error) map[string]string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	meta := make(map[string]string, len(ve))
	for _, fe := range ve {
		meta[fe.Field()] = fe.Tag()
	}
	return meta
}
