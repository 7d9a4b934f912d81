package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"saldo/internal/core"
	"saldo/internal/log"
)

const maxJSONBody = 1 << 20

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes that do not come from core kinds.
const (
	codeUnauthorized = "unauthorized"
	codeRateLimited  = "rate_limited"
	codeBadRequest   = "bad_request"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, envelope{Error: &errorBody{Code: code, Message: message}})
}

// statusForKind maps an error kind onto its HTTP status.
func statusForKind(kind core.Kind) int {
	switch kind {
	case core.KindValidation:
		return http.StatusBadRequest
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindConflict:
		return http.StatusConflict
	case core.KindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError renders err with its kind. Internal causes are logged and never
// shown to the caller.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := core.KindOf(err)
	status := statusForKind(kind)
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldErrorKind, string(kind),
			log.FieldError, err)
	}
	writeErrorCode(w, status, string(kind), core.PublicMessage(err))
}

// decodeJSON reads one JSON object from the body into v. Unknown fields and
// trailing data are rejected as validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badJSON(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return core.Validationf("request body must contain a single JSON object")
	}
	return nil
}

func badJSON(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	var ce *core.Error
	switch {
	case errors.As(err, &ce):
		return err
	case errors.Is(err, io.EOF):
		return core.Validationf("request body is empty")
	case errors.As(err, &syntaxErr):
		return core.Validationf("malformed JSON at offset %d", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		return core.Validationf("field %q has the wrong type", typeErr.Field)
	case errors.As(err, &maxErr):
		return core.Validationf("request body larger than %d bytes", maxErr.Limit)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return core.Validationf("unknown field %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
	}
	return core.Validationf("invalid request body")
}
