// Package handler provides HTTP handlers for the API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/coldreach/email-generator/internal/model"
	"github.com/coldreach/email-generator/pkg/logger"
)

// StatusClientClosedRequest is reported when the caller went away before the
// response was ready.
const StatusClientClosedRequest = 499

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusFor maps a domain error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrTemplateExists):
		return http.StatusConflict
	case errors.Is(err, model.ErrConfigurationMissing):
		return http.StatusServiceUnavailable
	case errors.Is(err, model.ErrTransport), errors.Is(err, model.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes a request body, rejecting unknown trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

const maxBodyBytes = 1 << 20

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

// respondError writes err with the mapped status. Unexpected failures are
// logged and answered with fallback so internals do not leak.
func respondError(w http.ResponseWriter, log *logger.Logger, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error(fallback, zap.Error(err))
		writeError(w, status, fallback)
		return
	}
	if status >= http.StatusInternalServerError {
		log.Warn(fallback, zap.Error(err), zap.Int("status", status))
	}
	writeError(w, status, err.Error())
}
