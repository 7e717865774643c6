package http

import (
	"context"
	"errors"
	"net/http"

	"finreport/internal/core"
	"finreport/internal/log"
	"finreport/internal/middleware/trace"
)

const contentTypeJSON = "application/json; charset=utf-8"

// errorBody is the payload of every non-2xx response.
type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// writeRaw sends an already encoded JSON document.
func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(body)
	_, _ = w.Write([]byte("\n"))
}

// writeJSON encodes v with the report formatting and sends it.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := core.MarshalReport(v)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode response", log.FieldError, err)
		writeError(w, r, http.StatusInternalServerError, "failed to encode response")
		return
	}
	writeRaw(w, status, data)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	data, err := core.MarshalCompact(errorBody{Error: msg, RequestID: trace.GetRequestID(r.Context())})
	if err != nil {
		http.Error(w, msg, status)
		return
	}
	writeRaw(w, status, data)
}

// writeFailure maps err to a status code, logs server-side failures and
// sends the error body.
func writeFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := classify(err)
	logger := log.FromContext(r.Context())
	if status >= 500 {
		logger.ErrorContext(r.Context(), "Request failed", log.FieldOperation, op, log.FieldError, err)
	} else {
		logger.WarnContext(r.Context(), "Request rejected", log.FieldOperation, op, log.FieldError, err)
	}
	writeError(w, r, status, msg)
}

func classify(err error) (int, string) {
	var pe *paramError
	switch {
	case errors.As(err, &pe):
		return http.StatusBadRequest, pe.Error()
	case errors.Is(err, core.ErrStructural):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, core.ErrConfiguration):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, core.ErrTransientNetwork):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, "request cancelled"
	}
	return http.StatusInternalServerError, "internal error"
}

// statusClientClosedRequest is the nginx convention for a client that went away.
const statusClientClosedRequest = 499
