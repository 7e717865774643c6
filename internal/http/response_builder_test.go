package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"finreport/internal/core"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{&paramError{param: "month", msg: "bad"}, http.StatusBadRequest},
		{fmt.Errorf("%w: missing columns Категория", core.ErrStructural), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: missing API key", core.ErrConfiguration), http.StatusServiceUnavailable},
		{fmt.Errorf("%w: timeout", core.ErrTransientNetwork), http.StatusBadGateway},
		{fmt.Errorf("load: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{context.Canceled, statusClientClosedRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := classify(tt.err); got != tt.status {
			t.Errorf("classify(%v) = %d, want %d", tt.err, got, tt.status)
		}
	}
	if _, msg := classify(errors.New("secret detail")); msg != "internal error" {
		t.Errorf("unexpected errors must not leak: %q", msg)
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusBadRequest, "bad <input>")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != contentTypeJSON {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := rr.Body.String(); got != "{\"error\":\"bad <input>\"}\n" {
		t.Errorf("body = %q", got)
	}
}
