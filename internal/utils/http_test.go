package utils

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type echoResponse struct {
	Message string `json:"message"`
}

// TestDoPostSync_Success_DecodesBody verifies the happy path: JSON request out,
// typed struct back.
func TestDoPostSync_Success_DecodesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("expected JSON content type, got %q", got)
		}
		_, _ = w.Write([]byte(`{"message":"pong"}`))
	}))
	defer server.Close()

	_, decoded, err := DoPostSync[echoResponse](context.Background(), server.Client(), server.URL, "key", map[string]string{"ping": "1"})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if decoded == nil || decoded.Message != "pong" {
		t.Errorf("expected decoded message %q, got %+v", "pong", decoded)
	}
}

// TestDoPostSync_Non2xx_ReturnsStatusError verifies that non-2xx responses are
// surfaced as typed *StatusError values, not opaque strings.
func TestDoPostSync_Non2xx_ReturnsStatusError(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "unauthorized", status: http.StatusUnauthorized},
		{name: "rate limited", status: http.StatusTooManyRequests},
		{name: "server error", status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"upstream says no"}`))
			}))
			defer server.Close()

			_, _, err := DoPostSync[echoResponse](context.Background(), server.Client(), server.URL, "key", nil)
			if err == nil {
				t.Fatal("expected error")
			}
			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("expected *StatusError, got %T", err)
			}
			if statusErr.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, statusErr.StatusCode)
			}
		})
	}
}

// TestDoPostSync_MalformedBody_ReturnsDecodeError verifies that a 2xx response
// with a body that does not decode returns a descriptive error with a preview.
func TestDoPostSync_MalformedBody_ReturnsDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, _, err := DoPostSync[echoResponse](context.Background(), server.Client(), server.URL, "", nil)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !strings.Contains(err.Error(), "Response preview") {
		t.Errorf("expected preview in error, got %v", err)
	}
}

// TestDoPostSync_ContextCancelled_PropagatesError verifies that a cancelled
// context aborts the request with a context error.
func TestDoPostSync_ContextCancelled_PropagatesError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := DoPostSync[echoResponse](ctx, server.Client(), server.URL, "", nil)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}
