package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestIDMiddleware(t *testing.T) {
	t.Run("generates UUID when no request ID provided", func(t *testing.T) {
		handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := RequestID(r.Context())
			if _, err := uuid.Parse(reqID); err != nil {
				t.Errorf("Expected valid UUID, got: %q", reqID)
			}
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/convert", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if _, err := uuid.Parse(w.Header().Get(HeaderRequestID)); err != nil {
			t.Errorf("Expected valid UUID in response header, got: %q", w.Header().Get(HeaderRequestID))
		}
	})

	t.Run("uses provided request ID", func(t *testing.T) {
		providedID := "test-request-id-123"
		handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if reqID := RequestID(r.Context()); reqID != providedID {
				t.Errorf("Expected request ID %s, got %s", providedID, reqID)
			}
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/convert", nil)
		req.Header.Set(HeaderRequestID, providedID)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if got := w.Header().Get(HeaderRequestID); got != providedID {
			t.Errorf("Expected X-Request-Id %s in response, got %s", providedID, got)
		}
	})
}

func TestRequestID_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := RequestID(req.Context()); id != "" {
		t.Errorf("Expected empty request ID, got %q", id)
	}
}

func TestRequestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  zapcore.Level
	}{
		{"ok", http.StatusOK, zapcore.InfoLevel},
		{"client error", http.StatusUnprocessableEntity, zapcore.WarnLevel},
		{"server error", http.StatusInternalServerError, zapcore.ErrorLevel},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.InfoLevel)
			handler := RequestIDMiddleware(RequestLoggingMiddleware(zap.New(core).Sugar())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte("body"))
			})))

			req := httptest.NewRequest(http.MethodGet, "/convert?from=EUR", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("Expected 1 log entry, got %d", len(entries))
			}
			if entries[0].Level != tc.level {
				t.Errorf("Expected level %s, got %s", tc.level, entries[0].Level)
			}
			fields := entries[0].ContextMap()
			if fields["status"] != int64(tc.status) {
				t.Errorf("Expected status %d, got %v", tc.status, fields["status"])
			}
			if fields["bytes"] != int64(4) {
				t.Errorf("Expected 4 bytes, got %v", fields["bytes"])
			}
			if fields["request_id"] == "" {
				t.Error("Expected request_id to be logged")
			}
		})
	}
}

func TestStatusRecorder(t *testing.T) {
	t.Run("explicit status", func(t *testing.T) {
		rw := &statusRecorder{ResponseWriter: httptest.NewRecorder()}

		rw.WriteHeader(http.StatusCreated)
		if rw.statusCode() != http.StatusCreated {
			t.Errorf("Expected status %d, got %d", http.StatusCreated, rw.statusCode())
		}

		data := []byte("test data")
		n, err := rw.Write(data)
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
		if n != len(data) || rw.size != len(data) {
			t.Errorf("Expected %d bytes written, got n=%d size=%d", len(data), n, rw.size)
		}
	})

	t.Run("nothing written defaults to 200", func(t *testing.T) {
		rw := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
		if rw.statusCode() != http.StatusOK {
			t.Errorf("Expected status 200, got %d", rw.statusCode())
		}
	})
}
