package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/inkwell/internal/auth"
	"github.com/hitoshi/inkwell/internal/logger"
)

// mockStatusCollector はHTTPStatusRecorderのモック実装。
type mockStatusCollector struct {
	recorded []int
}

func (m *mockStatusCollector) RecordHTTPStatus(statusCode int) {
	m.recorded = append(m.recorded, statusCode)
}

func TestLoggingMiddleware_LogsRequest(t *testing.T) {
	var buf bytes.Buffer
	l := logger.Setup(&buf)
	collector := &mockStatusCollector{}

	h := NewLoggingMiddleware(l, collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/posts/missing", nil)
	req = req.WithContext(ContextWithPrincipal(req.Context(), &auth.Principal{ClerkUserID: "user_log"}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["method"] != "GET" {
		t.Errorf("method = %v", entry["method"])
	}
	if entry["status"] != float64(http.StatusNotFound) {
		t.Errorf("status = %v, want 404", entry["status"])
	}
	if entry["clerk_user_id"] != "user_log" {
		t.Errorf("clerk_user_id = %v", entry["clerk_user_id"])
	}
	// 4xxはwarnレベルで出力される
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", entry["level"])
	}

	if len(collector.recorded) != 1 || collector.recorded[0] != http.StatusNotFound {
		t.Errorf("collector.recorded = %v, want [404]", collector.recorded)
	}
}

// ルーターと同じ順序（ロギングが認証より前段）でも、認証ミドルウェアが
// 解決したPrincipalがログに出力されることを確認する。
func TestLoggingMiddleware_CapturesPrincipalResolvedByLaterAuth(t *testing.T) {
	var buf bytes.Buffer
	l := logger.Setup(&buf)

	inner := NewOptionalAuthMiddleware(okVerifier(&auth.Principal{ClerkUserID: "user_chain"}))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		}))
	h := NewLoggingMiddleware(l, nil)(inner)

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["clerk_user_id"] != "user_chain" {
		t.Errorf("clerk_user_id = %v, want user_chain", entry["clerk_user_id"])
	}
}

func TestLoggingMiddleware_DefaultStatusIs200(t *testing.T) {
	var buf bytes.Buffer
	l := logger.Setup(&buf)

	h := NewLoggingMiddleware(l, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["status"] != float64(http.StatusOK) {
		t.Errorf("status = %v, want 200", entry["status"])
	}
}
