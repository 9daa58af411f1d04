package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/inkwell/internal/auth"
	"github.com/hitoshi/inkwell/internal/logger"
	"github.com/hitoshi/inkwell/internal/middleware"
	"github.com/hitoshi/inkwell/internal/model"
	"github.com/hitoshi/inkwell/internal/post"
	"github.com/hitoshi/inkwell/internal/webhook"
)

// stubVerifier は固定のPrincipalを返すTokenVerifier。
type stubVerifier struct {
	principal *auth.Principal
}

func (s *stubVerifier) Verify(tokenString string) (*auth.Principal, error) {
	if s.principal == nil {
		return nil, errors.New("invalid token")
	}
	return s.principal, nil
}

// stubPinger は常に成功するPinger。
type stubPinger struct{}

func (stubPinger) PingContext(ctx context.Context) error { return nil }

func newTestRouter(t *testing.T, verifier middleware.TokenVerifier) http.Handler {
	t.Helper()

	cfg := middleware.NewRateLimiterConfig(6000, 100, 15*time.Minute)
	cfg.CleanupInterval = time.Hour
	rl := middleware.NewRateLimiter(cfg)
	t.Cleanup(rl.Stop)

	var buf bytes.Buffer
	return NewRouter(&RouterDeps{
		Verifier:          verifier,
		CORSAllowedOrigin: "http://localhost:5173",
		RateLimiter:       rl,
		Logger:            logger.Setup(&buf),
		PostService: &mockPostService{
			listFn: func(ctx context.Context, p post.ListParams) (*post.ListResult, error) {
				return &post.ListResult{Posts: []model.PostWithAuthor{}}, nil
			},
			createFn: func(ctx context.Context, principal *auth.Principal, input post.PostInput) (*model.PostWithAuthor, error) {
				return samplePost(), nil
			},
		},
		UploadSigner:   stubSigner{enabled: true},
		CommentService: &mockCommentService{},
		ContactService: &mockContactService{},
		WebhookService: &mockProcessor{err: webhook.ErrVerificationFailed},
		DB:             stubPinger{},
		Web: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte("<html>shell</html>"))
		}),
	})
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRouter_PublicListWithoutToken(t *testing.T) {
	router := newTestRouter(t, &stubVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for anonymous list", w.Code)
	}
}

func TestRouter_CreateRequiresToken(t *testing.T) {
	router := newTestRouter(t, &stubVerifier{})

	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"title":"t","content":"c"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 without token", w.Code)
	}
}

func TestRouter_CreateWithValidToken(t *testing.T) {
	router := newTestRouter(t, &stubVerifier{principal: &auth.Principal{ClerkUserID: "user_author"}})

	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"title":"t","content":"c"}`))
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", w.Code)
	}
}

func TestRouter_WebhookBypassesAuth(t *testing.T) {
	router := newTestRouter(t, &stubVerifier{})

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/clerk", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// 認証の401ではなく署名検証の400が返る
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 from signature verification", w.Code)
	}
}

func TestRouter_UnknownPathFallsThroughToSPA(t *testing.T) {
	router := newTestRouter(t, &stubVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/some/client/route", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "shell") {
		t.Errorf("body = %q, want SPA shell", w.Body.String())
	}
}

func TestRouter_CORSHeadersApplied(t *testing.T) {
	router := newTestRouter(t, &stubVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q", got)
	}
}
