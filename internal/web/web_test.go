package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/inkwell/internal/model"
)

// stubFinder はPostFinderのスタブ実装。
type stubFinder struct {
	post *model.PostWithAuthor
	err  error
}

func (s *stubFinder) FindBySlug(ctx context.Context, slug string) (*model.PostWithAuthor, error) {
	return s.post, s.err
}

func newTestHandler(t *testing.T, finder PostFinder) *Handler {
	t.Helper()
	h, err := NewHandler(finder, "https://blog.example.com")
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	return h
}

func TestServeHTTP_UnknownPathServesShell(t *testing.T) {
	h := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/some/client/route", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), `<div id="root">`) {
		t.Error("body should contain the SPA shell")
	}
}

func TestServeHTTP_ServesLocaleBundle(t *testing.T) {
	h := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/locales/ar/translation.json", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var bundle map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &bundle); err != nil {
		t.Fatalf("bundle is not JSON: %v", err)
	}
	// アラビア語はRTL
	if bundle["dir"] != "rtl" {
		t.Errorf("dir = %v, want rtl", bundle["dir"])
	}
}

func TestServeHTTP_PostPathInjectsMeta(t *testing.T) {
	finder := &stubFinder{
		post: &model.PostWithAuthor{
			Post: model.Post{
				Title:       "Go 1.25の新機能",
				Slug:        "go-1-25",
				Description: "リリースノートの要点まとめ",
				ImageURL:    "https://img.example.com/go.png",
			},
			AuthorUsername: "alice",
		},
	}
	h := newTestHandler(t, finder)

	req := httptest.NewRequest(http.MethodGet, "/posts/go-1-25", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "<title>Go 1.25の新機能</title>") {
		t.Errorf("title should be replaced, got:\n%s", body)
	}
	if !strings.Contains(body, `property="og:url" content="https://blog.example.com/posts/go-1-25"`) {
		t.Error("og:url should point at the canonical post URL")
	}
	if !strings.Contains(body, `property="og:image"`) {
		t.Error("og:image should be injected when the post has an image")
	}
}

func TestServeHTTP_MissingPostFallsBackToPlainShell(t *testing.T) {
	h := newTestHandler(t, &stubFinder{post: nil})

	req := httptest.NewRequest(http.MethodGet, "/posts/missing", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<title>Inkwell</title>") {
		t.Error("plain shell should keep the default title")
	}
}

func TestPostSlugFromPath(t *testing.T) {
	tests := []struct {
		path string
		slug string
		ok   bool
	}{
		{"/posts/hello-world", "hello-world", true},
		{"/posts/", "", false},
		{"/posts/a/b", "", false},
		{"/about", "", false},
	}

	for _, tt := range tests {
		slug, ok := postSlugFromPath(tt.path)
		if slug != tt.slug || ok != tt.ok {
			t.Errorf("postSlugFromPath(%q) = (%q, %v), want (%q, %v)", tt.path, slug, ok, tt.slug, tt.ok)
		}
	}
}

func TestInjectPostMeta_SkipsEmptyFields(t *testing.T) {
	post := &model.PostWithAuthor{Post: model.Post{Title: "No Image"}}

	got, err := injectPostMeta([]byte(`<html><head><title>x</title></head><body></body></html>`), post, "https://blog.example.com/posts/no-image")
	if err != nil {
		t.Fatalf("injectPostMeta() error = %v", err)
	}
	if strings.Contains(string(got), "og:image") {
		t.Error("og:image should be omitted when the post has no image")
	}
}
