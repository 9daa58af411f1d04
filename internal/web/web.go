// Package web はブラウザクライアントの配信を提供する。
//
// ビルド済みのSPAシェルと静的アセット（翻訳バンドルを含む）をバイナリに
// 埋め込み、APIに該当しない全パスでシェルを返す（SPAフォールバック）。
// 記事詳細のパスではクローラ向けにSEOメタタグをシェルへ注入する。
package web

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/inkwell/internal/model"
)

//go:embed all:static
var staticFS embed.FS

// PostFinder はSEOメタタグ注入に必要な記事参照のインターフェース。
type PostFinder interface {
	FindBySlug(ctx context.Context, slug string) (*model.PostWithAuthor, error)
}

// Handler はSPAシェルと静的アセットを配信するHTTPハンドラー。
type Handler struct {
	finder  PostFinder
	fsys    fs.FS
	shell   []byte
	baseURL string
}

// NewHandler はHandlerを生成する。finderはnil許容（メタタグ注入を無効化）。
// baseURLはog:urlなど絶対URLの生成に使用する。
func NewHandler(finder PostFinder, baseURL string) (*Handler, error) {
	fsys, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}

	shell, err := fs.ReadFile(fsys, "index.html")
	if err != nil {
		return nil, err
	}

	return &Handler{
		finder:  finder,
		fsys:    fsys,
		shell:   shell,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// ServeHTTP は静的アセットがあればそれを、無ければSPAシェルを返す。
// /posts/{slug} へのリクエストにはメタタグ注入済みのシェルを返す。
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")

	if path != "" && path != "index.html" {
		if f, err := h.fsys.Open(path); err == nil {
			f.Close()
			http.FileServer(http.FS(h.fsys)).ServeHTTP(w, r)
			return
		}
	}

	if slug, ok := postSlugFromPath(r.URL.Path); ok && h.finder != nil {
		h.servePostShell(w, r, slug)
		return
	}

	h.serveShell(w, h.shell)
}

// servePostShell は記事のメタタグを注入したシェルを返す。
// 記事が見つからない場合や注入に失敗した場合は素のシェルにフォールバックする。
func (h *Handler) servePostShell(w http.ResponseWriter, r *http.Request, slug string) {
	post, err := h.finder.FindBySlug(r.Context(), slug)
	if err != nil {
		slog.Warn("failed to load post for meta injection", slog.String("slug", slug), slog.String("error", err.Error()))
	}
	if err != nil || post == nil {
		h.serveShell(w, h.shell)
		return
	}

	injected, err := injectPostMeta(h.shell, post, h.baseURL+"/posts/"+slug)
	if err != nil {
		slog.Warn("failed to inject meta tags", slog.String("slug", slug), slog.String("error", err.Error()))
		h.serveShell(w, h.shell)
		return
	}

	h.serveShell(w, injected)
}

func (h *Handler) serveShell(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	// シェルは常に再検証させる（アセットはハッシュ付きファイル名でキャッシュされる）
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// postSlugFromPath は /posts/{slug} 形式のパスからスラッグを取り出す。
func postSlugFromPath(path string) (string, bool) {
	rest, found := strings.CutPrefix(path, "/posts/")
	if !found || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}
