package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/inkwell/internal/metrics"
	"github.com/hitoshi/inkwell/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Verifier          middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	StatusCollector   middleware.HTTPStatusRecorder

	// サービス
	PostService    PostServiceInterface
	UploadSigner   UploadAuthSigner
	CommentService CommentServiceInterface
	ContactService ContactServiceInterface
	WebhookService WebhookProcessor

	// 運用
	DB       Pinger
	Gatherer prometheus.Gatherer

	// SPA配信（nil許容。APIのみで運用する場合）
	Web http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Logging → Recovery → (Auth) → RateLimit
//
// Webhookルートは署名検証が独自の認証になるため、認証・レート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS ミドルウェアを最上位に適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.StatusCollector))
	r.Use(middleware.NewRecoveryMiddleware())

	postHandler := NewPostHandler(deps.PostService, deps.UploadSigner)
	commentHandler := NewCommentHandler(deps.CommentService)
	contactHandler := NewContactHandler(deps.ContactService)
	webhookHandler := NewWebhookHandler(deps.WebhookService)

	// --- 認証・レート制限の外のルート ---

	r.Get("/health", NewHealthHandler(deps.DB))

	if deps.Gatherer != nil {
		r.Get("/metrics", metrics.Handler(deps.Gatherer).ServeHTTP)
	}

	// ユーザー同期Webhook（署名検証がボディに対して行われる）
	r.Post("/api/webhooks/clerk", webhookHandler.HandleClerkWebhook)

	// --- 公開ルート ---
	// 認証は任意。Principalがあれば所有情報の紐付けに使う。
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewOptionalAuthMiddleware(deps.Verifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/api/posts", postHandler.ListPosts)
		r.Get("/api/posts/id/{id}", postHandler.GetPostByID)
		r.Get("/api/posts/{slug}", postHandler.GetPost)
		r.Get("/api/comments/{postId}", commentHandler.ListComments)
	})

	// お問い合わせ（認証任意 + 専用の厳しいレート制限）
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewOptionalAuthMiddleware(deps.Verifier))
		r.Use(deps.RateLimiter.ContactMiddleware())

		r.Post("/api/contact", contactHandler.SubmitContact)
	})

	// --- 認証必須のルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.Verifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/api/posts/upload-auth", postHandler.UploadAuth)
		r.Post("/api/posts", postHandler.CreatePost)
		r.Put("/api/posts/{id}", postHandler.UpdatePost)
		r.Delete("/api/posts/{id}", postHandler.DeletePost)
		r.Patch("/api/posts/feature", postHandler.FeaturePost)

		r.Post("/api/comments/{postId}", commentHandler.CreateComment)
		r.Delete("/api/comments/{id}", commentHandler.DeleteComment)

		// 運用ルート（ハンドラー側で管理者権限を検証する）
		r.Get("/api/contacts", contactHandler.ListContacts)
		r.Patch("/api/contacts/{id}/status", contactHandler.UpdateContactStatus)
	})

	// --- SPAフォールバック ---
	// APIに該当しない全パスでシェルを返す
	if deps.Web != nil {
		r.NotFound(deps.Web.ServeHTTP)
	}

	return r
}
