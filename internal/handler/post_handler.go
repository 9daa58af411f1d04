package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/inkwell/internal/auth"
	"github.com/hitoshi/inkwell/internal/imagekit"
	"github.com/hitoshi/inkwell/internal/middleware"
	"github.com/hitoshi/inkwell/internal/model"
	"github.com/hitoshi/inkwell/internal/post"
)

// PostServiceInterface は記事ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	List(ctx context.Context, p post.ListParams) (*post.ListResult, error)
	GetBySlug(ctx context.Context, slug string) (*model.PostWithAuthor, error)
	GetByID(ctx context.Context, id string) (*model.PostWithAuthor, error)
	Create(ctx context.Context, principal *auth.Principal, input post.PostInput) (*model.PostWithAuthor, error)
	Update(ctx context.Context, principal *auth.Principal, id string, input post.PostInput) (*model.PostWithAuthor, error)
	Delete(ctx context.Context, principal *auth.Principal, id string) error
	Feature(ctx context.Context, principal *auth.Principal, id string, featured bool) (*model.PostWithAuthor, error)
}

// UploadAuthSigner は画像アップロード認証パラメータの発行インターフェース。
type UploadAuthSigner interface {
	Sign() imagekit.UploadAuth
	Enabled() bool
}

// PostHandler は記事のHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
	signer  UploadAuthSigner
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface, signer UploadAuthSigner) *PostHandler {
	return &PostHandler{service: service, signer: signer}
}

// postRequest は記事作成・更新リクエストのボディ。
type postRequest struct {
	Title        string                           `json:"title"`
	Description  string                           `json:"desc"`
	Category     string                           `json:"category"`
	Content      string                           `json:"content"`
	ImageURL     string                           `json:"img"`
	Translations map[string]model.PostTranslation `json:"translations"`
}

func (req *postRequest) toInput() post.PostInput {
	return post.PostInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Content:      req.Content,
		ImageURL:     req.ImageURL,
		Translations: req.Translations,
	}
}

// featureRequest は注目フラグ切り替えリクエストのボディ。
// isFeaturedを省略した場合は現在値を反転する。
type featureRequest struct {
	PostID     string `json:"postId"`
	IsFeatured *bool  `json:"isFeatured"`
}

// postAuthorResponse は記事レスポンスに埋め込む著者情報。
type postAuthorResponse struct {
	Username    string `json:"username"`
	ImageURL    string `json:"img,omitempty"`
	ClerkUserID string `json:"clerkUserId"`
}

// postResponse は記事のAPIレスポンス。
type postResponse struct {
	ID           string                           `json:"id"`
	Title        string                           `json:"title"`
	Slug         string                           `json:"slug"`
	Description  string                           `json:"desc"`
	Category     string                           `json:"category"`
	Content      string                           `json:"content"`
	ImageURL     string                           `json:"img,omitempty"`
	IsFeatured   bool                             `json:"isFeatured"`
	Visits       int                              `json:"visit"`
	Translations map[string]model.PostTranslation `json:"translations,omitempty"`
	CreatedAt    time.Time                        `json:"createdAt"`
	UpdatedAt    time.Time                        `json:"updatedAt"`
	User         postAuthorResponse               `json:"user"`
}

// postListResponse は記事一覧のAPIレスポンス。
type postListResponse struct {
	Posts   []postResponse `json:"posts"`
	HasMore bool           `json:"hasMore"`
}

// ListPosts は記事一覧を取得する。
// GET /api/posts
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := h.service.List(r.Context(), post.ListParams{
		Page:           page,
		Limit:          limit,
		Category:       q.Get("cat"),
		AuthorUsername: q.Get("author"),
		Search:         q.Get("search"),
		FeaturedOnly:   q.Get("featured") == "true",
		Sort:           q.Get("sort"),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	posts := make([]postResponse, 0, len(result.Posts))
	for i := range result.Posts {
		posts = append(posts, toPostResponse(&result.Posts[i]))
	}

	writeJSON(w, http.StatusOK, postListResponse{Posts: posts, HasMore: result.HasMore})
}

// GetPost はスラッグで記事を取得し、訪問数を加算する。
// GET /api/posts/:slug
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	found, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResponse(found))
}

// GetPostByID はIDで記事を取得する。訪問数は変化しない（編集画面用）。
// GET /api/posts/id/:id
func (h *PostHandler) GetPostByID(w http.ResponseWriter, r *http.Request) {
	found, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResponse(found))
}

// UploadAuth は画像アップロード認証パラメータを発行する。
// GET /api/posts/upload-auth
func (h *PostHandler) UploadAuth(w http.ResponseWriter, r *http.Request) {
	if h.signer == nil || !h.signer.Enabled() {
		writeAPIErrorResponse(w, http.StatusServiceUnavailable, &model.APIError{
			Code:     "UPLOAD_DISABLED",
			Message:  "画像アップロードは現在利用できません。",
			Category: "system",
			Action:   "管理者に問い合わせてください。",
		})
		return
	}

	writeJSON(w, http.StatusOK, h.signer.Sign())
}

// CreatePost は記事を作成する。
// POST /api/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	created, err := h.service.Create(r.Context(), principal, req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPostResponse(created))
}

// UpdatePost は記事を更新する。スラッグは変更されない。
// PUT /api/posts/:id
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	updated, err := h.service.Update(r.Context(), principal, chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResponse(updated))
}

// DeletePost は記事を削除する。
// DELETE /api/posts/:id
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if err := h.service.Delete(r.Context(), principal, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// FeaturePost は記事の注目フラグを切り替える（管理者専用）。
// PATCH /api/posts/feature
func (h *PostHandler) FeaturePost(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req featureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	if req.PostID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("postIdは必須です。"))
		return
	}

	featured, err := h.resolveFeatureValue(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	updated, err := h.service.Feature(r.Context(), principal, req.PostID, featured)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResponse(updated))
}

// resolveFeatureValue は省略時に現在の注目フラグを反転した値を返す。
func (h *PostHandler) resolveFeatureValue(ctx context.Context, req featureRequest) (bool, error) {
	if req.IsFeatured != nil {
		return *req.IsFeatured, nil
	}

	current, err := h.service.GetByID(ctx, req.PostID)
	if err != nil {
		return false, err
	}
	return !current.IsFeatured, nil
}

// toPostResponse はmodel.PostWithAuthorからAPIレスポンスに変換する。
func toPostResponse(p *model.PostWithAuthor) postResponse {
	return postResponse{
		ID:           p.ID,
		Title:        p.Title,
		Slug:         p.Slug,
		Description:  p.Description,
		Category:     string(p.Category),
		Content:      p.Content,
		ImageURL:     p.ImageURL,
		IsFeatured:   p.IsFeatured,
		Visits:       p.Visits,
		Translations: p.Translations,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		User: postAuthorResponse{
			Username:    p.AuthorUsername,
			ImageURL:    p.AuthorImageURL,
			ClerkUserID: p.AuthorClerkID,
		},
	}
}
