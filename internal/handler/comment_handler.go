package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/inkwell/internal/auth"
	"github.com/hitoshi/inkwell/internal/middleware"
	"github.com/hitoshi/inkwell/internal/model"
)

// CommentServiceInterface はコメントハンドラーが必要とするサービスインターフェース。
type CommentServiceInterface interface {
	ListByPost(ctx context.Context, postID string) ([]model.CommentWithAuthor, error)
	Create(ctx context.Context, principal *auth.Principal, postID, content string) (*model.CommentWithAuthor, error)
	Delete(ctx context.Context, principal *auth.Principal, id string) error
}

// CommentHandler はコメントのHTTPハンドラー。
type CommentHandler struct {
	service CommentServiceInterface
}

// NewCommentHandler はCommentHandlerを生成する。
func NewCommentHandler(service CommentServiceInterface) *CommentHandler {
	return &CommentHandler{service: service}
}

// commentRequest はコメント作成リクエストのボディ。
type commentRequest struct {
	Content string `json:"desc"`
}

// commentAuthorResponse はコメントレスポンスに埋め込む著者情報。
type commentAuthorResponse struct {
	Username string `json:"username"`
	ImageURL string `json:"img,omitempty"`
}

// commentResponse はコメントのAPIレスポンス。
type commentResponse struct {
	ID        string                `json:"id"`
	PostID    string                `json:"postId"`
	Content   string                `json:"desc"`
	CreatedAt time.Time             `json:"createdAt"`
	User      commentAuthorResponse `json:"user"`
}

// ListComments は記事のコメント一覧を取得する。
// GET /api/comments/:postId
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.ListByPost(r.Context(), chi.URLParam(r, "postId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	res := make([]commentResponse, 0, len(comments))
	for i := range comments {
		res = append(res, toCommentResponse(&comments[i]))
	}

	writeJSON(w, http.StatusOK, res)
}

// CreateComment はコメントを作成する。
// POST /api/comments/:postId
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	created, err := h.service.Create(r.Context(), principal, chi.URLParam(r, "postId"), req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCommentResponse(created))
}

// DeleteComment はコメントを削除する。
// DELETE /api/comments/:id
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
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

// toCommentResponse はmodel.CommentWithAuthorからAPIレスポンスに変換する。
func toCommentResponse(c *model.CommentWithAuthor) commentResponse {
	return commentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		User: commentAuthorResponse{
			Username: c.AuthorUsername,
			ImageURL: c.AuthorImageURL,
		},
	}
}
