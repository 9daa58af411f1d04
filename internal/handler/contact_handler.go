package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/inkwell/internal/contact"
	"github.com/hitoshi/inkwell/internal/middleware"
	"github.com/hitoshi/inkwell/internal/model"
)

// ContactServiceInterface はお問い合わせハンドラーが必要とするサービスインターフェース。
type ContactServiceInterface interface {
	Submit(ctx context.Context, input contact.SubmitInput) (*model.Contact, error)
	ListRecent(ctx context.Context, limit int) ([]model.Contact, error)
	MarkStatus(ctx context.Context, id string, status model.ContactStatus) error
}

// ContactHandler はお問い合わせのHTTPハンドラー。
type ContactHandler struct {
	service ContactServiceInterface
}

// NewContactHandler はContactHandlerを生成する。
func NewContactHandler(service ContactServiceInterface) *ContactHandler {
	return &ContactHandler{service: service}
}

// contactRequest はお問い合わせ送信リクエストのボディ。
type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// contactResponse はお問い合わせ受付のAPIレスポンス。
type contactResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ContactID string `json:"contactId"`
}

// SubmitContact はお問い合わせを受け付ける。認証は任意。
// POST /api/contact
func (h *ContactHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	input := contact.SubmitInput{
		Name:      req.Name,
		Email:     req.Email,
		Subject:   req.Subject,
		Message:   req.Message,
		IPAddress: middleware.ClientIP(r),
	}
	// 認証済みならユーザーとの紐付けを残す
	if principal, err := middleware.PrincipalFromContext(r.Context()); err == nil {
		input.ClerkUserID = principal.ClerkUserID
	}

	created, err := h.service.Submit(r.Context(), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, contactResponse{
		Success:   true,
		Message:   "お問い合わせを受け付けました。",
		ContactID: created.ID,
	})
}

// contactItemResponse は管理者向け一覧のお問い合わせ1件。
type contactItemResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Subject     string    `json:"subject"`
	Message     string    `json:"message"`
	Status      string    `json:"status"`
	ClerkUserID string    `json:"clerkUserId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ListContacts は管理者向けにお問い合わせを新しい順で一覧する。
// GET /api/contacts?limit=50
func (h *ContactHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}
	if !principal.IsAdmin() {
		handleServiceError(w, model.NewForbiddenError("お問い合わせの閲覧には管理者権限が必要です。"))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	contacts, err := h.service.ListRecent(r.Context(), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]contactItemResponse, 0, len(contacts))
	for _, c := range contacts {
		items = append(items, contactItemResponse{
			ID:          c.ID,
			Name:        c.Name,
			Email:       c.Email,
			Subject:     c.Subject,
			Message:     c.Message,
			Status:      string(c.Status),
			ClerkUserID: c.ClerkUserID,
			CreatedAt:   c.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, items)
}

// contactStatusRequest はお問い合わせの処理状態更新リクエストのボディ。
type contactStatusRequest struct {
	Status string `json:"status"`
}

// UpdateContactStatus は管理者向けにお問い合わせの処理状態を更新する。
// PATCH /api/contacts/{id}/status
func (h *ContactHandler) UpdateContactStatus(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}
	if !principal.IsAdmin() {
		handleServiceError(w, model.NewForbiddenError("お問い合わせの更新には管理者権限が必要です。"))
		return
	}

	var req contactStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.MarkStatus(r.Context(), id, model.ContactStatus(req.Status)); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
