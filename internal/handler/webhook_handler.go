package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/hitoshi/inkwell/internal/webhook"
)

// maxWebhookBodySize はWebhookリクエストボディの上限サイズ。
const maxWebhookBodySize = 1 << 20 // 1MiB

// WebhookProcessor はWebhookハンドラーが必要とするサービスインターフェース。
type WebhookProcessor interface {
	Process(ctx context.Context, payload []byte, headers http.Header) error
}

// WebhookHandler はIDプロバイダーからのWebhookのHTTPハンドラー。
type WebhookHandler struct {
	processor WebhookProcessor
}

// NewWebhookHandler はWebhookHandlerを生成する。
func NewWebhookHandler(processor WebhookProcessor) *WebhookHandler {
	return &WebhookHandler{processor: processor}
}

// HandleClerkWebhook はユーザー同期Webhookを処理する。
// 署名検証には生のボディがそのまま必要なため、JSONデコード前に読み切る。
// POST /api/webhooks/clerk
func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if err := h.processor.Process(r.Context(), payload, r.Header); err != nil {
		if errors.Is(err, webhook.ErrVerificationFailed) {
			http.Error(w, "Webhook verification failed", http.StatusBadRequest)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	// 検証通過後の処理結果に関わらず受理を返し、プロバイダーの再送を抑止する
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"received":true}`))
}
