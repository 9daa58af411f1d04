// Package webhook はIDプロバイダーからのWebhookイベントの検証と処理を提供する。
package webhook

import (
	"fmt"
	"net/http"

	svix "github.com/svix/svix-webhooks/go"
)

// Verifier はWebhook署名の検証インターフェース。
// テストではスタブに差し替える。
type Verifier interface {
	// Verify は生のリクエストボディと署名ヘッダを検証する。
	// 署名が不正な場合はエラーを返す。
	Verify(payload []byte, headers http.Header) error
}

// svixVerifier はSvix署名方式によるVerifierの実装。
type svixVerifier struct {
	wh *svix.Webhook
}

// NewSvixVerifier は署名シークレットからVerifierを生成する。
func NewSvixVerifier(secret string) (Verifier, error) {
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook verifier: %w", err)
	}
	return &svixVerifier{wh: wh}, nil
}

// Verify は署名ヘッダ（svix-id, svix-timestamp, svix-signature）を検証する。
func (v *svixVerifier) Verify(payload []byte, headers http.Header) error {
	return v.wh.Verify(payload, headers)
}
