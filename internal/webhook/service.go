package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/inkwell/internal/model"
)

// ErrVerificationFailed は署名検証の失敗を表す。
// この場合のみ呼び出し側は400を返す。検証通過後の失敗は再送を抑止するため
// 受理として扱う。
var ErrVerificationFailed = errors.New("webhook verification failed")

// 処理結果のメトリクスラベル
const (
	OutcomeProcessed          = "processed"
	OutcomeVerificationFailed = "verification_failed"
	OutcomeMalformed          = "malformed"
	OutcomeIgnored            = "ignored"
	OutcomeSyncFailed         = "sync_failed"
)

// UserSyncer はWebhookイベントからユーザーを冪等に作成するインターフェース。
type UserSyncer interface {
	SyncFromWebhook(ctx context.Context, clerkUserID, username, email, imageURL string) (*model.User, error)
}

// MetricsCollector はWebhook処理結果のメトリクス記録のインターフェース。
type MetricsCollector interface {
	RecordWebhookEvent(outcome string)
}

// Service はWebhookイベントの処理サービス。
type Service struct {
	verifier Verifier
	users    UserSyncer
	metrics  MetricsCollector
}

// NewService はServiceを生成する。metricsはnil許容。
func NewService(verifier Verifier, users UserSyncer, metrics MetricsCollector) *Service {
	return &Service{verifier: verifier, users: users, metrics: metrics}
}

// event はIDプロバイダーのイベントエンベロープ。
type event struct {
	Type string    `json:"type"`
	Data eventData `json:"data"`
}

type eventData struct {
	ID             string         `json:"id"`
	Username       string         `json:"username"`
	EmailAddresses []emailAddress `json:"email_addresses"`
	ImageURL       string         `json:"image_url"`
}

type emailAddress struct {
	EmailAddress string `json:"email_address"`
}

// Process はWebhookリクエストを検証して処理する。
// 署名不正の場合のみErrVerificationFailedを返す。
// 検証通過後の失敗はログに残してnilを返す（受理扱いで再送を抑止する）。
func (s *Service) Process(ctx context.Context, payload []byte, headers http.Header) error {
	if err := s.verifier.Verify(payload, headers); err != nil {
		slog.Warn("webhook signature verification failed", slog.String("error", err.Error()))
		s.record(OutcomeVerificationFailed)
		return ErrVerificationFailed
	}

	var ev event
	if err := json.Unmarshal(payload, &ev); err != nil {
		slog.Error("failed to parse webhook payload", slog.String("error", err.Error()))
		s.record(OutcomeMalformed)
		return nil
	}

	switch ev.Type {
	case "user.created", "user.updated":
		s.syncUser(ctx, &ev)
	default:
		slog.Info("ignoring webhook event", slog.String("type", ev.Type))
		s.record(OutcomeIgnored)
	}

	return nil
}

func (s *Service) syncUser(ctx context.Context, ev *event) {
	var email string
	if len(ev.Data.EmailAddresses) > 0 {
		email = ev.Data.EmailAddresses[0].EmailAddress
	}

	user, err := s.users.SyncFromWebhook(ctx, ev.Data.ID, ev.Data.Username, email, ev.Data.ImageURL)
	if err != nil {
		slog.Error("failed to sync user from webhook",
			slog.String("type", ev.Type),
			slog.String("clerk_user_id", ev.Data.ID),
			slog.String("error", err.Error()),
		)
		s.record(OutcomeSyncFailed)
		return
	}

	slog.Info("user synced from webhook",
		slog.String("type", ev.Type),
		slog.String("clerk_user_id", ev.Data.ID),
		slog.String("user_id", user.ID),
	)
	s.record(OutcomeProcessed)
}

func (s *Service) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordWebhookEvent(outcome)
	}
}
