// Package contact はお問い合わせフォームのサービス層を提供する。
//
// 送信内容の検証・サニタイズ・保存を同期で行い、管理者への通知メールは
// ベストエフォートで非同期送信する。メール送信の失敗は受付の成否に影響しない。
package contact

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/inkwell/internal/email"
	"github.com/hitoshi/inkwell/internal/model"
	"github.com/hitoshi/inkwell/internal/repository"
)

// フィールドごとの文字数制約（rune数）
const (
	minNameLength    = 2
	maxNameLength    = 100
	minSubjectLength = 3
	maxSubjectLength = 200
	minMessageLength = 10
	maxMessageLength = 1000
)

// notifyTimeout は通知メール送信の上限時間。
// リクエストコンテキストから切り離した背景送信に適用する。
const notifyTimeout = 30 * time.Second

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Sanitizer はお問い合わせ入力のタグ除去のインターフェース。
type Sanitizer interface {
	SanitizePlainText(raw string) string
}

// MetricsCollector はお問い合わせ関連のメトリクス記録のインターフェース。
type MetricsCollector interface {
	RecordContactReceived()
	RecordEmailSent()
	RecordEmailFailed()
}

// Service はお問い合わせサービス。
type Service struct {
	contacts  repository.ContactRepository
	mailer    email.Mailer
	sanitizer Sanitizer
	metrics   MetricsCollector

	// notifyDone はテストで背景送信の完了を待つためのフック。nil許容。
	notifyDone func()
}

// NewService はServiceを生成する。metricsはnil許容。
func NewService(
	contacts repository.ContactRepository,
	mailer email.Mailer,
	sanitizer Sanitizer,
	metrics MetricsCollector,
) *Service {
	return &Service{
		contacts:  contacts,
		mailer:    mailer,
		sanitizer: sanitizer,
		metrics:   metrics,
	}
}

// SubmitInput はお問い合わせ送信の入力。
// ClerkUserIDとIPAddressは任意（未認証の送信者を許容する）。
type SubmitInput struct {
	Name        string
	Email       string
	Subject     string
	Message     string
	ClerkUserID string
	IPAddress   string
}

// Submit はお問い合わせを検証・保存し、通知メールを非同期送信する。
// 保存成功後のメール送信失敗は受付の成否に影響しない。
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*model.Contact, error) {
	input.Name = s.sanitizer.SanitizePlainText(input.Name)
	input.Email = s.sanitizer.SanitizePlainText(input.Email)
	input.Subject = s.sanitizer.SanitizePlainText(input.Subject)
	input.Message = s.sanitizer.SanitizePlainText(input.Message)

	if fields := validate(input); len(fields) > 0 {
		return nil, model.NewValidationError(fields)
	}

	now := time.Now()
	c := &model.Contact{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Email:       input.Email,
		Subject:     input.Subject,
		Message:     input.Message,
		Status:      model.ContactStatusUnread,
		ClerkUserID: input.ClerkUserID,
		IPAddress:   input.IPAddress,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.contacts.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordContactReceived()
	}
	slog.Info("contact received", slog.String("contact_id", c.ID))

	// 通知メールはリクエストのライフサイクルから切り離して送信する
	go s.notify(c)

	return c, nil
}

// notify は通知メールをベストエフォートで送信する。失敗はログとメトリクスのみ。
func (s *Service) notify(c *model.Contact) {
	defer func() {
		if s.notifyDone != nil {
			s.notifyDone()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	if err := s.mailer.SendContactNotification(ctx, c); err != nil {
		slog.Error("failed to send contact notification",
			slog.String("contact_id", c.ID),
			slog.String("error", err.Error()),
		)
		if s.metrics != nil {
			s.metrics.RecordEmailFailed()
		}
		return
	}

	if s.metrics != nil {
		s.metrics.RecordEmailSent()
	}
}

// defaultListLimit は運用一覧取得のデフォルト件数。
const defaultListLimit = 50

// ListRecent は新しい順にお問い合わせを取得する（運用API用）。
func (s *Service) ListRecent(ctx context.Context, limit int) ([]model.Contact, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultListLimit
	}

	contacts, err := s.contacts.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	return contacts, nil
}

// MarkStatus は処理状態を更新する（運用API用）。
func (s *Service) MarkStatus(ctx context.Context, id string, status model.ContactStatus) error {
	switch status {
	case model.ContactStatusUnread, model.ContactStatusRead, model.ContactStatusResponded:
	default:
		return model.NewInvalidRequestError(fmt.Sprintf("無効なステータスです: %s", status))
	}

	updated, err := s.contacts.UpdateStatus(ctx, id, status)
	if err != nil {
		return fmt.Errorf("failed to update contact status: %w", err)
	}
	if !updated {
		return model.NewInvalidRequestError("指定されたお問い合わせが見つかりません。")
	}

	return nil
}

// validate はフィールド単位の検証を行い、エラーメッセージのマップを返す。
// 全フィールドを一度に検証し、最初のエラーで打ち切らない。
func validate(input SubmitInput) map[string]string {
	fields := map[string]string{}

	switch n := len([]rune(input.Name)); {
	case n == 0:
		fields["name"] = "名前は必須です。"
	case n < minNameLength || n > maxNameLength:
		fields["name"] = fmt.Sprintf("名前は%d〜%d文字で入力してください。", minNameLength, maxNameLength)
	}

	if input.Email == "" {
		fields["email"] = "メールアドレスは必須です。"
	} else if !emailPattern.MatchString(input.Email) {
		fields["email"] = "メールアドレスの形式が正しくありません。"
	}

	switch n := len([]rune(input.Subject)); {
	case n == 0:
		fields["subject"] = "件名は必須です。"
	case n < minSubjectLength || n > maxSubjectLength:
		fields["subject"] = fmt.Sprintf("件名は%d〜%d文字で入力してください。", minSubjectLength, maxSubjectLength)
	}

	switch n := len([]rune(input.Message)); {
	case n == 0:
		fields["message"] = "本文は必須です。"
	case n < minMessageLength || n > maxMessageLength:
		fields["message"] = fmt.Sprintf("本文は%d〜%d文字で入力してください。", minMessageLength, maxMessageLength)
	}

	return fields
}
