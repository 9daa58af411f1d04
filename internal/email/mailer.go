// Package email はお問い合わせ通知メールの送信を提供する。
package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/inkwell/internal/model"
	"github.com/wneessen/go-mail"
)

// Mailer はお問い合わせ通知の送信インターフェース。
type Mailer interface {
	// SendContactNotification は管理者宛にお問い合わせ通知を送信する。
	SendContactNotification(ctx context.Context, contact *model.Contact) error
}

// SMTPConfig はSMTPメーラーの設定。
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// smtpMailer はgo-mailによるMailerの実装。
type smtpMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer はSMTP経由のMailerを生成する。
func NewSMTPMailer(cfg SMTPConfig) *smtpMailer {
	return &smtpMailer{cfg: cfg}
}

var _ Mailer = (*smtpMailer)(nil)

// SendContactNotification は管理者宛にお問い合わせ通知を送信する。
// 送信者のメールアドレスはReply-Toに設定し、返信操作を1クリックにする。
func (m *smtpMailer) SendContactNotification(ctx context.Context, contact *model.Contact) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(m.cfg.To); err != nil {
		return fmt.Errorf("invalid to address: %w", err)
	}
	if err := msg.ReplyTo(contact.Email); err != nil {
		return fmt.Errorf("invalid reply-to address: %w", err)
	}

	msg.Subject(fmt.Sprintf("お問い合わせ: %s", contact.Subject))
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"名前: %s\nメール: %s\n件名: %s\n\n%s\n\n--\nお問い合わせID: %s",
		contact.Name, contact.Email, contact.Subject, contact.Message, contact.ID,
	))

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send notification mail: %w", err)
	}

	return nil
}

// disabledMailer はSMTP未設定時のMailer。送信せずにログのみ残す。
type disabledMailer struct{}

// NewDisabledMailer は送信を行わないMailerを生成する。
// SMTP_HOSTが未設定の環境（ローカル開発など）で使用する。
func NewDisabledMailer() Mailer {
	return disabledMailer{}
}

func (disabledMailer) SendContactNotification(ctx context.Context, contact *model.Contact) error {
	slog.Info("mail delivery disabled, skipping contact notification",
		slog.String("contact_id", contact.ID),
	)
	return nil
}
