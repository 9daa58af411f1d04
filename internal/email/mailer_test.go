package email

import (
	"context"
	"testing"

	"github.com/hitoshi/inkwell/internal/model"
)

func TestDisabledMailer_NeverFails(t *testing.T) {
	m := NewDisabledMailer()

	err := m.SendContactNotification(context.Background(), &model.Contact{
		ID:    "c-1",
		Email: "sender@example.com",
	})
	if err != nil {
		t.Errorf("SendContactNotification() error = %v, disabled mailer should be a no-op", err)
	}
}

func TestSMTPMailer_RejectsInvalidAddresses(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{
		Host: "smtp.example.com",
		Port: 587,
		From: "not-an-address",
		To:   "admin@example.com",
	})

	err := m.SendContactNotification(context.Background(), &model.Contact{
		ID:    "c-1",
		Email: "sender@example.com",
	})
	if err == nil {
		t.Error("SendContactNotification() should fail with invalid from address")
	}
}
