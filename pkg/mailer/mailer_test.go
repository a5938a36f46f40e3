package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sendgrid/sendgrid-go/helpers/mail"

	pkgerrors "github.com/monisha-uniforms/storefront-backend/pkg/errors"
)

func newTestMailer(send func(context.Context, *mail.SGMailV3) (int, error)) *Mailer {
	return &Mailer{fromEmail: "no-reply@example.com", fromName: "Monisha Uniforms", send: send}
}

func TestSendVerificationLink(t *testing.T) {
	t.Parallel()

	var sent *mail.SGMailV3
	m := newTestMailer(func(_ context.Context, msg *mail.SGMailV3) (int, error) {
		sent = msg
		return 202, nil
	})

	err := m.SendVerificationLink(context.Background(), "a@b.c", "Asha", "https://example.com/verify?code=x")
	if err != nil {
		t.Fatalf("SendVerificationLink: %v", err)
	}
	if sent == nil {
		t.Fatal("no message sent")
	}
	if sent.From.Address != "no-reply@example.com" {
		t.Fatalf("wrong sender: %s", sent.From.Address)
	}
	if got := sent.Personalizations[0].To[0].Address; got != "a@b.c" {
		t.Fatalf("wrong recipient: %s", got)
	}
	if !strings.Contains(sent.Content[0].Value, "https://example.com/verify?code=x") {
		t.Fatalf("link missing from body: %q", sent.Content[0].Value)
	}
}

func TestDeliverMapsProviderFailures(t *testing.T) {
	t.Parallel()

	m := newTestMailer(func(context.Context, *mail.SGMailV3) (int, error) {
		return 0, errors.New("connection refused")
	})
	err := m.SendPasswordResetLink(context.Background(), "a@b.c", "", "https://example.com/reset")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeRemote {
		t.Fatalf("expected remote error, got %v", err)
	}

	m = newTestMailer(func(context.Context, *mail.SGMailV3) (int, error) {
		return 401, nil
	})
	err = m.SendPasswordResetLink(context.Background(), "a@b.c", "", "https://example.com/reset")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeRemote {
		t.Fatalf("expected remote error for 401, got %v", err)
	}
}

func TestDeliverRequiresRecipient(t *testing.T) {
	t.Parallel()

	m := newTestMailer(func(context.Context, *mail.SGMailV3) (int, error) {
		t.Fatal("send should not be called")
		return 0, nil
	})
	err := m.SendVerificationLink(context.Background(), "", "", "https://example.com/verify")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
