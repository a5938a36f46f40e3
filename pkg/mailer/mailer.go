package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/monisha-uniforms/storefront-backend/pkg/config"
	pkgerrors "github.com/monisha-uniforms/storefront-backend/pkg/errors"
	"github.com/monisha-uniforms/storefront-backend/pkg/logger"
)

// Sender delivers account action links. Satisfied by Mailer.
type Sender interface {
	SendVerificationLink(ctx context.Context, toEmail, toName, link string) error
	SendPasswordResetLink(ctx context.Context, toEmail, toName, link string) error
}

// Mailer sends transactional mail through SendGrid.
type Mailer struct {
	fromEmail string
	fromName  string
	send      func(ctx context.Context, message *mail.SGMailV3) (int, error)
}

func New(cfg config.MailConfig, logg *logger.Logger) (*Mailer, error) {
	if cfg.SendgridAPIKey == "" {
		return nil, fmt.Errorf("sendgrid api key is required")
	}
	if cfg.FromEmail == "" {
		return nil, fmt.Errorf("mail from address is required")
	}
	client := sendgrid.NewSendClient(cfg.SendgridAPIKey)
	m := &Mailer{
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		send: func(ctx context.Context, message *mail.SGMailV3) (int, error) {
			resp, err := client.SendWithContext(ctx, message)
			if err != nil {
				return 0, err
			}
			return resp.StatusCode, nil
		},
	}
	if logg != nil {
		logg.Info(context.Background(), "mailer initialized")
	}
	return m, nil
}

func (m *Mailer) SendVerificationLink(ctx context.Context, toEmail, toName, link string) error {
	subject := "Verify your Monisha Uniforms account"
	body := fmt.Sprintf("Welcome to Monisha Uniforms.\n\nConfirm your email address by opening this link:\n\n%s\n\nIf you did not create an account, ignore this message.", link)
	return m.deliver(ctx, toEmail, toName, subject, body)
}

func (m *Mailer) SendPasswordResetLink(ctx context.Context, toEmail, toName, link string) error {
	subject := "Reset your Monisha Uniforms password"
	body := fmt.Sprintf("A password reset was requested for your account.\n\nChoose a new password by opening this link:\n\n%s\n\nIf you did not request this, ignore this message.", link)
	return m.deliver(ctx, toEmail, toName, subject, body)
}

func (m *Mailer) deliver(ctx context.Context, toEmail, toName, subject, body string) error {
	if toEmail == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient address is required")
	}
	status, err := m.send(ctx, m.buildMessage(toEmail, toName, subject, body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRemote, err, "sending mail")
	}
	if status >= 400 {
		return pkgerrors.New(pkgerrors.CodeRemote, fmt.Sprintf("mail provider returned status %d", status))
	}
	return nil
}

func (m *Mailer) buildMessage(toEmail, toName, subject, body string) *mail.SGMailV3 {
	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	html := fmt.Sprintf("<pre>%s</pre>", body)
	return mail.NewSingleEmail(from, subject, to, body, html)
}
