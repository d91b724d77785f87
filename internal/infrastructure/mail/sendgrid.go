package mail

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/mietgram/campus-api/internal/core/ports"
)

const senderName = "mietGram"

type sendClient interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

// SendGridMailer sends verification emails through the SendGrid v3 API.
type SendGridMailer struct {
	client    sendClient
	from      string
	clientURL string
	log       zerolog.Logger
}

func NewSendGridMailer(apiKey, from, clientURL string, log zerolog.Logger) *SendGridMailer {
	return &SendGridMailer{
		client:    sendgrid.NewSendClient(apiKey),
		from:      from,
		clientURL: clientURL,
		log:       log,
	}
}

func (m *SendGridMailer) SendVerification(ctx context.Context, mail ports.VerificationMail) error {
	text, html, err := renderVerification(m.clientURL, mail)
	if err != nil {
		return err
	}

	message := sgmail.NewSingleEmail(
		sgmail.NewEmail(senderName, m.from),
		verificationSubject,
		sgmail.NewEmail(mail.Name, mail.To),
		text,
		html,
	)

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: unexpected status %d: %s", resp.StatusCode, resp.Body)
	}

	m.log.Debug().Str("to", mail.To).Int("status", resp.StatusCode).Msg("verification email sent")
	return nil
}

// New picks the SendGrid mailer in production when an API key is configured
// and the log mailer otherwise.
func New(production bool, apiKey, from, clientURL string, log zerolog.Logger) ports.Mailer {
	if production && apiKey != "" {
		return NewSendGridMailer(apiKey, from, clientURL, log)
	}
	return NewLogMailer(clientURL, log)
}
