// Package mail delivers verification emails, either through SendGrid or, in
// development, by writing them to the log.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mietgram/campus-api/internal/core/ports"
)

const verificationSubject = "Verify your mietGram account"

var verificationTemplate = template.Must(template.New("verify").Parse(
	`<h1>Welcome to mietGram{{if .Name}}, {{.Name}}{{end}}!</h1>` +
		`<p>Confirm your campus email to finish setting up your account.</p>` +
		`<p><a href="{{.Link}}">Verify my email</a></p>` +
		`<p>The link expires in 24 hours.</p>`,
))

// VerificationLink builds the client URL a user follows to verify.
func VerificationLink(clientURL, token string) string {
	return strings.TrimRight(clientURL, "/") + "/verify/" + token
}

// renderVerification returns the plain text and HTML bodies for m.
func renderVerification(clientURL string, m ports.VerificationMail) (string, string, error) {
	link := VerificationLink(clientURL, m.Token)
	var html bytes.Buffer
	if err := verificationTemplate.Execute(&html, struct{ Name, Link string }{m.Name, link}); err != nil {
		return "", "", fmt.Errorf("render verification email: %w", err)
	}
	text := fmt.Sprintf("Verify your mietGram account: %s", link)
	return text, html.String(), nil
}

// LogMailer writes verification links to the log instead of sending them.
type LogMailer struct {
	clientURL string
	log       zerolog.Logger
}

func NewLogMailer(clientURL string, log zerolog.Logger) *LogMailer {
	return &LogMailer{clientURL: clientURL, log: log}
}

func (m *LogMailer) SendVerification(_ context.Context, mail ports.VerificationMail) error {
	m.log.Info().
		Str("to", mail.To).
		Str("link", VerificationLink(m.clientURL, mail.Token)).
		Msg("verification email (not sent outside production)")
	return nil
}
