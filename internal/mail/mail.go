// Package mail delivers password-reset notifications over SMTP.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	netmail "net/mail"
	"net/url"
	"strconv"
	"text/template"

	"github.com/Stewz00/wordwave-auth/internal/config"
	"github.com/Stewz00/wordwave-auth/internal/interfaces"
	"github.com/Stewz00/wordwave-auth/internal/logging"
	"github.com/dajohi/goemail"
	"github.com/samber/oops"
)

const resetSubject = "Reset Your Password"

const resetText = `Hi {{.Username}},

We received a request to reset the password for your WordWave account.
Use the link below to choose a new password. The link expires in one hour
and can only be used once.

{{.Link}}

If you did not request a password reset, you can ignore this email. Your
password will not change.
`

var resetTemplate = template.Must(template.New("password_reset").Parse(resetText))

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	client   *goemail.SMTP
	name     string
	address  string
	resetURL string
	log      logging.Logger
}

var _ interfaces.Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer connects the mailer described by cfg. Secure selects
// implicit TLS (smtps); otherwise the connection is upgraded with STARTTLS
// when the server offers it.
func NewSMTPMailer(cfg config.MailConfig, resetURL string, log logging.Logger) (*SMTPMailer, error) {
	scheme := "smtp"
	if cfg.Secure {
		scheme = "smtps"
	}
	host := cfg.Host
	if cfg.Port > 0 {
		host = host + ":" + strconv.Itoa(cfg.Port)
	}
	u := &url.URL{Scheme: scheme, Host: host}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}

	from := cfg.From
	if cfg.FromName != "" {
		from = fmt.Sprintf("%q <%s>", cfg.FromName, cfg.From)
	}
	a, err := netmail.ParseAddress(from)
	if err != nil {
		return nil, oops.Code("MAIL_CONFIG_INVALID").With("from", cfg.From).Wrap(err)
	}

	client, err := goemail.NewSMTP(u.String(), &tls.Config{ServerName: cfg.Host})
	if err != nil {
		return nil, oops.Code("MAIL_CONFIG_INVALID").With("host", cfg.Host).Wrap(err)
	}

	log.Info(context.Background(), "smtp mailer configured",
		"host", host, "scheme", scheme, "from", a.Address)

	return &SMTPMailer{
		client:   client,
		name:     a.Name,
		address:  a.Address,
		resetURL: resetURL,
		log:      log,
	}, nil
}

// SendPasswordReset mails the reset link for token to email.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, email, username, token string) error {
	body, err := ResetBody(m.resetURL, username, token)
	if err != nil {
		return err
	}

	msg := goemail.NewMessage(m.address, resetSubject, body)
	msg.SetName(m.name)
	msg.AddBCC(email)

	m.log.Info(ctx, "sending password reset email", "email", email)
	if err := m.client.Send(msg); err != nil {
		m.log.Error(ctx, "failed to send password reset email", "email", email, "error", err)
		return oops.Code("MAIL_SEND_FAILED").With("email", email).Wrap(err)
	}
	return nil
}

// LogMailer stands in for SMTP when no mail host is configured. It logs
// that a reset was requested but never the token.
type LogMailer struct {
	log logging.Logger
}

var _ interfaces.Mailer = (*LogMailer)(nil)

func NewLogMailer(log logging.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, email, username, token string) error {
	m.log.Warn(ctx, "mail disabled; password reset email not sent", "email", email, "username", username)
	return nil
}

// New returns an SMTP mailer when cfg names a host and a LogMailer
// otherwise.
func New(cfg config.MailConfig, resetURL string, log logging.Logger) (interfaces.Mailer, error) {
	if !cfg.Enabled() {
		return NewLogMailer(log), nil
	}
	return NewSMTPMailer(cfg, resetURL, log)
}

// ResetLink appends token to the reset page URL.
func ResetLink(resetURL, token string) (string, error) {
	u, err := url.Parse(resetURL)
	if err != nil {
		return "", oops.Code("MAIL_CONFIG_INVALID").With("reset_url", resetURL).Wrap(err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ResetBody renders the plain-text reset email.
func ResetBody(resetURL, username, token string) (string, error) {
	link, err := ResetLink(resetURL, token)
	if err != nil {
		return "", err
	}
	var b bytes.Buffer
	err = resetTemplate.Execute(&b, struct {
		Username string
		Link     string
	}{username, link})
	if err != nil {
		return "", oops.Code("MAIL_TEMPLATE_FAILED").Wrap(err)
	}
	return b.String(), nil
}
