// Package mail sends transactional account emails.
package mail

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/Tatiana-20/tati-blog/internal/config"
	"github.com/Tatiana-20/tati-blog/internal/middleware"
)

// Mailer delivers account lifecycle emails.
type Mailer interface {
	SendActivation(to, name, activationURL string) error
	SendPasswordReset(to, name, resetURL string) error
}

// SMTPMailer sends mail over plain SMTP with optional AUTH.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPMailer builds an SMTPMailer from the application config.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
	}
}

func (m *SMTPMailer) send(to, subject, body string) error {
	var msg strings.Builder
	msg.WriteString("From: " + m.from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	addr := m.host + ":" + m.port
	var a smtp.Auth
	if m.username != "" {
		a = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	if err := smtp.SendMail(addr, a, m.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

// SendActivation emails the account activation link.
func (m *SMTPMailer) SendActivation(to, name, activationURL string) error {
	body := fmt.Sprintf(
		"Hola %s,\n\nGracias por registrarte en Tati Blog. Activa tu cuenta con el siguiente enlace:\n\n%s\n\nSi no creaste esta cuenta, ignora este mensaje.\n",
		name, activationURL,
	)
	return m.send(to, "Activa tu cuenta de Tati Blog", body)
}

// SendPasswordReset emails the password recovery link.
func (m *SMTPMailer) SendPasswordReset(to, name, resetURL string) error {
	body := fmt.Sprintf(
		"Hola %s,\n\nRecibimos una solicitud para restablecer tu contrasena. Usa el siguiente enlace (valido por 1 hora):\n\n%s\n\nSi no solicitaste el cambio, ignora este mensaje.\n",
		name, resetURL,
	)
	return m.send(to, "Restablece tu contrasena de Tati Blog", body)
}

// LogMailer writes the would-be emails to the structured log. Used in
// development and tests where no SMTP relay is configured.
type LogMailer struct{}

// NewLogMailer returns a LogMailer.
func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

// SendActivation logs the activation link instead of sending it.
func (m *LogMailer) SendActivation(to, name, activationURL string) error {
	middleware.Logger.Info("activation email",
		slog.String("to", to),
		slog.String("name", name),
		slog.String("url", activationURL),
	)
	return nil
}

// SendPasswordReset logs the reset link instead of sending it.
func (m *LogMailer) SendPasswordReset(to, name, resetURL string) error {
	middleware.Logger.Info("password reset email",
		slog.String("to", to),
		slog.String("name", name),
		slog.String("url", resetURL),
	)
	return nil
}

// NewMailer picks the SMTP mailer when a host is configured, otherwise the
// logging mailer.
func NewMailer(cfg *config.Config) Mailer {
	if cfg.SMTPHost != "" {
		return NewSMTPMailer(cfg)
	}
	return NewLogMailer()
}
