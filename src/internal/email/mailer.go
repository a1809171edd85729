package email

import (
	"crypto/tls"
	"fmt"

	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
)

// Mailer handles sending emails over SMTP
type Mailer struct {
	cfg    *viper.Viper
	dialer *gomail.Dialer
}

// NewMailer creates a new mailer instance
func NewMailer(cfg *viper.Viper) *Mailer {
	var dialer *gomail.Dialer

	if cfg.GetBool("email.enabled") {
		host := cfg.GetString("email.smtp.host")
		port := cfg.GetInt("email.smtp.port")
		username := cfg.GetString("email.smtp.username")
		password := cfg.GetString("email.smtp.password")

		dialer = gomail.NewDialer(host, port, username, password)

		if cfg.GetBool("email.smtp.tls") {
			dialer.TLSConfig = &tls.Config{
				ServerName:         host,
				InsecureSkipVerify: cfg.GetBool("email.smtp.skip_verify"),
			}
		}
	}

	return &Mailer{
		cfg:    cfg,
		dialer: dialer,
	}
}

// Send sends a plain-text email message
func (m *Mailer) Send(toEmail, toName, subject, body string) error {
	if !m.cfg.GetBool("email.enabled") {
		return fmt.Errorf("email sending is disabled")
	}
	if m.dialer == nil {
		return fmt.Errorf("email dialer not configured")
	}

	message := gomail.NewMessage()
	message.SetHeader("From", m.fromAddress())
	if toName != "" {
		message.SetAddressHeader("To", toEmail, toName)
	} else {
		message.SetHeader("To", toEmail)
	}
	message.SetHeader("Subject", subject)
	message.SetBody("text/plain", body)
	message.SetHeader("X-Mailer", "CasNotes")

	if err := m.dialer.DialAndSend(message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// TestConnection tests the SMTP connection
func (m *Mailer) TestConnection() error {
	if m.dialer == nil {
		return fmt.Errorf("email dialer not configured")
	}

	closer, err := m.dialer.Dial()
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer closer.Close()
	return nil
}

func (m *Mailer) fromAddress() string {
	from := m.cfg.GetString("email.from")
	if from == "" {
		from = "noreply@localhost"
	}
	return from
}
