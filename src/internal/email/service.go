package email

import (
	"fmt"

	"github.com/spf13/viper"
)

// Service handles outbound application email
type Service struct {
	cfg    *viper.Viper
	mailer *Mailer
}

// NewService creates a new email service
func NewService(cfg *viper.Viper) *Service {
	return &Service{
		cfg:    cfg,
		mailer: NewMailer(cfg),
	}
}

// Enabled reports whether outbound email is configured
func (s *Service) Enabled() bool {
	return s.cfg.GetBool("email.enabled")
}

// SendPasswordResetCode emails a one-time password reset code.
// When email is disabled the send is skipped silently so development
// installs can still exercise the reset flow by reading the database.
func (s *Service) SendPasswordResetCode(toEmail, username, code string) error {
	if !s.Enabled() {
		return nil
	}

	appName := s.cfg.GetString("email.from_name")
	if appName == "" {
		appName = "CasNotes"
	}

	subject := fmt.Sprintf("%s password reset", appName)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour password reset code is: %s\n\nThe code expires in 30 minutes. If you did not request a reset, ignore this message.\n",
		username, code,
	)

	return s.mailer.Send(toEmail, username, subject, body)
}
