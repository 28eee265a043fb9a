package email

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/minwoo-kang/localstar-service/internal/config"
	"github.com/minwoo-kang/localstar-service/internal/models"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendRegistrationNotification notifies the admin mailbox about a new
// influencer registration request awaiting review.
func (s *Sender) SendRegistrationNotification(reg *models.Registration, districtName string) error {
	if s.cfg.AdminEmail == "" {
		s.logger.Debug("ADMIN_EMAIL not set, skipping registration notification")
		return nil
	}

	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{s.cfg.AdminEmail}
	e.Subject = fmt.Sprintf("New influencer registration: %s (%s)", reg.Name, districtName)

	body := fmt.Sprintf(
		"A new registration request is awaiting review.\n\n"+
			"Request ID: %s\n"+
			"District: %s (%s)\n"+
			"Name: %s\n"+
			"Handle: %s\n"+
			"Submitted: %s\n",
		reg.ID, districtName, reg.DistrictCode, reg.Name, reg.Handle, reg.CreatedAt,
	)
	body += "\nBest regards,\nLocalstar Service"
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send registration notification to %s: %v", s.cfg.AdminEmail, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", s.cfg.AdminEmail, e.Subject)
	return nil
}
