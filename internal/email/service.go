package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type Service interface {
	SendVerification(ctx context.Context, to string, token string) error
	SendPasswordReset(ctx context.Context, to string, token string) error
	SendWelcome(ctx context.Context, to string, name string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	BaseURL  string
}

type smtpService struct {
	cfg    Config
	dialer *gomail.Dialer
}

func NewSMTPService(cfg Config) Service {
	return &smtpService{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *smtpService) SendVerification(ctx context.Context, to string, token string) error {
	body := fmt.Sprintf(
		"Please verify your email address by opening:\n\n%s/verify?token=%s\n\nThe link expires in 48 hours.",
		s.cfg.BaseURL, token,
	)
	return s.send(to, "Verify your email", body)
}

func (s *smtpService) SendPasswordReset(ctx context.Context, to string, token string) error {
	body := fmt.Sprintf(
		"A password reset was requested for your account. Open:\n\n%s/reset-password?token=%s\n\nIf you did not request this, ignore this email.",
		s.cfg.BaseURL, token,
	)
	return s.send(to, "Reset your password", body)
}

func (s *smtpService) SendWelcome(ctx context.Context, to string, name string) error {
	body := fmt.Sprintf("Hi %s,\n\nYour clinic account is ready.", name)
	return s.send(to, "Welcome", body)
}

func (s *smtpService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// NoopService satisfies Service for environments without SMTP.
type NoopService struct{}

func (NoopService) SendVerification(ctx context.Context, to, token string) error  { return nil }
func (NoopService) SendPasswordReset(ctx context.Context, to, token string) error { return nil }
func (NoopService) SendWelcome(ctx context.Context, to, name string) error        { return nil }
