// internal/email/sender.go
package email

import (
	"context"
	"fmt"
	"log"
	"time"

	"gopkg.in/gomail.v2"

	"backcheck-service/internal/config"
	"backcheck-service/internal/email/templates"
)

const maxAttempts = 3

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Sender struct {
	fromName  string
	from      string
	dialer    dialer
	baseDelay time.Duration
}

func NewSender(cfg *config.Config) *Sender {
	return &Sender{
		fromName:  cfg.SMTPFromName,
		from:      cfg.SMTPFrom,
		dialer:    gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		baseDelay: time.Second,
	}
}

func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	log.Printf("📧 [SEND] To: %s | Subject: %s", to, subject)

	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", s.fromName, s.from))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	// Exponential backoff: 1s, 2s, 4s
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := s.dialer.DialAndSend(m); err != nil {
			delay := s.baseDelay << attempt
			log.Printf("❌ [ATTEMPT %d] Failed to send email to %s: %v → retrying in %v", attempt+1, to, err, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("email send cancelled: %w", ctx.Err())
			}
			continue
		}
		log.Printf("✅ [SUCCESS] Email sent to %s (Subject: %s)", to, subject)
		return nil
	}

	log.Printf("💥 [FAILED] All retries exhausted for %s", to)
	return fmt.Errorf("failed to send email to %s after %d attempts", to, maxAttempts)
}

func (s *Sender) SendWelcome(ctx context.Context, to string, data templates.WelcomeData) error {
	body, err := templates.RenderWelcomeEmail(data)
	if err != nil {
		return fmt.Errorf("render welcome: %w", err)
	}
	return s.Send(ctx, to, "Welcome to BackCheck", body)
}

func (s *Sender) SendProfileViewed(ctx context.Context, to string, data templates.ProfileViewedData) error {
	body, err := templates.RenderProfileViewedEmail(data)
	if err != nil {
		return fmt.Errorf("render profile_viewed: %w", err)
	}
	return s.Send(ctx, to, "Your BackCheck profile was viewed", body)
}
