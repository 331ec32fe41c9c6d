package mail

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"github.com/xavierca1/ligue-reviews/internal/entity"
)

func NewSMTPSender(host string, port int, user, password, messageIDDomain string) *SMTPSender {
	if messageIDDomain == "" {
		messageIDDomain = "ligue-reviews.local"
	}
	return &SMTPSender{
		Host:            host,
		Port:            port,
		User:            user,
		Password:        password,
		MessageIDDomain: messageIDDomain,
	}
}

// Send delivers msg over SMTP (Postmark's relay accepts the server token as both
// user and password). SMTP gives no provider id back, so the generated Message-ID
// is returned instead.
func (s *SMTPSender) Send(ctx context.Context, msg entity.EmailMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.New().String(), s.MessageIDDomain)

	m := s.buildMessage(msg, messageID)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)
	if err := d.DialAndSend(m); err != nil {
		return "", fmt.Errorf("send smtp email: %w", err)
	}
	return messageID, nil
}

func (s *SMTPSender) buildMessage(msg entity.EmailMessage, messageID string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", messageID)
	m.SetBody("text/plain", msg.Text)
	m.AddAlternative("text/html", msg.HTML)
	return m
}
