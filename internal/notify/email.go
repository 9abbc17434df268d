// Package notify delivers operational email: budget alerts to the operator
// and auto-replies to inbound product inquiries.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/civilmastersolution/cms-backend/pkg/models"
)

// sendFunc matches smtp.SendMail, injectable for tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailSender sends mail through a single SMTP relay.
type EmailSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	alertTo  string

	send   sendFunc
	logger *slog.Logger
}

// Option configures the sender
type Option func(*EmailSender)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *EmailSender) {
		s.logger = logger
	}
}

// WithSendFunc replaces the SMTP send function (for testing)
func WithSendFunc(fn sendFunc) Option {
	return func(s *EmailSender) {
		s.send = fn
	}
}

// NewEmailSender creates a sender for the given relay. alertTo receives
// budget alerts and lead notifications.
func NewEmailSender(host string, port int, username, password, from, alertTo string, opts ...Option) *EmailSender {
	s := &EmailSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		alertTo:  alertTo,
		send:     smtp.SendMail,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SendBudgetAlert emails the operator that the monthly spend ceiling was
// crossed.
func (s *EmailSender) SendBudgetAlert(ctx context.Context, alert models.BudgetAlert) error {
	subject := fmt.Sprintf("Chatbot budget alert: %s spend $%.6f of $%.2f", alert.Month, alert.CurrentSpend, alert.BudgetLimit)
	body := fmt.Sprintf(
		"The chatbot monthly budget has been reached.\r\n\r\n"+
			"Month: %s\r\nBudget: $%.2f\r\nEstimated spend: $%.6f\r\nTime: %s\r\n\r\n"+
			"Visitors now receive the unavailability message until the month rolls over.\r\n",
		alert.Month, alert.BudgetLimit, alert.CurrentSpend, alert.Timestamp.Format(time.RFC3339),
	)

	return s.deliver(ctx, s.alertTo, subject, body)
}

// SendLeadAutoReply confirms receipt of a product inquiry to the requester.
func (s *EmailSender) SendLeadAutoReply(ctx context.Context, lead *models.Lead) error {
	subject := "We received your product inquiry"
	body := fmt.Sprintf(
		"Dear %s,\r\n\r\n"+
			"Thank you for your interest in %s. Our team has received your request "+
			"and will contact you within two business days.\r\n\r\n"+
			"Civil Master Solution Co., Ltd.\r\n",
		lead.FullName, lead.ProductName,
	)

	return s.deliver(ctx, lead.EmailAddress, subject, body)
}

// SendLeadNotification tells the operator a new inquiry arrived.
func (s *EmailSender) SendLeadNotification(ctx context.Context, lead *models.Lead) error {
	subject := fmt.Sprintf("New product inquiry from %s", lead.FullName)
	body := fmt.Sprintf(
		"A new inquiry was submitted.\r\n\r\n"+
			"Name: %s\r\nEmail: %s\r\nContact: %s\r\nCompany: %s\r\nCountry: %s\r\n"+
			"Product: %s\r\n\r\nComments:\r\n%s\r\n",
		lead.FullName, lead.EmailAddress, lead.ContactNumber, lead.CompanyName,
		lead.Country, lead.ProductName, lead.Comments,
	)

	return s.deliver(ctx, s.alertTo, subject, body)
}

func (s *EmailSender) deliver(ctx context.Context, to, subject, body string) error {
	if s.host == "" {
		s.logger.Debug("smtp not configured, dropping email", slog.String("subject", subject))
		return nil
	}

	msg := buildMessage(s.from, to, subject, body)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	// smtp.SendMail has no context support; run it in a goroutine so a hung
	// relay cannot wedge the caller.
	done := make(chan error, 1)
	go func() {
		done <- s.send(addr, auth, s.from, []string{to}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email to %s: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("email send cancelled: %w", ctx.Err())
	}
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
