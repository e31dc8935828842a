// utils/email.go
package utils

import (
	"context"
	"fmt"
	"html"
	"strings"

	"petopia-api/config"
	"petopia-api/metrics"
	"petopia-api/models"

	"github.com/keighl/postmark"
	"github.com/resend/resend-go/v2"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
)

// Message is one outbound email
type Message struct {
	To      string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers a Message through some provider
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer builds the mailer selected by cfg.Provider
func NewMailer(cfg config.EmailConfig, log *logrus.Logger) (Mailer, error) {
	switch cfg.Provider {
	case "postmark":
		return &PostmarkMailer{client: postmark.NewClient(cfg.APIToken, ""), from: cfg.Sender}, nil
	case "sendgrid":
		return &SendGridMailer{client: sendgrid.NewSendClient(cfg.APIToken), from: cfg.Sender}, nil
	case "resend":
		return &ResendMailer{client: resend.NewClient(cfg.APIToken), from: cfg.Sender}, nil
	case "log", "":
		return &LogMailer{log: log}, nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

// PostmarkMailer sends through the Postmark API
type PostmarkMailer struct {
	client *postmark.Client
	from   string
}

func (m *PostmarkMailer) Send(_ context.Context, msg Message) error {
	_, err := m.client.SendEmail(postmark.Email{
		From:     m.from,
		To:       msg.To,
		ReplyTo:  msg.ReplyTo,
		Subject:  msg.Subject,
		HtmlBody: msg.HTML,
		TextBody: msg.Text,
	})
	if err != nil {
		return fmt.Errorf("postmark: %w", err)
	}
	return nil
}

// SendGridMailer sends through the SendGrid v3 API
type SendGridMailer struct {
	client *sendgrid.Client
	from   string
}

func (m *SendGridMailer) Send(_ context.Context, msg Message) error {
	message := mail.NewSingleEmail(mail.NewEmail("Petopia Care", m.from), msg.Subject, mail.NewEmail("", msg.To), msg.Text, msg.HTML)
	if msg.ReplyTo != "" {
		message.SetReplyTo(mail.NewEmail("", msg.ReplyTo))
	}
	resp, err := m.client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// ResendMailer sends through the Resend API
type ResendMailer struct {
	client *resend.Client
	from   string
}

func (m *ResendMailer) Send(_ context.Context, msg Message) error {
	_, err := m.client.Emails.Send(&resend.SendEmailRequest{
		From:    m.from,
		To:      []string{msg.To},
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them
type LogMailer struct {
	log *logrus.Logger
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.WithFields(logrus.Fields{
		"to":       msg.To,
		"reply_to": msg.ReplyTo,
		"subject":  msg.Subject,
	}).Info("email not sent, log provider configured")
	return nil
}

// EmailService renders and sends the notification emails
type EmailService struct {
	mailer       Mailer
	adminAddress string
	log          *logrus.Logger
}

// NewEmailService initializes and returns a new EmailService instance
func NewEmailService(mailer Mailer, adminAddress string, log *logrus.Logger) *EmailService {
	return &EmailService{mailer: mailer, adminAddress: adminAddress, log: log}
}

// SendEmail sends msg and records the outcome under kind
func (es *EmailService) SendEmail(ctx context.Context, kind string, msg Message) error {
	err := es.mailer.Send(ctx, msg)
	metrics.ObserveEmail(kind, err)
	if err != nil {
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}
	es.log.WithFields(logrus.Fields{"kind": kind, "to": msg.To}).Debug("email sent")
	return nil
}

// SendFeedbackToAdmin forwards a feedback submission to the shop's inbox
func (es *EmailService) SendFeedbackToAdmin(ctx context.Context, fb *models.Feedback) error {
	if es.adminAddress == "" {
		es.log.Warn("ADMIN_EMAIL not configured, skipping feedback notification")
		return nil
	}
	name, email, text := html.EscapeString(fb.Name), html.EscapeString(fb.Email), html.EscapeString(fb.Feedback)
	htmlContent := fmt.Sprintf(
		"<h3>New Feedback Submission</h3>"+
			"<p><strong>Name:</strong> %s</p>"+
			"<p><strong>Email:</strong> %s</p>"+
			"<p><strong>Feedback:</strong> %s</p>"+
			"<p><strong>Rating:</strong> %d / 5</p>"+
			"<br><p>Please review this feedback and respond if needed.</p>",
		name, email, text, fb.Rating,
	)
	return es.SendEmail(ctx, "feedback_admin", Message{
		To:      es.adminAddress,
		ReplyTo: fb.Email,
		Subject: "New Feedback Received",
		HTML:    htmlContent,
		Text:    fmt.Sprintf("New feedback from %s <%s>\n\n%s\n\nRating: %d / 5", fb.Name, fb.Email, fb.Feedback, fb.Rating),
	})
}

// SendFeedbackThanks thanks the submitter; low ratings get a follow-up promise
func (es *EmailService) SendFeedbackThanks(ctx context.Context, fb *models.Feedback) error {
	thanks := "Thank you for your feedback!"
	if fb.IsUnsatisfied() {
		thanks = "Thank you for your feedback. We noticed your experience was unsatisfactory, and our team will contact you as soon as possible to resolve any concerns."
	}
	htmlContent := fmt.Sprintf(
		"<h3>Hi %s,</h3><p>%s</p>"+
			"<p><strong>Your Feedback:</strong> %s</p>"+
			"<p><strong>Rating:</strong> %d / 5</p>"+
			"<br><p>We appreciate your time and effort to help us improve.</p>"+
			"<p>Best regards,<br>Petopia Care Team</p>",
		html.EscapeString(fb.Name), thanks, html.EscapeString(fb.Feedback), fb.Rating,
	)
	return es.SendEmail(ctx, "feedback_thanks", Message{
		To:      fb.Email,
		Subject: "Thank You for Your Feedback!",
		HTML:    htmlContent,
		Text:    fmt.Sprintf("Hi %s,\n\n%s\n\nYour Feedback: %s\nRating: %d / 5\n\nPetopia Care Team", fb.Name, thanks, fb.Feedback, fb.Rating),
	})
}

// SendOrderPlacedEmail sends an order summary to the customer
func (es *EmailService) SendOrderPlacedEmail(ctx context.Context, user *models.User, order *models.Order) error {
	var rows, lines strings.Builder
	for _, item := range order.Items {
		fmt.Fprintf(&rows, "<li>%s x %d ($%.2f)</li>", html.EscapeString(item.Name), item.Quantity, item.Price)
		fmt.Fprintf(&lines, "- %s x %d ($%.2f)\n", item.Name, item.Quantity, item.Price)
	}
	htmlContent := fmt.Sprintf(
		"<strong>Dear %s,</strong><br><br>Thank you for your purchase! Your order (ID: %s) has been placed.<ul>%s</ul>"+
			"Total Amount: <strong>$%.2f</strong><br>Payment Method: <strong>%s</strong><br><br>Thank you for shopping with us!",
		html.EscapeString(user.Username), order.ID.Hex(), rows.String(), order.TotalAmount, html.EscapeString(order.PaymentMethod),
	)
	return es.SendEmail(ctx, "order_placed", Message{
		To:      user.Email,
		Subject: "Order Confirmation",
		HTML:    htmlContent,
		Text: fmt.Sprintf("Dear %s,\n\nYour order (ID: %s) has been placed.\n%s\nTotal Amount: $%.2f\nPayment Method: %s\n",
			user.Username, order.ID.Hex(), lines.String(), order.TotalAmount, order.PaymentMethod),
	})
}
