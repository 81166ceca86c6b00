package services

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/selfmadecero/onevdr/internal/config"
	"github.com/selfmadecero/onevdr/internal/domain"
)

// EmailService handles sending emails
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService creates a new email service
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SendClosingNotification notifies the owner that an investor reached the
// final pipeline stage
func (s *EmailService) SendClosingNotification(user *domain.User, investor *domain.Investor) error {
	if !s.cfg.Enabled {
		// In development mode, just log
		fmt.Printf("[EMAIL] Closing notification would be sent to %s for investor %s\n", user.Email, investor.Name)
		return nil
	}

	greeting := user.Username
	if user.FullName != nil && *user.FullName != "" {
		greeting = *user.FullName
	}

	firm := ""
	if investor.Company != nil && *investor.Company != "" {
		firm = fmt.Sprintf(" (%s)", *investor.Company)
	}

	subject := fmt.Sprintf("Deal closed: %s", investor.Name)
	htmlBody := s.generateClosingEmailHTML(greeting, investor.Name, firm)
	textBody := fmt.Sprintf(`
Hello %s,

%s%s just reached the final stage of your pipeline: %s.

Open OneVDR to review the record and plan the next steps.

Best regards,
OneVDR Team
`, greeting, investor.Name, firm, domain.StageName(domain.FinalStage))

	return s.SendHTMLEmail(user.Email, subject, htmlBody, textBody)
}

// generateClosingEmailHTML generates the HTML body for the closing notification
func (s *EmailService) generateClosingEmailHTML(greeting, investorName, firm string) string {
	currentYear := time.Now().Format("2006")

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Deal Closed</title>
</head>
<body style="margin: 0; padding: 0; background-color: #F8FAFC; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;">
    <table role="presentation" cellspacing="0" cellpadding="0" border="0" width="100%%" style="background-color: #F8FAFC;">
        <tr>
            <td style="padding: 48px 20px;">
                <table role="presentation" cellspacing="0" cellpadding="0" border="0" width="600" style="margin: 0 auto; background-color: #FFFFFF; border-radius: 12px; overflow: hidden;">
                    <tr>
                        <td style="padding: 32px 40px; background-color: #1C5D99;">
                            <h1 style="margin: 0; font-size: 22px; color: #FFFFFF;">OneVDR</h1>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 40px;">
                            <h2 style="margin: 0 0 12px; font-size: 24px; color: #0D1A2D;">Deal closed</h2>
                            <p style="margin: 0 0 24px; font-size: 16px; line-height: 1.6; color: #64748B;">Hello %s,</p>
                            <p style="margin: 0 0 24px; font-size: 16px; line-height: 1.6; color: #334155;"><strong>%s%s</strong> just reached the final stage of your pipeline: <strong>%s</strong>.</p>
                            <p style="margin: 0; font-size: 15px; line-height: 1.6; color: #64748B;">Open OneVDR to review the record and plan the next steps.</p>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 24px 40px; background-color: #F8FAFC;">
                            <p style="margin: 0; font-size: 12px; color: #94A3B8;">This is an automated message. Please do not reply to this email.<br>&copy; %s OneVDR. All rights reserved.</p>
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>`, greeting, investorName, firm, domain.StageName(domain.FinalStage), currentYear)
}

// SendEmail sends a generic email (plain text)
func (s *EmailService) SendEmail(to, subject, body string) error {
	return s.SendHTMLEmail(to, subject, "", body)
}

// SendHTMLEmail sends an HTML email with plain text fallback
func (s *EmailService) SendHTMLEmail(to, subject, htmlBody, textBody string) error {
	if !s.cfg.Enabled {
		fmt.Printf("[EMAIL] Would send to %s: %s\n", to, subject)
		return nil
	}

	// Validate configuration
	if s.cfg.SMTPHost == "" || s.cfg.Username == "" || s.cfg.Password == "" {
		return fmt.Errorf("email service not properly configured")
	}

	// Set up authentication
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)

	// Create email message
	from := s.cfg.FromEmail
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail)
	}

	// Build multipart message
	boundary := "----=_NextPart_1234567890"

	headers := fmt.Sprintf("From: %s\r\n", from) +
		fmt.Sprintf("To: %s\r\n", to) +
		fmt.Sprintf("Subject: %s\r\n", subject) +
		"MIME-Version: 1.0\r\n" +
		fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary) +
		"\r\n"

	// Plain text part
	message := headers +
		fmt.Sprintf("--%s\r\n", boundary) +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		textBody + "\r\n"

	// HTML part (if provided)
	if htmlBody != "" {
		message += fmt.Sprintf("--%s\r\n", boundary) +
			"Content-Type: text/html; charset=UTF-8\r\n" +
			"Content-Transfer-Encoding: quoted-printable\r\n" +
			"\r\n" +
			htmlBody + "\r\n"
	}

	message += fmt.Sprintf("--%s--\r\n", boundary)

	// Send email
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	err := smtp.SendMail(addr, auth, s.cfg.FromEmail, []string{to}, []byte(message))
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// IsEnabled returns whether email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.cfg.Enabled
}
