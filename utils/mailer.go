package utils

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"skilllink/config"
)

// SendEmail sends one HTML email through the configured SMTP server. When
// SMTP is not configured the message is logged instead so development and
// tests never make network calls.
func SendEmail(to, subject, textBody, htmlBody string) error {
	cfg := config.AppConfig
	if cfg.SMTPHost == "" {
		LogEvent("email_console_fallback", map[string]interface{}{
			"to":      to,
			"subject": subject,
			"text":    textBody,
		})
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", cfg.FromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	if textBody != "" {
		m.SetBody("text/plain", textBody)
	}
	if htmlBody != "" {
		m.AddAlternative("text/html", htmlBody)
	}

	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendOTPEmail sends a verification code email
func SendOTPEmail(to, otp string) error {
	subject := "Your Verification Code"
	text := fmt.Sprintf("Your verification code is %s. It expires in 15 minutes.", otp)
	html := fmt.Sprintf(`
		<html>
		<body>
			<h2>Your Verification Code</h2>
			<p>Please use the following code to verify your account:</p>
			<h3>%s</h3>
			<p>This code will expire in 15 minutes.</p>
		</body>
		</html>
	`, otp)
	return SendEmail(to, subject, text, html)
}
