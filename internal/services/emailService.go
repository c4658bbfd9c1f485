package services

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// EmailService is the notification dispatcher contract: fire a message at an
// address, surface transport failure as an error. Tests substitute a
// recording double.
type EmailService interface {
	SendOTPVerification(to, username, code string) error
	SendPasswordReset(to, username, userID, token string) error
}

type emailService struct {
	from         string
	clientOrigin string
	dialer       *gomail.Dialer
}

// NewEmailService builds the SMTP-backed dispatcher from environment
// configuration. The dialer is owned by the service, not process-global, so
// tests and alternate transports can swap the whole implementation.
func NewEmailService() EmailService {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		host = "smtp.gmail.com"
	}
	return &emailService{
		from:         os.Getenv("SMTP_USERNAME"),
		clientOrigin: os.Getenv("CLIENT_ORIGIN"),
		dialer:       gomail.NewDialer(host, port, os.Getenv("SMTP_USERNAME"), os.Getenv("SMTP_PASSWORD")),
	}
}

func (e *emailService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(e.from, "MarkDownMate"))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := e.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to dispatch mail: %w", err)
	}
	return nil
}

func (e *emailService) SendOTPVerification(to, username, code string) error {
	body := fmt.Sprintf(`
		<p>Hello %s,</p>
		<p>To complete your registration, please use the following 6 digit One Time Password (OTP), valid for 5 minutes.</p>
		<p>%s</p>
		<p>To keep your account safe, never forward this code.</p>
		<p>MarkDownMate</p>
	`, username, code)
	return e.send(to, "Verify your email", body)
}

func (e *emailService) SendPasswordReset(to, username, userID, token string) error {
	link := fmt.Sprintf("%s/password-reset?token=%s&id=%s",
		e.clientOrigin, url.QueryEscape(token), url.QueryEscape(userID))
	body := fmt.Sprintf(`
		<p>Hello %s,</p>
		<p>We received a request to reset your password. The link below is valid for 5 minutes.</p>
		<p><a href="%s">Reset your password</a></p>
		<p>If you did not request this, you can safely ignore this email.</p>
		<p>MarkDownMate</p>
	`, username, link)
	return e.send(to, "Reset your password", body)
}
