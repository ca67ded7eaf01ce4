package services

import (
	"context"
	"fmt"
	"net/smtp"
	"net/url"
	"strings"

	"github.com/hdsm55/shababna-platform-sub002/internal/config"
	helpers "github.com/hdsm55/shababna-platform-sub002/internal/utils/helpers"
)

type EmailService struct {
	auth        smtp.Auth
	from        string
	host        string
	port        string
	frontendURL string
}

func NewEmailService(cfg *config.Config) *EmailService {
	auth := smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	return &EmailService{
		auth:        auth,
		from:        cfg.SMTPUser,
		host:        cfg.SMTPHost,
		port:        cfg.SMTPPort,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
	}
}

func (s *EmailService) Send(to []string, subject, body string) error {
	msg := []byte("Subject: " + subject + "\r\n" +
		"Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n" +
		body)

	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, s.auth, s.from, to, msg)
}

func (s *EmailService) SendHTML(to []string, subject, body string) error {
	msg := []byte("Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"utf-8\"\r\n\r\n" +
		body)

	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, s.auth, s.from, to, msg)
}

// SendResetEmail mails the reset link. The token appears only in this link.
func (s *EmailService) SendResetEmail(_ context.Context, to, token, firstName string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, url.QueryEscape(token))
	html := helpers.BuildResetPasswordHTML(firstName, link)
	return s.SendHTML([]string{to}, "Reset your Shababna password", html)
}
