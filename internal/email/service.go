// Package email sends account and sharing emails over SMTP.
package email

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strconv"

	"gopkg.in/gomail.v2"
)

var ErrNotConfigured = errors.New("email not configured")

const appName = "Docboard"

// Config holds SMTP configuration
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// Service provides email sending
type Service struct {
	config Config
	dialer *gomail.Dialer
	sendFn func(*gomail.Message) error
}

func NewService(config Config) *Service {
	s := &Service{config: config}
	if port, err := strconv.Atoi(config.Port); err == nil {
		s.dialer = gomail.NewDialer(config.Host, port, config.Username, config.Password)
		s.sendFn = func(m *gomail.Message) error { return s.dialer.DialAndSend(m) }
	}
	return s
}

// IsConfigured returns true if email is configured
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Port != "" && s.config.From != "" && s.sendFn != nil
}

func (s *Service) sendHTML(to, subject, htmlBody, textBody string) error {
	if !s.IsConfigured() {
		return ErrNotConfigured
	}
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.config.From, s.config.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)
	if err := s.sendFn(m); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}

type VerificationData struct {
	AppName         string
	UserName        string
	VerificationURL string
}

type PasswordResetData struct {
	AppName  string
	UserName string
	ResetURL string
}

type DocumentSharedData struct {
	AppName     string
	SharedBy    string
	Title       string
	Access      string
	DocumentURL string
}

func (s *Service) SendVerificationEmail(to, userName, verificationURL string) error {
	html, err := renderTemplate(verificationEmailTemplate, VerificationData{
		AppName:         appName,
		UserName:        userName,
		VerificationURL: verificationURL,
	})
	if err != nil {
		return fmt.Errorf("render verification template: %w", err)
	}
	return s.sendHTML(to, "Verify your "+appName+" account", html,
		"Verify your email address: "+verificationURL)
}

func (s *Service) SendPasswordResetEmail(to, userName, resetURL string) error {
	html, err := renderTemplate(passwordResetEmailTemplate, PasswordResetData{
		AppName:  appName,
		UserName: userName,
		ResetURL: resetURL,
	})
	if err != nil {
		return fmt.Errorf("render password reset template: %w", err)
	}
	return s.sendHTML(to, "Reset your "+appName+" password", html,
		"Reset your password within 1 hour: "+resetURL)
}

// SendDocumentSharedEmail tells a collaborator they were given access.
func (s *Service) SendDocumentSharedEmail(to string, data DocumentSharedData) error {
	data.AppName = appName
	html, err := renderTemplate(documentSharedEmailTemplate, data)
	if err != nil {
		return fmt.Errorf("render document shared template: %w", err)
	}
	subject := fmt.Sprintf("%s shared \"%s\" with you", data.SharedBy, data.Title)
	return s.sendHTML(to, subject, html, subject+": "+data.DocumentURL)
}

func renderTemplate(tmpl string, data any) (string, error) {
	t, err := template.New("email").Parse(layoutTemplate + tmpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const layoutTemplate = `{{define "layout"}}<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .button { display: inline-block; padding: 12px 24px; background: #2563eb; color: white; text-decoration: none; border-radius: 4px; margin: 20px 0; }
        .link { word-break: break-all; color: #2563eb; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <h1>{{.AppName}}</h1>
    {{template "content" .}}
</body>
</html>{{end}}`

const verificationEmailTemplate = `{{define "content"}}
    <h2>Welcome, {{.UserName}}!</h2>
    <p>Please verify your email address to activate your account.</p>
    <p><a href="{{.VerificationURL}}" class="button">Verify Email Address</a></p>
    <p class="link">{{.VerificationURL}}</p>
    <p>This verification link will expire in 24 hours.</p>
{{end}}`

const passwordResetEmailTemplate = `{{define "content"}}
    <h2>Password Reset Request</h2>
    <p>Hi {{.UserName}}, click the button below to choose a new password.</p>
    <p><a href="{{.ResetURL}}" class="button">Reset Password</a></p>
    <p class="link">{{.ResetURL}}</p>
    <p>This reset link will expire in 1 hour.</p>
    <div class="footer">If you didn't request a password reset, you can ignore this email.</div>
{{end}}`

const documentSharedEmailTemplate = `{{define "content"}}
    <h2>{{.SharedBy}} shared a document with you</h2>
    <p>You now have {{.Access}} access to <strong>{{.Title}}</strong>.</p>
    <p><a href="{{.DocumentURL}}" class="button">Open Document</a></p>
    <p class="link">{{.DocumentURL}}</p>
{{end}}`
