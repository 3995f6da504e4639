package notification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/jaytaylor/html2text"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"basecode-go/internal/repository"
	"basecode-go/pkg/config"
	"basecode-go/pkg/model"
)

// TemplateStore looks up stored e-mail templates
type TemplateStore interface {
	FindByTemplateName(ctx context.Context, name string) (*model.EmailTemplate, error)
}

// Sender delivers a composed message
type Sender interface {
	Send(ctx context.Context, msg *mail.Msg) error
}

// DeliveryRecorder is told about every delivery attempt
type DeliveryRecorder interface {
	Sent(kind string, err error)
}

type nopRecorder struct{}

func (nopRecorder) Sent(string, error) {}

// EmailService composes and sends the application's e-mails
type EmailService struct {
	config    config.EmailConfig
	exception config.ExceptionEmailConfig
	templates TemplateStore
	sender    Sender
	recorder  DeliveryRecorder
	logger    *zap.Logger
}

// NewEmailService creates a new email service
func NewEmailService(cfg config.EmailConfig, exception config.ExceptionEmailConfig, templates TemplateStore, sender Sender, logger *zap.Logger) *EmailService {
	return &EmailService{
		config:    cfg,
		exception: exception,
		templates: templates,
		sender:    sender,
		recorder:  nopRecorder{},
		logger:    logger.Named("email"),
	}
}

// WithRecorder reports delivery outcomes to r
func (s *EmailService) WithRecorder(r DeliveryRecorder) *EmailService {
	s.recorder = r
	return s
}

// SendMailRequest composes req as an HTML message with a plain-text alternative and sends it
func (s *EmailService) SendMailRequest(ctx context.Context, req MailRequest) error {
	return s.send(ctx, "request", req)
}

func (s *EmailService) send(ctx context.Context, kind string, req MailRequest) error {
	err := s.deliver(ctx, req)
	s.recorder.Sent(kind, err)
	return err
}

func (s *EmailService) deliver(ctx context.Context, req MailRequest) error {
	msg, err := s.compose(req)
	if err != nil {
		return err
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	to, _, _ := req.Recipients()
	s.logger.Info("email sent", zap.Strings("to", to), zap.String("subject", req.Subject))
	return nil
}

func (s *EmailService) compose(req MailRequest) (*mail.Msg, error) {
	to, cc, bcc := req.Recipients()
	if len(to) == 0 {
		return nil, errors.New("mail request has no recipient")
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(s.config.FromDisplayName, strings.TrimSpace(s.config.FromAddress)); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to...); err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}
	if len(cc) > 0 {
		if err := msg.Cc(cc...); err != nil {
			return nil, fmt.Errorf("invalid cc address: %w", err)
		}
	}
	if len(bcc) > 0 {
		if err := msg.Bcc(bcc...); err != nil {
			return nil, fmt.Errorf("invalid bcc address: %w", err)
		}
	}

	msg.Subject(req.Subject)
	msg.SetBodyString(mail.TypeTextPlain, plainText(req.Body))
	msg.AddAlternativeString(mail.TypeTextHTML, req.Body)
	return msg, nil
}

// SendExceptionEmail notifies the configured recipients of an unhandled error.
// It returns false without an error when the exception template is missing.
func (s *EmailService) SendExceptionEmail(ctx context.Context, name, message, stackTrace string) (bool, error) {
	data := struct {
		Name       string
		Message    string
		StackTrace string
	}{name, message, stackTrace}

	req, ok, err := s.fromTemplate(ctx, s.exception.TemplateName, data)
	if !ok || err != nil {
		return false, err
	}
	req.To = s.exception.To
	req.Cc = s.config.AdminMl

	if err := s.send(ctx, "exception", *req); err != nil {
		return false, err
	}
	return true, nil
}

// SendForgotPasswordEmail mails the reset link to the user.
// It returns false without an error when the template is missing.
func (s *EmailService) SendForgotPasswordEmail(ctx context.Context, user *model.AppUser, url string) (bool, error) {
	data := struct {
		Name string
		URL  string
	}{user.DisplayName(), url}

	req, ok, err := s.fromTemplate(ctx, model.ForgotPasswordTemplate, data)
	if !ok || err != nil {
		return false, err
	}
	req.To = user.Email

	if err := s.send(ctx, "forgot_password", *req); err != nil {
		return false, err
	}
	return true, nil
}

func (s *EmailService) fromTemplate(ctx context.Context, name string, data interface{}) (*MailRequest, bool, error) {
	tmpl, err := s.templates.FindByTemplateName(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("email template not found", zap.String("template", name))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	subject, err := renderText(tmpl.Subject, data)
	if err != nil {
		return nil, false, fmt.Errorf("render %q subject: %w", name, err)
	}
	body, err := renderHTML(tmpl.Body, data)
	if err != nil {
		return nil, false, fmt.Errorf("render %q body: %w", name, err)
	}
	return &MailRequest{Subject: subject, Body: body}, true, nil
}

func renderText(src string, data interface{}) (string, error) {
	tmpl, err := texttemplate.New("subject").Parse(src)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.String()), nil
}

func renderHTML(src string, data interface{}) (string, error) {
	tmpl, err := htmltemplate.New("body").Parse(src)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		return "", err
	}
	return out.String(), nil
}

// plainText renders an HTML body as readable text for the text/plain part.
// Links keep their target so reset links stay usable in text-only clients.
func plainText(body string) string {
	text, err := html2text.FromString(body)
	if err != nil {
		return body
	}
	return text
}
