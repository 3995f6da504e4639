package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"basecode-go/pkg/config"
)

const defaultSendAttempts = 3

// SMTPSender delivers messages to the configured SMTP relay, retrying transient failures
type SMTPSender struct {
	host     string
	options  []mail.Option
	attempts uint
	delay    time.Duration
	logger   *zap.Logger
}

// NewSMTPSender validates the SMTP settings and creates a sender
func NewSMTPSender(cfg config.EmailConfig, logger *zap.Logger) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}

	options := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(tlsPolicy(cfg.TLSPolicy)),
		mail.WithTimeout(15 * time.Second),
	}
	if cfg.UserName != "" {
		options = append(options,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.UserName),
			mail.WithPassword(cfg.Password),
		)
	}

	attempts := cfg.Attempts
	if attempts == 0 {
		attempts = defaultSendAttempts
	}

	// fail fast on option errors instead of on the first send
	if _, err := mail.NewClient(cfg.Host, options...); err != nil {
		return nil, fmt.Errorf("configure smtp client: %w", err)
	}

	return &SMTPSender{
		host:     cfg.Host,
		options:  options,
		attempts: attempts,
		delay:    time.Second,
		logger:   logger.Named("smtp"),
	}, nil
}

// Send dials the relay and delivers msg. Each attempt uses a fresh client.
func (s *SMTPSender) Send(ctx context.Context, msg *mail.Msg) error {
	return retry.Do(func() error {
		client, err := mail.NewClient(s.host, s.options...)
		if err != nil {
			return retry.Unrecoverable(err)
		}
		return client.DialAndSendWithContext(ctx, msg)
	},
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Warn("smtp send failed, retrying", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
}

func tlsPolicy(name string) mail.TLSPolicy {
	switch strings.ToLower(name) {
	case "mandatory":
		return mail.TLSMandatory
	case "none", "notls":
		return mail.NoTLS
	default:
		return mail.TLSOpportunistic
	}
}
