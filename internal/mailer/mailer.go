// Package mailer delivers confirmation codes through a pluggable backend.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"reviewhub/internal/config"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ConfirmationMessage builds the signup email carrying code.
func ConfirmationMessage(to, code string) Message {
	return Message{
		To:      to,
		Subject: "Ваш код подтверждения",
		Body:    "Ваш код подтверждения: " + code,
	}
}

// New builds the sender selected by MAIL_BACKEND, wrapped in the dispatch rate limit.
// rdb is only needed by the redis backend.
func New(cfg *config.Config, logger *slog.Logger, rdb *redis.Client) (Sender, error) {
	var sender Sender
	switch cfg.MailBackend {
	case "log":
		sender = NewLogSender(logger)
	case "smtp":
		sender = NewSMTPSender(cfg.SMTPAddr, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("mail backend redis requires a redis client")
		}
		sender = NewStreamSender(rdb, cfg.MailStream, cfg.MailFrom)
	default:
		return nil, fmt.Errorf("unknown mail backend %q", cfg.MailBackend)
	}
	return NewRateLimited(sender, rate.Limit(cfg.MailRatePerSec), 1), nil
}

// RateLimited caps how fast the wrapped sender is called.
type RateLimited struct {
	next    Sender
	limiter *rate.Limiter
}

func NewRateLimited(next Sender, perSecond rate.Limit, burst int) *RateLimited {
	return &RateLimited{next: next, limiter: rate.NewLimiter(perSecond, burst)}
}

func (r *RateLimited) Send(ctx context.Context, msg Message) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mail rate limit: %w", err)
	}
	return r.next.Send(ctx, msg)
}

// LogSender writes messages to the log. Used in development.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "outgoing mail", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
