// Package notify fans appointment findings out to the user's configured
// channels. Channels are independent: one failing never stops the others.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"vfsbot/lib/telemetry"

	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("vfsbot.lib.notify")

type Client interface {
	// Name returns the channel identifier, e.g. "email".
	Name() string
	Send(ctx context.Context, message string) error
}

// Config is the `notification` block of config.json5.
type Config struct {
	// Channels is a comma-separated list of enabled channels. Empty
	// means notifications are off.
	Channels string         `json:"channels"`
	Email    EmailConfig    `json:"email"`
	Telegram TelegramConfig `json:"telegram"`
	Sms      SmsConfig      `json:"sms"`
}

// NewClients resolves the configured channel list to concrete clients. An
// unknown channel name is a configuration error, surfaced here rather than
// at delivery time.
func NewClients(cfg Config) ([]Client, error) {
	var clients []Client
	for _, name := range strings.Split(cfg.Channels, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		switch strings.ToLower(name) {
		case "email":
			clients = append(clients, NewEmailClient(cfg.Email))
		case "telegram":
			clients = append(clients, NewTelegramClient(cfg.Telegram))
		case "sms":
			clients = append(clients, NewSmsClient(cfg.Sms))
		default:
			return nil, fmt.Errorf("unknown notification channel: %q", name)
		}
	}
	return clients, nil
}

// Dispatcher delivers one message to every configured channel.
type Dispatcher struct {
	Clients []Client
}

// Dispatch attempts every channel regardless of individual failures and
// returns the failures joined, nil when everything delivered. No channels
// configured is not an error.
func (d Dispatcher) Dispatch(ctx context.Context, message string) error {
	ctx, span := tracer.Start(ctx, "dispatcher:Dispatch")
	defer span.End()

	if len(d.Clients) == 0 {
		slog.WarnContext(ctx, "no notification channels configured, skipping notification")
		return nil
	}

	var errs []error
	for _, client := range d.Clients {
		err := client.Send(ctx, message)
		if err != nil {
			span.RecordError(err)
			slog.ErrorContext(ctx, "failed to send notification",
				"channel", client.Name(), "err", err.Error())
			errs = append(errs, fmt.Errorf("%s: %w", client.Name(), err))
			continue
		}
		slog.InfoContext(ctx, "notification sent", "channel", client.Name())
	}
	if len(errs) > 0 {
		span.SetStatus(codes.Error, "some channels failed to deliver")
		return errors.Join(errs...)
	}
	return nil
}
