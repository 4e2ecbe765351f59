package notify

import (
	"context"
	"fmt"
	"time"
	"vfsbot/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

// TelegramConfig identifies the bot and chat notifications go to. The
// bot must already be a member of the chat.
type TelegramConfig struct {
	Token  string `json:"token"`
	ChatId string `json:"chat_id"`
}

type TelegramClient struct {
	config TelegramConfig
	http   *resty.Client
}

func NewTelegramClient(config TelegramConfig) *TelegramClient {
	client := resty.New().
		SetBaseURL("https://api.telegram.org").
		SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "vfsbot.lib.notify:telegram")

	return &TelegramClient{config: config, http: client}
}

func (c *TelegramClient) Name() string {
	return "telegram"
}

func (c *TelegramClient) Send(ctx context.Context, message string) error {
	ctx, span := tracer.Start(ctx, "telegram:Send")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"chat_id": c.config.ChatId,
			"text":    message,
		}).
		Post(fmt.Sprintf("/bot%s/sendMessage", c.config.Token))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reach the telegram api")
		return err
	}
	if !res.IsSuccess() {
		err := fmt.Errorf("telegram api: status %d: %s", res.StatusCode(), res.String())
		span.RecordError(err)
		span.SetStatus(codes.Error, "telegram rejected the message")
		return err
	}
	return nil
}
