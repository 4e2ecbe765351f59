package notify

import (
	"context"
	"fmt"
	"time"
	"vfsbot/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

// SmsConfig is a Twilio messaging account. From must be a number owned by
// the account.
type SmsConfig struct {
	AccountSid string `json:"account_sid"`
	AuthToken  string `json:"auth_token"`
	From       string `json:"from"`
	To         string `json:"to"`
}

type SmsClient struct {
	config SmsConfig
	http   *resty.Client
}

func NewSmsClient(config SmsConfig) *SmsClient {
	client := resty.New().
		SetBaseURL("https://api.twilio.com").
		SetTimeout(time.Second * 30).
		SetBasicAuth(config.AccountSid, config.AuthToken)
	telemetry.InstrumentResty(client, "vfsbot.lib.notify:sms")

	return &SmsClient{config: config, http: client}
}

func (c *SmsClient) Name() string {
	return "sms"
}

func (c *SmsClient) Send(ctx context.Context, message string) error {
	ctx, span := tracer.Start(ctx, "sms:Send")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"To":   c.config.To,
			"From": c.config.From,
			"Body": message,
		}).
		Post(fmt.Sprintf("/2010-04-01/Accounts/%s/Messages.json", c.config.AccountSid))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reach the twilio api")
		return err
	}
	if !res.IsSuccess() {
		err := fmt.Errorf("twilio api: status %d: %s", res.StatusCode(), res.String())
		span.RecordError(err)
		span.SetStatus(codes.Error, "twilio rejected the message")
		return err
	}
	return nil
}
