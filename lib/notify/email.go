package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

// EmailConfig is the smtp account notifications go out through.
type EmailConfig struct {
	Server  string `json:"server"`
	Port    int    `json:"port"`
	Address string `json:"address"`
	// Password may be empty for servers without AUTH.
	Password string `json:"password"`
	// To receives the notifications. Defaults to Address.
	To string `json:"to"`
}

type EmailClient struct {
	config EmailConfig
}

func NewEmailClient(config EmailConfig) *EmailClient {
	if config.To == "" {
		config.To = config.Address
	}
	return &EmailClient{config: config}
}

func (c *EmailClient) Name() string {
	return "email"
}

func (c *EmailClient) Send(ctx context.Context, message string) error {
	_, span := tracer.Start(ctx, "email:Send")
	defer span.End()

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("VFS Bot <%s>", c.config.Address)
	mail.To = []string{c.config.To}
	mail.Subject = "VFS appointment alert"
	mail.Text = []byte(message)

	addr := fmt.Sprintf("%s:%d", c.config.Server, c.config.Port)
	err := mail.Send(addr, smtp.PlainAuth("", c.config.Address, c.config.Password, c.config.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
