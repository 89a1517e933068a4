// Package telegram pushes the report as a single chat message.
package telegram

import (
	"context"
	"fmt"
	"time"

	"marketdigest/internal/components/telemetry"
	"marketdigest/internal/sinks"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseUrl = "https://api.telegram.org"
	// MessageLimit is kept below the 4096 character limit of the API.
	MessageLimit = 4000
)

const (
	report_client_push = "client.push"
)

type Options struct {
	BotToken string
	ChatId   string
	BaseUrl  string
	Timeout  time.Duration
}

type Client struct {
	http     *resty.Client
	botToken string
	chatId   string
	tel      telemetry.API
}

func NewClient(opts Options, tel telemetry.API) Client {
	tel = telemetry.NewScopedAPI("telegram_sink", tel)

	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	return Client{
		http:     sinks.NewHttpClient(baseUrl, opts.Timeout, tel, opts.BotToken),
		botToken: opts.BotToken,
		chatId:   opts.ChatId,
		tel:      tel,
	}
}

func (c Client) Name() string {
	return "telegram"
}

// Push sends the first MessageLimit characters of `text`, the rest is dropped.
func (c Client) Push(ctx context.Context, text string) error {
	if c.botToken == "" || c.chatId == "" {
		return fmt.Errorf("telegram: %w (bot token and chat id are required)", sinks.ErrMissingCredentials)
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetPathParam("token", c.botToken).
		SetFormData(map[string]string{
			"chat_id": c.chatId,
			"text":    sinks.Truncate(text, MessageLimit),
		}).
		Post("/bot{token}/sendMessage")
	// the token is part of the request path, transport errors quote it
	err = telemetry.RedactError(sinks.CheckResponse(res, err), c.botToken)
	if err != nil {
		c.tel.ReportBroken(report_client_push, err)
		return fmt.Errorf("telegram: %w", err)
	}
	return nil
}
