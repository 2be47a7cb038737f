// Package notify delivers best-effort operator alerts. Failures are logged
// and swallowed; nothing here may influence a request's outcome.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Order describes a newly paid job for the operator channel.
type Order struct {
	JobID string
	Title string
	Style string
	Payer string
	Price string
}

type Notifier interface {
	NewOrder(ctx context.Context, order Order)
}

type TelegramOptions struct {
	Token      string
	ChatID     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Telegram posts order alerts to a Telegram chat via the bot API.
type Telegram struct {
	client  *http.Client
	baseURL string
	token   string
	chatID  string
	logger  zerolog.Logger
}

func NewTelegram(opts TelegramOptions) *Telegram {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	base := opts.BaseURL
	if base == "" {
		base = "https://api.telegram.org"
	}
	return &Telegram{
		client:  client,
		baseURL: base,
		token:   opts.Token,
		chatID:  opts.ChatID,
		logger:  opts.Logger,
	}
}

func (t *Telegram) NewOrder(ctx context.Context, order Order) {
	if t.token == "" || t.chatID == "" {
		t.logger.Debug().Msg("notify: telegram not configured, skipping")
		return
	}

	payer := order.Payer
	if len(payer) > 10 {
		payer = payer[:10] + "..."
	}
	text := fmt.Sprintf(
		"\U0001F3B5 <b>New Pulsar Order!</b>\n\n<b>Job:</b> <code>%s</code>\n<b>Title:</b> %s\n<b>Style:</b> %s\n<b>Payer:</b> <code>%s</code>\n\n\U0001F4B0 %s received",
		order.JobID, order.Title, order.Style, payer, order.Price,
	)

	body, _ := json.Marshal(map[string]string{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	url := t.baseURL + "/bot" + t.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		t.logger.Error().Err(err).Msg("notify: build telegram request failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Error().Err(err).Str("job_id", order.JobID).Msg("notify: telegram send failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		t.logger.Error().Int("status", resp.StatusCode).Str("job_id", order.JobID).Msg("notify: telegram rejected message")
		return
	}
	t.logger.Info().Str("job_id", order.JobID).Msg("notify: telegram notification sent")
}

var _ Notifier = (*Telegram)(nil)
