package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/relaycrm/relay/pkg/models"
)

const defaultTelegramBaseURL = "https://api.telegram.org"

// TelegramConfig configures the Telegram Bot API sender.
type TelegramConfig struct {
	BaseURL  string
	BotToken string
	Timeout  time.Duration
}

// TelegramSender delivers messages through the Telegram Bot API. The
// customer's phone field carries the Telegram chat ID.
type TelegramSender struct {
	config TelegramConfig
	client *http.Client
}

func NewTelegramSender(config TelegramConfig) *TelegramSender {
	if config.BaseURL == "" {
		config.BaseURL = defaultTelegramBaseURL
	}

	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &TelegramSender{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

func (s *TelegramSender) Channel() models.Channel {
	return models.ChannelTelegram
}

func (s *TelegramSender) Send(ctx context.Context, customer *models.Customer, message OutboundMessage) error {
	if message.Text != "" {
		payload := map[string]any{
			"chat_id": customer.Phone,
			"text":    message.Text,
		}

		if err := s.post(ctx, "sendMessage", payload); err != nil {
			return fmt.Errorf("telegram text to %s: %w", customer.Phone, err)
		}
	}

	for _, mediaURL := range message.MediaURLs {
		payload := map[string]any{
			"chat_id":  customer.Phone,
			"document": mediaURL,
		}

		if err := s.post(ctx, "sendDocument", payload); err != nil {
			return fmt.Errorf("telegram media to %s: %w", customer.Phone, err)
		}
	}

	return nil
}

func (s *TelegramSender) post(ctx context.Context, method string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := s.config.BaseURL + "/bot" + s.config.BotToken + "/" + method

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)

		return fmt.Errorf("telegram API returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
