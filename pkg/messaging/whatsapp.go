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

const defaultWhatsAppBaseURL = "https://graph.facebook.com/v20.0"

// WhatsAppConfig configures the WhatsApp Cloud API sender.
type WhatsAppConfig struct {
	BaseURL       string
	AccessToken   string
	PhoneNumberID string
	Timeout       time.Duration
}

// WhatsAppSender delivers messages through the WhatsApp Cloud API.
type WhatsAppSender struct {
	config WhatsAppConfig
	client *http.Client
}

func NewWhatsAppSender(config WhatsAppConfig) *WhatsAppSender {
	if config.BaseURL == "" {
		config.BaseURL = defaultWhatsAppBaseURL
	}

	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &WhatsAppSender{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

func (s *WhatsAppSender) Channel() models.Channel {
	return models.ChannelWhatsApp
}

func (s *WhatsAppSender) Send(ctx context.Context, customer *models.Customer, message OutboundMessage) error {
	if message.Text != "" {
		payload := map[string]any{
			"messaging_product": "whatsapp",
			"to":                customer.Phone,
			"type":              "text",
			"text":              map[string]any{"body": message.Text},
		}

		if err := s.post(ctx, payload); err != nil {
			return fmt.Errorf("whatsapp text to %s: %w", customer.Phone, err)
		}
	}

	for _, mediaURL := range message.MediaURLs {
		payload := map[string]any{
			"messaging_product": "whatsapp",
			"to":                customer.Phone,
			"type":              "document",
			"document":          map[string]any{"link": mediaURL},
		}

		if err := s.post(ctx, payload); err != nil {
			return fmt.Errorf("whatsapp media to %s: %w", customer.Phone, err)
		}
	}

	return nil
}

func (s *WhatsAppSender) post(ctx context.Context, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := s.config.BaseURL + "/" + s.config.PhoneNumberID + "/messages"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.AccessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)

		return fmt.Errorf("whatsapp API returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
