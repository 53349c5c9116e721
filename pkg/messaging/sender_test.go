package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaycrm/relay/pkg/models"
)

func TestWhatsAppSender_Send(t *testing.T) {
	var requests []map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/phone-1/messages", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		requests = append(requests, payload)

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewWhatsAppSender(WhatsAppConfig{
		BaseURL:       server.URL,
		AccessToken:   "token-1",
		PhoneNumberID: "phone-1",
	})

	customer := &models.Customer{ID: "cus-1", Phone: "+15550001", Channel: models.ChannelWhatsApp}

	err := sender.Send(context.Background(), customer, OutboundMessage{
		Text:      "Hi Amy",
		MediaURLs: []string{"https://cdn.example.com/menu.pdf"},
	})
	require.NoError(t, err)

	require.Len(t, requests, 2)
	assert.Equal(t, "text", requests[0]["type"])
	assert.Equal(t, "+15550001", requests[0]["to"])
	assert.Equal(t, "document", requests[1]["type"])
}

func TestWhatsAppSender_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "invalid token"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	sender := NewWhatsAppSender(WhatsAppConfig{BaseURL: server.URL, PhoneNumberID: "phone-1"})
	customer := &models.Customer{Phone: "+15550001", Channel: models.ChannelWhatsApp}

	err := sender.Send(context.Background(), customer, OutboundMessage{Text: "Hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestTelegramSender_Send(t *testing.T) {
	var paths []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "12345", payload["chat_id"])

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewTelegramSender(TelegramConfig{BaseURL: server.URL, BotToken: "bot-token"})
	customer := &models.Customer{Phone: "12345", Channel: models.ChannelTelegram}

	err := sender.Send(context.Background(), customer, OutboundMessage{
		Text:      "Hello",
		MediaURLs: []string{"https://cdn.example.com/promo.png"},
	})
	require.NoError(t, err)

	require.Len(t, paths, 2)
	assert.Equal(t, "/botbot-token/sendMessage", paths[0])
	assert.Equal(t, "/botbot-token/sendDocument", paths[1])
}

func TestSenders_RoutesByChannel(t *testing.T) {
	whatsapp := NewWhatsAppSender(WhatsAppConfig{})
	telegram := NewTelegramSender(TelegramConfig{})
	senders := NewSenders(whatsapp, telegram)

	sender, err := senders.For(models.ChannelTelegram)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelTelegram, sender.Channel())

	_, err = senders.For(models.Channel("sms"))
	require.Error(t, err)
}
