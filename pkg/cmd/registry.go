// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/relaycrm/relay/pkg/llm"
	"github.com/relaycrm/relay/pkg/messaging"
	"github.com/relaycrm/relay/pkg/persistence"
	"github.com/relaycrm/relay/pkg/registry"
	"github.com/relaycrm/relay/pkg/sessions"
)

// NewRegistry builds the node registry with all built-in node types wired to
// their runtime dependencies.
func NewRegistry(logger *slog.Logger, persist persistence.Persistence, store *sessions.Store) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.RegisterDefaultNodes(registry.NodeDeps{
		LLM:         NewLLMClient(),
		Senders:     NewSenders(),
		Sessions:    store,
		Persistence: persist,
	})

	return reg
}

// NewLLMClient builds the completion client from the environment. The API
// surface is the OpenAI chat-completions shape, so any compatible provider
// works.
func NewLLMClient() llm.Client {
	return llm.NewHTTPClient(llm.Config{
		BaseURL: os.Getenv("LLM_API_URL"),
		APIKey:  os.Getenv("LLM_API_KEY"),
		Model:   os.Getenv("LLM_MODEL"),
	})
}

// NewSenders builds the channel sender registry from the environment. Only
// configured channels are registered; sending on an unconfigured channel
// routes the node to its error port.
func NewSenders() *messaging.Senders {
	var senders []messaging.Sender

	if token := os.Getenv("WHATSAPP_ACCESS_TOKEN"); token != "" {
		senders = append(senders, messaging.NewWhatsAppSender(messaging.WhatsAppConfig{
			AccessToken:   token,
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
		}))
	}

	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		senders = append(senders, messaging.NewTelegramSender(messaging.TelegramConfig{
			BotToken: token,
		}))
	}

	return messaging.NewSenders(senders...)
}

// NewSessionStore connects the conversation session store to Redis.
func NewSessionStore(redisURL string) *sessions.Store {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		panic(fmt.Errorf("failed to parse redis URL: %w", err))
	}

	return sessions.NewStore(redis.NewClient(opts), sessions.DefaultTTL)
}
