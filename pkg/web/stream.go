package web

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/relaycrm/relay/pkg/eventbus"
	"github.com/relaycrm/relay/pkg/events"
	"github.com/relaycrm/relay/pkg/models"
)

// MessageStream fans conversation events out to SSE clients so the agent
// inbox updates live. It subscribes once on the event bus and keeps one
// buffered channel per connected client; slow clients drop events instead of
// blocking the bus.
type MessageStream struct {
	logger      *slog.Logger
	mu          sync.Mutex
	subscribers map[chan streamEvent]struct{}
}

// streamEvent is one SSE frame: the event name plus the body written on the
// data line. The body is flat, with type, customer and message at top level.
type streamEvent struct {
	Type string
	Body any
}

type inboundMessageBody struct {
	Type     string           `json:"type"`
	Customer *models.Customer `json:"customer"`
	Message  *models.Message  `json:"message"`
}

type outboundMessageBody struct {
	Type       string         `json:"type"`
	CustomerID string         `json:"customer_id"`
	Channel    models.Channel `json:"channel"`
	Text       string         `json:"text"`
	MediaIDs   []string       `json:"media_ids,omitempty"`
}

type handoffRequestedBody struct {
	Type       string `json:"type"`
	CustomerID string `json:"customer_id"`
	Reason     string `json:"reason,omitempty"`
}

const subscriberBuffer = 16

func NewMessageStream(logger *slog.Logger) *MessageStream {
	return &MessageStream{
		logger:      logger.With("module", "message-stream"),
		subscribers: make(map[chan streamEvent]struct{}),
	}
}

// Attach registers the stream on the event bus. Call before the bus starts
// consuming.
func (s *MessageStream) Attach(bus eventbus.EventSubscriber) error {
	if err := bus.Handle(events.MessageReceivedEvent, func(_ context.Context, event any) error {
		if received, ok := event.(*events.MessageReceived); ok {
			s.broadcast(streamEvent{Type: "inbound_message", Body: inboundMessageBody{
				Type:     "inbound_message",
				Customer: received.Customer,
				Message:  received.Message,
			}})
		}

		return nil
	}); err != nil {
		return err
	}

	if err := bus.Handle(events.MessageSentEvent, func(_ context.Context, event any) error {
		if sent, ok := event.(*events.MessageSent); ok {
			s.broadcast(streamEvent{Type: "outbound_message", Body: outboundMessageBody{
				Type:       "outbound_message",
				CustomerID: sent.CustomerID,
				Channel:    sent.Channel,
				Text:       sent.Text,
				MediaIDs:   sent.MediaIDs,
			}})
		}

		return nil
	}); err != nil {
		return err
	}

	return bus.Handle(events.HandoffRequestedEvent, func(_ context.Context, event any) error {
		if handoff, ok := event.(*events.HandoffRequested); ok {
			s.broadcast(streamEvent{Type: "handoff_requested", Body: handoffRequestedBody{
				Type:       "handoff_requested",
				CustomerID: handoff.CustomerID,
				Reason:     handoff.Reason,
			}})
		}

		return nil
	})
}

func (s *MessageStream) broadcast(event streamEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for subscriber := range s.subscribers {
		select {
		case subscriber <- event:
		default:
			s.logger.Warn("Dropping stream event for slow subscriber", "event_type", event.Type)
		}
	}
}

func (s *MessageStream) subscribe() (chan streamEvent, func()) {
	subscriber := make(chan streamEvent, subscriberBuffer)

	s.mu.Lock()
	s.subscribers[subscriber] = struct{}{}
	s.mu.Unlock()

	return subscriber, func() {
		s.mu.Lock()
		delete(s.subscribers, subscriber)
		s.mu.Unlock()
	}
}

// SubscriberCount reports the number of connected SSE clients.
func (s *MessageStream) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.subscribers)
}

// Handler streams conversation events to the client as server-sent events.
func (s *MessageStream) Handler(c fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	subscriber, cancel := s.subscribe()

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		keepalive := time.NewTicker(15 * time.Second)
		defer keepalive.Stop()

		for {
			select {
			case event := <-subscriber:
				payload, err := json.Marshal(event.Body)
				if err != nil {
					s.logger.Error("Failed to marshal stream event", "error", err)

					continue
				}

				if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload); err != nil {
					return
				}

				if err := w.Flush(); err != nil {
					return
				}
			case <-keepalive.C:
				// Comment line keeps the connection alive and surfaces
				// disconnects.
				if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
					return
				}

				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
}
