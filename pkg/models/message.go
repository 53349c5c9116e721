package models

import "time"

// Channel identifies a messaging transport.
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelTelegram Channel = "telegram"
)

// Message is a single inbound or outbound conversation message.
type Message struct {
	ID         string    `json:"id"`
	Channel    Channel   `json:"channel"`
	From       string    `json:"from"`
	Text       string    `json:"text"`
	MediaID    string    `json:"media_id,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// InboundMessage pairs an inbound message with the resolved customer. It is
// the payload of the inbound_message SSE event and the trigger data of
// message-triggered workflow runs.
type InboundMessage struct {
	Customer *Customer `json:"customer"`
	Message  Message   `json:"message"`
}

// TriggerData renders the inbound message as the trigger namespace of an
// execution context.
func (m *InboundMessage) TriggerData() map[string]any {
	data := map[string]any{
		"message_id":  m.Message.ID,
		"channel":     string(m.Message.Channel),
		"from":        m.Message.From,
		"text":        m.Message.Text,
		"received_at": m.Message.ReceivedAt.UTC().Format(time.RFC3339),
	}

	if m.Message.MediaID != "" {
		data["media_id"] = m.Message.MediaID
	}

	if m.Customer != nil {
		data["customer_id"] = m.Customer.ID
		data["name"] = m.Customer.Name
	}

	return data
}
