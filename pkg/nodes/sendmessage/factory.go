package sendmessage

import (
	"context"

	"github.com/relaycrm/relay/pkg/messaging"
	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence"
	"github.com/relaycrm/relay/pkg/protocol"
)

// SendMessageNodeFactory creates SendMessageNode instances bound to the
// channel senders and the media library.
type SendMessageNodeFactory struct {
	senders *messaging.Senders
	media   persistence.MediaRepository
}

func NewSendMessageNodeFactory(senders *messaging.Senders, media persistence.MediaRepository) protocol.NodeFactory {
	return &SendMessageNodeFactory{senders: senders, media: media}
}

func (f *SendMessageNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewSendMessageNode(id, config, f.senders, f.media)
}

func (f *SendMessageNodeFactory) ID() string {
	return models.NodeTypeSendMessage
}

func (f *SendMessageNodeFactory) Name() string {
	return "Send Message"
}

func (f *SendMessageNodeFactory) Description() string {
	return "Sends a message to the customer on their channel, with template placeholders and media attachments"
}

func (f *SendMessageNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{
				"type":        "string",
				"description": "Message text. Supports placeholders and [[MEDIA:id]] / [[FOLDER:name]] tokens",
				"examples":    []string{"Hi {{db.customer.name}}, your balance is {{db.customer.balance}}"},
			},
			"media_ids": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Media library asset IDs attached to the message",
			},
			"retries": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"attempts": map[string]any{
						"type":        "number",
						"description": "Delivery attempts before routing to the error output",
						"default":     3,
						"minimum":     1,
						"maximum":     10,
					},
					"delay_ms": map[string]any{
						"type":        "number",
						"description": "Delay between attempts in milliseconds",
						"default":     1000,
						"minimum":     0,
						"maximum":     30000,
					},
				},
			},
		},
		"anyOf": []map[string]any{
			{"required": []string{"text"}},
			{"required": []string{"media_ids"}},
		},
	}
}
