package messagetrigger

import (
	"context"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/protocol"
)

// MessageTriggerNodeFactory creates MessageTriggerNode instances.
type MessageTriggerNodeFactory struct{}

func NewMessageTriggerNodeFactory() protocol.NodeFactory {
	return &MessageTriggerNodeFactory{}
}

func (f *MessageTriggerNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewMessageTriggerNode(id, config)
}

func (f *MessageTriggerNodeFactory) ID() string {
	return models.NodeTypeMessageTrigger
}

func (f *MessageTriggerNodeFactory) Name() string {
	return "Message Trigger"
}

func (f *MessageTriggerNodeFactory) Description() string {
	return "Starts the workflow when an inbound message matches the configured channel and text filters"
}

func (f *MessageTriggerNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"channel": map[string]any{
				"type":        "string",
				"description": "Channel to listen on",
				"default":     ChannelAny,
				"enum":        []string{ChannelAny, "whatsapp", "telegram"},
			},
			"match": map[string]any{
				"type":        "string",
				"description": "How inbound text is matched",
				"default":     MatchAny,
				"enum":        []string{MatchAny, MatchKeyword, MatchRegex},
			},
			"keywords": map[string]any{
				"type":        "array",
				"description": "Keywords for keyword match, case-insensitive substring",
				"items":       map[string]any{"type": "string"},
			},
			"pattern": map[string]any{
				"type":        "string",
				"description": "Go regular expression for regex match",
			},
		},
	}
}
