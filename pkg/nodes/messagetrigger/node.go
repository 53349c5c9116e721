// Package messagetrigger provides the trigger node that starts workflows
// from inbound customer messages.
package messagetrigger

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/relaycrm/relay/pkg/models"
)

const OutputPortMessage = "message"

// Match modes for inbound text.
const (
	MatchAny     = "any"
	MatchKeyword = "keyword"
	MatchRegex   = "regex"
)

// ChannelAny matches inbound messages on every channel.
const ChannelAny = "any"

// MessageTriggerNode starts a workflow run when an inbound message matches
// its channel and text filters.
type MessageTriggerNode struct {
	id     string
	config MessageTriggerConfig

	pattern *regexp.Regexp
}

// MessageTriggerConfig defines the configuration for message trigger nodes.
type MessageTriggerConfig struct {
	Channel  string   `json:"channel"`
	Match    string   `json:"match"`
	Keywords []string `json:"keywords,omitempty"`
	Pattern  string   `json:"pattern,omitempty"`
}

func NewMessageTriggerNode(id string, config map[string]any) (*MessageTriggerNode, error) {
	triggerConfig := MessageTriggerConfig{
		Channel: ChannelAny,
		Match:   MatchAny,
	}

	if channel, ok := config["channel"].(string); ok && channel != "" {
		triggerConfig.Channel = channel
	}

	if match, ok := config["match"].(string); ok && match != "" {
		triggerConfig.Match = match
	}

	if keywords, ok := config["keywords"].([]any); ok {
		for _, keyword := range keywords {
			if s, ok := keyword.(string); ok {
				triggerConfig.Keywords = append(triggerConfig.Keywords, s)
			}
		}
	}

	if pattern, ok := config["pattern"].(string); ok {
		triggerConfig.Pattern = pattern
	}

	node := &MessageTriggerNode{id: id, config: triggerConfig}

	if err := node.Validate(config); err != nil {
		return nil, err
	}

	if triggerConfig.Match == MatchRegex {
		compiled, err := regexp.Compile(triggerConfig.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid trigger pattern: %w", err)
		}

		node.pattern = compiled
	}

	return node, nil
}

func (n *MessageTriggerNode) ID() string {
	return n.id
}

func (n *MessageTriggerNode) Type() string {
	return models.NodeTypeMessageTrigger
}

// Matches reports whether an inbound message should start this workflow.
func (n *MessageTriggerNode) Matches(msg *models.InboundMessage) bool {
	if n.config.Channel != ChannelAny && string(msg.Message.Channel) != n.config.Channel {
		return false
	}

	switch n.config.Match {
	case MatchKeyword:
		text := strings.ToLower(msg.Message.Text)
		for _, keyword := range n.config.Keywords {
			if strings.Contains(text, strings.ToLower(keyword)) {
				return true
			}
		}

		return false
	case MatchRegex:
		return n.pattern.MatchString(msg.Message.Text)
	default:
		return true
	}
}

// Execute emits the trigger data already staged in the execution context.
func (n *MessageTriggerNode) Execute(_ context.Context, ectx *models.ExecutionContext, _ map[string]models.NodeResult) (map[string]models.NodeResult, error) {
	return map[string]models.NodeResult{
		OutputPortMessage: {
			NodeID:    n.id,
			Data:      ectx.TriggerData,
			Status:    string(models.NodeStatusSuccess),
			Timestamp: time.Now().UTC(),
		},
	}, nil
}

func (n *MessageTriggerNode) InputPorts() []models.InputPort {
	return nil
}

func (n *MessageTriggerNode) OutputPorts() []models.OutputPort {
	return []models.OutputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortMessage),
				NodeID:      n.id,
				Name:        OutputPortMessage,
				Description: "Inbound message data that matched the trigger",
			},
		},
	}
}

// Validate validates the node configuration.
func (n *MessageTriggerNode) Validate(config map[string]any) error {
	if channel, ok := config["channel"].(string); ok && channel != "" {
		if channel != ChannelAny && channel != string(models.ChannelWhatsApp) && channel != string(models.ChannelTelegram) {
			return fmt.Errorf("invalid trigger channel: %s", channel)
		}
	}

	match, _ := config["match"].(string)

	switch match {
	case "", MatchAny:
	case MatchKeyword:
		keywords, ok := config["keywords"].([]any)
		if !ok || len(keywords) == 0 {
			return errors.New("keyword match requires a non-empty 'keywords' list")
		}
	case MatchRegex:
		pattern, ok := config["pattern"].(string)
		if !ok || pattern == "" {
			return errors.New("regex match requires a 'pattern'")
		}

		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("invalid trigger pattern: %w", err)
		}
	default:
		return fmt.Errorf("invalid match mode: %s", match)
	}

	return nil
}
