package messagetrigger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaycrm/relay/pkg/models"
)

func inbound(channel models.Channel, text string) *models.InboundMessage {
	return &models.InboundMessage{
		Customer: &models.Customer{ID: "cus-1", Name: "Amy"},
		Message:  models.Message{ID: "msg-1", Channel: channel, Text: text},
	}
}

func TestMatches_AnyChannelAnyText(t *testing.T) {
	node, err := NewMessageTriggerNode("trigger-1", map[string]any{})
	require.NoError(t, err)

	assert.True(t, node.Matches(inbound(models.ChannelWhatsApp, "hello")))
	assert.True(t, node.Matches(inbound(models.ChannelTelegram, "")))
}

func TestMatches_ChannelFilter(t *testing.T) {
	node, err := NewMessageTriggerNode("trigger-1", map[string]any{"channel": "whatsapp"})
	require.NoError(t, err)

	assert.True(t, node.Matches(inbound(models.ChannelWhatsApp, "hi")))
	assert.False(t, node.Matches(inbound(models.ChannelTelegram, "hi")))
}

func TestMatches_Keywords(t *testing.T) {
	node, err := NewMessageTriggerNode("trigger-1", map[string]any{
		"match":    MatchKeyword,
		"keywords": []any{"refund", "cancel"},
	})
	require.NoError(t, err)

	assert.True(t, node.Matches(inbound(models.ChannelWhatsApp, "I want a REFUND now")))
	assert.True(t, node.Matches(inbound(models.ChannelWhatsApp, "please cancel my order")))
	assert.False(t, node.Matches(inbound(models.ChannelWhatsApp, "just saying hi")))
}

func TestMatches_Regex(t *testing.T) {
	node, err := NewMessageTriggerNode("trigger-1", map[string]any{
		"match":   MatchRegex,
		"pattern": `(?i)^order\s+\d+`,
	})
	require.NoError(t, err)

	assert.True(t, node.Matches(inbound(models.ChannelTelegram, "Order 1234 status?")))
	assert.False(t, node.Matches(inbound(models.ChannelTelegram, "where is my order")))
}

func TestNewMessageTriggerNode_InvalidConfig(t *testing.T) {
	_, err := NewMessageTriggerNode("t", map[string]any{"match": MatchKeyword})
	require.Error(t, err, "keyword match without keywords")

	_, err = NewMessageTriggerNode("t", map[string]any{"match": MatchRegex, "pattern": "("})
	require.Error(t, err, "invalid regex")

	_, err = NewMessageTriggerNode("t", map[string]any{"channel": "sms"})
	require.Error(t, err, "unknown channel")
}

func TestExecute_EmitsTriggerData(t *testing.T) {
	node, err := NewMessageTriggerNode("trigger-1", map[string]any{})
	require.NoError(t, err)

	ectx := models.NewExecutionContext("exec-1", "wf-1")
	ectx.TriggerData = inbound(models.ChannelWhatsApp, "hello").TriggerData()

	results, err := node.Execute(context.Background(), ectx, nil)
	require.NoError(t, err)

	result, ok := results[OutputPortMessage]
	require.True(t, ok)
	assert.Equal(t, string(models.NodeStatusSuccess), result.Status)
	assert.Equal(t, "hello", result.Data["text"])
}
