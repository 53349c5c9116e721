package handoff

import (
	"context"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/protocol"
	"github.com/relaycrm/relay/pkg/sessions"
)

// HandoffNodeFactory creates HandoffNode instances bound to the session store.
type HandoffNodeFactory struct {
	store *sessions.Store
}

func NewHandoffNodeFactory(store *sessions.Store) protocol.NodeFactory {
	return &HandoffNodeFactory{store: store}
}

func (f *HandoffNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewHandoffNode(id, config, f.store)
}

func (f *HandoffNodeFactory) ID() string {
	return models.NodeTypeHandoff
}

func (f *HandoffNodeFactory) Name() string {
	return "Human Handoff"
}

func (f *HandoffNodeFactory) Description() string {
	return "Routes the conversation to a human agent and stops automated replies for this customer"
}

func (f *HandoffNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"reason": map[string]any{
				"type":        "string",
				"description": "Reason shown to the agent. Supports placeholders",
				"examples":    []string{"AI confidence too low for: {{trigger.text}}"},
			},
		},
	}
}
