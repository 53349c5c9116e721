package ai

import (
	"context"

	"github.com/relaycrm/relay/pkg/llm"
	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence"
	"github.com/relaycrm/relay/pkg/protocol"
)

// AINodeFactory creates AINode instances bound to the completion client and
// prompt library.
type AINodeFactory struct {
	client  llm.Client
	prompts persistence.PromptRepository
}

func NewAINodeFactory(client llm.Client, prompts persistence.PromptRepository) protocol.NodeFactory {
	return &AINodeFactory{client: client, prompts: prompts}
}

func (f *AINodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewAINode(id, config, f.client, f.prompts)
}

func (f *AINodeFactory) ID() string {
	return models.NodeTypeAI
}

func (f *AINodeFactory) Name() string {
	return "AI Reply"
}

func (f *AINodeFactory) Description() string {
	return "Generates a reply from the conversation context using a prompt-library entry, routing low-confidence replies to handoff"
}

func (f *AINodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt_id": map[string]any{
				"type":        "string",
				"description": "Prompt-library entry to use",
			},
			"system_prompt": map[string]any{
				"type":        "string",
				"description": "Inline system prompt, used when prompt_id is not set. Supports placeholders",
			},
			"user_prompt": map[string]any{
				"type":        "string",
				"description": "Inline user prompt. Supports placeholders",
				"examples":    []string{"Answer the customer: {{trigger.text}}\n\nContext: {{kb.faq}}"},
			},
			"model": map[string]any{
				"type":        "string",
				"description": "Model override for this node",
			},
			"temperature": map[string]any{
				"type":    "number",
				"minimum": 0,
				"maximum": 2,
			},
			"confidence_threshold": map[string]any{
				"type":        "number",
				"description": "Replies below this confidence route to the handoff port",
				"default":     defaultConfidenceThreshold,
				"minimum":     0,
				"maximum":     1,
			},
		},
	}
}
