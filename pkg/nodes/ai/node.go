// Package ai provides the AI reply node backed by the prompt library and a
// chat-completion client.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/relaycrm/relay/pkg/llm"
	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence"
	"github.com/relaycrm/relay/pkg/template"
)

const (
	InputPortMain     = "main"
	OutputPortReply   = "reply"
	OutputPortHandoff = "handoff"
	OutputPortError   = "error"
)

const defaultConfidenceThreshold = 0.7

// AINode generates a reply from the conversation context. Replies whose
// self-reported confidence falls below the threshold route to the handoff
// port instead of the reply port.
type AINode struct {
	id     string
	config AIConfig

	client  llm.Client
	prompts persistence.PromptRepository
}

// AIConfig defines the configuration for AI nodes. Either PromptID or the
// inline prompts must be set.
type AIConfig struct {
	PromptID            string  `json:"prompt_id,omitempty"`
	SystemPrompt        string  `json:"system_prompt,omitempty"`
	UserPrompt          string  `json:"user_prompt,omitempty"`
	Model               string  `json:"model,omitempty"`
	Temperature         float64 `json:"temperature,omitempty"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
}

func NewAINode(id string, config map[string]any, client llm.Client, prompts persistence.PromptRepository) (*AINode, error) {
	aiConfig := AIConfig{ConfidenceThreshold: defaultConfidenceThreshold}

	if promptID, ok := config["prompt_id"].(string); ok {
		aiConfig.PromptID = promptID
	}

	if systemPrompt, ok := config["system_prompt"].(string); ok {
		aiConfig.SystemPrompt = systemPrompt
	}

	if userPrompt, ok := config["user_prompt"].(string); ok {
		aiConfig.UserPrompt = userPrompt
	}

	if model, ok := config["model"].(string); ok {
		aiConfig.Model = model
	}

	if temperature, ok := config["temperature"].(float64); ok {
		aiConfig.Temperature = temperature
	}

	if threshold, ok := config["confidence_threshold"].(float64); ok {
		aiConfig.ConfidenceThreshold = threshold
	}

	node := &AINode{id: id, config: aiConfig, client: client, prompts: prompts}

	if err := node.Validate(config); err != nil {
		return nil, err
	}

	return node, nil
}

func (n *AINode) ID() string {
	return n.id
}

func (n *AINode) Type() string {
	return models.NodeTypeAI
}

func (n *AINode) Execute(ctx context.Context, ectx *models.ExecutionContext, _ map[string]models.NodeResult) (map[string]models.NodeResult, error) {
	systemPrompt, userPrompt, err := n.resolvePrompts(ctx)
	if err != nil {
		return n.createErrorResult(fmt.Sprintf("failed to resolve prompt: %v", err)), nil
	}

	rc := template.FromExecution(ectx)

	renderedSystem, err := template.RenderString(systemPrompt, rc, template.FailOpen)
	if err != nil {
		return n.createErrorResult(fmt.Sprintf("failed to render system prompt: %v", err)), nil
	}

	renderedUser, err := template.RenderString(userPrompt, rc, template.FailOpen)
	if err != nil {
		return n.createErrorResult(fmt.Sprintf("failed to render user prompt: %v", err)), nil
	}

	response, err := n.client.Complete(ctx, llm.Request{
		Model:        n.config.Model,
		SystemPrompt: renderedSystem,
		UserPrompt:   renderedUser,
		Temperature:  n.config.Temperature,
	})
	if err != nil {
		return n.createErrorResult(fmt.Sprintf("completion failed: %v", err)), nil
	}

	data := map[string]any{
		"reply":      response.Reply,
		"confidence": response.Confidence,
		"model":      response.Model,
	}
	ectx.SetAI(data)

	port := OutputPortReply
	if response.Confidence < n.config.ConfidenceThreshold {
		port = OutputPortHandoff
	}

	return map[string]models.NodeResult{
		port: {
			NodeID:    n.id,
			Data:      data,
			Status:    string(models.NodeStatusSuccess),
			Timestamp: time.Now().UTC(),
		},
	}, nil
}

func (n *AINode) resolvePrompts(ctx context.Context) (string, string, error) {
	if n.config.PromptID == "" {
		return n.config.SystemPrompt, n.config.UserPrompt, nil
	}

	prompt, err := n.prompts.GetByID(ctx, n.config.PromptID)
	if err != nil {
		return "", "", err
	}

	return prompt.SystemPrompt, prompt.UserPrompt, nil
}

func (n *AINode) createErrorResult(errorMessage string) map[string]models.NodeResult {
	return map[string]models.NodeResult{
		OutputPortError: {
			NodeID:    n.id,
			Data:      map[string]any{"error": errorMessage},
			Status:    string(models.NodeStatusError),
			Timestamp: time.Now().UTC(),
			Error:     errorMessage,
		},
	}
}

func (n *AINode) InputPorts() []models.InputPort {
	return []models.InputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, InputPortMain),
				NodeID:      n.id,
				Name:        InputPortMain,
				Description: "Main input for triggering the AI reply",
			},
		},
	}
}

func (n *AINode) OutputPorts() []models.OutputPort {
	return []models.OutputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortReply),
				NodeID:      n.id,
				Name:        OutputPortReply,
				Description: "Reply with confidence at or above the threshold",
			},
		},
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortHandoff),
				NodeID:      n.id,
				Name:        OutputPortHandoff,
				Description: "Reply with confidence below the threshold",
			},
		},
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortError),
				NodeID:      n.id,
				Name:        OutputPortError,
				Description: "Prompt resolution or completion failure",
			},
		},
	}
}

// Validate validates the node configuration.
func (n *AINode) Validate(config map[string]any) error {
	promptID, _ := config["prompt_id"].(string)
	userPrompt, _ := config["user_prompt"].(string)

	if promptID == "" && userPrompt == "" {
		return errors.New("either 'prompt_id' or 'user_prompt' is required")
	}

	if threshold, ok := config["confidence_threshold"].(float64); ok {
		if threshold < 0 || threshold > 1 {
			return errors.New("confidence_threshold must be between 0 and 1")
		}
	}

	if temperature, ok := config["temperature"].(float64); ok {
		if temperature < 0 || temperature > 2 {
			return errors.New("temperature must be between 0 and 2")
		}
	}

	return nil
}
