// Package handoff provides the node that routes a conversation to a human
// agent and mutes further automation.
package handoff

import (
	"context"
	"fmt"
	"time"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/sessions"
	"github.com/relaycrm/relay/pkg/template"
)

const (
	InputPortMain   = "main"
	OutputPortDone  = "done"
	OutputPortError = "error"
)

// HandoffNode marks the customer's conversation as waiting for an agent.
// Once handed off, inbound messages stop matching workflow triggers until
// an agent resumes automation.
type HandoffNode struct {
	id     string
	config HandoffConfig

	store *sessions.Store
}

// HandoffConfig defines the configuration for handoff nodes.
type HandoffConfig struct {
	Reason string `json:"reason,omitempty"`
}

func NewHandoffNode(id string, config map[string]any, store *sessions.Store) (*HandoffNode, error) {
	handoffConfig := HandoffConfig{}

	if reason, ok := config["reason"].(string); ok {
		handoffConfig.Reason = reason
	}

	return &HandoffNode{id: id, config: handoffConfig, store: store}, nil
}

func (n *HandoffNode) ID() string {
	return n.id
}

func (n *HandoffNode) Type() string {
	return models.NodeTypeHandoff
}

func (n *HandoffNode) Execute(ctx context.Context, ectx *models.ExecutionContext, _ map[string]models.NodeResult) (map[string]models.NodeResult, error) {
	customerID, _ := ectx.Customer["id"].(string)
	if customerID == "" {
		return n.createErrorResult("execution context has no customer"), nil
	}

	reason, err := template.RenderString(n.config.Reason, template.FromExecution(ectx), template.FailOpen)
	if err != nil {
		reason = n.config.Reason
	}

	if err := n.store.RequestHandoff(ctx, customerID, reason); err != nil {
		return n.createErrorResult(fmt.Sprintf("failed to request handoff: %v", err)), nil
	}

	return map[string]models.NodeResult{
		OutputPortDone: {
			NodeID: n.id,
			Data: map[string]any{
				"customer_id": customerID,
				"reason":      reason,
			},
			Status:    string(models.NodeStatusSuccess),
			Timestamp: time.Now().UTC(),
		},
	}, nil
}

func (n *HandoffNode) createErrorResult(errorMessage string) map[string]models.NodeResult {
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

func (n *HandoffNode) InputPorts() []models.InputPort {
	return []models.InputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, InputPortMain),
				NodeID:      n.id,
				Name:        InputPortMain,
				Description: "Main input for requesting the handoff",
			},
		},
	}
}

func (n *HandoffNode) OutputPorts() []models.OutputPort {
	return []models.OutputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortDone),
				NodeID:      n.id,
				Name:        OutputPortDone,
				Description: "Conversation handed to an agent",
			},
		},
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortError),
				NodeID:      n.id,
				Name:        OutputPortError,
				Description: "Session store failure",
			},
		},
	}
}

// Validate validates the node configuration.
func (n *HandoffNode) Validate(_ map[string]any) error {
	return nil
}
