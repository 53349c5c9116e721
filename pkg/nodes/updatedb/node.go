// Package updatedb provides the node that patches the current customer's
// record from workflow data.
package updatedb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence"
	"github.com/relaycrm/relay/pkg/template"
)

const (
	InputPortMain     = "main"
	OutputPortSuccess = "success"
	OutputPortError   = "error"
)

// UpdateDBNode renders each configured field value against the execution
// context and patches the customer record. Unknown field names land in the
// customer's custom fields. The execution context's customer snapshot is
// refreshed so downstream placeholders see the new values.
type UpdateDBNode struct {
	id     string
	config UpdateDBConfig

	customers persistence.CustomerRepository
}

// UpdateDBConfig defines the configuration for update database nodes.
type UpdateDBConfig struct {
	Fields map[string]string `json:"fields"`
}

func NewUpdateDBNode(id string, config map[string]any, customers persistence.CustomerRepository) (*UpdateDBNode, error) {
	updateConfig := UpdateDBConfig{Fields: make(map[string]string)}

	if fields, ok := config["fields"].(map[string]any); ok {
		for name, raw := range fields {
			if value, ok := raw.(string); ok {
				updateConfig.Fields[name] = value
			}
		}
	}

	node := &UpdateDBNode{id: id, config: updateConfig, customers: customers}

	if err := node.Validate(config); err != nil {
		return nil, err
	}

	return node, nil
}

func (n *UpdateDBNode) ID() string {
	return n.id
}

func (n *UpdateDBNode) Type() string {
	return models.NodeTypeUpdateDB
}

func (n *UpdateDBNode) Execute(ctx context.Context, ectx *models.ExecutionContext, _ map[string]models.NodeResult) (map[string]models.NodeResult, error) {
	customerID, _ := ectx.Customer["id"].(string)
	if customerID == "" {
		return n.createErrorResult("execution context has no customer"), nil
	}

	rc := template.FromExecution(ectx)

	fields := make(map[string]any, len(n.config.Fields))

	for name, value := range n.config.Fields {
		rendered, err := template.RenderString(value, rc, template.FailOpen)
		if err != nil {
			return n.createErrorResult(fmt.Sprintf("failed to render field %q: %v", name, err)), nil
		}

		fields[name] = rendered
	}

	updated, err := n.customers.UpdateFields(ctx, customerID, fields)
	if err != nil {
		return n.createErrorResult(fmt.Sprintf("failed to update customer: %v", err)), nil
	}

	ectx.Customer = updated.Record()

	return map[string]models.NodeResult{
		OutputPortSuccess: {
			NodeID: n.id,
			Data: map[string]any{
				"customer_id":    customerID,
				"updated_fields": fields,
			},
			Status:    string(models.NodeStatusSuccess),
			Timestamp: time.Now().UTC(),
		},
	}, nil
}

func (n *UpdateDBNode) createErrorResult(errorMessage string) map[string]models.NodeResult {
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

func (n *UpdateDBNode) InputPorts() []models.InputPort {
	return []models.InputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, InputPortMain),
				NodeID:      n.id,
				Name:        InputPortMain,
				Description: "Main input for applying the update",
			},
		},
	}
}

func (n *UpdateDBNode) OutputPorts() []models.OutputPort {
	return []models.OutputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortSuccess),
				NodeID:      n.id,
				Name:        OutputPortSuccess,
				Description: "Customer record updated",
			},
		},
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortError),
				NodeID:      n.id,
				Name:        OutputPortError,
				Description: "Rendering or persistence failure",
			},
		},
	}
}

// Validate validates the node configuration.
func (n *UpdateDBNode) Validate(config map[string]any) error {
	fields, ok := config["fields"].(map[string]any)
	if !ok || len(fields) == 0 {
		return errors.New("'fields' must be a non-empty object")
	}

	for name, raw := range fields {
		if _, ok := raw.(string); !ok {
			return fmt.Errorf("field %q: value must be a string template", name)
		}

		if name == "id" {
			return errors.New("field 'id' cannot be updated")
		}
	}

	return nil
}
