// Package templatenode provides the node that renders a template into a
// named execution variable for downstream nodes.
package templatenode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/template"
)

const (
	InputPortMain    = "main"
	OutputPortOutput = "output"
	OutputPortError  = "error"
)

const defaultOutputVariable = "text"

// TemplateNode resolves placeholders in the configured template and stores
// the result in the execution context's variables.
type TemplateNode struct {
	id     string
	config TemplateConfig
}

// TemplateConfig defines the configuration for template nodes.
type TemplateConfig struct {
	Template       string `json:"template"`
	OutputVariable string `json:"output_variable"`
	FailClosed     bool   `json:"fail_closed,omitempty"`
}

func NewTemplateNode(id string, config map[string]any) (*TemplateNode, error) {
	templateConfig := TemplateConfig{OutputVariable: defaultOutputVariable}

	if tmpl, ok := config["template"].(string); ok {
		templateConfig.Template = tmpl
	}

	if outputVariable, ok := config["output_variable"].(string); ok && outputVariable != "" {
		templateConfig.OutputVariable = outputVariable
	}

	if failClosed, ok := config["fail_closed"].(bool); ok {
		templateConfig.FailClosed = failClosed
	}

	node := &TemplateNode{id: id, config: templateConfig}

	if err := node.Validate(config); err != nil {
		return nil, err
	}

	return node, nil
}

func (n *TemplateNode) ID() string {
	return n.id
}

func (n *TemplateNode) Type() string {
	return models.NodeTypeTemplate
}

func (n *TemplateNode) Execute(_ context.Context, ectx *models.ExecutionContext, _ map[string]models.NodeResult) (map[string]models.NodeResult, error) {
	mode := template.FailOpen
	if n.config.FailClosed {
		mode = template.FailClosed
	}

	rendered, err := template.Render(n.config.Template, template.FromExecution(ectx), mode)
	if err != nil {
		return n.createErrorResult(fmt.Sprintf("failed to render template: %v", err)), nil
	}

	if ectx.Variables == nil {
		ectx.Variables = make(map[string]any)
	}

	ectx.Variables[n.config.OutputVariable] = rendered.Text

	data := map[string]any{
		"variable": n.config.OutputVariable,
		"text":     rendered.Text,
	}

	if len(rendered.Unresolved) > 0 {
		data["unresolved"] = rendered.Unresolved
	}

	return map[string]models.NodeResult{
		OutputPortOutput: {
			NodeID:    n.id,
			Data:      data,
			Status:    string(models.NodeStatusSuccess),
			Timestamp: time.Now().UTC(),
		},
	}, nil
}

func (n *TemplateNode) createErrorResult(errorMessage string) map[string]models.NodeResult {
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

func (n *TemplateNode) InputPorts() []models.InputPort {
	return []models.InputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, InputPortMain),
				NodeID:      n.id,
				Name:        InputPortMain,
				Description: "Main input for rendering the template",
			},
		},
	}
}

func (n *TemplateNode) OutputPorts() []models.OutputPort {
	return []models.OutputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortOutput),
				NodeID:      n.id,
				Name:        OutputPortOutput,
				Description: "Rendered text stored in the output variable",
			},
		},
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortError),
				NodeID:      n.id,
				Name:        OutputPortError,
				Description: "Rendering failure in fail-closed mode",
			},
		},
	}
}

// Validate validates the node configuration.
func (n *TemplateNode) Validate(config map[string]any) error {
	tmpl, ok := config["template"].(string)
	if !ok || tmpl == "" {
		return errors.New("'template' is required")
	}

	return nil
}
