package templatenode

import (
	"context"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/protocol"
)

type TemplateNodeFactory struct{}

func NewTemplateNodeFactory() protocol.NodeFactory {
	return &TemplateNodeFactory{}
}

func (f *TemplateNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewTemplateNode(id, config)
}

func (f *TemplateNodeFactory) ID() string {
	return models.NodeTypeTemplate
}

func (f *TemplateNodeFactory) Name() string {
	return "Template"
}

func (f *TemplateNodeFactory) Description() string {
	return "Renders a template with workflow data and stores the result in a variable"
}

func (f *TemplateNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"template": map[string]any{
				"type":        "string",
				"description": "Template text with placeholders",
				"examples":    []string{"Order summary for {{db.customer.name}}: {{ai.reply}}"},
			},
			"output_variable": map[string]any{
				"type":        "string",
				"description": "Variable name the rendered text is stored under",
				"default":     defaultOutputVariable,
			},
			"fail_closed": map[string]any{
				"type":        "boolean",
				"description": "Route to the error output when a placeholder cannot be resolved",
				"default":     false,
			},
		},
		"required": []string{"template"},
	}
}
