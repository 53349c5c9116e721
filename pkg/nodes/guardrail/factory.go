package guardrail

import (
	"context"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/protocol"
)

type GuardrailNodeFactory struct{}

func NewGuardrailNodeFactory() protocol.NodeFactory {
	return &GuardrailNodeFactory{}
}

func (f *GuardrailNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewGuardrailNode(id, config)
}

func (f *GuardrailNodeFactory) ID() string {
	return models.NodeTypeGuardrail
}

func (f *GuardrailNodeFactory) Name() string {
	return "Guardrail Validator"
}

func (f *GuardrailNodeFactory) Description() string {
	return "Validates text against content rules and routes to pass or fail"
}

func (f *GuardrailNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"target": map[string]any{
				"type":        "string",
				"description": "Template for the text to validate",
				"default":     defaultTarget,
			},
			"rules": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type": map[string]any{
							"type": "string",
							"enum": []string{RuleBannedPhrase, RuleMaxLength, RuleMustContain, RuleRegex},
						},
						"value": map[string]any{
							"description": "Phrase, length limit or pattern, depending on the rule type",
						},
					},
					"required": []string{"type", "value"},
				},
			},
		},
		"required": []string{"rules"},
	}
}
