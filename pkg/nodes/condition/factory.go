package condition

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/protocol"
)

// ConditionNodeFactory creates ConditionNode instances sharing one clock so
// date conditions are testable.
type ConditionNodeFactory struct {
	clock clockwork.Clock
}

func NewConditionNodeFactory(clock clockwork.Clock) protocol.NodeFactory {
	return &ConditionNodeFactory{clock: clock}
}

func (f *ConditionNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewConditionNode(id, config, f.clock)
}

func (f *ConditionNodeFactory) ID() string {
	return models.NodeTypeCondition
}

func (f *ConditionNodeFactory) Name() string {
	return "Condition"
}

func (f *ConditionNodeFactory) Description() string {
	return "Branches the workflow on customer and conversation data, with visual conditions or a JSONLogic rule"
}

func (f *ConditionNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"mode": map[string]any{
				"type":    "string",
				"default": ModeVisual,
				"enum":    []string{ModeVisual, ModeJSONLogic},
			},
			"conditions": map[string]any{
				"type":        "array",
				"description": "Visual condition rows",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"field":      map[string]any{"type": "string"},
						"operator":   map[string]any{"type": "string"},
						"value":      map[string]any{"type": "string"},
						"field_type": map[string]any{"type": "string", "enum": []string{"text", "number", "date", "custom"}},
					},
					"required": []string{"field", "operator"},
				},
			},
			"logic": map[string]any{
				"type":    "string",
				"default": string(models.LogicAnd),
				"enum":    []string{string(models.LogicAnd), string(models.LogicOr)},
			},
			"rule": map[string]any{
				"description": "JSONLogic rule for jsonlogic mode",
				"examples": []map[string]any{
					{"and": []any{map[string]any{">": []any{map[string]any{"var": "balance"}, 100}}}},
				},
			},
			"fallback_output": map[string]any{
				"type":        "string",
				"description": "Branch taken when evaluation errors, 'true' or 'false'",
				"default":     "false",
			},
		},
	}
}
