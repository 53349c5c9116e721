// Package condition provides the branching node that routes workflow runs
// on customer and conversation data.
package condition

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/relaycrm/relay/pkg/conditions"
	"github.com/relaycrm/relay/pkg/models"
)

const (
	InputPortMain   = "main"
	OutputPortTrue  = "true"
	OutputPortFalse = "false"
)

// Evaluation modes.
const (
	ModeVisual    = "visual"
	ModeJSONLogic = "jsonlogic"
)

// ConditionNode evaluates a condition list (visual editor) or a JSONLogic
// rule and activates the matching branch. Evaluation errors never fail the
// run; they route to the configured fallback branch.
type ConditionNode struct {
	id     string
	config ConditionConfig

	evaluator *conditions.Evaluator
}

// ConditionConfig defines the configuration for condition nodes.
type ConditionConfig struct {
	Mode           string               `json:"mode"`
	Conditions     []models.Condition   `json:"conditions,omitempty"`
	Logic          models.LogicOperator `json:"logic"`
	Rule           any                  `json:"rule,omitempty"`
	FallbackOutput bool                 `json:"fallback_output"`
}

func NewConditionNode(id string, config map[string]any, clock clockwork.Clock) (*ConditionNode, error) {
	conditionConfig := ConditionConfig{
		Mode:  ModeVisual,
		Logic: models.LogicAnd,
	}

	if mode, ok := config["mode"].(string); ok && mode != "" {
		conditionConfig.Mode = mode
	}

	if logic, ok := config["logic"].(string); ok && logic != "" {
		conditionConfig.Logic = models.LogicOperator(logic)
	}

	if rawConditions, ok := config["conditions"]; ok {
		encoded, err := json.Marshal(rawConditions)
		if err != nil {
			return nil, fmt.Errorf("invalid conditions: %w", err)
		}

		if err := json.Unmarshal(encoded, &conditionConfig.Conditions); err != nil {
			return nil, fmt.Errorf("invalid conditions: %w", err)
		}
	}

	conditionConfig.Rule = config["rule"]

	if fallback, ok := config["fallback_output"].(string); ok && fallback != "" {
		parsed, err := conditions.ParseBoolOutput(fallback)
		if err != nil {
			return nil, err
		}

		conditionConfig.FallbackOutput = parsed
	}

	node := &ConditionNode{
		id:        id,
		config:    conditionConfig,
		evaluator: conditions.NewEvaluatorWithClock(clock),
	}

	if err := node.Validate(config); err != nil {
		return nil, err
	}

	return node, nil
}

func (n *ConditionNode) ID() string {
	return n.id
}

func (n *ConditionNode) Type() string {
	return models.NodeTypeCondition
}

func (n *ConditionNode) Execute(_ context.Context, ectx *models.ExecutionContext, _ map[string]models.NodeResult) (map[string]models.NodeResult, error) {
	record := buildRecord(ectx)

	outcome, err := n.evaluate(record)
	if err != nil {
		return n.branchResult(n.config.FallbackOutput, map[string]any{
			"result":         n.config.FallbackOutput,
			"evaluation_err": err.Error(),
		}), nil
	}

	return n.branchResult(outcome, map[string]any{"result": outcome}), nil
}

func (n *ConditionNode) evaluate(record map[string]any) (bool, error) {
	if n.config.Mode == ModeJSONLogic {
		value, err := conditions.ApplyJSONLogic(n.config.Rule, record)
		if err != nil {
			return false, err
		}

		return conditions.Truthy(value), nil
	}

	return n.evaluator.EvaluateList(n.config.Conditions, n.config.Logic, record)
}

// buildRecord flattens the customer record and nests the trigger and ai
// namespaces for dotted field paths like "trigger.text".
func buildRecord(ectx *models.ExecutionContext) map[string]any {
	record := make(map[string]any, len(ectx.Customer)+2)
	for k, v := range ectx.Customer {
		record[k] = v
	}

	record["trigger"] = ectx.TriggerData
	record["ai"] = ectx.AI

	return record
}

func (n *ConditionNode) branchResult(outcome bool, data map[string]any) map[string]models.NodeResult {
	port := OutputPortFalse
	if outcome {
		port = OutputPortTrue
	}

	return map[string]models.NodeResult{
		port: {
			NodeID:    n.id,
			Data:      data,
			Status:    string(models.NodeStatusSuccess),
			Timestamp: time.Now().UTC(),
		},
	}
}

func (n *ConditionNode) InputPorts() []models.InputPort {
	return []models.InputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, InputPortMain),
				NodeID:      n.id,
				Name:        InputPortMain,
				Description: "Main input for triggering the evaluation",
			},
		},
	}
}

func (n *ConditionNode) OutputPorts() []models.OutputPort {
	return []models.OutputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortTrue),
				NodeID:      n.id,
				Name:        OutputPortTrue,
				Description: "Activated when the conditions evaluate to true",
			},
		},
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortFalse),
				NodeID:      n.id,
				Name:        OutputPortFalse,
				Description: "Activated when the conditions evaluate to false",
			},
		},
	}
}

// Validate validates the node configuration.
func (n *ConditionNode) Validate(config map[string]any) error {
	mode, _ := config["mode"].(string)

	switch mode {
	case "", ModeVisual:
		if logic, ok := config["logic"].(string); ok && logic != "" {
			if logic != string(models.LogicAnd) && logic != string(models.LogicOr) {
				return fmt.Errorf("invalid logic operator: %s", logic)
			}
		}
	case ModeJSONLogic:
		if _, ok := config["rule"]; !ok {
			return fmt.Errorf("jsonlogic mode requires a 'rule'")
		}
	default:
		return fmt.Errorf("invalid condition mode: %s", mode)
	}

	if fallback, ok := config["fallback_output"].(string); ok && fallback != "" {
		if _, err := strconv.ParseBool(fallback); err != nil {
			return fmt.Errorf("fallback_output must be 'true' or 'false', got %q", fallback)
		}
	}

	return nil
}
