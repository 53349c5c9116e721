// Package guardrail provides the node that validates generated text against
// content rules before it reaches the customer.
package guardrail

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/template"
)

const (
	InputPortMain  = "main"
	OutputPortPass = "pass"
	OutputPortFail = "fail"
)

// Rule types.
const (
	RuleBannedPhrase = "banned_phrase"
	RuleMaxLength    = "max_length"
	RuleMustContain  = "must_contain"
	RuleRegex        = "regex"
)

const defaultTarget = "{{ai.reply}}"

// GuardrailNode checks a rendered target string against an ordered rule
// list. All rules are evaluated so the fail output carries every violation,
// not just the first.
type GuardrailNode struct {
	id     string
	config GuardrailConfig

	patterns map[int]*regexp.Regexp
}

// GuardrailConfig defines the configuration for guardrail nodes.
type GuardrailConfig struct {
	Target string          `json:"target"`
	Rules  []GuardrailRule `json:"rules"`
}

// GuardrailRule is one content rule.
type GuardrailRule struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func NewGuardrailNode(id string, config map[string]any) (*GuardrailNode, error) {
	guardrailConfig := GuardrailConfig{Target: defaultTarget}

	if target, ok := config["target"].(string); ok && target != "" {
		guardrailConfig.Target = target
	}

	if rules, ok := config["rules"].([]any); ok {
		for _, raw := range rules {
			rule, ok := raw.(map[string]any)
			if !ok {
				continue
			}

			ruleType, _ := rule["type"].(string)
			value := stringValue(rule["value"])

			guardrailConfig.Rules = append(guardrailConfig.Rules, GuardrailRule{Type: ruleType, Value: value})
		}
	}

	node := &GuardrailNode{id: id, config: guardrailConfig, patterns: make(map[int]*regexp.Regexp)}

	if err := node.Validate(config); err != nil {
		return nil, err
	}

	for i, rule := range guardrailConfig.Rules {
		if rule.Type == RuleRegex {
			node.patterns[i] = regexp.MustCompile(rule.Value)
		}
	}

	return node, nil
}

func stringValue(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}

		return fmt.Sprintf("%v", v)
	default:
		return ""
	}
}

func (n *GuardrailNode) ID() string {
	return n.id
}

func (n *GuardrailNode) Type() string {
	return models.NodeTypeGuardrail
}

func (n *GuardrailNode) Execute(_ context.Context, ectx *models.ExecutionContext, _ map[string]models.NodeResult) (map[string]models.NodeResult, error) {
	text, err := template.RenderString(n.config.Target, template.FromExecution(ectx), template.FailOpen)
	if err != nil {
		text = n.config.Target
	}

	violations := n.check(text)

	port := OutputPortPass

	data := map[string]any{
		"text":   text,
		"passed": len(violations) == 0,
	}

	if len(violations) > 0 {
		port = OutputPortFail
		data["violations"] = violations
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

func (n *GuardrailNode) check(text string) []string {
	var violations []string

	lower := strings.ToLower(text)

	for i, rule := range n.config.Rules {
		switch rule.Type {
		case RuleBannedPhrase:
			if strings.Contains(lower, strings.ToLower(rule.Value)) {
				violations = append(violations, fmt.Sprintf("contains banned phrase %q", rule.Value))
			}
		case RuleMaxLength:
			limit := maxLength(rule.Value)
			if len([]rune(text)) > limit {
				violations = append(violations, fmt.Sprintf("exceeds maximum length of %d characters", limit))
			}
		case RuleMustContain:
			if !strings.Contains(lower, strings.ToLower(rule.Value)) {
				violations = append(violations, fmt.Sprintf("missing required phrase %q", rule.Value))
			}
		case RuleRegex:
			if n.patterns[i].MatchString(text) {
				violations = append(violations, fmt.Sprintf("matches forbidden pattern %q", rule.Value))
			}
		}
	}

	return violations
}

func maxLength(value string) int {
	var limit int

	_, _ = fmt.Sscanf(value, "%d", &limit)

	return limit
}

func (n *GuardrailNode) InputPorts() []models.InputPort {
	return []models.InputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, InputPortMain),
				NodeID:      n.id,
				Name:        InputPortMain,
				Description: "Main input for validating the target text",
			},
		},
	}
}

func (n *GuardrailNode) OutputPorts() []models.OutputPort {
	return []models.OutputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortPass),
				NodeID:      n.id,
				Name:        OutputPortPass,
				Description: "Text passed every rule",
			},
		},
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortFail),
				NodeID:      n.id,
				Name:        OutputPortFail,
				Description: "Text violated at least one rule",
			},
		},
	}
}

// Validate validates the node configuration.
func (n *GuardrailNode) Validate(config map[string]any) error {
	rules, ok := config["rules"].([]any)
	if !ok || len(rules) == 0 {
		return errors.New("at least one rule is required")
	}

	for i, raw := range rules {
		rule, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("rule %d must be an object", i)
		}

		ruleType, _ := rule["type"].(string)

		switch ruleType {
		case RuleBannedPhrase, RuleMustContain:
			if stringValue(rule["value"]) == "" {
				return fmt.Errorf("rule %d: 'value' is required for %s rules", i, ruleType)
			}
		case RuleMaxLength:
			if maxLength(stringValue(rule["value"])) <= 0 {
				return fmt.Errorf("rule %d: max_length value must be a positive number", i)
			}
		case RuleRegex:
			if _, err := regexp.Compile(stringValue(rule["value"])); err != nil {
				return fmt.Errorf("rule %d: invalid regex pattern: %w", i, err)
			}
		default:
			return fmt.Errorf("rule %d: unknown rule type %q", i, ruleType)
		}
	}

	return nil
}
