// Package delay provides the node that pauses a workflow run, either for a
// configured duration or until an absolute time.
package delay

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/template"
)

const (
	InputPortMain  = "main"
	OutputPortDone = "done"
)

const (
	ModeDuration = "duration"
	ModeUntil    = "until"
)

const maxDelay = 24 * time.Hour

// DelayNode blocks the run until its resume point, honoring context
// cancellation.
type DelayNode struct {
	id     string
	config DelayConfig
	clock  clockwork.Clock
}

// DelayConfig defines the configuration for delay nodes. Duration accepts
// Go duration syntax ("90s", "2h") or a bare number of seconds; Until is an
// RFC3339 time, template-resolved before parsing.
type DelayConfig struct {
	Mode     string `json:"mode"`
	Duration string `json:"duration"`
	Until    string `json:"until"`
}

func NewDelayNode(id string, config map[string]any, clock clockwork.Clock) (*DelayNode, error) {
	delayConfig, err := parseConfig(config)
	if err != nil {
		return nil, err
	}

	return &DelayNode{id: id, config: delayConfig, clock: clock}, nil
}

func parseConfig(config map[string]any) (DelayConfig, error) {
	cfg := DelayConfig{Mode: ModeDuration}

	if mode, ok := config["mode"].(string); ok && mode != "" {
		cfg.Mode = mode
	}

	switch v := config["duration"].(type) {
	case string:
		cfg.Duration = v
	case float64:
		cfg.Duration = strconv.FormatFloat(v, 'f', -1, 64)
	}

	if until, ok := config["until"].(string); ok {
		cfg.Until = until
	}

	switch cfg.Mode {
	case ModeDuration:
		if cfg.Duration == "" {
			return cfg, errors.New("duration mode requires 'duration'")
		}

		duration, err := parseDuration(cfg.Duration)
		if err != nil {
			return cfg, err
		}

		if duration < 0 {
			return cfg, errors.New("duration must not be negative")
		}

		if duration > maxDelay {
			return cfg, errors.New("delay must not exceed 24 hours")
		}
	case ModeUntil:
		if cfg.Until == "" {
			return cfg, errors.New("until mode requires 'until'")
		}
	default:
		return cfg, fmt.Errorf("unknown delay mode %q", cfg.Mode)
	}

	return cfg, nil
}

func parseDuration(value string) (time.Duration, error) {
	if seconds, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
		return time.Duration(seconds * float64(time.Second)), nil
	}

	duration, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("duration %q is neither seconds nor Go duration syntax: %w", value, err)
	}

	return duration, nil
}

func (n *DelayNode) ID() string {
	return n.id
}

func (n *DelayNode) Type() string {
	return models.NodeTypeDelay
}

func (n *DelayNode) Execute(ctx context.Context, ectx *models.ExecutionContext, _ map[string]models.NodeResult) (map[string]models.NodeResult, error) {
	duration, err := n.waitFor(ectx)
	if err != nil {
		return nil, err
	}

	if duration > 0 {
		timer := n.clock.NewTimer(duration)
		defer timer.Stop()

		select {
		case <-timer.Chan():
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return map[string]models.NodeResult{
		OutputPortDone: {
			NodeID: n.id,
			Data: map[string]any{
				"resumed_at":      n.clock.Now().UTC().Format(time.RFC3339),
				"delayed_seconds": duration.Seconds(),
			},
			Status:    string(models.NodeStatusSuccess),
			Timestamp: time.Now().UTC(),
		},
	}, nil
}

// waitFor computes the remaining wait. An until time in the past resumes
// immediately.
func (n *DelayNode) waitFor(ectx *models.ExecutionContext) (time.Duration, error) {
	if n.config.Mode == ModeUntil {
		rendered, err := template.RenderString(n.config.Until, template.FromExecution(ectx), template.FailClosed)
		if err != nil {
			return 0, err
		}

		until, err := time.Parse(time.RFC3339, strings.TrimSpace(rendered))
		if err != nil {
			return 0, fmt.Errorf("until %q is not an RFC3339 time: %w", rendered, err)
		}

		wait := until.Sub(n.clock.Now())
		if wait < 0 {
			return 0, nil
		}

		return wait, nil
	}

	return parseDuration(n.config.Duration)
}

func (n *DelayNode) InputPorts() []models.InputPort {
	return []models.InputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, InputPortMain),
				NodeID:      n.id,
				Name:        InputPortMain,
				Description: "Main input for starting the delay",
			},
		},
	}
}

func (n *DelayNode) OutputPorts() []models.OutputPort {
	return []models.OutputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortDone),
				NodeID:      n.id,
				Name:        OutputPortDone,
				Description: "Activated once the resume point is reached",
			},
		},
	}
}

// Validate validates the node configuration.
func (n *DelayNode) Validate(config map[string]any) error {
	_, err := parseConfig(config)

	return err
}
