package delay

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/protocol"
)

// DelayNodeFactory creates DelayNode instances sharing one clock.
type DelayNodeFactory struct {
	clock clockwork.Clock
}

func NewDelayNodeFactory(clock clockwork.Clock) protocol.NodeFactory {
	return &DelayNodeFactory{clock: clock}
}

func (f *DelayNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewDelayNode(id, config, f.clock)
}

func (f *DelayNodeFactory) ID() string {
	return models.NodeTypeDelay
}

func (f *DelayNodeFactory) Name() string {
	return "Delay"
}

func (f *DelayNodeFactory) Description() string {
	return "Pauses the workflow run for a duration or until an absolute time"
}

func (f *DelayNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"mode": map[string]any{
				"type":        "string",
				"enum":        []any{"duration", "until"},
				"default":     "duration",
				"description": "Wait for a fixed duration or until an absolute time",
			},
			"duration": map[string]any{
				"type":        []any{"string", "number"},
				"description": "Wait length as seconds or Go duration syntax, e.g. 90 or \"2h30m\"",
			},
			"until": map[string]any{
				"type":        "string",
				"description": "RFC3339 resume time, template tokens resolved at run time",
			},
		},
	}
}
