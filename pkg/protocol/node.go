// Package protocol defines the interfaces and contracts for pluggable
// workflow nodes.
package protocol

import (
	"context"

	"github.com/relaycrm/relay/pkg/models"
)

// Node is one executable step of a workflow graph. Execute returns results
// keyed by output port name; the executor follows connections from every
// activated port.
type Node interface {
	// ID returns the node instance ID
	ID() string

	// Type returns the node type identifier
	Type() string

	// Execute runs the node against the execution context and inputs keyed
	// by input port name
	Execute(ctx context.Context, ectx *models.ExecutionContext, inputs map[string]models.NodeResult) (map[string]models.NodeResult, error)

	// InputPorts returns the declared input ports
	InputPorts() []models.InputPort

	// OutputPorts returns the declared output ports
	OutputPorts() []models.OutputPort
}

// NodeFactory creates node instances and provides metadata about the node type.
type NodeFactory interface {
	// Create creates a new node instance with the given configuration
	Create(ctx context.Context, id string, config map[string]any) (Node, error)

	// ID returns the unique identifier for this node type
	ID() string

	// Name returns the human-readable name for this node type
	Name() string

	// Description returns a description of what this node does
	Description() string

	// Schema returns the JSON schema for configuring this node
	Schema() map[string]any
}
