// Package registry holds the node factories available to workflow
// definitions and validates node configuration against factory schemas.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/relaycrm/relay/pkg/protocol"
)

type Registry struct {
	logger        *slog.Logger
	nodeFactories map[string]protocol.NodeFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:        logger,
		nodeFactories: make(map[string]protocol.NodeFactory),
	}
}

func (r *Registry) RegisterNode(factory protocol.NodeFactory) {
	r.nodeFactories[factory.ID()] = factory

	r.logger.Debug("Registered node factory", "node_type", factory.ID())
}

// CreateNode validates config against the factory schema and builds the node.
func (r *Registry) CreateNode(ctx context.Context, nodeType, id string, config map[string]any) (protocol.Node, error) {
	factory, ok := r.nodeFactories[nodeType]
	if !ok {
		return nil, fmt.Errorf("node type '%s' not registered", nodeType)
	}

	if err := r.validateConfig(factory, config); err != nil {
		return nil, fmt.Errorf("invalid configuration for node type '%s': %w", nodeType, err)
	}

	return factory.Create(ctx, id, config)
}

// AvailableNodes returns the registered factories sorted by ID, for the
// editor's node palette.
func (r *Registry) AvailableNodes() []protocol.NodeFactory {
	factories := make([]protocol.NodeFactory, 0, len(r.nodeFactories))
	for _, factory := range r.nodeFactories {
		factories = append(factories, factory)
	}

	sort.Slice(factories, func(i, j int) bool {
		return factories[i].ID() < factories[j].ID()
	})

	return factories
}

func (r *Registry) IsRegistered(nodeType string) bool {
	_, ok := r.nodeFactories[nodeType]

	return ok
}

func (r *Registry) validateConfig(factory protocol.NodeFactory, config map[string]any) error {
	schema := factory.Schema()
	if schema == nil {
		return nil
	}

	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, validationErr := range result.Errors() {
			messages = append(messages, validationErr.String())
		}

		return fmt.Errorf("configuration errors: %s", strings.Join(messages, "; "))
	}

	return nil
}
