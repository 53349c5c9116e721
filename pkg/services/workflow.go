package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/relaycrm/relay/pkg/eventbus"
	"github.com/relaycrm/relay/pkg/events"
	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence"
	"github.com/relaycrm/relay/pkg/registry"
)

// ErrWorkflowNotFound is returned when a workflow is not found.
var ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

// Workflow manages workflow definitions and their lifecycle. Activation
// validates the node graph so only executable workflows match inbound
// messages.
type Workflow struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	publisher   eventbus.EventPublisher
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persist persistence.Persistence, reg *registry.Registry, publisher eventbus.EventPublisher) *Workflow {
	return &Workflow{
		persistence: persist,
		registry:    reg,
		publisher:   publisher,
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := w.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List retrieves all workflows, newest first.
func (w *Workflow) List(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := w.persistence.WorkflowRepository().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// ListActive retrieves the workflows participating in trigger matching.
func (w *Workflow) ListActive(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := w.persistence.WorkflowRepository().ListByStatus(ctx, models.WorkflowStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active workflows: %w", err)
	}

	return workflows, nil
}

// FetchByID retrieves a workflow by its ID.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	return w.persistence.WorkflowRepository().GetByID(ctx, id)
}

// Create adds a new workflow to the repository.
func (w *Workflow) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	if workflow.Name == "" {
		return nil, ErrWorkflowNameRequired
	}

	now := time.Now().UTC()
	workflow.ID = uuid.New().String()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	if workflow.Status == "" {
		workflow.Status = models.WorkflowStatusDraft
	}

	if err := w.validateGraph(workflow, false); err != nil {
		return nil, err
	}

	if err := w.persistence.WorkflowRepository().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return workflow, nil
}

// Update modifies an existing workflow by its ID.
func (w *Workflow) Update(ctx context.Context, workflowID string, workflow *models.Workflow) (*models.Workflow, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	existing, err := w.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	workflow.ID = workflowID
	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = time.Now().UTC()

	if workflow.Status == "" {
		workflow.Status = existing.Status
	}

	if err := w.validateGraph(workflow, workflow.Status == models.WorkflowStatusActive); err != nil {
		return nil, err
	}

	if err := w.persistence.WorkflowRepository().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return workflow, nil
}

// Delete removes a workflow by its ID.
func (w *Workflow) Delete(ctx context.Context, workflowID string) error {
	if _, err := w.persistence.WorkflowRepository().GetByID(ctx, workflowID); err != nil {
		return err
	}

	if err := w.persistence.WorkflowRepository().Delete(ctx, workflowID); err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	return nil
}

// Activate validates the workflow graph and marks it active so inbound
// messages start matching its triggers.
func (w *Workflow) Activate(ctx context.Context, workflowID string) (*models.Workflow, error) {
	workflow, err := w.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if err := w.validateGraph(workflow, true); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCannotActivateWorkflow, err)
	}

	workflow.Status = models.WorkflowStatusActive
	workflow.UpdatedAt = time.Now().UTC()

	if err := w.persistence.WorkflowRepository().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to activate workflow: %w", err)
	}

	return workflow, nil
}

// Deactivate marks the workflow inactive, keeping it for history.
func (w *Workflow) Deactivate(ctx context.Context, workflowID string) (*models.Workflow, error) {
	workflow, err := w.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	workflow.Status = models.WorkflowStatusInactive
	workflow.UpdatedAt = time.Now().UTC()

	if err := w.persistence.WorkflowRepository().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to deactivate workflow: %w", err)
	}

	return workflow, nil
}

// Execute publishes a trigger event for a manual workflow run. The worker
// picks it up and runs the graph.
func (w *Workflow) Execute(ctx context.Context, workflowID string, triggerData map[string]any, customer *models.Customer) error {
	workflow, err := w.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return err
	}

	triggers := workflow.TriggerNodes()
	if len(triggers) == 0 {
		return ErrTriggerNodeRequired
	}

	event := events.WorkflowTriggered{
		BaseEvent:     events.NewBaseEvent(events.WorkflowTriggeredEvent, workflow.ID),
		TriggerNodeID: triggers[0].ID,
		TriggerData:   triggerData,
		Customer:      customer,
	}

	if err := w.publisher.Publish(ctx, workflow.ID, event); err != nil {
		return fmt.Errorf("failed to publish trigger event: %w", err)
	}

	return nil
}

// validateGraph checks structural integrity of the node graph. Strict mode
// additionally requires the graph to be executable (used on activation);
// drafts may be saved half-built.
func (w *Workflow) validateGraph(workflow *models.Workflow, strict bool) error {
	nodeMap := make(map[string]bool, len(workflow.Nodes))

	for _, node := range workflow.Nodes {
		if node.ID == "" {
			return NewValidationError("validateGraph", "EMPTY_NODE_ID", "found node with empty ID", ErrInvalidRequest)
		}

		if node.Type == "" {
			return NewValidationError("validateGraph", "EMPTY_NODE_TYPE",
				fmt.Sprintf("node %s has no type specified", node.ID), ErrInvalidRequest)
		}

		if w.registry != nil && !w.registry.IsRegistered(node.Type) {
			return NewValidationError("validateGraph", "UNKNOWN_NODE_TYPE",
				fmt.Sprintf("node %s has unknown type %q", node.ID, node.Type), ErrUnknownNodeType)
		}

		nodeMap[node.ID] = true
	}

	for _, conn := range workflow.Connections {
		sourceNodeID, _, sourceOK := models.ParsePortID(conn.SourcePort)
		if !sourceOK {
			return NewValidationError("validateGraph", "INVALID_SOURCE_PORT",
				fmt.Sprintf("connection has invalid source port ID format: %s", conn.SourcePort), ErrInvalidConnectionData)
		}

		targetNodeID, _, targetOK := models.ParsePortID(conn.TargetPort)
		if !targetOK {
			return NewValidationError("validateGraph", "INVALID_TARGET_PORT",
				fmt.Sprintf("connection has invalid target port ID format: %s", conn.TargetPort), ErrInvalidConnectionData)
		}

		if !nodeMap[sourceNodeID] {
			return NewValidationError("validateGraph", "UNKNOWN_SOURCE_NODE",
				fmt.Sprintf("connection references non-existent source node: %s", sourceNodeID), ErrInvalidConnectionData)
		}

		if !nodeMap[targetNodeID] {
			return NewValidationError("validateGraph", "UNKNOWN_TARGET_NODE",
				fmt.Sprintf("connection references non-existent target node: %s", targetNodeID), ErrInvalidConnectionData)
		}
	}

	if !strict {
		return nil
	}

	if len(workflow.Nodes) == 0 {
		return ErrNodesRequired
	}

	if len(workflow.TriggerNodes()) == 0 {
		return ErrTriggerNodeRequired
	}

	return nil
}
