// Package workflow runs node graphs: it walks connections from a trigger
// node, executes each activated node and publishes lifecycle events.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/relaycrm/relay/pkg/eventbus"
	"github.com/relaycrm/relay/pkg/events"
	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/otelhelper"
	"github.com/relaycrm/relay/pkg/persistence"
	"github.com/relaycrm/relay/pkg/registry"
)

// maxSteps bounds one execution so a cyclic graph cannot spin forever.
const maxSteps = 256

// Request describes one workflow run.
type Request struct {
	WorkflowID    string
	TriggerNodeID string // Empty means the first enabled trigger node
	TriggerData   map[string]any
	Customer      *models.Customer
}

type Executor struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	publisher   eventbus.EventPublisher
	tracer      trace.Tracer
}

func NewExecutor(logger *slog.Logger, persist persistence.Persistence, reg *registry.Registry, publisher eventbus.EventPublisher, tracer trace.Tracer) *Executor {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("workflow-executor")
	}

	return &Executor{
		logger:      logger.With("module", "workflow_executor"),
		persistence: persist,
		registry:    reg,
		publisher:   publisher,
		tracer:      tracer,
	}
}

// queueItem is one node awaiting execution with its accumulated inputs.
type queueItem struct {
	nodeID string
	inputs map[string]models.NodeResult
}

// Execute runs a workflow from its trigger node and returns the final
// execution context. Node failures route through error ports inside the
// graph; Execute itself fails only on structural problems (missing workflow,
// unknown node type, budget exhausted) or context cancellation.
func (e *Executor) Execute(ctx context.Context, req Request) (*models.ExecutionContext, error) {
	started := time.Now()

	wf, err := e.persistence.WorkflowRepository().GetByID(ctx, req.WorkflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow %s: %w", req.WorkflowID, err)
	}

	ectx := e.newExecutionContext(ctx, wf, req)

	logger := e.logger.With(
		"workflow_id", wf.ID,
		"execution_id", ectx.ID,
	)
	logger.Info("Starting workflow execution")

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
		attribute.String(otelhelper.WorkflowIDKey, wf.ID),
		attribute.String(otelhelper.WorkflowNameKey, wf.Name),
		attribute.String(otelhelper.ExecutionIDKey, ectx.ID),
	)
	defer span.End()

	e.publish(ctx, ectx.ID, events.WorkflowExecutionStarted{
		BaseEvent:    events.NewBaseEvent(events.WorkflowExecutionStartedEvent, wf.ID),
		ExecutionID:  ectx.ID,
		WorkflowName: wf.Name,
		TriggerData:  ectx.TriggerData,
	})

	trigger, err := e.resolveTriggerNode(wf, req.TriggerNodeID)
	if err != nil {
		e.failExecution(ctx, ectx, "", err, started, 0)
		otelhelper.SetError(span, err)

		return ectx, err
	}

	queue := []queueItem{{nodeID: trigger.ID}}
	nodesExecuted := 0
	finalResults := make(map[string]any)

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			e.failExecution(ctx, ectx, "", err, started, nodesExecuted)

			return ectx, err
		}

		if nodesExecuted >= maxSteps {
			err := fmt.Errorf("execution exceeded %d steps, aborting", maxSteps)
			e.failExecution(ctx, ectx, "", err, started, nodesExecuted)
			otelhelper.SetError(span, err)

			return ectx, err
		}

		item := queue[0]
		queue = queue[1:]

		node := wf.NodeByID(item.nodeID)
		if node == nil {
			err := fmt.Errorf("node %s not found in workflow %s", item.nodeID, wf.ID)
			e.failExecution(ctx, ectx, item.nodeID, err, started, nodesExecuted)
			otelhelper.SetError(span, err)

			return ectx, err
		}

		if !node.Enabled {
			logger.Debug("Node is disabled, skipping", "node_id", node.ID)

			continue
		}

		results, err := e.executeNode(ctx, wf, node, ectx, item.inputs)
		if err != nil {
			e.failExecution(ctx, ectx, node.ID, err, started, nodesExecuted)
			otelhelper.SetError(span, err)

			return ectx, err
		}

		nodesExecuted++

		for portName, result := range results {
			ectx.RecordResult(node.ID, result)
			e.publishNodeEvents(ctx, ectx, node, result)

			followed := e.followConnections(wf, node.ID, portName, result, &queue)
			if !followed {
				finalResults[models.MakePortID(node.ID, portName)] = result.Data
			}
		}
	}

	e.publish(ctx, ectx.ID, events.WorkflowExecutionCompleted{
		BaseEvent:     events.NewBaseEvent(events.WorkflowExecutionCompletedEvent, wf.ID),
		ExecutionID:   ectx.ID,
		DurationMs:    time.Since(started).Milliseconds(),
		NodesExecuted: nodesExecuted,
		FinalResults:  finalResults,
	})

	logger.Info("Completed workflow execution",
		"nodes_executed", nodesExecuted,
		"duration_ms", time.Since(started).Milliseconds())

	return ectx, nil
}

func (e *Executor) newExecutionContext(ctx context.Context, wf *models.Workflow, req Request) *models.ExecutionContext {
	ectx := models.NewExecutionContext(generateExecutionID(), wf.ID)

	if req.TriggerData != nil {
		ectx.TriggerData = req.TriggerData
	}

	if req.Customer != nil {
		ectx.Customer = req.Customer.Record()
	}

	for name, value := range wf.Variables {
		ectx.Variables[name] = value
	}

	e.loadKnowledge(ctx, ectx)

	return ectx
}

// loadKnowledge stages knowledge-base entries for the kb template namespace.
// A storage failure only degrades templates, it does not block the run.
func (e *Executor) loadKnowledge(ctx context.Context, ectx *models.ExecutionContext) {
	entries, err := e.persistence.KnowledgeRepository().List(ctx)
	if err != nil {
		e.logger.Warn("Failed to load knowledge base entries", "error", err)

		return
	}

	for _, entry := range entries {
		ectx.Knowledge[entry.ID] = entry.Content
	}
}

func (e *Executor) resolveTriggerNode(wf *models.Workflow, triggerNodeID string) (*models.WorkflowNode, error) {
	if triggerNodeID != "" {
		node := wf.NodeByID(triggerNodeID)
		if node == nil || !node.IsTriggerNode() {
			return nil, fmt.Errorf("trigger node %s not found in workflow %s", triggerNodeID, wf.ID)
		}

		return node, nil
	}

	triggers := wf.TriggerNodes()
	if len(triggers) == 0 {
		return nil, fmt.Errorf("workflow %s has no enabled trigger nodes", wf.ID)
	}

	return triggers[0], nil
}

func (e *Executor) executeNode(ctx context.Context, wf *models.Workflow, node *models.WorkflowNode, ectx *models.ExecutionContext, inputs map[string]models.NodeResult) (map[string]models.NodeResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.node",
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.NodeTypeKey, node.Type),
		attribute.String(otelhelper.ExecutionIDKey, ectx.ID),
	)
	defer span.End()

	instance, err := e.registry.CreateNode(ctx, node.Type, node.ID, node.Config)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to create node %s in workflow %s: %w", node.ID, wf.ID, err)
	}

	nodeStarted := time.Now()

	results, err := instance.Execute(ctx, ectx, inputs)
	if err != nil {
		otelhelper.SetError(span, err)
		e.publish(ctx, ectx.ID, events.NodeExecutionFailed{
			BaseEvent:   events.NewBaseEvent(events.NodeExecutionFailedEvent, wf.ID),
			ExecutionID: ectx.ID,
			NodeID:      node.ID,
			Error:       err.Error(),
			Duration:    time.Since(nodeStarted),
		})

		return nil, fmt.Errorf("node %s failed: %w", node.ID, err)
	}

	for portName, result := range results {
		e.publish(ctx, ectx.ID, events.NodeExecutionFinished{
			BaseEvent:   events.NewBaseEvent(events.NodeExecutionFinishedEvent, wf.ID),
			ExecutionID: ectx.ID,
			NodeID:      node.ID,
			OutputData:  result.Data,
			Duration:    time.Since(nodeStarted),
		})

		e.logger.Debug("Node executed",
			"node_id", node.ID,
			"node_type", node.Type,
			"port", portName,
			"status", result.Status)
	}

	return results, nil
}

// followConnections enqueues every node connected to the activated output
// port and reports whether any connection was followed.
func (e *Executor) followConnections(wf *models.Workflow, nodeID, portName string, result models.NodeResult, queue *[]queueItem) bool {
	sourcePort := models.MakePortID(nodeID, portName)
	followed := false

	for _, conn := range wf.Connections {
		if conn.SourcePort != sourcePort {
			continue
		}

		targetNodeID, targetPortName, ok := models.ParsePortID(conn.TargetPort)
		if !ok {
			e.logger.Warn("Connection has malformed target port", "target_port", conn.TargetPort)

			continue
		}

		*queue = append(*queue, queueItem{
			nodeID: targetNodeID,
			inputs: map[string]models.NodeResult{targetPortName: result},
		})

		followed = true
	}

	return followed
}

// publishNodeEvents mirrors domain-significant node outcomes onto the bus so
// the API can stream them to agents.
func (e *Executor) publishNodeEvents(ctx context.Context, ectx *models.ExecutionContext, node *models.WorkflowNode, result models.NodeResult) {
	if result.Status != string(models.NodeStatusSuccess) {
		return
	}

	switch node.Type {
	case models.NodeTypeSendMessage:
		customerID, _ := result.Data["customer_id"].(string)
		channel, _ := result.Data["channel"].(string)
		text, _ := result.Data["text"].(string)

		e.publish(ctx, ectx.ID, events.MessageSent{
			BaseEvent:   events.NewBaseEvent(events.MessageSentEvent, ectx.WorkflowID),
			ExecutionID: ectx.ID,
			NodeID:      node.ID,
			CustomerID:  customerID,
			Channel:     models.Channel(channel),
			Text:        text,
		})
	case models.NodeTypeHandoff:
		customerID, _ := result.Data["customer_id"].(string)
		reason, _ := result.Data["reason"].(string)

		e.publish(ctx, ectx.ID, events.HandoffRequested{
			BaseEvent:   events.NewBaseEvent(events.HandoffRequestedEvent, ectx.WorkflowID),
			ExecutionID: ectx.ID,
			NodeID:      node.ID,
			CustomerID:  customerID,
			Reason:      reason,
		})
	}
}

func (e *Executor) failExecution(ctx context.Context, ectx *models.ExecutionContext, nodeID string, execErr error, started time.Time, nodesExecuted int) {
	e.logger.Error("Workflow execution failed",
		"workflow_id", ectx.WorkflowID,
		"execution_id", ectx.ID,
		"node_id", nodeID,
		"error", execErr)

	e.publish(ctx, ectx.ID, events.WorkflowExecutionFailed{
		BaseEvent:     events.NewBaseEvent(events.WorkflowExecutionFailedEvent, ectx.WorkflowID),
		ExecutionID:   ectx.ID,
		NodeID:        nodeID,
		Error:         execErr.Error(),
		DurationMs:    time.Since(started).Milliseconds(),
		NodesExecuted: nodesExecuted,
	})
}

func (e *Executor) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	if err := e.publisher.Publish(ctx, key, event); err != nil {
		e.logger.Warn("Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func generateExecutionID() string {
	return "exec-" + uuid.New().String()[:8]
}
