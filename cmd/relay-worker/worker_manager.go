package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel/trace"

	"github.com/relaycrm/relay/pkg/eventbus"
	"github.com/relaycrm/relay/pkg/events"
	"github.com/relaycrm/relay/pkg/persistence"
	"github.com/relaycrm/relay/pkg/registry"
	"github.com/relaycrm/relay/pkg/workflow"
)

// WorkerManager consumes workflow trigger events from the bus and runs the
// graph executor for each one.
type WorkerManager struct {
	id          string
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	tracer      trace.Tracer
}

func NewWorkerManager(
	id string,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	registry *registry.Registry,
	tracer trace.Tracer,
) *WorkerManager {
	return &WorkerManager{
		id:          id,
		logger:      logger.With("module", "relay-worker", "worker_id", id),
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		tracer:      tracer,
	}
}

func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager")

	if err := w.eventBus.Handle(events.WorkflowTriggeredEvent, w.handleWorkflowTriggered); err != nil {
		return err
	}

	if err := w.eventBus.Subscribe(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	w.logger.InfoContext(ctx, "Shutting down worker...")

	return nil
}

func (w *WorkerManager) handleWorkflowTriggered(ctx context.Context, event any) error {
	triggeredEvent, ok := event.(*events.WorkflowTriggered)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for WorkflowTriggered")

		return nil
	}

	logger := w.logger.With(
		"workflow_id", triggeredEvent.WorkflowID,
		"trigger_node_id", triggeredEvent.TriggerNodeID,
		"event_id", triggeredEvent.ID,
	)
	logger.InfoContext(ctx, "Processing workflow triggered event")

	executor := workflow.NewExecutor(logger, w.persistence, w.registry, w.eventBus, w.tracer)

	ectx, err := executor.Execute(ctx, workflow.Request{
		WorkflowID:    triggeredEvent.WorkflowID,
		TriggerNodeID: triggeredEvent.TriggerNodeID,
		TriggerData:   triggeredEvent.TriggerData,
		Customer:      triggeredEvent.Customer,
	})
	if err != nil {
		// The executor already published the failure event; the message is
		// acked so a broken workflow does not loop forever.
		logger.ErrorContext(ctx, "Workflow execution failed", "error", err)

		return nil
	}

	logger.InfoContext(ctx, "Workflow execution completed", "execution_id", ectx.ID)

	return nil
}
