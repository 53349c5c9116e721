package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/relaycrm/relay/pkg/eventbus"
	"github.com/relaycrm/relay/pkg/events"
	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence"
)

const defaultReloadInterval = time.Minute

// Scheduler fires campaign workflows on their cron schedules. A trigger node
// opts in by carrying a "schedule" cron expression in its config; the
// schedule is ignored at message-matching time.
type Scheduler struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	interval    time.Duration

	mu   sync.Mutex
	cron *cron.Cron
}

func NewScheduler(logger *slog.Logger, persist persistence.Persistence, publisher eventbus.EventPublisher) *Scheduler {
	return &Scheduler{
		logger:      logger.With("module", "relay-scheduler"),
		persistence: persist,
		publisher:   publisher,
		interval:    defaultReloadInterval,
	}
}

// Start loads the schedules and keeps them in sync with the workflow
// repository until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.Reload(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.Reload(ctx); err != nil {
				s.logger.ErrorContext(ctx, "Failed to reload schedules", "error", err)
			}
		case <-ctx.Done():
			s.stop()

			return nil
		}
	}
}

// Reload rebuilds the cron table from the active workflows. Returns the
// number of scheduled entries.
func (s *Scheduler) Reload(ctx context.Context) (int, error) {
	workflows, err := s.persistence.WorkflowRepository().ListByStatus(ctx, models.WorkflowStatusActive)
	if err != nil {
		return 0, err
	}

	table := cron.New()
	count := 0

	for _, wf := range workflows {
		for _, node := range wf.TriggerNodes() {
			expr := scheduleFromNode(node)
			if expr == "" {
				continue
			}

			workflowID, nodeID := wf.ID, node.ID

			if _, err := table.AddFunc(expr, func() {
				s.trigger(context.Background(), workflowID, nodeID)
			}); err != nil {
				s.logger.Warn("Skipping invalid schedule",
					"workflow_id", workflowID,
					"node_id", nodeID,
					"schedule", expr,
					"error", err)

				continue
			}

			count++
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		s.cron.Stop()
	}

	s.cron = table
	s.cron.Start()

	s.logger.InfoContext(ctx, "Schedules loaded", "entries", count)

	return count, nil
}

// Entries reports the number of loaded cron entries.
func (s *Scheduler) Entries() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return 0
	}

	return len(s.cron.Entries())
}

func (s *Scheduler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) trigger(ctx context.Context, workflowID, nodeID string) {
	event := events.WorkflowTriggered{
		BaseEvent:     events.NewBaseEvent(events.WorkflowTriggeredEvent, workflowID),
		TriggerNodeID: nodeID,
		TriggerData: map[string]any{
			"source":       "schedule",
			"scheduled_at": time.Now().UTC().Format(time.RFC3339),
		},
	}

	if err := s.publisher.Publish(ctx, workflowID, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish scheduled trigger",
			"workflow_id", workflowID,
			"error", err)

		return
	}

	s.logger.InfoContext(ctx, "Scheduled workflow triggered", "workflow_id", workflowID, "node_id", nodeID)
}

func scheduleFromNode(node *models.WorkflowNode) string {
	expr, _ := node.Config["schedule"].(string)

	return expr
}
