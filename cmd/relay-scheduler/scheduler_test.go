package main

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaycrm/relay/pkg/eventbus"
	"github.com/relaycrm/relay/pkg/events"
	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence"
	"github.com/relaycrm/relay/pkg/persistence/file"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *capturePublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return nil
}

func saveScheduledWorkflow(t *testing.T, persist persistence.Persistence, id, schedule string, status models.WorkflowStatus) {
	t.Helper()

	config := map[string]any{}
	if schedule != "" {
		config["schedule"] = schedule
	}

	err := persist.WorkflowRepository().Save(context.Background(), &models.Workflow{
		ID:     id,
		Name:   "Campaign " + id,
		Status: status,
		Nodes: []*models.WorkflowNode{
			{
				ID:       "trigger-1",
				Type:     models.NodeTypeMessageTrigger,
				Category: models.CategoryTypeTrigger,
				Config:   config,
				Name:     "Campaign trigger",
				Enabled:  true,
			},
		},
	})
	require.NoError(t, err)
}

func TestSchedulerReload(t *testing.T) {
	persist := file.NewPersistence(t.TempDir())
	publisher := &capturePublisher{}
	scheduler := NewScheduler(slog.Default(), persist, publisher)

	saveScheduledWorkflow(t, persist, "wf-hourly", "0 * * * *", models.WorkflowStatusActive)
	saveScheduledWorkflow(t, persist, "wf-daily", "30 9 * * *", models.WorkflowStatusActive)
	saveScheduledWorkflow(t, persist, "wf-unscheduled", "", models.WorkflowStatusActive)
	saveScheduledWorkflow(t, persist, "wf-draft", "0 * * * *", models.WorkflowStatusDraft)

	count, err := scheduler.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count, "only active workflows with a schedule are loaded")
	assert.Equal(t, 2, scheduler.Entries())

	scheduler.stop()
}

func TestSchedulerReload_InvalidScheduleSkipped(t *testing.T) {
	persist := file.NewPersistence(t.TempDir())
	scheduler := NewScheduler(slog.Default(), persist, &capturePublisher{})

	saveScheduledWorkflow(t, persist, "wf-bad", "not a cron expr", models.WorkflowStatusActive)
	saveScheduledWorkflow(t, persist, "wf-good", "*/5 * * * *", models.WorkflowStatusActive)

	count, err := scheduler.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	scheduler.stop()
}

func TestSchedulerTrigger_PublishesEvent(t *testing.T) {
	persist := file.NewPersistence(t.TempDir())
	publisher := &capturePublisher{}
	scheduler := NewScheduler(slog.Default(), persist, publisher)

	scheduler.trigger(context.Background(), "wf-1", "trigger-1")

	require.Len(t, publisher.events, 1)

	event, ok := publisher.events[0].(events.WorkflowTriggered)
	require.True(t, ok)
	assert.Equal(t, "wf-1", event.WorkflowID)
	assert.Equal(t, "trigger-1", event.TriggerNodeID)
	assert.Equal(t, "schedule", event.TriggerData["source"])
}
