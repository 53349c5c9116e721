package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaycrm/relay/pkg/events"
	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/nodes/messagetrigger"
	"github.com/relaycrm/relay/pkg/nodes/templatenode"
	"github.com/relaycrm/relay/pkg/persistence/file"
	"github.com/relaycrm/relay/pkg/registry"
	"github.com/relaycrm/relay/pkg/sessions"
)

func newIntakeFixture(t *testing.T) (*Intake, *Workflow, *sessions.Store, *capturePublisher) {
	t.Helper()

	persist := file.NewPersistence(t.TempDir())

	reg := registry.NewRegistry(slog.Default())
	reg.RegisterNode(messagetrigger.NewMessageTriggerNodeFactory())
	reg.RegisterNode(templatenode.NewTemplateNodeFactory())

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := sessions.NewStore(client, time.Hour)
	publisher := &capturePublisher{}

	workflows := NewWorkflow(persist, reg, publisher)
	customers := NewCustomer(persist)
	intake := NewIntake(slog.Default(), customers, workflows, store, publisher)

	return intake, workflows, store, publisher
}

func activateKeywordWorkflow(t *testing.T, workflows *Workflow, keywords ...any) *models.Workflow {
	t.Helper()

	wf := validWorkflow()
	wf.Nodes[0].Config = map[string]any{"match": "keyword", "keywords": keywords}

	created, err := workflows.Create(context.Background(), wf)
	require.NoError(t, err)

	activated, err := workflows.Activate(context.Background(), created.ID)
	require.NoError(t, err)

	return activated
}

func TestHandleInbound_TriggersMatchingWorkflow(t *testing.T) {
	intake, workflows, _, publisher := newIntakeFixture(t)

	wf := activateKeywordWorkflow(t, workflows, "price")

	result, err := intake.HandleInbound(context.Background(), InboundRequest{
		Channel: models.ChannelWhatsApp,
		From:    "+5511999990001",
		Name:    "Ana",
		Text:    "what is the price?",
	})
	require.NoError(t, err)

	assert.True(t, result.Automated)
	assert.Equal(t, []string{wf.ID}, result.Triggered)
	assert.Equal(t, "Ana", result.Inbound.Customer.Name)

	var sawReceived, sawTriggered bool

	for _, event := range publisher.events {
		switch event.GetType() {
		case events.MessageReceivedEvent:
			sawReceived = true
		case events.WorkflowTriggeredEvent:
			sawTriggered = true
		}
	}

	assert.True(t, sawReceived)
	assert.True(t, sawTriggered)
}

func TestHandleInbound_NoMatch(t *testing.T) {
	intake, workflows, _, _ := newIntakeFixture(t)

	activateKeywordWorkflow(t, workflows, "price")

	result, err := intake.HandleInbound(context.Background(), InboundRequest{
		Channel: models.ChannelWhatsApp,
		From:    "+5511999990001",
		Text:    "hello there",
	})
	require.NoError(t, err)
	assert.Empty(t, result.Triggered)
}

func TestHandleInbound_HandoffMutesTriggers(t *testing.T) {
	intake, workflows, store, publisher := newIntakeFixture(t)

	activateKeywordWorkflow(t, workflows, "price")

	// First contact creates the customer record.
	first, err := intake.HandleInbound(context.Background(), InboundRequest{
		Channel: models.ChannelWhatsApp,
		From:    "+5511999990001",
		Text:    "hi",
	})
	require.NoError(t, err)

	customerID := first.Inbound.Customer.ID
	require.NoError(t, store.RequestHandoff(context.Background(), customerID, "asked for a human"))

	result, err := intake.HandleInbound(context.Background(), InboundRequest{
		Channel: models.ChannelWhatsApp,
		From:    "+5511999990001",
		Text:    "what is the price?",
	})
	require.NoError(t, err)

	assert.False(t, result.Automated)
	assert.Empty(t, result.Triggered)

	// The message is still recorded for the agent view.
	last := publisher.last()
	assert.Equal(t, events.MessageReceivedEvent, last.GetType())
}

func TestHandleInbound_InvalidChannel(t *testing.T) {
	intake, _, _, _ := newIntakeFixture(t)

	_, err := intake.HandleInbound(context.Background(), InboundRequest{Channel: "sms", From: "+55"})
	assert.ErrorIs(t, err, ErrInvalidChannel)
}
