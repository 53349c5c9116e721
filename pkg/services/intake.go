package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/relaycrm/relay/pkg/eventbus"
	"github.com/relaycrm/relay/pkg/events"
	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/sessions"
	"github.com/relaycrm/relay/pkg/workflow"
)

// Intake turns raw channel webhooks into inbound messages: it resolves the
// customer, respects handoff sessions and fires the workflows whose triggers
// match.
type Intake struct {
	logger    *slog.Logger
	customers *Customer
	workflows *Workflow
	matcher   *workflow.TriggerMatcher
	sessions  *sessions.Store
	publisher eventbus.EventPublisher
}

// NewIntake creates a new message intake service.
func NewIntake(logger *slog.Logger, customers *Customer, workflows *Workflow, sessions *sessions.Store, publisher eventbus.EventPublisher) *Intake {
	return &Intake{
		logger:    logger.With("module", "intake"),
		customers: customers,
		workflows: workflows,
		matcher:   workflow.NewTriggerMatcher(logger),
		sessions:  sessions,
		publisher: publisher,
	}
}

// InboundRequest is one raw message from a channel webhook.
type InboundRequest struct {
	Channel models.Channel
	From    string // Channel address: phone number or chat ID
	Name    string // Sender display name, if the channel provides one
	Text    string
	MediaID string
}

// InboundResult reports what happened to an inbound message.
type InboundResult struct {
	Inbound   *models.InboundMessage `json:"inbound"`
	Automated bool                   `json:"automated"`
	Triggered []string               `json:"triggered,omitempty"` // Workflow IDs fired
}

// HandleInbound processes one inbound message end to end. Messages from
// customers in a handoff session are recorded and streamed to agents but do
// not trigger workflows.
func (s *Intake) HandleInbound(ctx context.Context, req InboundRequest) (*InboundResult, error) {
	customer, err := s.customers.ResolveOrCreate(ctx, req.Channel, req.From, req.Name)
	if err != nil {
		return nil, err
	}

	inbound := &models.InboundMessage{
		Customer: customer,
		Message: models.Message{
			ID:         uuid.New().String(),
			Channel:    req.Channel,
			From:       req.From,
			Text:       req.Text,
			MediaID:    req.MediaID,
			ReceivedAt: time.Now().UTC(),
		},
	}

	if err := s.publisher.Publish(ctx, customer.ID, events.MessageReceived{
		BaseEvent: events.NewBaseEvent(events.MessageReceivedEvent, ""),
		Customer:  customer,
		Message:   &inbound.Message,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish inbound message: %w", err)
	}

	automated, err := s.sessions.IsAutomated(ctx, customer.ID)
	if err != nil {
		s.logger.Warn("Failed to read session, assuming automated", "customer_id", customer.ID, "error", err)

		automated = true
	}

	result := &InboundResult{Inbound: inbound, Automated: automated}
	if !automated {
		s.logger.Info("Customer is with an agent, skipping trigger matching", "customer_id", customer.ID)

		return result, nil
	}

	active, err := s.workflows.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	for _, match := range s.matcher.Match(inbound, active) {
		event := events.WorkflowTriggered{
			BaseEvent:     events.NewBaseEvent(events.WorkflowTriggeredEvent, match.Workflow.ID),
			TriggerNodeID: match.TriggerNode.ID,
			TriggerData:   inbound.TriggerData(),
			Customer:      customer,
		}

		if err := s.publisher.Publish(ctx, match.Workflow.ID, event); err != nil {
			s.logger.Error("Failed to publish workflow trigger",
				"workflow_id", match.Workflow.ID,
				"error", err)

			continue
		}

		result.Triggered = append(result.Triggered, match.Workflow.ID)
	}

	return result, nil
}
