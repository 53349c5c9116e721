// Package events defines event types for message intake and workflow
// execution lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/relaycrm/relay/pkg/models"
)

type EventType string

// Kafka topic carrying all relay events.
const Topic = "relay.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Message intake events.
	MessageReceivedEvent EventType = "message.received"
	MessageSentEvent     EventType = "message.sent"

	// Workflow lifecycle events.
	WorkflowTriggeredEvent EventType = "workflow.triggered"

	// Workflow execution lifecycle events.
	WorkflowExecutionStartedEvent   EventType = "workflow.execution.started"
	WorkflowExecutionCompletedEvent EventType = "workflow.execution.completed"
	WorkflowExecutionFailedEvent    EventType = "workflow.execution.failed"

	// Node execution events.
	NodeExecutionFinishedEvent EventType = "node.execution.finished"
	NodeExecutionFailedEvent   EventType = "node.execution.failed"

	// Conversation events.
	HandoffRequestedEvent EventType = "conversation.handoff.requested"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id,omitempty"`
	WorkerID   string         `json:"worker_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}

// MessageReceived is published when an inbound message arrives on a channel
// webhook, before any workflow matching happens.
type MessageReceived struct {
	BaseEvent

	Customer *models.Customer `json:"customer"`
	Message  *models.Message  `json:"message"`
}

func (m MessageReceived) GetType() EventType {
	return MessageReceivedEvent
}

// MessageSent is published after an outbound message is delivered to a
// channel provider.
type MessageSent struct {
	BaseEvent

	ExecutionID string         `json:"execution_id,omitempty"`
	NodeID      string         `json:"node_id,omitempty"`
	CustomerID  string         `json:"customer_id"`
	Channel     models.Channel `json:"channel"`
	Text        string         `json:"text"`
	MediaIDs    []string       `json:"media_ids,omitempty"`
}

func (m MessageSent) GetType() EventType {
	return MessageSentEvent
}

// WorkflowTriggered is published when an inbound message (or a manual run)
// matched a workflow trigger node and the workflow should be executed.
type WorkflowTriggered struct {
	BaseEvent

	TriggerNodeID string           `json:"trigger_node_id"`
	TriggerData   map[string]any   `json:"trigger_data,omitempty"`
	Customer      *models.Customer `json:"customer,omitempty"`
}

func (w WorkflowTriggered) GetType() EventType {
	return WorkflowTriggeredEvent
}

type WorkflowExecutionStarted struct {
	BaseEvent

	ExecutionID  string         `json:"execution_id"`
	WorkflowName string         `json:"workflow_name"`
	TriggerData  map[string]any `json:"trigger_data,omitempty"`
}

func (w WorkflowExecutionStarted) GetType() EventType {
	return WorkflowExecutionStartedEvent
}

type WorkflowExecutionCompleted struct {
	BaseEvent

	ExecutionID   string         `json:"execution_id"`
	DurationMs    int64          `json:"duration_ms"`
	NodesExecuted int            `json:"nodes_executed"`
	FinalResults  map[string]any `json:"final_results,omitempty"`
}

func (w WorkflowExecutionCompleted) GetType() EventType {
	return WorkflowExecutionCompletedEvent
}

type WorkflowExecutionFailed struct {
	BaseEvent

	ExecutionID   string `json:"execution_id"`
	NodeID        string `json:"node_id,omitempty"`
	Error         string `json:"error"`
	DurationMs    int64  `json:"duration_ms"`
	NodesExecuted int    `json:"nodes_executed"`
}

func (w WorkflowExecutionFailed) GetType() EventType {
	return WorkflowExecutionFailedEvent
}

type NodeExecutionFinished struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	NodeID      string         `json:"node_id"`
	OutputData  map[string]any `json:"output_data,omitempty"`
	Duration    time.Duration  `json:"duration"`
}

func (n NodeExecutionFinished) GetType() EventType {
	return NodeExecutionFinishedEvent
}

type NodeExecutionFailed struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	NodeID      string        `json:"node_id"`
	Error       string        `json:"error"`
	Duration    time.Duration `json:"duration"`
}

func (n NodeExecutionFailed) GetType() EventType {
	return NodeExecutionFailedEvent
}

// HandoffRequested is published when a workflow routes a conversation to a
// human agent, either explicitly or because AI confidence dropped below the
// configured threshold.
type HandoffRequested struct {
	BaseEvent

	ExecutionID string `json:"execution_id,omitempty"`
	NodeID      string `json:"node_id,omitempty"`
	CustomerID  string `json:"customer_id"`
	Reason      string `json:"reason,omitempty"`
}

func (h HandoffRequested) GetType() EventType {
	return HandoffRequestedEvent
}
