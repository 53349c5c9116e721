// Package models defines the core domain models for node-based messaging automation.
package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "draft"    // Editable, runnable only by hand
	WorkflowStatusActive   WorkflowStatus = "active"   // Matched against inbound messages
	WorkflowStatusInactive WorkflowStatus = "inactive" // Deactivated, kept for history
)

// Workflow represents a node-based automation attached to customer conversations.
type Workflow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"        validate:"required,min=3"`
	Description string          `json:"description"`
	Status      WorkflowStatus  `json:"status"      validate:"required"`
	Nodes       []*WorkflowNode `json:"nodes"`
	Connections []*Connection   `json:"connections"`
	Variables   map[string]any  `json:"variables"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// IsActive reports whether the workflow participates in trigger matching.
func (w *Workflow) IsActive() bool {
	return w.Status == WorkflowStatusActive
}

// TriggerNodes returns the enabled trigger nodes of the workflow.
func (w *Workflow) TriggerNodes() []*WorkflowNode {
	var triggers []*WorkflowNode

	for _, node := range w.Nodes {
		if node.IsTriggerNode() && node.Enabled {
			triggers = append(triggers, node)
		}
	}

	return triggers
}

// NodeByID returns the node with the given ID, or nil.
func (w *Workflow) NodeByID(id string) *WorkflowNode {
	for _, node := range w.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}
