// Package web provides HTTP request and response types for the CRM API.
package web

import "github.com/relaycrm/relay/pkg/models"

// CreateCustomerRequest represents the request body for creating a customer.
type CreateCustomerRequest struct {
	Name         string         `json:"name"    validate:"required,min=1"`
	Phone        string         `json:"phone"   validate:"required"`
	Email        string         `json:"email,omitempty"   validate:"omitempty,email"`
	Channel      string         `json:"channel" validate:"required,oneof=whatsapp telegram"`
	StageID      string         `json:"stage_id,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
	CustomFields map[string]any `json:"custom_fields,omitempty"`
}

// CreateWorkflowRequest represents the request body for creating a workflow.
// The editor saves the whole graph in one call.
type CreateWorkflowRequest struct {
	Name        string                 `json:"name" validate:"required,min=3"`
	Description string                 `json:"description"`
	Variables   map[string]any         `json:"variables,omitempty"`
	Nodes       []*models.WorkflowNode `json:"nodes,omitempty"`
	Connections []*models.Connection   `json:"connections,omitempty"`
}

// UpdateWorkflowRequest represents the request body for updating a workflow.
// All fields are optional to support partial updates.
type UpdateWorkflowRequest struct {
	Name        *string                `json:"name,omitempty" validate:"omitempty,min=3"`
	Description *string                `json:"description,omitempty"`
	Variables   map[string]any         `json:"variables,omitempty"`
	Nodes       []*models.WorkflowNode `json:"nodes,omitempty"`
	Connections []*models.Connection   `json:"connections,omitempty"`
}

// ExecuteWorkflowRequest represents a manual workflow run.
type ExecuteWorkflowRequest struct {
	CustomerID  string         `json:"customer_id,omitempty"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
}

// MoveCustomerRequest represents dragging a customer card to another stage.
type MoveCustomerRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	StageID    string `json:"stage_id"    validate:"required"`
}

// InboundMessageRequest represents a channel webhook payload. The channel
// comes from the URL path.
type InboundMessageRequest struct {
	From    string `json:"from" validate:"required"`
	Name    string `json:"name,omitempty"`
	Text    string `json:"text,omitempty"`
	MediaID string `json:"media_id,omitempty"`
}

// HandoffRequest represents an explicit agent takeover request.
type HandoffRequest struct {
	Reason string `json:"reason,omitempty"`
}

// NodeTypeResponse describes one registered node type for the editor palette.
type NodeTypeResponse struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema,omitempty"`
}
