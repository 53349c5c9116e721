package models

// ExecutionContext carries the mutable state of one workflow run. Every field
// is JSON-serializable so the context can travel over the event bus.
type ExecutionContext struct {
	ID          string         `json:"id"`
	WorkflowID  string         `json:"workflow_id"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
	Customer    map[string]any `json:"customer,omitempty"`
	// CustomObjects is keyed object type -> record id -> fields.
	CustomObjects map[string]map[string]map[string]any `json:"custom_objects,omitempty"`
	Knowledge     map[string]string                    `json:"knowledge,omitempty"`
	AI            map[string]any                       `json:"ai,omitempty"`
	Variables     map[string]any                       `json:"variables,omitempty"`
	NodeResults   map[string]NodeResult                `json:"node_results,omitempty"`
	Metadata      map[string]any                       `json:"metadata,omitempty"`
}

// NewExecutionContext builds a context with all maps initialized.
func NewExecutionContext(id, workflowID string) *ExecutionContext {
	return &ExecutionContext{
		ID:            id,
		WorkflowID:    workflowID,
		TriggerData:   make(map[string]any),
		Customer:      make(map[string]any),
		CustomObjects: make(map[string]map[string]map[string]any),
		Knowledge:     make(map[string]string),
		AI:            make(map[string]any),
		Variables:     make(map[string]any),
		NodeResults:   make(map[string]NodeResult),
		Metadata:      make(map[string]any),
	}
}

// RecordResult stores a node result and mirrors AI output into the ai
// namespace so later templates can reference {{ai.reply}}.
func (c *ExecutionContext) RecordResult(nodeID string, result NodeResult) {
	if c.NodeResults == nil {
		c.NodeResults = make(map[string]NodeResult)
	}

	c.NodeResults[nodeID] = result
}

// SetAI replaces the ai namespace with the output of the most recent AI node.
func (c *ExecutionContext) SetAI(data map[string]any) {
	c.AI = data
}
