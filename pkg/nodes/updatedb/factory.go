package updatedb

import (
	"context"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence"
	"github.com/relaycrm/relay/pkg/protocol"
)

// UpdateDBNodeFactory creates UpdateDBNode instances bound to the customer
// repository.
type UpdateDBNodeFactory struct {
	customers persistence.CustomerRepository
}

func NewUpdateDBNodeFactory(customers persistence.CustomerRepository) protocol.NodeFactory {
	return &UpdateDBNodeFactory{customers: customers}
}

func (f *UpdateDBNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewUpdateDBNode(id, config, f.customers)
}

func (f *UpdateDBNodeFactory) ID() string {
	return models.NodeTypeUpdateDB
}

func (f *UpdateDBNodeFactory) Name() string {
	return "Update Customer"
}

func (f *UpdateDBNodeFactory) Description() string {
	return "Patches fields on the current customer's record, with template placeholders in values"
}

func (f *UpdateDBNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"fields": map[string]any{
				"type":                 "object",
				"minProperties":        1,
				"additionalProperties": map[string]any{"type": "string"},
				"description":          "Field name to value template. Unknown names become custom fields",
				"examples": []map[string]any{
					{"stage_id": "stage-qualified", "last_intent": "{{ai.reply}}"},
				},
			},
		},
		"required": []string{"fields"},
	}
}
