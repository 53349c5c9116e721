package templatenode

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaycrm/relay/pkg/models"
)

func TestExecute_StoresRenderedVariable(t *testing.T) {
	node, err := NewTemplateNode("tpl-1", map[string]any{
		"template":        "Hello {{db.customer.name}}, you said: {{trigger.text}}",
		"output_variable": "greeting",
	})
	require.NoError(t, err)

	ectx := models.NewExecutionContext("exec-1", "wf-1")
	ectx.Customer["name"] = "Ana"
	ectx.TriggerData["text"] = "hi"

	results, err := node.Execute(context.Background(), ectx, nil)
	require.NoError(t, err)

	result, ok := results[OutputPortOutput]
	require.True(t, ok)
	assert.Equal(t, "Hello Ana, you said: hi", result.Data["text"])
	assert.Equal(t, "greeting", result.Data["variable"])
	assert.Equal(t, "Hello Ana, you said: hi", ectx.Variables["greeting"])
}

func TestExecute_DefaultVariableAndFailOpen(t *testing.T) {
	node, err := NewTemplateNode("tpl-1", map[string]any{
		"template": "value: {{custom_fields.missing}}",
	})
	require.NoError(t, err)

	ectx := models.NewExecutionContext("exec-1", "wf-1")

	results, err := node.Execute(context.Background(), ectx, nil)
	require.NoError(t, err)

	result := results[OutputPortOutput]
	assert.Equal(t, "value: {{custom_fields.missing}}", ectx.Variables["text"])
	assert.Equal(t, []string{"{{custom_fields.missing}}"}, result.Data["unresolved"])
}

func TestExecute_FailClosed(t *testing.T) {
	node, err := NewTemplateNode("tpl-1", map[string]any{
		"template":    "value: {{custom_fields.missing}}",
		"fail_closed": true,
	})
	require.NoError(t, err)

	results, err := node.Execute(context.Background(), models.NewExecutionContext("exec-1", "wf-1"), nil)
	require.NoError(t, err)
	assert.Contains(t, results, OutputPortError)
}

func TestNewTemplateNode_Validation(t *testing.T) {
	_, err := NewTemplateNode("t", map[string]any{})
	require.Error(t, err, "template is required")
}
