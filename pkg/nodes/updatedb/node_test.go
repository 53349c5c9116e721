package updatedb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence"
	"github.com/relaycrm/relay/pkg/persistence/file"
)

func newTestCustomers(t *testing.T) persistence.CustomerRepository {
	t.Helper()

	customers := file.NewPersistence(t.TempDir()).CustomerRepository()

	require.NoError(t, customers.Save(context.Background(), &models.Customer{
		ID:      "cus-1",
		Name:    "Ana",
		Phone:   "+5511999990000",
		Channel: models.ChannelWhatsApp,
		StageID: "stage-new",
	}))

	return customers
}

func TestExecute_UpdatesCustomerAndContext(t *testing.T) {
	customers := newTestCustomers(t)

	node, err := NewUpdateDBNode("update-1", map[string]any{
		"fields": map[string]any{
			"stage_id":    "stage-qualified",
			"last_intent": "{{ai.reply}}",
		},
	}, customers)
	require.NoError(t, err)

	ectx := models.NewExecutionContext("exec-1", "wf-1")
	ectx.Customer["id"] = "cus-1"
	ectx.SetAI(map[string]any{"reply": "wants the premium plan"})

	results, err := node.Execute(context.Background(), ectx, nil)
	require.NoError(t, err)

	result, ok := results[OutputPortSuccess]
	require.True(t, ok)
	assert.Equal(t, "cus-1", result.Data["customer_id"])

	updated, err := customers.GetByID(context.Background(), "cus-1")
	require.NoError(t, err)
	assert.Equal(t, "stage-qualified", updated.StageID)
	assert.Equal(t, "wants the premium plan", updated.CustomFields["last_intent"])

	// Downstream nodes see the refreshed snapshot.
	assert.Equal(t, "stage-qualified", ectx.Customer["stage_id"])
}

func TestExecute_UnknownCustomer(t *testing.T) {
	node, err := NewUpdateDBNode("update-1", map[string]any{
		"fields": map[string]any{"stage_id": "stage-qualified"},
	}, newTestCustomers(t))
	require.NoError(t, err)

	ectx := models.NewExecutionContext("exec-1", "wf-1")
	ectx.Customer["id"] = "cus-missing"

	results, err := node.Execute(context.Background(), ectx, nil)
	require.NoError(t, err)
	assert.Contains(t, results, OutputPortError)
}

func TestExecute_MissingCustomer(t *testing.T) {
	node, err := NewUpdateDBNode("update-1", map[string]any{
		"fields": map[string]any{"stage_id": "stage-qualified"},
	}, newTestCustomers(t))
	require.NoError(t, err)

	results, err := node.Execute(context.Background(), models.NewExecutionContext("exec-1", "wf-1"), nil)
	require.NoError(t, err)
	assert.Contains(t, results, OutputPortError)
}

func TestNewUpdateDBNode_Validation(t *testing.T) {
	customers := newTestCustomers(t)

	_, err := NewUpdateDBNode("u", map[string]any{}, customers)
	require.Error(t, err)

	_, err = NewUpdateDBNode("u", map[string]any{
		"fields": map[string]any{"balance": 10.0},
	}, customers)
	require.Error(t, err)

	_, err = NewUpdateDBNode("u", map[string]any{
		"fields": map[string]any{"id": "other"},
	}, customers)
	require.Error(t, err)
}
