package handoff

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/sessions"
)

func newTestStore(t *testing.T) *sessions.Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return sessions.NewStore(client, time.Hour)
}

func TestExecute_RequestsHandoff(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	node, err := NewHandoffNode("handoff-1", map[string]any{
		"reason": "customer asked: {{trigger.text}}",
	}, store)
	require.NoError(t, err)

	ectx := models.NewExecutionContext("exec-1", "wf-1")
	ectx.Customer["id"] = "cus-1"
	ectx.TriggerData["text"] = "talk to a human"

	results, err := node.Execute(ctx, ectx, nil)
	require.NoError(t, err)

	result, ok := results[OutputPortDone]
	require.True(t, ok)
	assert.Equal(t, "customer asked: talk to a human", result.Data["reason"])

	session, err := store.Get(ctx, "cus-1")
	require.NoError(t, err)
	assert.Equal(t, sessions.StatusHandoffPending, session.Status)
}

func TestExecute_MissingCustomer(t *testing.T) {
	node, err := NewHandoffNode("handoff-1", map[string]any{}, newTestStore(t))
	require.NoError(t, err)

	results, err := node.Execute(context.Background(), models.NewExecutionContext("exec-1", "wf-1"), nil)
	require.NoError(t, err)

	result, ok := results[OutputPortError]
	require.True(t, ok)
	assert.Equal(t, string(models.NodeStatusError), result.Status)
}
