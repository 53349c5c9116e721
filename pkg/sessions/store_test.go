package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewStore(client, time.Hour), mr
}

func TestGet_DefaultsToAutomated(t *testing.T) {
	store, _ := newTestStore(t)

	session, err := store.Get(context.Background(), "cus-1")
	require.NoError(t, err)
	assert.Equal(t, StatusAutomated, session.Status)
	assert.Equal(t, "cus-1", session.CustomerID)
}

func TestRequestHandoff(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	require.NoError(t, store.RequestHandoff(ctx, "cus-1", "asked for a human"))

	session, err := store.Get(ctx, "cus-1")
	require.NoError(t, err)
	assert.Equal(t, StatusHandoffPending, session.Status)
	assert.Equal(t, "asked for a human", session.Reason)
	assert.False(t, session.UpdatedAt.IsZero())

	automated, err := store.IsAutomated(ctx, "cus-1")
	require.NoError(t, err)
	assert.False(t, automated)

	// Other customers are unaffected.
	automated, err = store.IsAutomated(ctx, "cus-2")
	require.NoError(t, err)
	assert.True(t, automated)
}

func TestResume(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	require.NoError(t, store.SetStatus(ctx, "cus-1", StatusWithAgent, ""))
	require.NoError(t, store.Resume(ctx, "cus-1"))

	automated, err := store.IsAutomated(ctx, "cus-1")
	require.NoError(t, err)
	assert.True(t, automated)
}

func TestSessionExpires(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	require.NoError(t, store.RequestHandoff(ctx, "cus-1", "escalation"))

	mr.FastForward(2 * time.Hour)

	session, err := store.Get(ctx, "cus-1")
	require.NoError(t, err)
	assert.Equal(t, StatusAutomated, session.Status, "expired handoff falls back to automation")
}
