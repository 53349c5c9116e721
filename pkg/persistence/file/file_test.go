package file

import (
	"context"
	"testing"
	"time"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPersistence(t *testing.T) persistence.Persistence {
	t.Helper()

	return NewPersistence(t.TempDir())
}

func TestWorkflowRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)
	repo := p.WorkflowRepository()

	workflow := &models.Workflow{
		ID:     "wf-1",
		Name:   "Welcome flow",
		Status: models.WorkflowStatusDraft,
		Nodes: []*models.WorkflowNode{
			{
				ID:       "trigger-1",
				Type:     models.NodeTypeMessageTrigger,
				Category: models.CategoryTypeTrigger,
				Enabled:  true,
			},
		},
		Connections: []*models.Connection{
			{ID: "c1", SourcePort: "trigger-1:message", TargetPort: "send-1:input"},
		},
	}

	require.NoError(t, repo.Save(ctx, workflow))
	assert.False(t, workflow.CreatedAt.IsZero())

	loaded, err := repo.GetByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "Welcome flow", loaded.Name)
	require.Len(t, loaded.Nodes, 1)
	assert.Equal(t, models.NodeTypeMessageTrigger, loaded.Nodes[0].Type)
	require.Len(t, loaded.Connections, 1)
	assert.Equal(t, "trigger-1:message", loaded.Connections[0].SourcePort)
}

func TestWorkflowRepository_GetByIDNotFound(t *testing.T) {
	p := newTestPersistence(t)

	_, err := p.WorkflowRepository().GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestWorkflowRepository_ListByStatus(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)
	repo := p.WorkflowRepository()

	require.NoError(t, repo.Save(ctx, &models.Workflow{ID: "wf-1", Name: "a", Status: models.WorkflowStatusActive}))
	require.NoError(t, repo.Save(ctx, &models.Workflow{ID: "wf-2", Name: "b", Status: models.WorkflowStatusDraft}))
	require.NoError(t, repo.Save(ctx, &models.Workflow{ID: "wf-3", Name: "c", Status: models.WorkflowStatusActive}))

	active, err := repo.ListByStatus(ctx, models.WorkflowStatusActive)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestWorkflowRepository_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)
	repo := p.WorkflowRepository()

	require.NoError(t, repo.Save(ctx, &models.Workflow{ID: "wf-1", Name: "a", Status: models.WorkflowStatusDraft}))
	require.NoError(t, repo.Delete(ctx, "wf-1"))
	require.NoError(t, repo.Delete(ctx, "wf-1"))

	_, err := repo.GetByID(ctx, "wf-1")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func seedCustomers(t *testing.T, repo persistence.CustomerRepository) {
	t.Helper()

	ctx := context.Background()
	customers := []*models.Customer{
		{
			ID: "cus-1", Name: "Amy Chen", Phone: "+15550001", Channel: models.ChannelWhatsApp,
			StageID: "stage-new", Balance: 120.5,
			CustomFields: map[string]any{"plan": "pro"},
		},
		{
			ID: "cus-2", Name: "Bob Silva", Phone: "+15550002", Channel: models.ChannelTelegram,
			StageID: "stage-new", Balance: 0,
			CustomFields: map[string]any{"plan": "free"},
		},
		{
			ID: "cus-3", Name: "Carol Chen", Phone: "+15550003", Channel: models.ChannelWhatsApp,
			StageID: "stage-won", Balance: 300,
		},
	}

	for _, customer := range customers {
		require.NoError(t, repo.Save(ctx, customer))
	}
}

func TestCustomerRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)
	repo := p.CustomerRepository()
	seedCustomers(t, repo)

	result, err := repo.List(ctx, persistence.ListCustomersOptions{
		Filters: map[string]any{"stage_id": "stage-new"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.TotalCount)

	result, err = repo.List(ctx, persistence.ListCustomersOptions{
		Filters: map[string]any{"plan": "pro"},
	})
	require.NoError(t, err)
	require.Len(t, result.Customers, 1)
	assert.Equal(t, "cus-1", result.Customers[0].ID)

	result, err = repo.List(ctx, persistence.ListCustomersOptions{
		Filters: map[string]any{"balance": "300"},
	})
	require.NoError(t, err)
	require.Len(t, result.Customers, 1)
	assert.Equal(t, "cus-3", result.Customers[0].ID)
}

func TestCustomerRepository_ListSearch(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)
	repo := p.CustomerRepository()
	seedCustomers(t, repo)

	result, err := repo.List(ctx, persistence.ListCustomersOptions{Search: "chen"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.TotalCount)

	result, err = repo.List(ctx, persistence.ListCustomersOptions{Search: "5550002"})
	require.NoError(t, err)
	require.Len(t, result.Customers, 1)
	assert.Equal(t, "Bob Silva", result.Customers[0].Name)
}

func TestCustomerRepository_ListPagination(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)
	repo := p.CustomerRepository()
	seedCustomers(t, repo)

	page1, err := repo.List(ctx, persistence.ListCustomersOptions{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page1.Customers, 2)
	assert.EqualValues(t, 3, page1.TotalCount)

	page2, err := repo.List(ctx, persistence.ListCustomersOptions{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page2.Customers, 1)

	page3, err := repo.List(ctx, persistence.ListCustomersOptions{Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, page3.Customers)
	assert.EqualValues(t, 3, page3.TotalCount)
}

func TestCustomerRepository_GetByAddress(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)
	repo := p.CustomerRepository()
	seedCustomers(t, repo)

	customer, err := repo.GetByAddress(ctx, models.ChannelTelegram, "+15550002")
	require.NoError(t, err)
	assert.Equal(t, "cus-2", customer.ID)

	// Same address on the wrong channel does not match.
	_, err = repo.GetByAddress(ctx, models.ChannelWhatsApp, "+15550002")
	assert.True(t, persistence.IsCustomerNotFound(err))
}

func TestCustomerRepository_UpdateFields(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)
	repo := p.CustomerRepository()
	seedCustomers(t, repo)

	updated, err := repo.UpdateFields(ctx, "cus-2", map[string]any{
		"stage_id":     "stage-won",
		"balance":      50.0,
		"loyalty_tier": "silver",
	})
	require.NoError(t, err)
	assert.Equal(t, "stage-won", updated.StageID)
	assert.InDelta(t, 50.0, updated.Balance, 0.001)
	assert.Equal(t, "silver", updated.CustomFields["loyalty_tier"])

	loaded, err := repo.GetByID(ctx, "cus-2")
	require.NoError(t, err)
	assert.Equal(t, "silver", loaded.CustomFields["loyalty_tier"])
}

func TestStageRepository_ListOrdersByPosition(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)
	repo := p.StageRepository()

	require.NoError(t, repo.Save(ctx, &models.Stage{ID: "s-won", Name: "Won", Position: 2}))
	require.NoError(t, repo.Save(ctx, &models.Stage{ID: "s-new", Name: "New", Position: 0}))
	require.NoError(t, repo.Save(ctx, &models.Stage{ID: "s-talk", Name: "Talking", Position: 1}))

	stages, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, stages, 3)
	assert.Equal(t, []string{"New", "Talking", "Won"}, []string{stages[0].Name, stages[1].Name, stages[2].Name})
}

func TestPromptRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)
	repo := p.PromptRepository()

	prompt := &models.Prompt{
		ID:           "pr-1",
		Name:         "Support tone",
		SystemPrompt: "You are a helpful support agent.",
		UserPrompt:   "Answer: {{trigger.text}}",
	}
	require.NoError(t, repo.Save(ctx, prompt))

	loaded, err := repo.GetByID(ctx, "pr-1")
	require.NoError(t, err)
	assert.Equal(t, "Support tone", loaded.Name)
	assert.Contains(t, loaded.UserPrompt, "{{trigger.text}}")

	_, err = repo.GetByID(ctx, "missing")
	assert.True(t, persistence.IsNotFound(err))
}

func TestMediaRepository_FolderFilter(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)
	repo := p.MediaRepository()

	require.NoError(t, repo.Save(ctx, &models.MediaAsset{ID: "m-1", Name: "menu.pdf", Folder: "menus"}))
	require.NoError(t, repo.Save(ctx, &models.MediaAsset{ID: "m-2", Name: "promo.png", Folder: "promos"}))
	require.NoError(t, repo.Save(ctx, &models.MediaAsset{ID: "m-3", Name: "summer.png", Folder: "promos"}))

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	promos, err := repo.List(ctx, "promos")
	require.NoError(t, err)
	assert.Len(t, promos, 2)
}

func TestHealthCheck(t *testing.T) {
	p := newTestPersistence(t)
	require.NoError(t, p.HealthCheck(context.Background()))

	missing := NewPersistence("/nonexistent/relay-test-root")
	assert.Error(t, missing.HealthCheck(context.Background()))
}

func TestListOnEmptyRoot(t *testing.T) {
	p := newTestPersistence(t)

	workflows, err := p.WorkflowRepository().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, workflows)

	result, err := p.CustomerRepository().List(context.Background(), persistence.ListCustomersOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Customers)
	assert.EqualValues(t, 0, result.TotalCount)
}

func TestSaveSetsTimestamps(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)
	repo := p.WorkflowRepository()

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	workflow := &models.Workflow{ID: "wf-ts", Name: "ts", Status: models.WorkflowStatusDraft, CreatedAt: created}

	require.NoError(t, repo.Save(ctx, workflow))
	assert.Equal(t, created, workflow.CreatedAt, "existing CreatedAt is preserved")
	assert.True(t, workflow.UpdatedAt.After(created))
}
