package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence"
	"github.com/relaycrm/relay/pkg/persistence/postgresql"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"media_assets", "knowledge_entries", "prompts", "customers", "stages", "workflows", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("relay_test"),
			postgres.WithUsername("relay"),
			postgres.WithPassword("relay"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx
}

func TestNewPersistence_Migrations(t *testing.T) {
	p, ctx := setupTestDB(t)

	require.NoError(t, p.HealthCheck(ctx))

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, db.Close())
	}()

	for _, table := range []string{"workflows", "customers", "stages", "prompts", "knowledge_entries", "media_assets"} {
		var exists bool

		err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = $1)`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "%s table should exist", table)
	}

	var version int

	err = db.QueryRowContext(ctx, "SELECT version FROM schema_migrations WHERE version = 1").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestWorkflowRepository_SaveAndRetrieve(t *testing.T) {
	p, ctx := setupTestDB(t)
	repo := p.WorkflowRepository()

	workflow := &models.Workflow{
		ID:     uuid.New().String(),
		Name:   "Welcome flow",
		Status: models.WorkflowStatusActive,
		Nodes: []*models.WorkflowNode{
			{
				ID:       "trigger-1",
				Type:     models.NodeTypeMessageTrigger,
				Category: models.CategoryTypeTrigger,
				Config:   map[string]any{"channel": "whatsapp", "match": "any"},
				Enabled:  true,
			},
		},
		Variables: map[string]any{"greeting": "hello"},
	}

	require.NoError(t, repo.Save(ctx, workflow))

	loaded, err := repo.GetByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.Name, loaded.Name)
	assert.Equal(t, models.WorkflowStatusActive, loaded.Status)
	require.Len(t, loaded.Nodes, 1)
	assert.Equal(t, "whatsapp", loaded.Nodes[0].Config["channel"])

	active, err := repo.ListByStatus(ctx, models.WorkflowStatusActive)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	require.NoError(t, repo.Delete(ctx, workflow.ID))

	_, err = repo.GetByID(ctx, workflow.ID)
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestCustomerRepository_SaveAndRetrieve(t *testing.T) {
	p, ctx := setupTestDB(t)
	repo := p.CustomerRepository()

	customer := &models.Customer{
		ID:           uuid.New().String(),
		Name:         "Ana",
		Phone:        "+5511999990000",
		Channel:      models.ChannelWhatsApp,
		Tags:         []string{"vip"},
		CustomFields: map[string]any{"plan": "pro"},
	}

	require.NoError(t, repo.Save(ctx, customer))

	loaded, err := repo.GetByID(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", loaded.Name)
	assert.Equal(t, []string{"vip"}, loaded.Tags)
	assert.Equal(t, "pro", loaded.CustomFields["plan"])

	byAddress, err := repo.GetByAddress(ctx, models.ChannelWhatsApp, customer.Phone)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, byAddress.ID)

	patched, err := repo.UpdateFields(ctx, customer.ID, map[string]any{"name": "Ana Lima", "tier": "gold"})
	require.NoError(t, err)
	assert.Equal(t, "Ana Lima", patched.Name)
	assert.Equal(t, "gold", patched.CustomFields["tier"])

	_, err = repo.GetByID(ctx, uuid.New().String())
	assert.ErrorIs(t, err, persistence.ErrCustomerNotFound)
}
