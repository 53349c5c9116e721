package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence/file"
)

func newPipelineFixture(t *testing.T) (*Pipeline, *Customer) {
	t.Helper()

	persist := file.NewPersistence(t.TempDir())

	return NewPipeline(persist), NewCustomer(persist)
}

func TestPipelineStages_CRUD(t *testing.T) {
	pipeline, _ := newPipelineFixture(t)
	ctx := context.Background()

	lead, err := pipeline.CreateStage(ctx, &models.Stage{Name: "Lead", Position: 0})
	require.NoError(t, err)

	won, err := pipeline.CreateStage(ctx, &models.Stage{Name: "Won", Position: 1})
	require.NoError(t, err)

	stages, err := pipeline.ListStages(ctx)
	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Equal(t, lead.ID, stages[0].ID, "stages come back in board order")

	_, err = pipeline.UpdateStage(ctx, won.ID, &models.Stage{Name: "Closed Won", Position: 1})
	require.NoError(t, err)

	require.NoError(t, pipeline.DeleteStage(ctx, won.ID))

	stages, err = pipeline.ListStages(ctx)
	require.NoError(t, err)
	assert.Len(t, stages, 1)
}

func TestMoveCustomer(t *testing.T) {
	pipeline, customers := newPipelineFixture(t)
	ctx := context.Background()

	stage, err := pipeline.CreateStage(ctx, &models.Stage{Name: "Qualified", Position: 0})
	require.NoError(t, err)

	customer := seedCustomer(t, customers, "Ana", "+5511999990001", nil)

	moved, err := pipeline.MoveCustomer(ctx, customer.ID, stage.ID)
	require.NoError(t, err)
	assert.Equal(t, stage.ID, moved.StageID)
}

func TestMoveCustomer_Errors(t *testing.T) {
	pipeline, customers := newPipelineFixture(t)
	ctx := context.Background()

	customer := seedCustomer(t, customers, "Ana", "+5511999990001", nil)

	_, err := pipeline.MoveCustomer(ctx, customer.ID, "")
	assert.ErrorIs(t, err, ErrStageRequired)

	_, err = pipeline.MoveCustomer(ctx, customer.ID, "missing-stage")
	assert.ErrorIs(t, err, ErrStageNotFound)

	stage, err := pipeline.CreateStage(ctx, &models.Stage{Name: "Lead", Position: 0})
	require.NoError(t, err)

	_, err = pipeline.MoveCustomer(ctx, "missing-customer", stage.ID)
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestFetchBoard(t *testing.T) {
	pipeline, customers := newPipelineFixture(t)
	ctx := context.Background()

	lead, err := pipeline.CreateStage(ctx, &models.Stage{Name: "Lead", Position: 0})
	require.NoError(t, err)

	won, err := pipeline.CreateStage(ctx, &models.Stage{Name: "Won", Position: 1})
	require.NoError(t, err)

	ana := seedCustomer(t, customers, "Ana", "+5511999990001", nil)
	_, err = pipeline.MoveCustomer(ctx, ana.ID, lead.ID)
	require.NoError(t, err)

	board, err := pipeline.FetchBoard(ctx)
	require.NoError(t, err)
	require.Len(t, board.Stages, 2)

	assert.Equal(t, lead.ID, board.Stages[0].Stage.ID)
	require.Len(t, board.Stages[0].Customers, 1)
	assert.Equal(t, ana.ID, board.Stages[0].Customers[0].ID)

	assert.Equal(t, won.ID, board.Stages[1].Stage.ID)
	assert.Empty(t, board.Stages[1].Customers)
}
