package services

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence"
)

// ErrStageNotFound is returned when a pipeline stage is not found.
var ErrStageNotFound = persistence.ErrStageNotFound

// Pipeline manages the kanban stages and moving customers between them.
type Pipeline struct {
	persistence persistence.Persistence
	validate    *validator.Validate
}

// NewPipeline creates a new pipeline service.
func NewPipeline(persist persistence.Persistence) *Pipeline {
	return &Pipeline{
		persistence: persist,
		validate:    validator.New(),
	}
}

// ListStages retrieves the pipeline stages in board order.
func (s *Pipeline) ListStages(ctx context.Context) ([]*models.Stage, error) {
	stages, err := s.persistence.StageRepository().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages: %w", err)
	}

	return stages, nil
}

// CreateStage adds a pipeline stage.
func (s *Pipeline) CreateStage(ctx context.Context, stage *models.Stage) (*models.Stage, error) {
	if err := s.validate.Struct(stage); err != nil {
		return nil, NewValidationError("CreateStage", "INVALID_STAGE", err.Error(), ErrInvalidRequest)
	}

	stage.ID = uuid.New().String()

	if err := s.persistence.StageRepository().Save(ctx, stage); err != nil {
		return nil, fmt.Errorf("failed to create stage: %w", err)
	}

	return stage, nil
}

// UpdateStage modifies an existing stage.
func (s *Pipeline) UpdateStage(ctx context.Context, stageID string, stage *models.Stage) (*models.Stage, error) {
	if _, err := s.persistence.StageRepository().GetByID(ctx, stageID); err != nil {
		return nil, err
	}

	stage.ID = stageID

	if err := s.validate.Struct(stage); err != nil {
		return nil, NewValidationError("UpdateStage", "INVALID_STAGE", err.Error(), ErrInvalidRequest)
	}

	if err := s.persistence.StageRepository().Save(ctx, stage); err != nil {
		return nil, fmt.Errorf("failed to update stage: %w", err)
	}

	return stage, nil
}

// DeleteStage removes a stage. Customers in the stage keep their stage_id
// until they are moved; the board renders them in an "unassigned" column.
func (s *Pipeline) DeleteStage(ctx context.Context, stageID string) error {
	if _, err := s.persistence.StageRepository().GetByID(ctx, stageID); err != nil {
		return err
	}

	return s.persistence.StageRepository().Delete(ctx, stageID)
}

// MoveCustomer drags a customer card to another stage.
func (s *Pipeline) MoveCustomer(ctx context.Context, customerID, stageID string) (*models.Customer, error) {
	if stageID == "" {
		return nil, ErrStageRequired
	}

	if _, err := s.persistence.StageRepository().GetByID(ctx, stageID); err != nil {
		return nil, err
	}

	updated, err := s.persistence.CustomerRepository().UpdateFields(ctx, customerID, map[string]any{
		"stage_id": stageID,
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Board groups customers by stage for the kanban view.
type Board struct {
	Stages []*BoardColumn `json:"stages"`
}

// BoardColumn is one kanban column with its customer cards.
type BoardColumn struct {
	Stage     *models.Stage      `json:"stage"`
	Customers []*models.Customer `json:"customers"`
}

// FetchBoard builds the kanban board: all stages in order, each with its
// customers.
func (s *Pipeline) FetchBoard(ctx context.Context) (*Board, error) {
	stages, err := s.ListStages(ctx)
	if err != nil {
		return nil, err
	}

	board := &Board{Stages: make([]*BoardColumn, 0, len(stages))}

	for _, stage := range stages {
		result, err := s.persistence.CustomerRepository().List(ctx, persistence.ListCustomersOptions{
			Filters: map[string]any{"stage_id": stage.ID},
			Limit:   100,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load customers for stage %s: %w", stage.ID, err)
		}

		board.Stages = append(board.Stages, &BoardColumn{
			Stage:     stage,
			Customers: result.Customers,
		})
	}

	return board, nil
}
