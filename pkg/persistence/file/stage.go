package file

import (
	"context"
	"sort"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence"
)

const stagesDir = "stages"

// StageRepository stores pipeline stages as JSON files.
type StageRepository struct {
	root string
}

func NewStageRepository(root string) *StageRepository {
	return &StageRepository{root: root}
}

// List returns all stages ordered by board position.
func (sr *StageRepository) List(_ context.Context) ([]*models.Stage, error) {
	stages, err := listEntities[models.Stage](sr.root, stagesDir)
	if err != nil {
		return nil, err
	}

	sort.Slice(stages, func(i, j int) bool {
		if stages[i].Position == stages[j].Position {
			return stages[i].ID < stages[j].ID
		}

		return stages[i].Position < stages[j].Position
	})

	return stages, nil
}

func (sr *StageRepository) GetByID(_ context.Context, id string) (*models.Stage, error) {
	return loadEntity[models.Stage](sr.root, stagesDir, id, persistence.ErrStageNotFound)
}

func (sr *StageRepository) Save(_ context.Context, stage *models.Stage) error {
	return saveEntity(sr.root, stagesDir, stage.ID, stage)
}

func (sr *StageRepository) Delete(_ context.Context, id string) error {
	return deleteEntity(sr.root, stagesDir, id)
}
