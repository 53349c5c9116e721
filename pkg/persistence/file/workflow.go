package file

import (
	"context"
	"sort"
	"time"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence"
)

const workflowsDir = "workflows"

// WorkflowRepository stores workflow definitions as JSON files.
type WorkflowRepository struct {
	root string
}

func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{root: root}
}

// List returns all workflows ordered by creation time, newest first.
func (wr *WorkflowRepository) List(_ context.Context) ([]*models.Workflow, error) {
	workflows, err := listEntities[models.Workflow](wr.root, workflowsDir)
	if err != nil {
		return nil, err
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.After(workflows[j].CreatedAt)
	})

	return workflows, nil
}

// ListByStatus returns workflows filtered to the given status.
func (wr *WorkflowRepository) ListByStatus(ctx context.Context, status models.WorkflowStatus) ([]*models.Workflow, error) {
	workflows, err := wr.List(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.Workflow, 0, len(workflows))

	for _, workflow := range workflows {
		if workflow.Status == status {
			filtered = append(filtered, workflow)
		}
	}

	return filtered, nil
}

func (wr *WorkflowRepository) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	return loadEntity[models.Workflow](wr.root, workflowsDir, id, persistence.ErrWorkflowNotFound)
}

func (wr *WorkflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	return saveEntity(wr.root, workflowsDir, workflow.ID, workflow)
}

func (wr *WorkflowRepository) Delete(_ context.Context, id string) error {
	return deleteEntity(wr.root, workflowsDir, id)
}
