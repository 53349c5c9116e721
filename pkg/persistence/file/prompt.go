package file

import (
	"context"
	"sort"
	"time"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence"
)

const promptsDir = "prompts"

// PromptRepository stores prompt-library entries as JSON files.
type PromptRepository struct {
	root string
}

func NewPromptRepository(root string) *PromptRepository {
	return &PromptRepository{root: root}
}

func (pr *PromptRepository) List(_ context.Context) ([]*models.Prompt, error) {
	prompts, err := listEntities[models.Prompt](pr.root, promptsDir)
	if err != nil {
		return nil, err
	}

	sort.Slice(prompts, func(i, j int) bool {
		return prompts[i].Name < prompts[j].Name
	})

	return prompts, nil
}

func (pr *PromptRepository) GetByID(_ context.Context, id string) (*models.Prompt, error) {
	return loadEntity[models.Prompt](pr.root, promptsDir, id, persistence.ErrPromptNotFound)
}

func (pr *PromptRepository) Save(_ context.Context, prompt *models.Prompt) error {
	now := time.Now().UTC()
	if prompt.CreatedAt.IsZero() {
		prompt.CreatedAt = now
	}

	prompt.UpdatedAt = now

	return saveEntity(pr.root, promptsDir, prompt.ID, prompt)
}

func (pr *PromptRepository) Delete(_ context.Context, id string) error {
	return deleteEntity(pr.root, promptsDir, id)
}
