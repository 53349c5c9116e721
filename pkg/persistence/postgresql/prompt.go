package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence"
)

// PromptRepository handles prompt-library database operations.
type PromptRepository struct {
	db *sql.DB
}

func NewPromptRepository(db *sql.DB) *PromptRepository {
	return &PromptRepository{db: db}
}

const promptColumns = "id, name, description, system_prompt, user_prompt, created_at, updated_at"

func (r *PromptRepository) List(ctx context.Context) ([]*models.Prompt, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+promptColumns+" FROM prompts ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query prompts: %w", err)
	}

	defer func() { _ = rows.Close() }()

	prompts := make([]*models.Prompt, 0)

	for rows.Next() {
		prompt, err := scanPrompt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prompt: %w", err)
		}

		prompts = append(prompts, prompt)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating prompts: %w", err)
	}

	return prompts, nil
}

func (r *PromptRepository) GetByID(ctx context.Context, id string) (*models.Prompt, error) {
	prompt, err := scanPrompt(r.db.QueryRowContext(ctx,
		"SELECT "+promptColumns+" FROM prompts WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", persistence.ErrPromptNotFound, id)
		}

		return nil, fmt.Errorf("failed to scan prompt: %w", err)
	}

	return prompt, nil
}

func (r *PromptRepository) Save(ctx context.Context, prompt *models.Prompt) error {
	now := time.Now().UTC()
	if prompt.CreatedAt.IsZero() {
		prompt.CreatedAt = now
	}

	prompt.UpdatedAt = now

	query := `
		INSERT INTO prompts (id, name, description, system_prompt, user_prompt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			system_prompt = EXCLUDED.system_prompt,
			user_prompt = EXCLUDED.user_prompt,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		prompt.ID,
		prompt.Name,
		prompt.Description,
		prompt.SystemPrompt,
		prompt.UserPrompt,
		prompt.CreatedAt,
		prompt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save prompt %s: %w", prompt.ID, err)
	}

	return nil
}

func (r *PromptRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM prompts WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete prompt %s: %w", id, err)
	}

	return nil
}

func scanPrompt(row rowScanner) (*models.Prompt, error) {
	var prompt models.Prompt

	err := row.Scan(
		&prompt.ID,
		&prompt.Name,
		&prompt.Description,
		&prompt.SystemPrompt,
		&prompt.UserPrompt,
		&prompt.CreatedAt,
		&prompt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &prompt, nil
}
