package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence"
)

// StageRepository handles pipeline stage database operations.
type StageRepository struct {
	db *sql.DB
}

func NewStageRepository(db *sql.DB) *StageRepository {
	return &StageRepository{db: db}
}

func (r *StageRepository) List(ctx context.Context) ([]*models.Stage, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, position, COALESCE(color, '') FROM stages ORDER BY position, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query stages: %w", err)
	}

	defer func() { _ = rows.Close() }()

	stages := make([]*models.Stage, 0)

	for rows.Next() {
		var stage models.Stage

		err := rows.Scan(&stage.ID, &stage.Name, &stage.Position, &stage.Color)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stage: %w", err)
		}

		stages = append(stages, &stage)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating stages: %w", err)
	}

	return stages, nil
}

func (r *StageRepository) GetByID(ctx context.Context, id string) (*models.Stage, error) {
	var stage models.Stage

	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, position, COALESCE(color, '') FROM stages WHERE id = $1", id).
		Scan(&stage.ID, &stage.Name, &stage.Position, &stage.Color)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", persistence.ErrStageNotFound, id)
		}

		return nil, fmt.Errorf("failed to scan stage: %w", err)
	}

	return &stage, nil
}

func (r *StageRepository) Save(ctx context.Context, stage *models.Stage) error {
	query := `
		INSERT INTO stages (id, name, position, color)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			position = EXCLUDED.position,
			color = EXCLUDED.color
	`

	_, err := r.db.ExecContext(ctx, query, stage.ID, stage.Name, stage.Position, stage.Color)
	if err != nil {
		return fmt.Errorf("failed to save stage %s: %w", stage.ID, err)
	}

	return nil
}

func (r *StageRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM stages WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete stage %s: %w", id, err)
	}

	return nil
}
