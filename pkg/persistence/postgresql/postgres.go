// Package postgresql provides PostgreSQL persistence for the CRM entities
// and workflows.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// PostgreSQL driver.
	_ "github.com/lib/pq"

	"github.com/relaycrm/relay/pkg/persistence"
	"github.com/relaycrm/relay/pkg/persistence/sqlbase"
)

// Persistence implements persistence.Persistence on top of PostgreSQL.
type Persistence struct {
	db            *sql.DB
	logger        *slog.Logger
	workflowRepo  *WorkflowRepository
	customerRepo  *CustomerRepository
	stageRepo     *StageRepository
	promptRepo    *PromptRepository
	knowledgeRepo *KnowledgeRepository
	mediaRepo     *MediaRepository
}

// NewPersistence connects to the database and runs pending migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", persistence.ErrConnectionFailed, err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", persistence.ErrConnectionFailed, err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:            database,
		logger:        logger,
		workflowRepo:  NewWorkflowRepository(database, logger),
		customerRepo:  NewCustomerRepository(database, logger),
		stageRepo:     NewStageRepository(database),
		promptRepo:    NewPromptRepository(database),
		knowledgeRepo: NewKnowledgeRepository(database),
		mediaRepo:     NewMediaRepository(database),
	}, nil
}

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return p.workflowRepo
}

func (p *Persistence) CustomerRepository() persistence.CustomerRepository {
	return p.customerRepo
}

func (p *Persistence) StageRepository() persistence.StageRepository {
	return p.stageRepo
}

func (p *Persistence) PromptRepository() persistence.PromptRepository {
	return p.promptRepo
}

func (p *Persistence) KnowledgeRepository() persistence.KnowledgeRepository {
	return p.knowledgeRepo
}

func (p *Persistence) MediaRepository() persistence.MediaRepository {
	return p.mediaRepo
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
