// Package file provides file-based persistence backed by per-entity JSON
// directories. It serves development setups and tests.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/relaycrm/relay/pkg/persistence"
)

// Persistence implements persistence.Persistence on top of a root directory.
type Persistence struct {
	root          string
	workflowRepo  *WorkflowRepository
	customerRepo  *CustomerRepository
	stageRepo     *StageRepository
	promptRepo    *PromptRepository
	knowledgeRepo *KnowledgeRepository
	mediaRepo     *MediaRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
// A "file://" prefix on root is accepted and stripped.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:          cleanRoot,
		workflowRepo:  NewWorkflowRepository(cleanRoot),
		customerRepo:  NewCustomerRepository(cleanRoot),
		stageRepo:     NewStageRepository(cleanRoot),
		promptRepo:    NewPromptRepository(cleanRoot),
		knowledgeRepo: NewKnowledgeRepository(cleanRoot),
		mediaRepo:     NewMediaRepository(cleanRoot),
	}
}

func (fp *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return fp.workflowRepo
}

func (fp *Persistence) CustomerRepository() persistence.CustomerRepository {
	return fp.customerRepo
}

func (fp *Persistence) StageRepository() persistence.StageRepository {
	return fp.stageRepo
}

func (fp *Persistence) PromptRepository() persistence.PromptRepository {
	return fp.promptRepo
}

func (fp *Persistence) KnowledgeRepository() persistence.KnowledgeRepository {
	return fp.knowledgeRepo
}

func (fp *Persistence) MediaRepository() persistence.MediaRepository {
	return fp.mediaRepo
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. Nothing to release for files.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// Shared JSON-directory helpers. Each entity kind lives under root/<dir>
// as one <id>.json file.

func loadEntity[T any](root, dir, id string, notFound error) (*T, error) {
	filePath := filepath.Clean(path.Join(root, dir, id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", notFound, id)
		}

		return nil, fmt.Errorf("failed to read %s %s: %w", dir, id, err)
	}

	var entity T

	err = json.Unmarshal(body, &entity)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s %s: %w", dir, id, err)
	}

	return &entity, nil
}

func saveEntity[T any](root, dir, id string, entity *T) error {
	err := os.MkdirAll(path.Join(root, dir), 0750)
	if err != nil {
		return fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	data, err := json.MarshalIndent(entity, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", dir, id, err)
	}

	return os.WriteFile(path.Join(root, dir, id+".json"), data, 0600)
}

func listEntities[T any](root, dir string) ([]*T, error) {
	if _, err := os.Stat(path.Join(root, dir)); os.IsNotExist(err) {
		return []*T{}, nil
	}

	entityFS := os.DirFS(path.Join(root, dir))

	jsonFiles, err := fs.Glob(entityFS, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s files: %w", dir, err)
	}

	entities := make([]*T, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		body, err := fs.ReadFile(entityFS, file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return nil, fmt.Errorf("failed to read %s/%s: %w", dir, file, err)
		}

		var entity T

		err = json.Unmarshal(body, &entity)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s/%s: %w", dir, file, err)
		}

		entities = append(entities, &entity)
	}

	return entities, nil
}

func deleteEntity(root, dir, id string) error {
	err := os.Remove(path.Join(root, dir, id+".json"))
	if err != nil && os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", dir, id, err)
	}

	return nil
}
