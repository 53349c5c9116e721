package services

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence"
)

// Library manages the content libraries behind templates: prompts, knowledge
// base entries and media assets.
type Library struct {
	persistence persistence.Persistence
	validate    *validator.Validate
}

// NewLibrary creates a new library service.
func NewLibrary(persist persistence.Persistence) *Library {
	return &Library{
		persistence: persist,
		validate:    validator.New(),
	}
}

// ListPrompts retrieves all prompt-library entries.
func (s *Library) ListPrompts(ctx context.Context) ([]*models.Prompt, error) {
	prompts, err := s.persistence.PromptRepository().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}

	return prompts, nil
}

// FetchPrompt retrieves a prompt by its ID.
func (s *Library) FetchPrompt(ctx context.Context, id string) (*models.Prompt, error) {
	return s.persistence.PromptRepository().GetByID(ctx, id)
}

// CreatePrompt adds a prompt-library entry.
func (s *Library) CreatePrompt(ctx context.Context, prompt *models.Prompt) (*models.Prompt, error) {
	if err := s.validate.Struct(prompt); err != nil {
		return nil, NewValidationError("CreatePrompt", "INVALID_PROMPT", err.Error(), ErrInvalidRequest)
	}

	prompt.ID = uuid.New().String()

	if err := s.persistence.PromptRepository().Save(ctx, prompt); err != nil {
		return nil, fmt.Errorf("failed to create prompt: %w", err)
	}

	return prompt, nil
}

// UpdatePrompt modifies an existing prompt.
func (s *Library) UpdatePrompt(ctx context.Context, id string, prompt *models.Prompt) (*models.Prompt, error) {
	existing, err := s.persistence.PromptRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	prompt.ID = id
	prompt.CreatedAt = existing.CreatedAt

	if err := s.validate.Struct(prompt); err != nil {
		return nil, NewValidationError("UpdatePrompt", "INVALID_PROMPT", err.Error(), ErrInvalidRequest)
	}

	if err := s.persistence.PromptRepository().Save(ctx, prompt); err != nil {
		return nil, fmt.Errorf("failed to update prompt: %w", err)
	}

	return prompt, nil
}

// DeletePrompt removes a prompt by its ID.
func (s *Library) DeletePrompt(ctx context.Context, id string) error {
	if _, err := s.persistence.PromptRepository().GetByID(ctx, id); err != nil {
		return err
	}

	return s.persistence.PromptRepository().Delete(ctx, id)
}

// ListKnowledge retrieves all knowledge-base entries.
func (s *Library) ListKnowledge(ctx context.Context) ([]*models.KnowledgeBaseEntry, error) {
	entries, err := s.persistence.KnowledgeRepository().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list knowledge entries: %w", err)
	}

	return entries, nil
}

// FetchKnowledge retrieves a knowledge-base entry by its ID.
func (s *Library) FetchKnowledge(ctx context.Context, id string) (*models.KnowledgeBaseEntry, error) {
	return s.persistence.KnowledgeRepository().GetByID(ctx, id)
}

// SaveKnowledge creates or updates a knowledge-base entry.
func (s *Library) SaveKnowledge(ctx context.Context, entry *models.KnowledgeBaseEntry) (*models.KnowledgeBaseEntry, error) {
	if err := s.validate.Struct(entry); err != nil {
		return nil, NewValidationError("SaveKnowledge", "INVALID_ENTRY", err.Error(), ErrInvalidRequest)
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	if err := s.persistence.KnowledgeRepository().Save(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to save knowledge entry: %w", err)
	}

	return entry, nil
}

// DeleteKnowledge removes a knowledge-base entry by its ID.
func (s *Library) DeleteKnowledge(ctx context.Context, id string) error {
	if _, err := s.persistence.KnowledgeRepository().GetByID(ctx, id); err != nil {
		return err
	}

	return s.persistence.KnowledgeRepository().Delete(ctx, id)
}

// ListMedia retrieves media assets, optionally filtered to one folder.
func (s *Library) ListMedia(ctx context.Context, folder string) ([]*models.MediaAsset, error) {
	assets, err := s.persistence.MediaRepository().List(ctx, folder)
	if err != nil {
		return nil, fmt.Errorf("failed to list media assets: %w", err)
	}

	return assets, nil
}

// FetchMedia retrieves a media asset by its ID.
func (s *Library) FetchMedia(ctx context.Context, id string) (*models.MediaAsset, error) {
	return s.persistence.MediaRepository().GetByID(ctx, id)
}

// SaveMedia creates or updates a media asset.
func (s *Library) SaveMedia(ctx context.Context, asset *models.MediaAsset) (*models.MediaAsset, error) {
	if err := s.validate.Struct(asset); err != nil {
		return nil, NewValidationError("SaveMedia", "INVALID_ASSET", err.Error(), ErrInvalidRequest)
	}

	if asset.ID == "" {
		asset.ID = uuid.New().String()
	}

	if err := s.persistence.MediaRepository().Save(ctx, asset); err != nil {
		return nil, fmt.Errorf("failed to save media asset: %w", err)
	}

	return asset, nil
}

// DeleteMedia removes a media asset by its ID.
func (s *Library) DeleteMedia(ctx context.Context, id string) error {
	if _, err := s.persistence.MediaRepository().GetByID(ctx, id); err != nil {
		return err
	}

	return s.persistence.MediaRepository().Delete(ctx, id)
}
