// Package persistence provides the data storage abstraction layer for the
// CRM entities and workflows.
package persistence

import (
	"context"

	"github.com/relaycrm/relay/pkg/models"
)

// Persistence is the storage root. Implementations: file (development,
// tests) and postgresql (production).
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	CustomerRepository() CustomerRepository
	StageRepository() StageRepository
	PromptRepository() PromptRepository
	KnowledgeRepository() KnowledgeRepository
	MediaRepository() MediaRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflow definitions.
type WorkflowRepository interface {
	List(ctx context.Context) ([]*models.Workflow, error)
	ListByStatus(ctx context.Context, status models.WorkflowStatus) ([]*models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
}

// ListCustomersOptions mirrors the customer list endpoint's query surface.
type ListCustomersOptions struct {
	Fields  []string       // Projection; empty means all fields
	Filters map[string]any // Exact-match filters, built-in or custom fields
	Search  string         // Case-insensitive substring over name/phone/email
	Page    int            // 1-based
	Limit   int
}

// CustomerListResult is one page of customers.
type CustomerListResult struct {
	Customers  []*models.Customer `json:"customers"`
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
}

// CustomerRepository stores customer records.
type CustomerRepository interface {
	List(ctx context.Context, opts ListCustomersOptions) (*CustomerListResult, error)
	GetByID(ctx context.Context, id string) (*models.Customer, error)
	// GetByAddress resolves a customer from a channel address (phone number
	// or chat ID), used by inbound message intake.
	GetByAddress(ctx context.Context, channel models.Channel, address string) (*models.Customer, error)
	Save(ctx context.Context, customer *models.Customer) error
	Delete(ctx context.Context, id string) error
	// UpdateFields patches individual fields, routing unknown names into
	// CustomFields, and returns the updated record.
	UpdateFields(ctx context.Context, id string, fields map[string]any) (*models.Customer, error)
}

// StageRepository stores pipeline stages.
type StageRepository interface {
	List(ctx context.Context) ([]*models.Stage, error)
	GetByID(ctx context.Context, id string) (*models.Stage, error)
	Save(ctx context.Context, stage *models.Stage) error
	Delete(ctx context.Context, id string) error
}

// PromptRepository stores prompt-library entries.
type PromptRepository interface {
	List(ctx context.Context) ([]*models.Prompt, error)
	GetByID(ctx context.Context, id string) (*models.Prompt, error)
	Save(ctx context.Context, prompt *models.Prompt) error
	Delete(ctx context.Context, id string) error
}

// KnowledgeRepository stores knowledge-base entries.
type KnowledgeRepository interface {
	List(ctx context.Context) ([]*models.KnowledgeBaseEntry, error)
	GetByID(ctx context.Context, id string) (*models.KnowledgeBaseEntry, error)
	Save(ctx context.Context, entry *models.KnowledgeBaseEntry) error
	Delete(ctx context.Context, id string) error
}

// MediaRepository stores media asset metadata.
type MediaRepository interface {
	// List returns all assets, or only those in folder when folder != "".
	List(ctx context.Context, folder string) ([]*models.MediaAsset, error)
	GetByID(ctx context.Context, id string) (*models.MediaAsset, error)
	Save(ctx context.Context, asset *models.MediaAsset) error
	Delete(ctx context.Context, id string) error
}
