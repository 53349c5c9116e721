package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence"
)

// ErrCustomerNotFound is returned when a customer is not found.
var ErrCustomerNotFound = persistence.ErrCustomerNotFound

// Customer manages CRM customer records: listing with dynamic field
// projection, filtering and intake resolution for inbound messages.
type Customer struct {
	persistence persistence.Persistence
	validate    *validator.Validate
}

// NewCustomer creates a new customer service.
func NewCustomer(persist persistence.Persistence) *Customer {
	return &Customer{
		persistence: persist,
		validate:    validator.New(),
	}
}

// ListCustomersRequest mirrors the customer list query surface.
type ListCustomersRequest struct {
	Fields  []string
	Filters map[string]any
	Search  string
	Page    int
	Limit   int
}

// CustomerPage is one page of customers, projected to the requested fields.
type CustomerPage struct {
	Customers  []map[string]any `json:"customers"`
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
}

// List retrieves customers with filtering, search and pagination, projecting
// each record to the requested fields. An empty field list returns full
// records.
func (s *Customer) List(ctx context.Context, req ListCustomersRequest) (*CustomerPage, error) {
	result, err := s.persistence.CustomerRepository().List(ctx, persistence.ListCustomersOptions{
		Fields:  req.Fields,
		Filters: req.Filters,
		Search:  req.Search,
		Page:    req.Page,
		Limit:   req.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	page := &CustomerPage{
		Customers:  make([]map[string]any, 0, len(result.Customers)),
		TotalCount: result.TotalCount,
		Page:       result.Page,
		Limit:      result.Limit,
	}

	for _, customer := range result.Customers {
		page.Customers = append(page.Customers, project(customer, req.Fields))
	}

	return page, nil
}

// project reduces a customer record to the requested fields. Unknown field
// names resolve against custom fields, so tenant-defined columns project the
// same way built-ins do.
func project(customer *models.Customer, fields []string) map[string]any {
	record := customer.Record()

	if len(fields) == 0 {
		return record
	}

	projected := make(map[string]any, len(fields)+1)
	projected["id"] = customer.ID

	for _, field := range fields {
		if value, ok := record[field]; ok {
			projected[field] = value
		}
	}

	return projected
}

// FetchByID retrieves a customer by its ID.
func (s *Customer) FetchByID(ctx context.Context, id string) (*models.Customer, error) {
	return s.persistence.CustomerRepository().GetByID(ctx, id)
}

// Create adds a new customer record.
func (s *Customer) Create(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	if err := s.validate.Struct(customer); err != nil {
		return nil, NewValidationError("CreateCustomer", "INVALID_CUSTOMER", err.Error(), ErrInvalidRequest)
	}

	now := time.Now().UTC()
	customer.ID = uuid.New().String()
	customer.CreatedAt = now
	customer.UpdatedAt = now

	if err := s.persistence.CustomerRepository().Save(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	return customer, nil
}

// Update patches individual fields on a customer record. Unknown field names
// land in custom fields.
func (s *Customer) Update(ctx context.Context, id string, fields map[string]any) (*models.Customer, error) {
	if len(fields) == 0 {
		return nil, NewValidationError("UpdateCustomer", "EMPTY_UPDATE", "no fields to update", ErrInvalidRequest)
	}

	updated, err := s.persistence.CustomerRepository().UpdateFields(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes a customer record by its ID.
func (s *Customer) Delete(ctx context.Context, id string) error {
	if _, err := s.persistence.CustomerRepository().GetByID(ctx, id); err != nil {
		return err
	}

	return s.persistence.CustomerRepository().Delete(ctx, id)
}

// ResolveOrCreate finds the customer behind an inbound channel address,
// creating a minimal record on first contact.
func (s *Customer) ResolveOrCreate(ctx context.Context, channel models.Channel, address, name string) (*models.Customer, error) {
	if channel != models.ChannelWhatsApp && channel != models.ChannelTelegram {
		return nil, ErrInvalidChannel
	}

	customer, err := s.persistence.CustomerRepository().GetByAddress(ctx, channel, address)
	if err == nil {
		return customer, nil
	}

	if !persistence.IsCustomerNotFound(err) {
		return nil, fmt.Errorf("failed to resolve customer: %w", err)
	}

	if name == "" {
		name = address
	}

	now := time.Now().UTC()
	customer = &models.Customer{
		ID:        uuid.New().String(),
		Name:      name,
		Phone:     address,
		Channel:   channel,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.persistence.CustomerRepository().Save(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to create customer on first contact: %w", err)
	}

	return customer, nil
}
