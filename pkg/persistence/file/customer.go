package file

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence"
)

const customersDir = "customers"

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// CustomerRepository stores customer records as JSON files, applying the
// list endpoint's filtering, search and pagination in memory.
type CustomerRepository struct {
	root string
}

func NewCustomerRepository(root string) *CustomerRepository {
	return &CustomerRepository{root: root}
}

func (cr *CustomerRepository) List(_ context.Context, opts persistence.ListCustomersOptions) (*persistence.CustomerListResult, error) {
	if opts.Limit <= 0 || opts.Limit > maxPageLimit {
		opts.Limit = defaultPageLimit
	}

	if opts.Page <= 0 {
		opts.Page = 1
	}

	customers, err := listEntities[models.Customer](cr.root, customersDir)
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.Customer, 0, len(customers))

	for _, customer := range customers {
		if !matchesFilters(customer, opts.Filters) {
			continue
		}

		if !matchesSearch(customer, opts.Search) {
			continue
		}

		filtered = append(filtered, customer)
	}

	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].CreatedAt.Equal(filtered[j].CreatedAt) {
			return filtered[i].ID < filtered[j].ID
		}

		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	totalCount := int64(len(filtered))
	startIdx := (opts.Page - 1) * opts.Limit
	endIdx := startIdx + opts.Limit

	if startIdx >= len(filtered) {
		filtered = []*models.Customer{}
	} else {
		if endIdx > len(filtered) {
			endIdx = len(filtered)
		}

		filtered = filtered[startIdx:endIdx]
	}

	return &persistence.CustomerListResult{
		Customers:  filtered,
		TotalCount: totalCount,
		Page:       opts.Page,
		Limit:      opts.Limit,
	}, nil
}

func (cr *CustomerRepository) GetByID(_ context.Context, id string) (*models.Customer, error) {
	return loadEntity[models.Customer](cr.root, customersDir, id, persistence.ErrCustomerNotFound)
}

func (cr *CustomerRepository) GetByAddress(_ context.Context, channel models.Channel, address string) (*models.Customer, error) {
	customers, err := listEntities[models.Customer](cr.root, customersDir)
	if err != nil {
		return nil, err
	}

	for _, customer := range customers {
		if customer.Channel == channel && customer.Phone == address {
			return customer, nil
		}
	}

	return nil, fmt.Errorf("%w: %s on %s", persistence.ErrCustomerNotFound, address, channel)
}

func (cr *CustomerRepository) Save(_ context.Context, customer *models.Customer) error {
	now := time.Now().UTC()
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = now
	}

	customer.UpdatedAt = now

	return saveEntity(cr.root, customersDir, customer.ID, customer)
}

func (cr *CustomerRepository) Delete(_ context.Context, id string) error {
	return deleteEntity(cr.root, customersDir, id)
}

// UpdateFields patches built-in fields by name and routes everything else
// into CustomFields.
func (cr *CustomerRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) (*models.Customer, error) {
	customer, err := cr.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	for name, value := range fields {
		applyCustomerField(customer, name, value)
	}

	if err := cr.Save(ctx, customer); err != nil {
		return nil, err
	}

	return customer, nil
}

func applyCustomerField(customer *models.Customer, name string, value any) {
	switch name {
	case "name":
		customer.Name = fmt.Sprint(value)
	case "phone":
		customer.Phone = fmt.Sprint(value)
	case "email":
		customer.Email = fmt.Sprint(value)
	case "stage_id":
		customer.StageID = fmt.Sprint(value)
	case "balance":
		if n, ok := toFloat(value); ok {
			customer.Balance = n
		}
	case "tags":
		customer.Tags = toStringSlice(value)
	default:
		if customer.CustomFields == nil {
			customer.CustomFields = make(map[string]any)
		}

		customer.CustomFields[name] = value
	}
}

func matchesFilters(customer *models.Customer, filters map[string]any) bool {
	if len(filters) == 0 {
		return true
	}

	record := customer.Record()

	for name, want := range filters {
		got, ok := record[name]
		if !ok {
			return false
		}

		if !looseMatch(got, want) {
			return false
		}
	}

	return true
}

func matchesSearch(customer *models.Customer, search string) bool {
	if search == "" {
		return true
	}

	needle := strings.ToLower(search)

	for _, haystack := range []string{customer.Name, customer.Phone, customer.Email} {
		if strings.Contains(strings.ToLower(haystack), needle) {
			return true
		}
	}

	return false
}

// looseMatch compares filter values numerically when both sides parse as
// numbers, otherwise case-insensitively as strings.
func looseMatch(got, want any) bool {
	if gn, ok := toFloat(got); ok {
		if wn, ok := toFloat(want); ok {
			return gn == wn
		}
	}

	return strings.EqualFold(fmt.Sprint(got), fmt.Sprint(want))
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return n, true
		}
	}

	return 0, false
}

func toStringSlice(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			tags = append(tags, fmt.Sprint(item))
		}

		return tags
	case string:
		if v == "" {
			return nil
		}

		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		return parts
	default:
		return nil
	}
}
