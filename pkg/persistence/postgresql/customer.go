package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Built-in columns a list filter may target directly. Anything else goes
// through the custom_fields JSONB document.
var customerFilterColumns = map[string]bool{
	"name":     true,
	"phone":    true,
	"email":    true,
	"channel":  true,
	"stage_id": true,
	"balance":  true,
}

// CustomerRepository handles customer-related database operations.
type CustomerRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewCustomerRepository(db *sql.DB, logger *slog.Logger) *CustomerRepository {
	return &CustomerRepository{db: db, logger: logger}
}

const customerColumns = `
	id
  , name
  , phone
  , email
  , channel
  , stage_id
  , balance
  , tags
  , custom_fields
  , created_at
  , updated_at
`

func (r *CustomerRepository) List(ctx context.Context, opts persistence.ListCustomersOptions) (*persistence.CustomerListResult, error) {
	if opts.Limit <= 0 || opts.Limit > maxPageLimit {
		opts.Limit = defaultPageLimit
	}

	if opts.Page <= 0 {
		opts.Page = 1
	}

	where, args := buildCustomerWhere(opts)

	query := `
		SELECT ` + customerColumns + `
		  , COUNT(*) OVER() AS total_count
		FROM customers
		` + where + `
		ORDER BY created_at DESC, id
		LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)

	args = append(args, opts.Limit, (opts.Page-1)*opts.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	var totalCount int64

	customers := make([]*models.Customer, 0)

	for rows.Next() {
		customer, count, err := scanCustomerWithCount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}

		totalCount = count

		customers = append(customers, customer)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating customers: %w", err)
	}

	return &persistence.CustomerListResult{
		Customers:  customers,
		TotalCount: totalCount,
		Page:       opts.Page,
		Limit:      opts.Limit,
	}, nil
}

func buildCustomerWhere(opts persistence.ListCustomersOptions) (string, []any) {
	clauses := make([]string, 0, len(opts.Filters)+1)
	args := make([]any, 0, len(opts.Filters)+1)

	for name, value := range opts.Filters {
		args = append(args, fmt.Sprint(value))
		placeholder := "$" + strconv.Itoa(len(args))

		if customerFilterColumns[name] {
			if name == "balance" {
				clauses = append(clauses, "balance = "+placeholder+"::double precision")
			} else {
				clauses = append(clauses, name+" = "+placeholder)
			}
		} else {
			args[len(args)-1] = name
			valuePlaceholder := "$" + strconv.Itoa(len(args)+1)
			args = append(args, fmt.Sprint(value))
			clauses = append(clauses, "custom_fields->>"+placeholder+" = "+valuePlaceholder)
		}
	}

	if opts.Search != "" {
		args = append(args, "%"+opts.Search+"%")
		placeholder := "$" + strconv.Itoa(len(args))
		clauses = append(clauses, "(name ILIKE "+placeholder+" OR phone ILIKE "+placeholder+" OR email ILIKE "+placeholder+")")
	}

	if len(clauses) == 0 {
		return "", args
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE id = $1
	`

	customer, err := scanCustomer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", persistence.ErrCustomerNotFound, id)
		}

		return nil, fmt.Errorf("failed to scan customer: %w", err)
	}

	return customer, nil
}

func (r *CustomerRepository) GetByAddress(ctx context.Context, channel models.Channel, address string) (*models.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE channel = $1 AND phone = $2
	`

	customer, err := scanCustomer(r.db.QueryRowContext(ctx, query, string(channel), address))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s on %s", persistence.ErrCustomerNotFound, address, channel)
		}

		return nil, fmt.Errorf("failed to scan customer: %w", err)
	}

	return customer, nil
}

func (r *CustomerRepository) Save(ctx context.Context, customer *models.Customer) error {
	now := time.Now().UTC()
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = now
	}

	customer.UpdatedAt = now

	customFieldsJSON, err := json.Marshal(customer.CustomFields)
	if err != nil {
		return fmt.Errorf("failed to marshal custom fields: %w", err)
	}

	if customer.CustomFields == nil {
		customFieldsJSON = []byte("{}")
	}

	query := `
		INSERT INTO customers (id, name, phone, email, channel, stage_id, balance, tags, custom_fields, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			channel = EXCLUDED.channel,
			stage_id = EXCLUDED.stage_id,
			balance = EXCLUDED.balance,
			tags = EXCLUDED.tags,
			custom_fields = EXCLUDED.custom_fields,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		customer.ID,
		customer.Name,
		customer.Phone,
		customer.Email,
		string(customer.Channel),
		nullableString(customer.StageID),
		customer.Balance,
		pq.Array(customer.Tags),
		customFieldsJSON,
		customer.CreatedAt,
		customer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save customer %s: %w", customer.ID, err)
	}

	return nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM customers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete customer %s: %w", id, err)
	}

	return nil
}

// UpdateFields loads, patches and saves the customer. Field routing matches
// the file implementation: unknown names land in custom_fields.
func (r *CustomerRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) (*models.Customer, error) {
	customer, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	for name, value := range fields {
		applyCustomerField(customer, name, value)
	}

	if err := r.Save(ctx, customer); err != nil {
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
		if n, err := strconv.ParseFloat(fmt.Sprint(value), 64); err == nil {
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

func scanCustomer(row rowScanner) (*models.Customer, error) {
	return scanCustomerInto(row, nil)
}

func scanCustomerWithCount(row rowScanner) (*models.Customer, int64, error) {
	var count int64

	customer, err := scanCustomerInto(row, &count)

	return customer, count, err
}

func scanCustomerInto(row rowScanner, totalCount *int64) (*models.Customer, error) {
	var (
		customer         models.Customer
		channel          string
		stageID          sql.NullString
		tags             pq.StringArray
		customFieldsJSON []byte
	)

	dest := []any{
		&customer.ID,
		&customer.Name,
		&customer.Phone,
		&customer.Email,
		&channel,
		&stageID,
		&customer.Balance,
		&tags,
		&customFieldsJSON,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	}
	if totalCount != nil {
		dest = append(dest, totalCount)
	}

	err := row.Scan(dest...)
	if err != nil {
		return nil, err
	}

	customer.Channel = models.Channel(channel)
	customer.StageID = stageID.String
	customer.Tags = tags

	if len(customFieldsJSON) > 0 {
		if err := json.Unmarshal(customFieldsJSON, &customer.CustomFields); err != nil {
			return nil, fmt.Errorf("failed to unmarshal custom fields: %w", err)
		}
	}

	return &customer, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
