package models

import "time"

// Customer represents a CRM customer record. CustomFields carries
// tenant-defined columns that the UI renders dynamically.
type Customer struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"    validate:"required,min=1"`
	Phone        string         `json:"phone"   validate:"required"`
	Email        string         `json:"email,omitempty"   validate:"omitempty,email"`
	Channel      Channel        `json:"channel" validate:"required,oneof=whatsapp telegram"`
	StageID      string         `json:"stage_id,omitempty"`
	Balance      float64        `json:"balance"`
	Tags         []string       `json:"tags,omitempty"`
	CustomFields map[string]any `json:"custom_fields,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Record flattens the customer into a generic map for condition evaluation
// and placeholder resolution. Custom fields sit next to the built-in ones;
// built-ins win on name collision.
func (c *Customer) Record() map[string]any {
	record := make(map[string]any, len(c.CustomFields)+8)

	for k, v := range c.CustomFields {
		record[k] = v
	}

	record["id"] = c.ID
	record["name"] = c.Name
	record["phone"] = c.Phone
	record["email"] = c.Email
	record["channel"] = string(c.Channel)
	record["stage_id"] = c.StageID
	record["balance"] = c.Balance
	record["created_at"] = c.CreatedAt.UTC().Format(time.RFC3339)

	return record
}

// Stage is a pipeline column representing a customer lifecycle phase.
type Stage struct {
	ID       string `json:"id"`
	Name     string `json:"name"     validate:"required,min=1"`
	Position int    `json:"position" validate:"min=0"`
	Color    string `json:"color,omitempty"`
}
