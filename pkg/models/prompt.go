package models

import "time"

// Prompt is a reusable prompt-library entry. SystemPrompt and UserPrompt are
// free text carrying placeholder tokens resolved at execution time.
type Prompt struct {
	ID           string    `json:"id"`
	Name         string    `json:"name" validate:"required,min=1"`
	Description  string    `json:"description"`
	SystemPrompt string    `json:"system_prompt"`
	UserPrompt   string    `json:"user_prompt"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
