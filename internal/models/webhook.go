package models

import (
	"encoding/json"
	"time"
)

// Webhook is a registered subscriber for prompt lifecycle events.
// Secret is only populated on creation.
type Webhook struct {
	ID        string          `json:"id" db:"id"`
	URL       string          `json:"url" db:"url"`
	Events    json.RawMessage `json:"events" db:"events"`
	Secret    string          `json:"secret,omitempty" db:"-"`
	IsActive  bool            `json:"is_active" db:"is_active"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
