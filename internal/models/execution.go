package models

import "time"

// Execution records one use of a prompt: a model invocation or a manual
// copy. Executions are append-only.
type Execution struct {
	ID              string    `json:"id" db:"id"`
	PromptID        string    `json:"prompt_id" db:"prompt_id"`
	Input           string    `json:"input,omitempty" db:"input"`
	Output          string    `json:"output,omitempty" db:"output"`
	Model           string    `json:"model" db:"model"`
	TokensUsed      *int      `json:"tokens_used,omitempty" db:"tokens_used"`
	ExecutionTimeMs *int64    `json:"execution_time_ms,omitempty" db:"execution_time_ms"`
	Success         bool      `json:"success" db:"success"`
	Feedback        string    `json:"feedback,omitempty" db:"feedback"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// Rating is a user-submitted 1-5 score for a prompt. Ratings are never
// mutated after submission.
type Rating struct {
	ID        string    `json:"id" db:"id"`
	PromptID  string    `json:"prompt_id" db:"prompt_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment,omitempty" db:"comment"`
	UserHash  string    `json:"user_hash,omitempty" db:"user_hash"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
