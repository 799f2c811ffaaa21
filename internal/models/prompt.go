package models

import (
	"time"
)

// Prompt is a stored, reusable block of instruction text for an AI model.
type Prompt struct {
	ID                string             `json:"id" db:"id"`
	Title             string             `json:"title" db:"title"`
	Content           string             `json:"content" db:"content"`
	Description       string             `json:"description,omitempty" db:"description"`
	Category          string             `json:"category" db:"category"`
	Tags              []string           `json:"tags" db:"tags"`
	AIModel           string             `json:"ai_model" db:"ai_model"`
	IsFavorite        bool               `json:"is_favorite" db:"is_favorite"`
	IsPrivate         bool               `json:"is_private" db:"is_private"`
	UsageCount        int                `json:"usage_count" db:"usage_count"`
	Difficulty        string             `json:"difficulty,omitempty" db:"difficulty"`
	EstimatedTokens   *int               `json:"estimated_tokens,omitempty" db:"estimated_tokens"`
	Language          string             `json:"language,omitempty" db:"language"`
	Industry          string             `json:"industry,omitempty" db:"industry"`
	TemplateVariables []TemplateVariable `json:"template_variables,omitempty" db:"template_variables"`
	Version           string             `json:"version,omitempty" db:"version"`
	ParentID          *string            `json:"parent_id,omitempty" db:"parent_id"`
	AvgRating         float64            `json:"avg_rating,omitempty" db:"avg_rating"`
	TotalRatings      int                `json:"total_ratings,omitempty" db:"total_ratings"`
	SuccessRate       float64            `json:"success_rate,omitempty" db:"success_rate"`
	Author            string             `json:"author,omitempty" db:"author"`
	Source            string             `json:"source,omitempty" db:"source"`
	License           string             `json:"license,omitempty" db:"license"`
	CreatedAt         time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" db:"updated_at"`
}

// TemplateVariable describes one {{placeholder}} inside a prompt's content.
type TemplateVariable struct {
	Name    string   `json:"name"`
	Type    string   `json:"type,omitempty"`
	Options []string `json:"options,omitempty"`
}

// PromptDraft is the input for creating a prompt. ID and timestamps are
// assigned by the store that accepts the draft.
type PromptDraft struct {
	Title             string             `json:"title"`
	Content           string             `json:"content"`
	Description       string             `json:"description,omitempty"`
	Category          string             `json:"category"`
	Tags              []string           `json:"tags"`
	AIModel           string             `json:"ai_model"`
	IsFavorite        bool               `json:"is_favorite"`
	IsPrivate         bool               `json:"is_private"`
	Difficulty        string             `json:"difficulty,omitempty"`
	EstimatedTokens   *int               `json:"estimated_tokens,omitempty"`
	Language          string             `json:"language,omitempty"`
	Industry          string             `json:"industry,omitempty"`
	TemplateVariables []TemplateVariable `json:"template_variables,omitempty"`
	Version           string             `json:"version,omitempty"`
	ParentID          *string            `json:"parent_id,omitempty"`
	Author            string             `json:"author,omitempty"`
	Source            string             `json:"source,omitempty"`
	License           string             `json:"license,omitempty"`
}

// PromptPatch carries a partial update. Only non-nil fields overwrite the
// stored record; UpdatedAt is always refreshed by the store.
type PromptPatch struct {
	Title             *string             `json:"title,omitempty"`
	Content           *string             `json:"content,omitempty"`
	Description       *string             `json:"description,omitempty"`
	Category          *string             `json:"category,omitempty"`
	Tags              *[]string           `json:"tags,omitempty"`
	AIModel           *string             `json:"ai_model,omitempty"`
	IsFavorite        *bool               `json:"is_favorite,omitempty"`
	IsPrivate         *bool               `json:"is_private,omitempty"`
	Difficulty        *string             `json:"difficulty,omitempty"`
	EstimatedTokens   *int                `json:"estimated_tokens,omitempty"`
	Language          *string             `json:"language,omitempty"`
	Industry          *string             `json:"industry,omitempty"`
	TemplateVariables *[]TemplateVariable `json:"template_variables,omitempty"`
	Version           *string             `json:"version,omitempty"`
	Author            *string             `json:"author,omitempty"`
	Source            *string             `json:"source,omitempty"`
	License           *string             `json:"license,omitempty"`
}

// Apply merges the patch into p.
func (patch PromptPatch) Apply(p *Prompt) {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Tags != nil {
		p.Tags = *patch.Tags
	}
	if patch.AIModel != nil {
		p.AIModel = *patch.AIModel
	}
	if patch.IsFavorite != nil {
		p.IsFavorite = *patch.IsFavorite
	}
	if patch.IsPrivate != nil {
		p.IsPrivate = *patch.IsPrivate
	}
	if patch.Difficulty != nil {
		p.Difficulty = *patch.Difficulty
	}
	if patch.EstimatedTokens != nil {
		p.EstimatedTokens = patch.EstimatedTokens
	}
	if patch.Language != nil {
		p.Language = *patch.Language
	}
	if patch.Industry != nil {
		p.Industry = *patch.Industry
	}
	if patch.TemplateVariables != nil {
		p.TemplateVariables = *patch.TemplateVariables
	}
	if patch.Version != nil {
		p.Version = *patch.Version
	}
	if patch.Author != nil {
		p.Author = *patch.Author
	}
	if patch.Source != nil {
		p.Source = *patch.Source
	}
	if patch.License != nil {
		p.License = *patch.License
	}
}

// SearchFilters narrows a prompt search. Zero values (and the "all"
// wildcard for Category/Difficulty) mean "no filter".
type SearchFilters struct {
	Category   string   `json:"category,omitempty"`
	AIModel    string   `json:"ai_model,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Favorite   *bool    `json:"favorite,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
}

// Filters is the distinct-label index across all prompts.
type Filters struct {
	Categories []string `json:"categories"`
	AIModels   []string `json:"ai_models"`
	Tags       []string `json:"tags"`
}
