package models

import "time"

// AnalyticsSummary holds the device-scoped counters maintained by the
// local store. Counters are updated per event; FavoritePrompts is always
// recomputed from a full scan so it cannot drift.
type AnalyticsSummary struct {
	TotalPrompts      int            `json:"total_prompts"`
	TotalExecutions   int            `json:"total_executions"`
	FavoritePrompts   int            `json:"favorite_prompts"`
	CategoriesUsed    []string       `json:"categories_used"`
	LastActivity      time.Time      `json:"last_activity"`
	DailyUsage        map[string]int `json:"daily_usage"`
	PopularCategories map[string]int `json:"popular_categories"`
	PopularModels     map[string]int `json:"popular_models"`
}

// NewAnalyticsSummary returns a zeroed summary with initialized maps.
func NewAnalyticsSummary() *AnalyticsSummary {
	return &AnalyticsSummary{
		CategoriesUsed:    []string{},
		DailyUsage:        map[string]int{},
		PopularCategories: map[string]int{},
		PopularModels:     map[string]int{},
	}
}

// Dashboard is the analytics aggregator response for one time range.
type Dashboard struct {
	TimeRange      string          `json:"time_range"`
	Summary        DashboardTotals `json:"summary"`
	TopPrompts     []TopPrompt     `json:"top_prompts"`
	TopCategories  []CategoryStat  `json:"top_categories"`
	TopModels      []ModelStat     `json:"top_models"`
	RecentActivity []ActivityEntry `json:"recent_activity"`
	DailyUsage     []DailyStat     `json:"daily_usage"`
}

type DashboardTotals struct {
	TotalPrompts        int     `json:"total_prompts"`
	TotalExecutions     int     `json:"total_executions"`
	TotalRatings        int     `json:"total_ratings"`
	PromptsThisPeriod   int     `json:"prompts_this_period"`
	AvgRating           float64 `json:"avg_rating"`
	SuccessRate         float64 `json:"success_rate"`
	ExecutionsPerPrompt float64 `json:"executions_per_prompt"`
	RatingsPerPrompt    float64 `json:"ratings_per_prompt"`
}

type TopPrompt struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Executions int     `json:"executions"`
	Views      int     `json:"views"`
	Rating     float64 `json:"rating"`
	Uses       int     `json:"uses"`
}

type CategoryStat struct {
	Category   string `json:"category"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

type ModelStat struct {
	Model      string `json:"model"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// ActivityEntry is one row of the merged recent-activity feed. Type is
// "executed" or "created"; Date is truncated to the calendar day.
type ActivityEntry struct {
	Type     string `json:"type"`
	PromptID string `json:"prompt_id"`
	Title    string `json:"title"`
	Model    string `json:"model,omitempty"`
	Date     string `json:"date"`
}

type DailyStat struct {
	Date       string `json:"date"`
	Prompts    int    `json:"prompts"`
	Executions int    `json:"executions"`
}

// Backup is the export/import blob: the full prompt list, the analytics
// summary, and the format version.
type Backup struct {
	Prompts   []Prompt          `json:"prompts"`
	Analytics *AnalyticsSummary `json:"analytics,omitempty"`
	Version   string            `json:"version"`
}
