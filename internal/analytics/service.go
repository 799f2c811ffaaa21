package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"promptvault/internal/models"
)

const (
	// topPrompts groups the ten most executed prompts, but the response
	// carries at most five of them.
	maxTopPromptsQueried = 10
	maxTopPromptsEmitted = 5
	maxTopCategories     = 5
	maxTopModels         = 5
	maxActivity          = 10
	dailyWindowDays      = 7
)

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// WindowStart maps a timeRange selector to its start date. Unknown
// selectors default to 30 days.
func WindowStart(timeRange string, now time.Time) time.Time {
	switch timeRange {
	case "7d":
		return now.AddDate(0, 0, -7)
	case "90d":
		return now.AddDate(0, 0, -90)
	case "1y":
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, 0, -30)
	}
}

// Dashboard runs the full aggregation for one time range. Each step is an
// independent read; any failure aborts the whole request with no partial
// result.
func (s *Service) Dashboard(ctx context.Context, timeRange string) (*models.Dashboard, error) {
	now := time.Now()
	start := WindowStart(timeRange, now)

	d := &models.Dashboard{
		TimeRange:      timeRange,
		TopPrompts:     []models.TopPrompt{},
		TopCategories:  []models.CategoryStat{},
		TopModels:      []models.ModelStat{},
		RecentActivity: []models.ActivityEntry{},
	}

	var totalPrompts, totalExecutions, totalRatings int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM prompts`).Scan(&totalPrompts); err != nil {
		return nil, fmt.Errorf("count prompts: %w", err)
	}
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM executions`).Scan(&totalExecutions); err != nil {
		return nil, fmt.Errorf("count executions: %w", err)
	}
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM ratings`).Scan(&totalRatings); err != nil {
		return nil, fmt.Errorf("count ratings: %w", err)
	}

	var promptsThisPeriod int
	if err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM prompts WHERE created_at >= $1`, start,
	).Scan(&promptsThisPeriod); err != nil {
		return nil, fmt.Errorf("count period prompts: %w", err)
	}

	topPrompts, err := s.topPrompts(ctx)
	if err != nil {
		return nil, err
	}
	d.TopPrompts = CapTopPrompts(topPrompts, maxTopPromptsEmitted)

	topCategories, err := s.categoryStats(ctx)
	if err != nil {
		return nil, err
	}
	d.TopCategories = topCategories

	topModels, err := s.modelStats(ctx, totalExecutions)
	if err != nil {
		return nil, err
	}
	d.TopModels = topModels

	activity, err := s.recentActivity(ctx, start)
	if err != nil {
		return nil, err
	}
	d.RecentActivity = activity

	var avgRating float64
	if err := s.db.QueryRow(ctx, `SELECT COALESCE(AVG(rating), 0) FROM ratings`).Scan(&avgRating); err != nil {
		return nil, fmt.Errorf("global avg rating: %w", err)
	}

	var successCount int
	if err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM executions WHERE success = true`,
	).Scan(&successCount); err != nil {
		return nil, fmt.Errorf("count successful executions: %w", err)
	}

	daily, err := s.dailyUsage(ctx, now)
	if err != nil {
		return nil, err
	}
	d.DailyUsage = daily

	d.Summary = models.DashboardTotals{
		TotalPrompts:        totalPrompts,
		TotalExecutions:     totalExecutions,
		TotalRatings:        totalRatings,
		PromptsThisPeriod:   promptsThisPeriod,
		AvgRating:           Round1(avgRating),
		SuccessRate:         SuccessRate(successCount, totalExecutions),
		ExecutionsPerPrompt: PerPrompt(totalExecutions, totalPrompts),
		RatingsPerPrompt:    PerPrompt(totalRatings, totalPrompts),
	}

	return d, nil
}

// topPrompts groups executions per prompt, keeps the ten most executed,
// and joins in each prompt's title, usage count and mean rating.
// Prompts deleted since their executions were recorded drop out of the
// join, matching the read-side behavior of the dashboard.
func (s *Service) topPrompts(ctx context.Context) ([]models.TopPrompt, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.title, p.usage_count, ec.executions, COALESCE(ra.avg_rating, 0)
		FROM (
			SELECT prompt_id, COUNT(*) AS executions
			FROM executions
			GROUP BY prompt_id
			ORDER BY executions DESC
			LIMIT $1
		) ec
		JOIN prompts p ON p.id = ec.prompt_id
		LEFT JOIN (
			SELECT prompt_id, AVG(rating) AS avg_rating
			FROM ratings
			GROUP BY prompt_id
		) ra ON ra.prompt_id = p.id
		ORDER BY ec.executions DESC`,
		maxTopPromptsQueried,
	)
	if err != nil {
		return nil, fmt.Errorf("top prompts: %w", err)
	}
	defer rows.Close()

	top := []models.TopPrompt{}
	for rows.Next() {
		var t models.TopPrompt
		var rating float64
		if err := rows.Scan(&t.ID, &t.Title, &t.Views, &t.Executions, &rating); err != nil {
			return nil, fmt.Errorf("scan top prompt: %w", err)
		}
		t.Rating = Round1(rating)
		t.Uses = t.Views
		top = append(top, t)
	}
	return top, rows.Err()
}

func (s *Service) categoryStats(ctx context.Context) ([]models.CategoryStat, error) {
	rows, err := s.db.Query(ctx,
		`SELECT category, COUNT(*) FROM prompts GROUP BY category ORDER BY COUNT(*) DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("category stats: %w", err)
	}
	defer rows.Close()

	stats := []models.CategoryStat{}
	total := 0
	for rows.Next() {
		var c models.CategoryStat
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("scan category stat: %w", err)
		}
		total += c.Count
		stats = append(stats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range stats {
		stats[i].Percentage = Percentage(stats[i].Count, total)
	}
	if len(stats) > maxTopCategories {
		stats = stats[:maxTopCategories]
	}
	return stats, nil
}

// modelStats groups executions by model name. Unnamed models are hidden
// from the list but still count toward totalExecutions, so the shares
// are fractions of all executions, not just the named ones.
func (s *Service) modelStats(ctx context.Context, totalExecutions int) ([]models.ModelStat, error) {
	rows, err := s.db.Query(ctx,
		`SELECT model, COUNT(*) FROM executions WHERE model <> '' GROUP BY model ORDER BY COUNT(*) DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("model stats: %w", err)
	}
	defer rows.Close()

	stats := []models.ModelStat{}
	for rows.Next() {
		var m models.ModelStat
		if err := rows.Scan(&m.Model, &m.Count); err != nil {
			return nil, fmt.Errorf("scan model stat: %w", err)
		}
		stats = append(stats, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ModelPercentages(stats, totalExecutions)
	if len(stats) > maxTopModels {
		stats = stats[:maxTopModels]
	}
	return stats, nil
}

// recentActivity merges the ten most recent executions with the five most
// recent prompts created inside the window into one feed, newest first.
func (s *Service) recentActivity(ctx context.Context, start time.Time) ([]models.ActivityEntry, error) {
	entries := []models.ActivityEntry{}

	rows, err := s.db.Query(ctx, `
		SELECT e.prompt_id, p.title, e.model, e.created_at
		FROM executions e
		JOIN prompts p ON p.id = e.prompt_id
		ORDER BY e.created_at DESC
		LIMIT 10`,
	)
	if err != nil {
		return nil, fmt.Errorf("recent executions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e models.ActivityEntry
		var at time.Time
		if err := rows.Scan(&e.PromptID, &e.Title, &e.Model, &at); err != nil {
			return nil, fmt.Errorf("scan recent execution: %w", err)
		}
		e.Type = "executed"
		e.Date = at.Format("2006-01-02")
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(ctx, `
		SELECT id, title, created_at
		FROM prompts
		WHERE created_at >= $1
		ORDER BY created_at DESC
		LIMIT 5`,
		start,
	)
	if err != nil {
		return nil, fmt.Errorf("recent prompts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e models.ActivityEntry
		var at time.Time
		if err := rows.Scan(&e.PromptID, &e.Title, &at); err != nil {
			return nil, fmt.Errorf("scan recent prompt: %w", err)
		}
		e.Type = "created"
		e.Date = at.Format("2006-01-02")
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date > entries[j].Date
	})
	if len(entries) > maxActivity {
		entries = entries[:maxActivity]
	}
	return entries, nil
}

// dailyUsage counts prompts and executions created on each of the last
// seven calendar days, oldest first.
func (s *Service) dailyUsage(ctx context.Context, now time.Time) ([]models.DailyStat, error) {
	start := now.AddDate(0, 0, -(dailyWindowDays - 1))
	dayStart := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())

	promptCounts, err := s.countByDay(ctx, "prompts", dayStart)
	if err != nil {
		return nil, err
	}
	execCounts, err := s.countByDay(ctx, "executions", dayStart)
	if err != nil {
		return nil, err
	}

	return FillDaily(now, dailyWindowDays, promptCounts, execCounts), nil
}

func (s *Service) countByDay(ctx context.Context, table string, since time.Time) (map[string]int, error) {
	rows, err := s.db.Query(ctx,
		`SELECT to_char(created_at, 'YYYY-MM-DD'), COUNT(*)
		 FROM `+table+`
		 WHERE created_at >= $1
		 GROUP BY 1`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("count %s by day: %w", table, err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var day string
		var n int
		if err := rows.Scan(&day, &n); err != nil {
			return nil, fmt.Errorf("scan %s day count: %w", table, err)
		}
		counts[day] = n
	}
	return counts, rows.Err()
}
