package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"promptvault/internal/models"
)

type event int

const (
	eventCreate event = iota
	eventUpdate
	eventDelete
	eventExecute
)

// Analytics returns the device summary.
func (s *Store) Analytics(ctx context.Context) (*models.AnalyticsSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadAnalytics(ctx)
}

func (s *Store) loadAnalytics(ctx context.Context) (*models.AnalyticsSummary, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM analytics WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewAnalyticsSummary(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load analytics: %w", err)
	}

	a := models.NewAnalyticsSummary()
	if err := json.Unmarshal([]byte(data), a); err != nil {
		return nil, fmt.Errorf("decode analytics: %w", err)
	}
	if a.PopularCategories == nil {
		a.PopularCategories = map[string]int{}
	}
	if a.PopularModels == nil {
		a.PopularModels = map[string]int{}
	}
	if a.DailyUsage == nil {
		a.DailyUsage = map[string]int{}
	}
	return a, nil
}

func (s *Store) saveAnalytics(ctx context.Context, a *models.AnalyticsSummary) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode analytics: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO analytics (id, data) VALUES (1, ?)`, string(data),
	); err != nil {
		return fmt.Errorf("save analytics: %w", err)
	}
	return nil
}

// applyEvent folds a mutation into the summary. Counters that cannot be
// maintained incrementally after deletes are recomputed from the prompt
// table on every event.
func (s *Store) applyEvent(ctx context.Context, ev event, p *models.Prompt) error {
	a, err := s.loadAnalytics(ctx)
	if err != nil {
		return err
	}
	now := s.now()
	day := now.Format("2006-01-02")

	switch ev {
	case eventCreate:
		a.PopularCategories[p.Category]++
		if p.AIModel != "" {
			a.PopularModels[p.AIModel]++
		}
		a.DailyUsage[day]++
	case eventExecute:
		a.TotalExecutions++
		a.DailyUsage[day]++
	case eventUpdate, eventDelete:
		// only the recomputed fields below change
	}

	all, err := s.getAll(ctx)
	if err != nil {
		return err
	}
	a.TotalPrompts = len(all)
	a.FavoritePrompts = 0
	seen := map[string]bool{}
	a.CategoriesUsed = a.CategoriesUsed[:0]
	for i := range all {
		if all[i].IsFavorite {
			a.FavoritePrompts++
		}
		if c := all[i].Category; c != "" && !seen[c] {
			seen[c] = true
			a.CategoriesUsed = append(a.CategoriesUsed, c)
		}
	}
	a.LastActivity = now

	return s.saveAnalytics(ctx, a)
}
