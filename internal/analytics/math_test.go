package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"promptvault/internal/models"
)

func TestPercentageSumsToWhole(t *testing.T) {
	// categories {A:3, B:1} over 4 prompts
	a := Percentage(3, 4)
	b := Percentage(1, 4)

	assert.Equal(t, 75, a)
	assert.Equal(t, 25, b)
	assert.Equal(t, 100, a+b)
}

func TestPercentageZeroTotal(t *testing.T) {
	assert.Equal(t, 0, Percentage(5, 0))
}

func TestSuccessRate(t *testing.T) {
	assert.Equal(t, 80.0, SuccessRate(8, 10))
	assert.Equal(t, 0.0, SuccessRate(0, 0))
	assert.Equal(t, 33.3, SuccessRate(1, 3))
	assert.Equal(t, 100.0, SuccessRate(7, 7))
}

func TestPerPrompt(t *testing.T) {
	assert.Equal(t, 2.5, PerPrompt(10, 4))
	assert.Equal(t, 0.0, PerPrompt(10, 0))
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 4.7, Round1(4.666))
	assert.Equal(t, 4.6, Round1(4.649))
}

func TestCapTopPromptsLimitsResponse(t *testing.T) {
	ranked := make([]models.TopPrompt, 10)
	for i := range ranked {
		ranked[i] = models.TopPrompt{ID: string(rune('a' + i)), Executions: 10 - i}
	}

	capped := CapTopPrompts(ranked, 5)

	assert.Len(t, capped, 5)
	assert.Equal(t, "a", capped[0].ID)
	assert.Equal(t, "e", capped[4].ID)

	short := []models.TopPrompt{{ID: "only"}}
	assert.Len(t, CapTopPrompts(short, 5), 1)
}

func TestModelPercentagesUseExecutionTotal(t *testing.T) {
	// 6 named executions out of 10 total: the 4 unnamed ones must dilute
	// the share to 60, not leave it at 100.
	stats := []models.ModelStat{{Model: "gpt-4o", Count: 6}}
	ModelPercentages(stats, 10)
	assert.Equal(t, 60, stats[0].Percentage)

	stats = []models.ModelStat{{Model: "gpt-4o", Count: 3}, {Model: "claude-3-5-sonnet", Count: 1}}
	ModelPercentages(stats, 4)
	assert.Equal(t, 75, stats[0].Percentage)
	assert.Equal(t, 25, stats[1].Percentage)

	ModelPercentages(stats, 0)
	assert.Equal(t, 0, stats[0].Percentage)
}

func TestWindowStart(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.AddDate(0, 0, -7), WindowStart("7d", now))
	assert.Equal(t, now.AddDate(0, 0, -30), WindowStart("30d", now))
	assert.Equal(t, now.AddDate(0, 0, -90), WindowStart("90d", now))
	assert.Equal(t, now.AddDate(-1, 0, 0), WindowStart("1y", now))
	// unknown ranges fall back to 30 days
	assert.Equal(t, now.AddDate(0, 0, -30), WindowStart("bogus", now))
}

func TestFillDailyDenseSeries(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	prompts := map[string]int{"2026-03-15": 2}
	executions := map[string]int{"2026-03-13": 5}

	series := FillDaily(now, 3, prompts, executions)

	assert.Len(t, series, 3)
	assert.Equal(t, "2026-03-13", series[0].Date)
	assert.Equal(t, 5, series[0].Executions)
	assert.Equal(t, 0, series[0].Prompts)
	assert.Equal(t, "2026-03-14", series[1].Date)
	assert.Equal(t, 0, series[1].Executions)
	assert.Equal(t, "2026-03-15", series[2].Date)
	assert.Equal(t, 2, series[2].Prompts)
}
