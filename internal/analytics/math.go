package analytics

import (
	"math"
	"time"

	"promptvault/internal/models"
)

// Round1 rounds to one decimal place.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// Percentage returns count/total as an integer percentage, 0 when total
// is 0.
func Percentage(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}

// SuccessRate returns successes/total as a percentage with one decimal,
// 0 when there are no executions.
func SuccessRate(successes, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round1(float64(successes) / float64(total) * 100)
}

// PerPrompt returns a per-prompt average with one decimal, 0 when there
// are no prompts.
func PerPrompt(count, prompts int) float64 {
	if prompts == 0 {
		return 0
	}
	return Round1(float64(count) / float64(prompts))
}

// CapTopPrompts trims the ranked list to the response maximum, keeping
// order.
func CapTopPrompts(top []models.TopPrompt, n int) []models.TopPrompt {
	if len(top) > n {
		return top[:n]
	}
	return top
}

// ModelPercentages sets each model's share of totalExecutions. The
// denominator is all executions, including ones with no model name.
func ModelPercentages(stats []models.ModelStat, totalExecutions int) {
	for i := range stats {
		stats[i].Percentage = Percentage(stats[i].Count, totalExecutions)
	}
}

// FillDaily expands per-day count maps (keyed "2006-01-02") into a dense
// series covering the last n calendar days ending today, oldest first.
// Days with no entries get zero counts.
func FillDaily(now time.Time, n int, prompts, executions map[string]int) []models.DailyStat {
	out := make([]models.DailyStat, 0, n)
	for i := n - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).Format("2006-01-02")
		out = append(out, models.DailyStat{
			Date:       day,
			Prompts:    prompts[day],
			Executions: executions[day],
		})
	}
	return out
}
