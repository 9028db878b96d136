package journal

import (
	"math"
	"sort"
	"time"
)

// ComputeStats derives user statistics from the full prompt set. Callers pass
// "now" so dashboard views stay reproducible in tests.
func ComputeStats(prompts []Prompt, now time.Time) Stats {
	weekAgo := now.AddDate(0, 0, -7)
	monthAgo := now.AddDate(0, 0, -30)

	stats := Stats{TotalPrompts: len(prompts)}

	var ratingSum float64
	var ratedCount int
	for _, p := range prompts {
		if p.CreatedAt.After(weekAgo) {
			stats.PromptsThisWeek++
		}
		if p.CreatedAt.After(monthAgo) {
			stats.PromptsThisMonth++
		}
		if !p.Ratings.IsZero() {
			ratingSum += p.Ratings.Average()
			ratedCount++
		}
	}

	if ratedCount > 0 {
		stats.AverageRating = math.Round(ratingSum/float64(ratedCount)*10) / 10
	}
	stats.StreakDays = streakDays(prompts, now)

	return stats
}

// streakDays counts consecutive calendar days ending today (or yesterday)
// with at least one prompt.
func streakDays(prompts []Prompt, now time.Time) int {
	days := make(map[string]bool, len(prompts))
	for _, p := range prompts {
		days[p.CreatedAt.Format("2006-01-02")] = true
	}

	day := now
	if !days[day.Format("2006-01-02")] {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for days[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// DayCount is one point in the prompts-per-day series.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// PromptsPerDay groups prompts by creation date, oldest first.
func PromptsPerDay(prompts []Prompt) []DayCount {
	counts := map[string]int{}
	for _, p := range prompts {
		counts[p.CreatedAt.Format("2006-01-02")]++
	}

	series := make([]DayCount, 0, len(counts))
	for date, n := range counts {
		series = append(series, DayCount{Date: date, Count: n})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	return series
}

// TagCounts tallies tag usage across prompts.
func TagCounts(prompts []Prompt) map[string]int {
	counts := map[string]int{}
	for _, p := range prompts {
		for _, tag := range p.Tags {
			counts[tag]++
		}
	}
	return counts
}

// PersonaCounts tallies which persona reviewed each prompt.
func PersonaCounts(prompts []Prompt) map[string]int {
	counts := map[string]int{}
	for _, p := range prompts {
		if p.PersonaUsed != "" {
			counts[p.PersonaUsed]++
		}
	}
	return counts
}
