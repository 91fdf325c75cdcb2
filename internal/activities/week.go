package activities

import (
	"math"
	"sort"
	"time"
)

// weeklyProgressWindow caps the chart at the 12 most recent weeks with data.
const weeklyProgressWindow = 12

// WeekStart returns the Sunday on or before d. A Sunday maps to itself.
func WeekStart(d time.Time) time.Time {
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// weekStartLabel buckets an ISO date string into its week_start label.
func weekStartLabel(date string) (string, error) {
	parsed, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", err
	}
	return WeekStart(parsed).Format(DateLayout), nil
}

// WeeklyBucket is one pivoted chart row: the week_start label plus one entry
// per category active that week. Categories absent in a week are omitted
// rather than zero-filled.
type WeeklyBucket map[string]any

// weekSample is a single activity row reduced to its bucketing inputs.
type weekSample struct {
	weekStart string
	category  string
	minutes   int
}

// buildWeeklyProgress pivots samples into at most weeklyProgressWindow rows,
// keeping the most recent weeks and returning them oldest first.
func buildWeeklyProgress(samples []weekSample) []WeeklyBucket {
	distinct := make(map[string]struct{}, len(samples))
	for _, sample := range samples {
		distinct[sample.weekStart] = struct{}{}
	}

	ordered := make([]string, 0, len(distinct))
	for start := range distinct {
		ordered = append(ordered, start)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ordered)))
	if len(ordered) > weeklyProgressWindow {
		ordered = ordered[:weeklyProgressWindow]
	}
	sort.Strings(ordered)

	buckets := make([]WeeklyBucket, 0, len(ordered))
	index := make(map[string]WeeklyBucket, len(ordered))
	for _, start := range ordered {
		bucket := WeeklyBucket{"week_start": start}
		index[start] = bucket
		buckets = append(buckets, bucket)
	}

	for _, sample := range samples {
		bucket, kept := index[sample.weekStart]
		if !kept {
			continue
		}
		if current, present := bucket[sample.category].(int); present {
			bucket[sample.category] = current + sample.minutes
		} else {
			bucket[sample.category] = sample.minutes
		}
	}

	return buckets
}

// currentWeekMinutes sums minutes for the most recent week present in the
// samples. The current week is data-relative: the week of the latest
// recorded date, not the week of the wall clock.
func currentWeekMinutes(samples []weekSample) (string, int) {
	latest := ""
	for _, sample := range samples {
		if sample.weekStart > latest {
			latest = sample.weekStart
		}
	}
	if latest == "" {
		return "", 0
	}

	total := 0
	for _, sample := range samples {
		if sample.weekStart == latest {
			total += sample.minutes
		}
	}
	return latest, total
}

// roundHours converts minutes to hours rounded to two decimals. math.Round
// rounds halves away from zero, so 7.5 minutes becomes 0.13 hours.
func roundHours(minutes int) float64 {
	return math.Round(float64(minutes)/60.0*100) / 100
}
