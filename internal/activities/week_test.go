package activities

import (
	"testing"
	"time"
)

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		t.Fatalf("unexpected date parse error: %v", err)
	}
	return parsed
}

func TestWeekStartMapsToContainingSunday(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		expected string
	}{
		{name: "monday", date: "2026-01-05", expected: "2026-01-04"},
		{name: "saturday", date: "2026-01-10", expected: "2026-01-04"},
		{name: "sunday maps to itself", date: "2026-01-04", expected: "2026-01-04"},
		{name: "mid february", date: "2026-02-14", expected: "2026-02-08"},
		{name: "year boundary", date: "2026-01-01", expected: "2025-12-28"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := WeekStart(mustDate(t, tc.date)).Format(DateLayout)
			if got != tc.expected {
				t.Fatalf("WeekStart(%s) = %s, expected %s", tc.date, got, tc.expected)
			}
		})
	}
}

func TestWeekStartProperties(t *testing.T) {
	day := mustDate(t, "2025-12-01")
	for i := 0; i < 120; i++ {
		start := WeekStart(day)
		if start.Weekday() != time.Sunday {
			t.Fatalf("WeekStart(%s) = %s is not a Sunday", day.Format(DateLayout), start.Format(DateLayout))
		}
		if start.After(day) {
			t.Fatalf("WeekStart(%s) = %s is after the input date", day.Format(DateLayout), start.Format(DateLayout))
		}
		if day.Sub(start) > 6*24*time.Hour {
			t.Fatalf("WeekStart(%s) = %s is more than six days back", day.Format(DateLayout), start.Format(DateLayout))
		}
		if !WeekStart(start).Equal(start) {
			t.Fatalf("WeekStart is not idempotent for %s", day.Format(DateLayout))
		}
		day = day.AddDate(0, 0, 1)
	}
}

func TestBuildWeeklyProgressPivotsByCategory(t *testing.T) {
	samples := []weekSample{
		{weekStart: "2026-01-04", category: "Tactics", minutes: 30},
		{weekStart: "2026-01-04", category: "Tactics", minutes: 45},
		{weekStart: "2026-01-04", category: "Openings", minutes: 20},
		{weekStart: "2026-01-11", category: "Endgames", minutes: 60},
	}

	buckets := buildWeeklyProgress(samples)
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0]["week_start"] != "2026-01-04" || buckets[1]["week_start"] != "2026-01-11" {
		t.Fatalf("buckets are not in ascending week order: %#v", buckets)
	}
	if buckets[0]["Tactics"] != 75 {
		t.Fatalf("expected Tactics minutes to sum to 75, got %v", buckets[0]["Tactics"])
	}
	if buckets[0]["Openings"] != 20 {
		t.Fatalf("expected Openings minutes 20, got %v", buckets[0]["Openings"])
	}
	if _, present := buckets[1]["Tactics"]; present {
		t.Fatalf("categories absent in a week must be omitted, not zero-filled")
	}
}

func TestBuildWeeklyProgressKeepsTwelveMostRecentWeeks(t *testing.T) {
	var samples []weekSample
	day := mustDate(t, "2026-01-04")
	for i := 0; i < 15; i++ {
		samples = append(samples, weekSample{
			weekStart: day.AddDate(0, 0, 7*i).Format(DateLayout),
			category:  "Tactics",
			minutes:   10,
		})
	}

	buckets := buildWeeklyProgress(samples)
	if len(buckets) != 12 {
		t.Fatalf("expected 12 buckets, got %d", len(buckets))
	}
	if buckets[0]["week_start"] != "2026-01-25" {
		t.Fatalf("expected the three oldest weeks dropped, got first %v", buckets[0]["week_start"])
	}
	if buckets[11]["week_start"] != "2026-04-12" {
		t.Fatalf("expected the most recent week last, got %v", buckets[11]["week_start"])
	}
}

func TestCurrentWeekMinutesIsDataRelative(t *testing.T) {
	samples := []weekSample{
		{weekStart: "2026-01-04", category: "Tactics", minutes: 30},
		{weekStart: "2026-01-11", category: "Tactics", minutes: 40},
		{weekStart: "2026-01-11", category: "Openings", minutes: 5},
	}

	start, minutes := currentWeekMinutes(samples)
	if start != "2026-01-11" {
		t.Fatalf("expected latest week 2026-01-11, got %s", start)
	}
	if minutes != 45 {
		t.Fatalf("expected 45 minutes in the latest week, got %d", minutes)
	}

	start, minutes = currentWeekMinutes(nil)
	if start != "" || minutes != 0 {
		t.Fatalf("expected empty result for no samples, got %s/%d", start, minutes)
	}
}

func TestRoundHours(t *testing.T) {
	tests := []struct {
		minutes  int
		expected float64
	}{
		{minutes: 0, expected: 0},
		{minutes: 30, expected: 0.5},
		{minutes: 75, expected: 1.25},
		{minutes: 20, expected: 0.33},
		{minutes: 100, expected: 1.67},
	}

	for _, tc := range tests {
		if got := roundHours(tc.minutes); got != tc.expected {
			t.Fatalf("roundHours(%d) = %v, expected %v", tc.minutes, got, tc.expected)
		}
	}
}
