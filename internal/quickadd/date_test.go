package quickadd

import (
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestResolveDate(t *testing.T) {
	// Monday 2025-02-10
	today := time.Date(2025, time.February, 10, 9, 15, 0, 0, time.Local)
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	}

	tests := []struct {
		expr string
		want time.Time
		ok   bool
	}{
		{"today", day(2025, time.February, 10), true},
		{" TODAY ", day(2025, time.February, 10), true},
		{"tomorrow", day(2025, time.February, 11), true},
		{"next week", day(2025, time.February, 17), true},
		{"next monday", day(2025, time.February, 17), true}, // never today, strictly forward
		{"next tuesday", day(2025, time.February, 11), true},
		{"next sunday", day(2025, time.February, 16), true},
		{"2025-03-01", day(2025, time.March, 1), true},
		{"03/01/2025", day(2025, time.March, 1), true}, // month-first
		{"3/1/2025", day(2025, time.March, 1), true},
		{"next someday", time.Time{}, false},
		{"in 3 days", time.Time{}, false},
		{"2025-13-40", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			is := is.New(t)
			got, ok := ResolveDate(tt.expr, today)
			is.Equal(ok, tt.ok)
			if tt.ok {
				is.Equal(got, tt.want)
			}
		})
	}
}

func TestResolveDate_StartOfDay(t *testing.T) {
	is := is.New(t)

	late := time.Date(2025, time.February, 10, 23, 59, 59, 0, time.Local)
	got, ok := ResolveDate("tomorrow", late)
	is.True(ok)
	is.Equal(got.Hour(), 0)
	is.Equal(got.Day(), 11)
}
