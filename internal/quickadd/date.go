package quickadd

import (
	"regexp"
	"strings"
	"time"
)

var (
	isoDateRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	slashDateRe = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ResolveDate turns a date expression into a calendar date anchored to
// today. Recognized forms, tried in order: "today", "tomorrow",
// "next week", "next <weekday>", "2006-01-02", and month-first
// "01/02/2006". Anything else reports ok=false. The result is always
// normalized to start of day.
func ResolveDate(expr string, today time.Time) (time.Time, bool) {
	s := strings.ToLower(strings.TrimSpace(expr))
	day := startOfDay(today)

	switch s {
	case "today":
		return day, true
	case "tomorrow":
		return day.AddDate(0, 0, 1), true
	case "next week":
		return day.AddDate(0, 0, 7), true
	}

	if rest, ok := strings.CutPrefix(s, "next "); ok {
		if wd, ok := weekdays[strings.TrimSpace(rest)]; ok {
			// strictly forward: "next monday" on a Monday is a week out
			days := int(wd - day.Weekday())
			if days <= 0 {
				days += 7
			}
			return day.AddDate(0, 0, days), true
		}
		return time.Time{}, false
	}

	if isoDateRe.MatchString(s) {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return atStartOfDay(t, today.Location()), true
		}
		return time.Time{}, false
	}

	if slashDateRe.MatchString(s) {
		if t, err := time.Parse("1/2/2006", s); err == nil {
			return atStartOfDay(t, today.Location()), true
		}
		return time.Time{}, false
	}

	return time.Time{}, false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func atStartOfDay(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
