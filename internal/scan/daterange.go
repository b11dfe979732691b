package scan

import "time"

// DateRange returns the UTC calendar days from the watermark's day
// through now's day, inclusive, normalized to midnight. It always
// contains at least today.
func DateRange(from, now time.Time) []time.Time {
	start := midnight(from)
	end := midnight(now)
	if start.After(end) {
		return []time.Time{end}
	}
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func midnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
