package utils

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Blocket prints dates with Swedish month names, either full ("Augusti")
// or abbreviated ("aug"). Index pages also use relative day words.
var sweMonths = map[string]time.Month{
	"januari": time.January, "jan": time.January,
	"februari": time.February, "feb": time.February,
	"mars": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"maj": time.May,
	"juni": time.June, "jun": time.June,
	"juli": time.July, "jul": time.July,
	"augusti": time.August, "aug": time.August,
	"september": time.September, "sep": time.September,
	"oktober": time.October, "okt": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var listedAtRegexp = regexp.MustCompile(`(?i)^(\d{1,2})\s+([a-zåäö]+)(?:\s+(\d{1,2}):(\d{2}))?$`)

// ParseSwedishMonth resolves a Swedish month name, full or abbreviated,
// to its time.Month. The second return is false for unknown names.
func ParseSwedishMonth(name string) (time.Month, bool) {
	m, ok := sweMonths[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

// ClosestDate returns the instant with the given month and day that lies
// nearest to base, looking one year back and one year ahead. Listing dates
// omit the year, so around new year a "Dec" date seen in January must
// resolve to the previous year.
func ClosestDate(month time.Month, day int, base time.Time) time.Time {
	if day < 1 {
		day = 1
	}

	candidates := []time.Time{
		time.Date(base.Year()-1, month, day, 0, 0, 0, 0, base.Location()),
		time.Date(base.Year(), month, day, 0, 0, 0, 0, base.Location()),
		time.Date(base.Year()+1, month, day, 0, 0, 0, 0, base.Location()),
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if absDuration(c.Sub(base)) < absDuration(best.Sub(base)) {
			best = c
		}
	}
	return best
}

// ParseListedAt parses a listing date as printed on an index page:
// "Idag 14:02", "Igår 09:15" or "5 aug 14:02". The zero time is returned
// for anything unrecognised.
func ParseListedAt(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "idag"):
		return withClockTime(now, strings.TrimSpace(raw[len("idag"):]))
	case strings.HasPrefix(lower, "igår"):
		return withClockTime(now.AddDate(0, 0, -1), strings.TrimSpace(raw[len("igår"):]))
	}

	m := listedAtRegexp.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}
	}
	day, _ := strconv.Atoi(m[1])
	month, ok := ParseSwedishMonth(m[2])
	if !ok {
		return time.Time{}
	}

	date := ClosestDate(month, day, now)
	if m[3] != "" {
		hour, _ := strconv.Atoi(m[3])
		min, _ := strconv.Atoi(m[4])
		date = time.Date(date.Year(), date.Month(), date.Day(), hour, min, 0, 0, date.Location())
	}
	return date
}

func withClockTime(day time.Time, clock string) time.Time {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	}
	hour, errH := strconv.Atoi(strings.TrimSpace(parts[0]))
	min, errM := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errH != nil || errM != nil {
		return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, day.Location())
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
