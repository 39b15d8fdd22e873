package interpret

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var numberWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11,
	"twelve": 12, "fourteen": 14, "fifteen": 15, "twenty": 20, "thirty": 30,
	"forty-five": 45, "sixty": 60, "ninety": 90,
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

var months = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

const countPattern = `(\d+|a|an|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|fourteen|fifteen|twenty|thirty|forty-five|sixty|ninety)`

var (
	inPeriod      = regexp.MustCompile(`\bin\s+` + countPattern + `\s+(day|week|month)s?\b`)
	periodFromNow = regexp.MustCompile(`\b` + countPattern + `\s+(day|week|month)s?\s+(?:from\s+(?:now|today)|after\s+today)\b`)
	relWeekday    = regexp.MustCompile(`\b(next|this|on)\s+(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)
	endOfMonth    = regexp.MustCompile(`\bend\s+of\s+(?:the\s+)?month\b`)
	ordinalSuffix = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)\b`)
	monthDay      = regexp.MustCompile(`^([a-z]+)\.?\s+(\d{1,2})$`)
	dayMonth      = regexp.MustCompile(`^(\d{1,2})\s+(?:of\s+)?([a-z]+)$`)
	fillerPrefix  = regexp.MustCompile(`^(?:on|by|the|until)\s+`)
	bareNumber    = regexp.MustCompile(`^[\d\s.,]+$`)
)

// yearWindow bounds how far from the reference year an absolute date may
// fall before it is treated as a misparse.
const yearWindow = 10

// NormalizeDate resolves a spoken date against ref. Results are calendar
// dates at midnight UTC. ok is false when the text names no date the grammar
// understands.
func NormalizeDate(utterance string, ref time.Time) (time.Time, bool) {
	text := strings.ToLower(strings.TrimSpace(utterance))
	text = strings.TrimRight(text, ".!?")
	if text == "" {
		return time.Time{}, false
	}

	today := dateOf(ref)

	switch {
	case strings.Contains(text, "day after tomorrow"):
		return today.AddDate(0, 0, 2), true
	case strings.Contains(text, "today"):
		if !periodFromNow.MatchString(text) {
			return today, true
		}
	case strings.Contains(text, "tomorrow"):
		return today.AddDate(0, 0, 1), true
	case strings.Contains(text, "yesterday"):
		return today.AddDate(0, 0, -1), true
	}

	if m := inPeriod.FindStringSubmatch(text); m != nil {
		return addPeriod(today, m[1], m[2])
	}
	if m := periodFromNow.FindStringSubmatch(text); m != nil {
		return addPeriod(today, m[1], m[2])
	}

	if m := relWeekday.FindStringSubmatch(text); m != nil {
		return nextWeekday(today, weekdays[m[2]], m[1] == "next"), true
	}

	if endOfMonth.MatchString(text) {
		return time.Date(today.Year(), today.Month()+1, 0, 0, 0, 0, 0, time.UTC), true
	}

	return parseAbsolute(text, ref, today)
}

func parseAbsolute(text string, ref, today time.Time) (time.Time, bool) {
	for {
		trimmed := fillerPrefix.ReplaceAllString(text, "")
		if trimmed == text {
			break
		}
		text = trimmed
	}
	text = ordinalSuffix.ReplaceAllString(text, "$1")

	if m := monthDay.FindStringSubmatch(text); m != nil {
		if d, ok := upcoming(today, m[1], m[2]); ok {
			return d, true
		}
	}
	if m := dayMonth.FindStringSubmatch(text); m != nil {
		if d, ok := upcoming(today, m[2], m[1]); ok {
			return d, true
		}
	}

	// A lone number is a day count or a year, never a whole date.
	if bareNumber.MatchString(text) {
		return time.Time{}, false
	}

	parsed, err := dateparse.ParseIn(text, ref.Location())
	if err != nil {
		return time.Time{}, false
	}
	if y := parsed.Year(); y < today.Year()-yearWindow || y > today.Year()+yearWindow {
		return time.Time{}, false
	}

	return dateOf(parsed), true
}

// upcoming returns the first month/day on or after today.
func upcoming(today time.Time, monthName, dayText string) (time.Time, bool) {
	month, ok := months[monthName]
	if !ok {
		return time.Time{}, false
	}

	day, err := strconv.Atoi(dayText)
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}

	for year := today.Year(); year <= today.Year()+4; year++ {
		d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		// Skip dates that rolled over into the next month, e.g. February 30.
		if d.Month() != month {
			continue
		}
		if !d.Before(today) {
			return d, true
		}
	}

	return time.Time{}, false
}

func addPeriod(today time.Time, count, unit string) (time.Time, bool) {
	n, ok := numberWords[count]
	if !ok {
		parsed, err := strconv.Atoi(count)
		if err != nil {
			return time.Time{}, false
		}
		n = parsed
	}

	switch unit {
	case "day":
		return today.AddDate(0, 0, n), true
	case "week":
		return today.AddDate(0, 0, 7*n), true
	case "month":
		return addMonths(today, n), true
	}
	return time.Time{}, false
}

// addMonths moves n calendar months, clamping to the last day of the target
// month: January 31 plus one month is February 28.
func addMonths(today time.Time, n int) time.Time {
	first := time.Date(today.Year(), today.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	return first.AddDate(0, 0, min(today.Day(), last)-1)
}

// nextWeekday returns the first matching weekday on or after today, or
// strictly after it when strict is set.
func nextWeekday(today time.Time, day time.Weekday, strict bool) time.Time {
	delta := (int(day) - int(today.Weekday()) + 7) % 7
	if delta == 0 && strict {
		delta = 7
	}
	return today.AddDate(0, 0, delta)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
