package matching

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	// Punctuation that carries no token meaning in stream names. Separators
	// like "@" and "-" are preserved for splitting.
	punctRe = regexp.MustCompile(`[|:!?"'()\[\]{}*#]`)

	// Date forms seen in provider stream names.
	isoDateRe     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	slashDateRe   = regexp.MustCompile(`\b(\d{1,2})[/.](\d{1,2})(?:[/.](\d{2,4}))?\b`)
	monthNameRe   = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	dayNumberRe   = regexp.MustCompile(`(?i)\bday\s+(\d{1,2})\b`)
	monthOrdinals = map[string]time.Month{
		"jan": time.January, "feb": time.February, "mar": time.March,
		"apr": time.April, "may": time.May, "jun": time.June,
		"jul": time.July, "aug": time.August, "sep": time.September,
		"oct": time.October, "nov": time.November, "dec": time.December,
	}
)

// Normalize lowercases, strips decorative punctuation, and collapses
// whitespace. Separator tokens survive so team splitting still works.
func Normalize(text string) string {
	s := strings.ToLower(text)
	s = punctRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// StreamDate is a calendar date extracted from a stream name.
type StreamDate struct {
	Month time.Month
	Day   int
	Year  int // 0 when the stream omits the year
	// DayNumber is set for "Day N" styled names instead of Month/Day.
	DayNumber int
	Raw       string
}

// HasCalendar reports whether the date names a month/day (vs a "Day N").
func (d StreamDate) HasCalendar() bool { return d.Day > 0 }

// Matches reports whether the extracted date refers to the target day.
// Year-less dates match on month/day alone.
func (d StreamDate) Matches(target time.Time) bool {
	if !d.HasCalendar() {
		return false
	}
	if d.Year != 0 && d.Year != target.Year() {
		return false
	}
	return d.Month == target.Month() && d.Day == target.Day()
}

// ExtractDate pulls the first recognizable date out of a stream name.
// Returns ok=false when no date form is present.
func ExtractDate(text string) (StreamDate, bool) {
	if m := isoDateRe.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return StreamDate{Month: time.Month(month), Day: day, Year: year, Raw: m[0]}, true
		}
	}
	if m := monthNameRe.FindStringSubmatch(text); m != nil {
		month := monthOrdinals[strings.ToLower(m[1])]
		day, _ := strconv.Atoi(m[2])
		if day >= 1 && day <= 31 {
			return StreamDate{Month: month, Day: day, Raw: m[0]}, true
		}
	}
	if m := slashDateRe.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year := 0
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
		}
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return StreamDate{Month: time.Month(month), Day: day, Year: year, Raw: m[0]}, true
		}
	}
	if m := dayNumberRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n >= 1 {
			return StreamDate{DayNumber: n, Raw: m[0]}, true
		}
	}
	return StreamDate{}, false
}

// MaskDates removes date tokens so they never pollute team-name fuzzing.
func MaskDates(text string) string {
	s := isoDateRe.ReplaceAllString(text, " ")
	s = monthNameRe.ReplaceAllString(s, " ")
	s = slashDateRe.ReplaceAllString(s, " ")
	s = dayNumberRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Tokens splits a normalized string into fields.
func Tokens(text string) []string {
	return strings.Fields(Normalize(text))
}
