package schedule

import (
	"regexp"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

var (
	// "<weekday> <D> <month> <YYYY> <HH>:<MM> - <HH>:<MM>"; group 1 is the day key.
	dateTimeRe  = regexp.MustCompile(`([^\d]+\d+\s+\w+\s+\d{4})\s+(\d{2}):(\d{2})\s*-\s*(\d{2}):(\d{2})`)
	clockRe     = regexp.MustCompile(`(\d{2}):(\d{2})`)
	timeRangeRe = regexp.MustCompile(`\d{2}:\d{2}\s*-\s*\d{2}:\d{2}`)
	dateRe      = regexp.MustCompile(`([^\d]+)(\d+)\s+(\w+)\s+(\d{4})`)
)

// Interval is the parsed form of a seminar's date_time. Day is the opaque
// day key (the leading text up to and including the year); it is compared
// by exact string equality and never normalized into a calendar date.
type Interval struct {
	Day          string
	StartMinutes int
	EndMinutes   int
}

// Parse extracts the day key and the start/end minutes from a raw
// date_time string. ok is false when the string does not match the
// expected shape or a clock value is out of range. End before start is
// returned as parsed.
func Parse(raw string) (Interval, bool) {
	m := dateTimeRe.FindStringSubmatch(raw)
	if m == nil {
		return Interval{}, false
	}
	start, ok := clockMinutes(m[2], m[3])
	if !ok {
		return Interval{}, false
	}
	end, ok := clockMinutes(m[4], m[5])
	if !ok {
		return Interval{}, false
	}
	return Interval{Day: m[1], StartMinutes: start, EndMinutes: end}, true
}

func clockMinutes(hh, mm string) (int, bool) {
	h, err := strconv.Atoi(hh)
	if err != nil || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// Overlap applies the half-open rule: [s1,e1) and [s2,e2) overlap iff
// s1 < e2 and e1 > s2. Touching endpoints do not overlap.
func Overlap(a, b Interval) bool {
	return a.StartMinutes < b.EndMinutes && a.EndMinutes > b.StartMinutes
}

// StartMinutes returns the minutes of the first HH:MM in s, or 0 when
// there is none.
func StartMinutes(s string) int {
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	return h*60 + mm
}

// TimeRange returns just the "HH:MM - HH:MM" part of a slot label, or the
// label unchanged when it has none.
func TimeRange(label string) string {
	if r := timeRangeRe.FindString(label); r != "" {
		return r
	}
	return label
}

// Date is the calendar date written in a seminar's date_time.
type Date struct {
	Weekday string
	Day     int
	Month   string
	Year    int

	text string
}

// Text renders the date the way it appears in the source data.
func (d Date) Text() string {
	if d.text != "" {
		return d.text
	}
	return d.Weekday + " " + strconv.Itoa(d.Day) + " " + d.Month + " " + strconv.Itoa(d.Year)
}

// SortKey orders dates chronologically ("2025-05-12"). Unknown month
// names sort as month 00.
func (d Date) SortKey() string {
	return pad(d.Year, 4) + "-" + pad(monthNumber(d.Month), 2) + "-" + pad(d.Day, 2)
}

// ParseDate extracts the written date from a raw date_time string.
func ParseDate(raw string) (Date, bool) {
	m := dateRe.FindStringSubmatch(raw)
	if m == nil {
		return Date{}, false
	}
	day, err := strconv.Atoi(m[2])
	if err != nil {
		return Date{}, false
	}
	year, err := strconv.Atoi(m[4])
	if err != nil {
		return Date{}, false
	}
	weekday := strings.TrimSpace(m[1])
	return Date{
		Weekday: weekday,
		Day:     day,
		Month:   m[3],
		Year:    year,
		text:    weekday + " " + m[2] + " " + m[3] + " " + m[4],
	}, true
}

var swedishMonths = map[string]int{
	"januari":   1,
	"februari":  2,
	"mars":      3,
	"april":     4,
	"maj":       5,
	"juni":      6,
	"juli":      7,
	"augusti":   8,
	"september": 9,
	"oktober":   10,
	"november":  11,
	"december":  12,
}

// MonthNumber maps a Swedish month name to 1..12, or 0 if unknown.
func MonthNumber(name string) int {
	return monthNumber(name)
}

func monthNumber(name string) int {
	return swedishMonths[strings.ToLower(name)]
}

func pad(n, width int) string {
	s := strconv.Itoa(n)
	for len(s) < width {
		s = "0" + s
	}
	return s
}
