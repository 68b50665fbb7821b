package dateformula

import (
	"strconv"
	"strings"
	"time"
)

// Closing is an accounting closing date expressed as day and month.
type Closing struct {
	Day   int
	Month time.Month
}

// YearEnd is the default closing date used when none is configured.
var YearEnd = Closing{Day: 31, Month: time.December}

// ParseClosing parses a "DD/MM" closing date. Absent or malformed values
// resolve to 31 December.
func ParseClosing(raw string) Closing {
	parts := strings.Split(strings.TrimSpace(raw), "/")
	if len(parts) != 2 {
		return YearEnd
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return YearEnd
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || month < 1 || month > 12 {
		return YearEnd
	}
	// February accepts the 29th; In clamps it for non-leap years.
	if day < 1 || day > daysIn(2024, time.Month(month)) {
		return YearEnd
	}
	return Closing{Day: day, Month: time.Month(month)}
}

// IsYearEnd reports whether the closing date is exactly 31 December.
func (c Closing) IsYearEnd() bool {
	return c.Day == 31 && c.Month == time.December
}

// In returns the closing date inside the given year.
func (c Closing) In(year int) time.Time {
	return date(year, c.Month, c.Day)
}

func (c Closing) ordinal() int {
	return int(c.Month)*100 + c.Day
}

func date(year int, month time.Month, day int) time.Time {
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func endOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month, daysIn(year, month), 0, 0, 0, 0, time.UTC)
}

// addMonths shifts t by n calendar months, clamping the day to the target
// month length.
func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return date(first.Year(), first.Month(), t.Day())
}

// rollMonth wraps a 1-based month number into 1..12, carrying whole years.
func rollMonth(year, month int) (int, time.Month) {
	carry, index := (month-1)/12, (month-1)%12
	if index < 0 {
		carry--
		index += 12
	}
	return year + carry, time.Month(index + 1)
}
