// internal/score/date.go
package score

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// logNamePattern matches the client's rotated log names, e.g. log-20240101-1.
var logNamePattern = regexp.MustCompile(`^log-(\d{4})(\d{2})(\d{2})-\d+`)

// Date is a calendar day. Log lines only carry a time of day, so every
// timestamp on a board is built from the date of the file being ingested.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// At combines the date with a time-of-day offset. Timestamps are kept in UTC
// so that durations are plain wall-clock differences.
func (d Date) At(clock time.Duration) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Add(clock)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText lets Date serve as a JSON value and map key.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses YYYY-MM-DD.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Before reports whether d is an earlier day than o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// ResolveDate derives the date of a log file from its name. Names following
// the log-YYYYMMDD-<seq> convention yield that date; anything else, including
// digits that are not a real calendar day, falls back to today according to
// now. The second return value reports whether the name carried the date.
func ResolveDate(name string, now func() time.Time) (Date, bool) {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	if m := logNamePattern.FindStringSubmatch(stem); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
		if t.Year() == y && int(t.Month()) == mo && t.Day() == d {
			return Date{Year: y, Month: time.Month(mo), Day: d}, true
		}
	}

	if now == nil {
		now = time.Now
	}
	return DateOf(now()), false
}
