// internal/score/format.go
package score

import (
	"fmt"
	"strconv"
	"time"
)

// TimestampLayout is how record timestamps are rendered.
const TimestampLayout = "2006-01-02T15:04:05"

// FormatRecord returns the rendered columns of a completed record:
// start, end, duration, project, slot type, unit, points.
func FormatRecord(r WorkUnitRecord, slots SlotMap) ([]string, error) {
	slotType, err := slots.TypeOf(r.Slot)
	if err != nil {
		return nil, err
	}
	return []string{
		r.Start.Format(TimestampLayout),
		r.End.Format(TimestampLayout),
		FormatDuration(r.Duration),
		r.Project,
		string(slotType),
		r.Unit,
		FormatPoints(r.Points),
	}, nil
}

// FormatDuration renders d as H:MM:SS, prefixed with "N day(s), " for a day
// or more. Negative durations borrow whole days, so -30m renders as
// "-1 day, 23:30:00". Sub-second parts are shown in microseconds.
func FormatDuration(d time.Duration) string {
	const microsPerDay = int64(24 * time.Hour / time.Microsecond)

	micros := d.Microseconds()
	days := micros / microsPerDay
	rem := micros % microsPerDay
	if rem < 0 {
		days--
		rem += microsPerDay
	}

	secs := rem / 1e6
	out := fmt.Sprintf("%d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
	if us := rem % 1e6; us != 0 {
		out += fmt.Sprintf(".%06d", us)
	}
	if days != 0 {
		plural := "s"
		if days == 1 || days == -1 {
			plural = ""
		}
		out = fmt.Sprintf("%d day%s, %s", days, plural, out)
	}
	return out
}

// FormatPoints renders points in their shortest decimal form (12.5, 100).
func FormatPoints(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
