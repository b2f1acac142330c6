// internal/score/record.go
package score

import "time"

// WorkUnitRecord tracks one work unit from assignment to completion. While End
// is zero the record is in flight; once completed it is never changed again.
type WorkUnitRecord struct {
	Project string
	Unit    string
	Slot    string

	Start time.Time
	End   time.Time

	// Duration and Points are only set on completion
	Duration time.Duration
	Points   float64
}

// InFlight reports whether the unit is still waiting for its completion line.
func (r WorkUnitRecord) InFlight() bool {
	return r.End.IsZero()
}

// Completed reports whether the unit finished with a non-negative duration.
func (r WorkUnitRecord) Completed() bool {
	return !r.InFlight() && r.Duration >= 0
}

func (r *WorkUnitRecord) complete(end time.Time, points float64) {
	r.End = end
	r.Points = points
	r.Duration = end.Sub(r.Start)
}

func (r *WorkUnitRecord) runsOn(slot, unit string) bool {
	return r.Slot == slot && r.Unit == unit
}

func (r *WorkUnitRecord) sameAssignment(slot, project, unit string) bool {
	return r.runsOn(slot, unit) && r.Project == project
}
