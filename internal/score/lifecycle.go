// internal/score/lifecycle.go
package score

import "time"

// onAssignment opens an in-flight record for (slot, project, unit) and closes
// the slot's idle interval, if any. Repeated assignment lines for the same
// triple are ignored.
func (b *Board) onAssignment(slot, project, unit string, ts time.Time) error {
	for _, r := range b.inFlight {
		if r.sameAssignment(slot, project, unit) {
			return nil
		}
	}

	b.inFlight = append(b.inFlight, &WorkUnitRecord{
		Project: project,
		Unit:    unit,
		Slot:    slot,
		Start:   ts,
	})

	since, idle := b.idleSince[slot]
	if !idle {
		return nil
	}
	slotType, err := b.slots.TypeOf(slot)
	if err != nil {
		return err
	}
	b.idleBucket(b.currentDate)[slotType] += ts.Sub(since)
	delete(b.idleSince, slot)
	b.debug("slot %s idle for %s", slot, FormatDuration(ts.Sub(since)))
	return nil
}

// onCompletion moves the matching in-flight record to the completed list.
// Matching ignores the project, and the last match in insertion order wins:
// when a unit id is reused on the same slot before the first one completes,
// the newer assignment is the one that gets credited.
func (b *Board) onCompletion(slot, unit string, ts time.Time, points float64) {
	found := -1
	for i, r := range b.inFlight {
		if r.runsOn(slot, unit) {
			found = i
		}
	}
	if found < 0 {
		b.debug("completion for unknown unit %s on %s ignored", unit, slot)
		return
	}

	r := b.removeInFlight(found)
	r.complete(ts, points)
	b.completed = append(b.completed, r)
}

func (b *Board) removeInFlight(i int) *WorkUnitRecord {
	r := b.inFlight[i]
	b.inFlight = append(b.inFlight[:i], b.inFlight[i+1:]...)
	return r
}
