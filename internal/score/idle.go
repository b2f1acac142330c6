// internal/score/idle.go
package score

import "time"

// onAssignmentFailed marks the slot idle. Only the first failure starts the
// clock; later failures before the next assignment leave it running.
func (b *Board) onAssignmentFailed(slot string, ts time.Time) {
	if _, idle := b.idleSince[slot]; idle {
		return
	}
	b.idleSince[slot] = ts
}

// onDump drops the first in-flight record for (slot, unit) without crediting
// it and counts the loss against the slot type.
func (b *Board) onDump(slot, unit string, ts time.Time) error {
	for i, r := range b.inFlight {
		if !r.runsOn(slot, unit) {
			continue
		}
		slotType, err := b.slots.TypeOf(slot)
		if err != nil {
			return err
		}
		b.removeInFlight(i)
		b.dumpBucket(b.currentDate)[slotType]++
		b.debug("unit %s on %s dumped at %s", unit, slot, ts.Format(TimestampLayout))
		return nil
	}
	return nil
}

func (b *Board) onError(ts time.Time) {
	b.errors = append(b.errors, ts)
}

func (b *Board) idleBucket(d Date) map[SlotType]time.Duration {
	bucket, ok := b.idleTotal[d]
	if !ok {
		bucket = make(map[SlotType]time.Duration)
		b.idleTotal[d] = bucket
	}
	return bucket
}

func (b *Board) dumpBucket(d Date) map[SlotType]int {
	bucket, ok := b.dumped[d]
	if !ok {
		bucket = make(map[SlotType]int)
		b.dumped[d] = bucket
	}
	return bucket
}
