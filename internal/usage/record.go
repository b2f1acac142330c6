package usage

import (
	"time"

	"github.com/aceteam-ai/wuscore/internal/score"
)

// UnitRecord is a completed work unit as stored and shipped to the control plane.
type UnitRecord struct {
	// Database ID (set after insert)
	ID int64

	// RunID groups the records written by one ingestion
	RunID  string
	NodeID string

	// Work unit identification
	Slot     string
	SlotType string
	Project  string
	Unit     string

	// Timing
	StartedAt   time.Time
	CompletedAt time.Time
	DurationMs  int64

	Points float64

	// Sync status
	Synced bool
}

// FromWorkUnit converts a completed board record. The slot must be mapped.
func FromWorkUnit(r score.WorkUnitRecord, slots score.SlotMap, runID, nodeID string) (UnitRecord, error) {
	slotType, err := slots.TypeOf(r.Slot)
	if err != nil {
		return UnitRecord{}, err
	}
	return UnitRecord{
		RunID:       runID,
		NodeID:      nodeID,
		Slot:        r.Slot,
		SlotType:    string(slotType),
		Project:     r.Project,
		Unit:        r.Unit,
		StartedAt:   r.Start,
		CompletedAt: r.End,
		DurationMs:  r.Duration.Milliseconds(),
		Points:      r.Points,
	}, nil
}
