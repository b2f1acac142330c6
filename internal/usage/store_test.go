package usage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aceteam-ai/wuscore/internal/score"
)

func tempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "records_test.db")
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(tempDBPath(t))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testRecord(unit string, start time.Time, points float64) UnitRecord {
	return UnitRecord{
		RunID:       "run-1",
		NodeID:      "test-node",
		Slot:        "FS01",
		SlotType:    "GPU",
		Project:     "13422",
		Unit:        unit,
		StartedAt:   start,
		CompletedAt: start.Add(30 * time.Minute),
		DurationMs:  (30 * time.Minute).Milliseconds(),
		Points:      points,
	}
}

func TestOpenStoreCreatesFile(t *testing.T) {
	path := tempDBPath(t)
	store, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("database file should exist after OpenStore")
	}
}

func TestInsertAndQueryUnsynced(t *testing.T) {
	store := openTestStore(t)

	start := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	if err := store.Insert(testRecord("WU01", start, 12.5)); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	records, err := store.QueryUnsynced(10)
	if err != nil {
		t.Fatalf("QueryUnsynced: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	r := records[0]
	if r.ID == 0 {
		t.Error("ID should be set after insert")
	}
	if r.Unit != "WU01" || r.Slot != "FS01" || r.SlotType != "GPU" || r.Project != "13422" {
		t.Errorf("identity = %s/%s/%s/%s", r.Unit, r.Slot, r.SlotType, r.Project)
	}
	if !r.StartedAt.Equal(start) {
		t.Errorf("StartedAt = %v, want %v", r.StartedAt, start)
	}
	if r.DurationMs != 1800000 {
		t.Errorf("DurationMs = %d, want 1800000", r.DurationMs)
	}
	if r.Points != 12.5 {
		t.Errorf("Points = %v, want 12.5", r.Points)
	}
	if r.NodeID != "test-node" || r.RunID != "run-1" {
		t.Errorf("NodeID/RunID = %q/%q", r.NodeID, r.RunID)
	}
}

func TestInsertDuplicateIgnored(t *testing.T) {
	store := openTestStore(t)

	start := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	record := testRecord("dup", start, 1)

	if err := store.Insert(record); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	record.RunID = "run-2"
	if err := store.Insert(record); err != nil {
		t.Fatalf("duplicate Insert should not error: %v", err)
	}

	records, err := store.QueryUnsynced(10)
	if err != nil {
		t.Fatalf("QueryUnsynced: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record after duplicate insert, got %d", len(records))
	}
}

func TestInsertBatch(t *testing.T) {
	store := openTestStore(t)

	start := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	batch := []UnitRecord{
		testRecord("WU01", start, 1),
		testRecord("WU02", start, 2),
		testRecord("WU01", start, 1),
	}

	n, err := store.InsertBatch(batch)
	if err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	if n != 2 {
		t.Errorf("inserted = %d, want 2", n)
	}

	n, err = store.InsertBatch(batch[:2])
	if err != nil {
		t.Fatalf("second InsertBatch: %v", err)
	}
	if n != 0 {
		t.Errorf("re-inserted = %d, want 0", n)
	}

	if n, err := store.InsertBatch(nil); err != nil || n != 0 {
		t.Errorf("InsertBatch(nil) = %d, %v", n, err)
	}
}

func TestMarkSynced(t *testing.T) {
	store := openTestStore(t)

	start := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	for _, unit := range []string{"a", "b", "c"} {
		if err := store.Insert(testRecord(unit, start, 1)); err != nil {
			t.Fatalf("Insert %s: %v", unit, err)
		}
	}

	records, err := store.QueryUnsynced(10)
	if err != nil {
		t.Fatalf("QueryUnsynced: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 unsynced, got %d", len(records))
	}

	if err := store.MarkSynced([]int64{records[0].ID, records[1].ID}); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}

	remaining, err := store.QueryUnsynced(10)
	if err != nil {
		t.Fatalf("QueryUnsynced after mark: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("expected 1 remaining unsynced, got %d", len(remaining))
	}
	if remaining[0].Unit != "c" {
		t.Errorf("remaining Unit = %q, want %q", remaining[0].Unit, "c")
	}

	if err := store.MarkSynced(nil); err != nil {
		t.Fatalf("MarkSynced(nil): %v", err)
	}
}

func TestQueryUnsyncedLimit(t *testing.T) {
	store := openTestStore(t)

	start := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := store.Insert(testRecord(fmt.Sprintf("WU%02d", i), start, 1)); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	records, err := store.QueryUnsynced(2)
	if err != nil {
		t.Fatalf("QueryUnsynced: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records with limit=2, got %d", len(records))
	}
}

func TestStoreTotalPoints(t *testing.T) {
	store := openTestStore(t)

	total, err := store.TotalPoints()
	if err != nil {
		t.Fatalf("TotalPoints: %v", err)
	}
	if total != 0 {
		t.Errorf("empty TotalPoints = %v, want 0", total)
	}

	start := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	store.Insert(testRecord("WU01", start, 12.5))
	store.Insert(testRecord("WU02", start, 7.5))

	total, err = store.TotalPoints()
	if err != nil {
		t.Fatalf("TotalPoints: %v", err)
	}
	if total != 20 {
		t.Errorf("TotalPoints = %v, want 20", total)
	}
}

func TestFromWorkUnit(t *testing.T) {
	start := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	wu := score.WorkUnitRecord{
		Project:  "100",
		Unit:     "WU1",
		Slot:     "FS00",
		Start:    start,
		End:      start.Add(30 * time.Minute),
		Duration: 30 * time.Minute,
		Points:   12.5,
	}

	r, err := FromWorkUnit(wu, score.DefaultSlotMap(), "run", "node")
	if err != nil {
		t.Fatalf("FromWorkUnit: %v", err)
	}
	if r.SlotType != "CPU" || r.DurationMs != 1800000 || r.Points != 12.5 || r.RunID != "run" || r.NodeID != "node" {
		t.Errorf("FromWorkUnit = %+v", r)
	}

	wu.Slot = "FS09"
	if _, err := FromWorkUnit(wu, score.DefaultSlotMap(), "run", "node"); !errors.Is(err, score.ErrUnknownSlot) {
		t.Errorf("FromWorkUnit error = %v, want ErrUnknownSlot", err)
	}
}
