// Package score rebuilds work unit lifecycles from the text logs of a
// distributed compute client.
//
// A Board ingests log files line by line. Each line is classified into an
// event (assignment, completion, diagnostic, message) and dispatched to the
// board's state machine, which pairs assignments with completions, tracks
// slots idling after a failed assignment, counts units dumped by the server
// and records fatal core errors.
//
// Parsing is best effort per line: a line that cannot be classified or
// applied is counted and skipped, and never disturbs state built from the
// lines around it.
//
// A Board is not safe for concurrent use.
package score

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
)

// Options configures a Board.
type Options struct {
	// Slots maps slot ids to hardware types (default: DefaultSlotMap)
	Slots SlotMap

	// Now supplies today's date for logs whose name carries none (default: time.Now)
	Now func() time.Time

	// DebugFunc is an optional callback for debug logging
	DebugFunc func(format string, args ...any)
}

// IngestStats describes one ingestion.
type IngestStats struct {
	Name string

	// Date is the date applied to every line of the file
	Date Date

	// DatedByName is false when Date fell back to today
	DatedByName bool

	Lines        int
	Events       int
	Unrecognized int
	Malformed    int

	// Rejected counts classified lines the board could not apply
	Rejected int
}

// Skipped returns the number of lines that had no effect on the board.
func (s IngestStats) Skipped() int {
	return s.Unrecognized + s.Malformed + s.Rejected
}

// Board owns all lifecycle state built from ingested logs.
type Board struct {
	slots     SlotMap
	now       func() time.Time
	debugFunc func(format string, args ...any)

	completed []*WorkUnitRecord
	inFlight  []*WorkUnitRecord
	errors    []time.Time

	idleSince map[string]time.Time
	idleTotal map[Date]map[SlotType]time.Duration
	dumped    map[Date]map[SlotType]int

	currentDate Date
}

// NewBoard creates an empty board.
func NewBoard(opts Options) *Board {
	if opts.Slots == nil {
		opts.Slots = DefaultSlotMap()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Board{
		slots:       opts.Slots,
		now:         opts.Now,
		debugFunc:   opts.DebugFunc,
		idleSince:   make(map[string]time.Time),
		idleTotal:   make(map[Date]map[SlotType]time.Duration),
		dumped:      make(map[Date]map[SlotType]int),
		currentDate: DateOf(opts.Now()),
	}
}

func (b *Board) debug(format string, args ...any) {
	if b.debugFunc != nil {
		b.debugFunc(format, args...)
	}
}

// Ingest reads the log file at path and applies every line to the board.
// Only a failure to read the file is returned; bad lines are counted in the
// returned stats.
func (b *Board) Ingest(path string) (IngestStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return IngestStats{Name: path}, fmt.Errorf("read log %s: %w", path, err)
	}
	return b.ingest(path, string(data)), nil
}

// IngestReader is Ingest for an already opened log. name is only used to
// resolve the date.
func (b *Board) IngestReader(name string, r io.Reader) (IngestStats, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return IngestStats{Name: name}, fmt.Errorf("read log %s: %w", name, err)
	}
	return b.ingest(name, string(data)), nil
}

func (b *Board) ingest(name, text string) IngestStats {
	date, byName := ResolveDate(name, b.now)
	if !byName {
		b.debug("%s: no date in file name, using %s", name, date)
	}
	b.currentDate = date

	stats := IngestStats{Name: name, Date: date, DatedByName: byName}
	for _, line := range splitLines(text) {
		stats.Lines++
		ev, err := Classify(line)
		if err != nil {
			if errors.Is(err, ErrMalformed) {
				stats.Malformed++
				b.debug("%s:%d: %v", name, stats.Lines, err)
			} else {
				stats.Unrecognized++
			}
			continue
		}
		stats.Events++
		if err := b.dispatch(ev); err != nil {
			stats.Rejected++
			b.debug("%s:%d: %v", name, stats.Lines, err)
		}
	}

	b.debug("%s: %d lines, %d events, %d skipped", name, stats.Lines, stats.Events, stats.Skipped())
	return stats
}

// HandleLine classifies a single line and applies it using the current date.
func (b *Board) HandleLine(line string) error {
	ev, err := Classify(line)
	if err != nil {
		return err
	}
	return b.dispatch(ev)
}

// SetCurrentDate sets the date applied to lines fed through HandleLine.
func (b *Board) SetCurrentDate(d Date) {
	b.currentDate = d
}

// CurrentDate returns the date applied to incoming lines.
func (b *Board) CurrentDate() Date {
	return b.currentDate
}

func (b *Board) dispatch(ev Event) error {
	ts := b.currentDate.At(ev.header().Clock)

	switch e := ev.(type) {
	case AssignmentEvent:
		return b.onAssignment(e.Slot, e.Project, e.Unit, ts)
	case CompletionEvent:
		b.onCompletion(e.Slot, e.Unit, ts, e.Points)
	case DiagnosticEvent:
		if e.Fatal() {
			b.onError(ts)
		}
	case MessageEvent:
		switch {
		case e.FailedAssignment():
			b.onAssignmentFailed(e.Slot, ts)
		case e.Dumped():
			return b.onDump(e.Slot, e.Unit, ts)
		}
	}
	return nil
}

// splitLines splits on \n and drops the empty tail left by a final newline.
// Carriage returns are stripped by Classify.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Completed returns the completed records in completion order.
func (b *Board) Completed() []WorkUnitRecord {
	return copyRecords(b.completed)
}

// InFlight returns the records still waiting for completion, oldest first.
func (b *Board) InFlight() []WorkUnitRecord {
	return copyRecords(b.inFlight)
}

func copyRecords(rs []*WorkUnitRecord) []WorkUnitRecord {
	out := make([]WorkUnitRecord, len(rs))
	for i, r := range rs {
		out[i] = *r
	}
	return out
}

// Errors returns the timestamps of fatal core errors, in log order.
func (b *Board) Errors() []time.Time {
	out := make([]time.Time, len(b.errors))
	copy(out, b.errors)
	return out
}

// IdleSince returns the slots currently idle and when they became idle.
func (b *Board) IdleSince() map[string]time.Time {
	out := make(map[string]time.Time, len(b.idleSince))
	for slot, t := range b.idleSince {
		out[slot] = t
	}
	return out
}

// IdleTotals returns the accumulated idle time per date and slot type.
func (b *Board) IdleTotals() map[Date]map[SlotType]time.Duration {
	out := make(map[Date]map[SlotType]time.Duration, len(b.idleTotal))
	for d, bucket := range b.idleTotal {
		c := make(map[SlotType]time.Duration, len(bucket))
		for t, v := range bucket {
			c[t] = v
		}
		out[d] = c
	}
	return out
}

// DumpedCounts returns the number of dumped units per date and slot type.
func (b *Board) DumpedCounts() map[Date]map[SlotType]int {
	out := make(map[Date]map[SlotType]int, len(b.dumped))
	for d, bucket := range b.dumped {
		c := make(map[SlotType]int, len(bucket))
		for t, v := range bucket {
			c[t] = v
		}
		out[d] = c
	}
	return out
}

// TotalPoints returns the sum of points over all completed records.
func (b *Board) TotalPoints() float64 {
	total := 0.0
	for _, r := range b.completed {
		total += r.Points
	}
	return total
}

// Render returns one tab-separated line per completed record, in completion
// order: start, end, duration, project, slot type, unit, points.
func (b *Board) Render() (string, error) {
	lines := make([]string, 0, len(b.completed))
	for _, r := range b.completed {
		row, err := FormatRecord(*r, b.slots)
		if err != nil {
			return "", err
		}
		lines = append(lines, strings.Join(row, "\t"))
	}
	return strings.Join(lines, "\n"), nil
}

// IdleStat is the idle time of one slot type on one date.
type IdleStat struct {
	Date     Date          `json:"date"`
	SlotType SlotType      `json:"slotType"`
	Idle     time.Duration `json:"-"`
	Seconds  int64         `json:"seconds"`
}

// DumpStat is the number of dumped units of one slot type on one date.
type DumpStat struct {
	Date     Date     `json:"date"`
	SlotType SlotType `json:"slotType"`
	Count    int      `json:"count"`
}

// Summary aggregates a board for reporting.
type Summary struct {
	Completed   int                  `json:"completed"`
	InFlight    int                  `json:"inFlight"`
	TotalPoints float64              `json:"totalPoints"`
	Points      map[SlotType]float64 `json:"points"`
	Idle        []IdleStat           `json:"idle"`
	Dumped      []DumpStat           `json:"dumped"`
	Errors      []time.Time          `json:"errors"`
}

// Summary aggregates the board. Points are split by slot type, so an
// unmapped slot on a completed record is an error.
func (b *Board) Summary() (Summary, error) {
	s := Summary{
		Completed:   len(b.completed),
		InFlight:    len(b.inFlight),
		TotalPoints: b.TotalPoints(),
		Points:      make(map[SlotType]float64),
		Idle:        []IdleStat{},
		Dumped:      []DumpStat{},
		Errors:      b.Errors(),
	}

	for _, r := range b.completed {
		t, err := b.slots.TypeOf(r.Slot)
		if err != nil {
			return Summary{}, err
		}
		s.Points[t] += r.Points
	}

	for d, bucket := range b.idleTotal {
		for t, idle := range bucket {
			s.Idle = append(s.Idle, IdleStat{Date: d, SlotType: t, Idle: idle, Seconds: int64(idle / time.Second)})
		}
	}
	sort.Slice(s.Idle, func(i, j int) bool {
		return statLess(s.Idle[i].Date, s.Idle[i].SlotType, s.Idle[j].Date, s.Idle[j].SlotType)
	})

	for d, bucket := range b.dumped {
		for t, n := range bucket {
			s.Dumped = append(s.Dumped, DumpStat{Date: d, SlotType: t, Count: n})
		}
	}
	sort.Slice(s.Dumped, func(i, j int) bool {
		return statLess(s.Dumped[i].Date, s.Dumped[i].SlotType, s.Dumped[j].Date, s.Dumped[j].SlotType)
	})

	return s, nil
}

func statLess(d1 Date, t1 SlotType, d2 Date, t2 SlotType) bool {
	if d1 != d2 {
		return d1.Before(d2)
	}
	return t1 < t2
}
