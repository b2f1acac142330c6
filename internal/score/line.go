// internal/score/line.go
package score

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Every job-scoped client line shares one envelope:
//
//	HH:MM:SS[:LEVEL]:WU<n>:FS<n>[:0x<core>]:<body>
//
// The body decides which event the line carries.
var (
	envelopePattern   = regexp.MustCompile(`^(\d{2}:\d{2}:\d{2})(?::([A-Z]+))?:(WU\d+):(FS\d+)(?::(0[xX][0-9a-fA-F]+))?:(.*)$`)
	assignmentPattern = regexp.MustCompile(`^Project: (\d+) \(Run (\d+), Clone (\d+), Gen (\d+)\)`)
	completionPattern = regexp.MustCompile(`^Final credit estimate, ([\d.]+) points`)
	diagnosticPattern = regexp.MustCompile(`^(ERROR|Exception): ?([\w ,]+)`)
	messagePattern    = regexp.MustCompile(`^[\w ,]+`)
)

// Message markers the board reacts to.
const (
	FailedAssignmentMarker = "Failed to get assignment"
	DumpMarker             = "dumping"
	FatalMarker            = "Program"
)

// Event is one classified log line. The concrete type is one of
// AssignmentEvent, CompletionEvent, DiagnosticEvent or MessageEvent.
type Event interface {
	header() Header
}

// Header holds the fields common to every job-scoped line.
type Header struct {
	// Clock is the time of day, as an offset from midnight
	Clock time.Duration

	// Level is the optional severity between the time and the unit (e.g. WARNING)
	Level string

	Unit string
	Slot string

	// Core is the optional core id (e.g. 0x22)
	Core string
}

func (h Header) header() Header { return h }

// AssignmentEvent: a slot was handed a work unit.
type AssignmentEvent struct {
	Header
	Project string
	Run     int
	Clone   int
	Gen     int
}

// CompletionEvent: a work unit finished and reported its credit estimate.
type CompletionEvent struct {
	Header
	Points float64
}

// DiagnosticEvent is an ERROR/Exception line scoped to a job.
type DiagnosticEvent struct {
	Header
	Severity string
	Message  string
}

// Fatal reports whether the diagnostic marks a crashed core program.
func (e DiagnosticEvent) Fatal() bool {
	return strings.Contains(e.Message, FatalMarker)
}

// MessageEvent is any other free-text line scoped to a job.
type MessageEvent struct {
	Header
	Message string
}

// FailedAssignment reports whether the slot could not get a work unit.
func (e MessageEvent) FailedAssignment() bool {
	return strings.Contains(e.Message, FailedAssignmentMarker)
}

// Dumped reports whether the server rejected the unit's results.
func (e MessageEvent) Dumped() bool {
	return strings.Contains(e.Message, DumpMarker)
}

// Classify turns one log line into an event. Lines that match no known shape
// return ErrUnrecognized; lines whose shape matches but whose fields do not
// parse return ErrMalformed. Classify never panics on arbitrary input.
func Classify(line string) (Event, error) {
	line = strings.TrimSuffix(line, "\r")

	m := envelopePattern.FindStringSubmatch(line)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnrecognized, line)
	}

	clock, err := parseClock(m[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformed, line, err)
	}

	h := Header{
		Clock: clock,
		Level: m[2],
		Unit:  m[3],
		Slot:  m[4],
		Core:  m[5],
	}
	body := m[6]

	if a := assignmentPattern.FindStringSubmatch(body); a != nil {
		var nums [3]int
		for i, s := range a[2:5] {
			n, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrMalformed, line, err)
			}
			nums[i] = n
		}
		return AssignmentEvent{
			Header:  h,
			Project: a[1],
			Run:     nums[0],
			Clone:   nums[1],
			Gen:     nums[2],
		}, nil
	}

	if c := completionPattern.FindStringSubmatch(body); c != nil {
		points, err := strconv.ParseFloat(c[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: credit %q is not a number", ErrMalformed, line, c[1])
		}
		return CompletionEvent{Header: h, Points: points}, nil
	}

	if d := diagnosticPattern.FindStringSubmatch(body); d != nil {
		return DiagnosticEvent{Header: h, Severity: d[1], Message: d[2]}, nil
	}

	if msg := messagePattern.FindString(body); msg != "" {
		return MessageEvent{Header: h, Message: msg}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnrecognized, line)
}

// parseClock parses HH:MM:SS into an offset from midnight.
func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}
