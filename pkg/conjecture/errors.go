package conjecture

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by this package.
//
// Callers should use [errors.Is] to classify errors returned from
// [RecordingObject] operations.
var (
	// ErrFrozen indicates a mutating [RecordingObject] operation was
	// called after [RecordingObject.Freeze]. This is a programming
	// error: strategies must stop drawing once a StopTest control
	// signal unwinds the test function.
	ErrFrozen = errors.New("conjecture: recording object is frozen")
)

// Status is the totally ordered outcome of a single test execution.
//
// OVERRUN < INVALID < VALID < INTERESTING. A new [RecordingObject] may
// only replace the engine's current best if its Status is >= the
// best's Status, subject to the further tie-break rules in the
// ordering (see [Accept]).
type Status int

const (
	// Overrun means the recording object ran out of bytes while
	// drawing and had no room (or budget) left to extend its buffer.
	// Worse than every other outcome.
	Overrun Status = iota
	// Invalid means the test rejected its input (an assumption
	// failed). Better than Overrun, worse than Valid.
	Invalid
	// Valid means the test ran to completion without objection.
	Valid
	// Interesting means the test predicate found what it was
	// searching for.
	Interesting
)

// String implements [fmt.Stringer].
func (s Status) String() string {
	switch s {
	case Overrun:
		return "overrun"
	case Invalid:
		return "invalid"
	case Valid:
		return "valid"
	case Interesting:
		return "interesting"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// StopTest is a control signal, not an error in the ordinary sense: it
// unwinds the test function once a [RecordingObject] has reached a
// terminal status for the current draw (overrun, marked invalid, or
// marked interesting).
//
// A driver recovers a StopTest with [AsStopTest] and must only treat
// it as "this run is done" when [StopTest.RO] is the RO it is
// currently running; a StopTest carrying a different RO's identity
// belongs to a nested or unrelated run and should be re-raised
// (propagated) rather than swallowed. This package's own driver
// ([Engine.runTestFunction]) does exactly that.
type StopTest struct {
	// RO identifies the recording object that produced this signal.
	RO *RecordingObject
}

// Error implements the error interface so StopTest can be propagated
// through ordinary Go error-returning control flow.
func (s *StopTest) Error() string {
	return "conjecture: stop test"
}

// AsStopTest reports whether err is a *StopTest and returns it.
func AsStopTest(err error) (*StopTest, bool) {
	var st *StopTest
	if errors.As(err, &st) {
		return st, true
	}
	return nil, false
}
