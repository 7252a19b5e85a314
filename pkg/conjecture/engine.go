package conjecture

import (
	"math/rand/v2"
	"time"
)

// TestFunction is a user-supplied predicate. It draws from ro (via
// [RecordingObject.DrawBytes] and friends) and signals its outcome by
// calling [RecordingObject.MarkInteresting] or
// [RecordingObject.MarkInvalid] — both return the resulting *[StopTest],
// which the function should return immediately. A TestFunction that
// returns nil, or a *StopTest naming ro, is treated as a normal
// completion; any other error propagates out of the engine verbatim.
type TestFunction func(ro *RecordingObject) error

// Report is the payload passed to [Settings.DebugReport] whenever a
// candidate's status is >= the engine's current best.
type Report struct {
	Buffer []byte
	Status Status
	Output []byte
}

// Settings configures a single [Engine] run. The zero value is valid:
// unset numeric fields fall back to documented defaults the first
// time an [Engine] is constructed from them.
type Settings struct {
	// BufferSize is the size, in bytes, of the initial and
	// mutation-reset buffers. Default 8192.
	BufferSize int

	// MaxExamples caps the number of Valid-or-better executions
	// during the generation phase. Default 200.
	MaxExamples int

	// MaxIterations caps the total number of executions considered
	// during the generation phase. Default 1000.
	MaxIterations int

	// MaxMutations spaces fresh random buffers during generation: the
	// phase starts with MaxMutations mutation-derived executions, and
	// from then on every MaxMutations-th iteration runs a fresh random
	// buffer, leaving MaxMutations-1 mutations between two fresh
	// buffers. Default 10.
	MaxMutations int

	// MaxShrinks caps the number of accepted shrinks. Default 500.
	MaxShrinks int

	// Timeout is a wall-clock cap on the whole run. Zero disables it.
	Timeout time.Duration

	// Seed seeds the engine's PRNG. Zero selects a seed derived from
	// the current time, which makes the run's trajectory
	// non-reproducible; set a nonzero Seed for bit-exact replay.
	Seed uint64

	// DebugReport, if non-nil, is invoked once per candidate whose
	// status is >= the engine's current best at the time it was
	// considered. It is never called concurrently.
	DebugReport func(Report)
}

func (s Settings) normalize() Settings {
	if s.BufferSize <= 0 {
		s.BufferSize = 8192
	}

	if s.MaxExamples <= 0 {
		s.MaxExamples = 200
	}

	if s.MaxIterations <= 0 {
		s.MaxIterations = 1000
	}

	if s.MaxMutations <= 0 {
		s.MaxMutations = 10
	}

	if s.MaxShrinks <= 0 {
		s.MaxShrinks = 500
	}

	return s
}

// Stats is a point-in-time snapshot of an [Engine]'s run counters.
type Stats struct {
	ExamplesConsidered int
	ValidExamples      int
	Shrinks            int
	Changed            int
}

// Engine orchestrates the generation phase (random buffers perturbed
// by [Mutate]) followed, once an Interesting RO is found, by the
// shrink-pass library. It is single-threaded and synchronous: one RO
// is live at a time, and the PRNG and current best RO are its only
// shared state.
type Engine struct {
	testFn   TestFunction
	settings Settings
	rng      *rand.Rand

	startTime time.Time
	best      *RecordingObject

	examplesConsidered int
	validExamples      int
	shrinks            int
	changed            int
}

// NewEngine constructs an Engine bound to testFn and settings. The
// PRNG is seeded from settings.Seed (or the current time, if zero).
func NewEngine(testFn TestFunction, settings Settings) *Engine {
	settings = settings.normalize()

	seed := settings.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return &Engine{
		testFn:    testFn,
		settings:  settings,
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		startTime: time.Now(),
	}
}

// Stats returns a snapshot of the engine's run counters.
func (e *Engine) Stats() Stats {
	return Stats{
		ExamplesConsidered: e.examplesConsidered,
		ValidExamples:      e.validExamples,
		Shrinks:            e.shrinks,
		Changed:            e.changed,
	}
}

// Best returns the engine's current best RO, or nil before [Engine.Run]
// has produced one.
func (e *Engine) Best() *RecordingObject { return e.best }

// Run drives the full search: an initial random buffer, a generation
// phase of mutations, and — if an Interesting RO was reached — a
// shrink phase. It returns nil on ordinary completion (budgets
// exhausted, timeout elapsed, or the shrink-pass library reached
// fixpoint); any non-nil return is a TestFunction error propagated
// verbatim.
func (e *Engine) Run() error {
	if err := e.newBuffer(); err != nil {
		return unwrapRunComplete(err)
	}

	if err := e.generationPhase(); err != nil {
		return unwrapRunComplete(err)
	}

	if e.best.status != Interesting {
		return nil
	}

	return unwrapRunComplete(e.shrinkPhase())
}

// FindInterestingBuffer runs a fresh [Engine] to completion and
// returns the minimized buffer of the Interesting RO it found, or nil
// if none was found within budget. The returned [Stats] snapshot is
// always populated, even when no interesting buffer was found or an
// error is returned.
func FindInterestingBuffer(testFn TestFunction, settings Settings) ([]byte, Stats, error) {
	e := NewEngine(testFn, settings)

	err := e.Run()
	stats := e.Stats()

	if err != nil {
		return nil, stats, err
	}

	if e.best != nil && e.best.status == Interesting {
		return append([]byte(nil), e.best.buffer...), stats, nil
	}

	return nil, stats, nil
}

// runComplete is an internal control signal for budget exhaustion or
// timeout; it is never returned to callers of [Engine.Run].
type runComplete struct{}

func (runComplete) Error() string { return "conjecture: run is complete" }

func unwrapRunComplete(err error) error {
	if _, ok := err.(runComplete); ok {
		return nil
	}

	return err
}

func (e *Engine) runTestFunction(ro *RecordingObject) error {
	err := e.testFn(ro)
	if err == nil {
		return nil
	}

	if st, ok := AsStopTest(err); ok {
		if st.RO == ro {
			return nil
		}

		return err
	}

	return err
}

func (e *Engine) newBuffer() error {
	ro := NewRecordingObject(e.randBytes(e.settings.BufferSize))

	if err := e.runTestFunction(ro); err != nil {
		return err
	}

	ro.Freeze()
	e.best = ro

	return nil
}

func (e *Engine) generationPhase() error {
	mutations := 0

	for e.best.status != Interesting {
		if e.validExamples >= e.settings.MaxExamples || e.examplesConsidered >= e.settings.MaxIterations {
			return nil
		}

		if mutations >= e.settings.MaxMutations {
			mutations = 0

			if err := e.newBuffer(); err != nil {
				return err
			}
		} else {
			if _, err := e.incorporateNewBuffer(Mutate(e.rng, e.best)); err != nil {
				return err
			}
		}

		mutations++
	}

	return nil
}

// incorporateNewBuffer runs buf through a fresh RO and, if it is
// accepted by [Accept], replaces the engine's best. It reports
// whether the candidate was accepted, which the shrink passes use to
// decide whether to keep exploring a given position.
func (e *Engine) incorporateNewBuffer(buf []byte) (bool, error) {
	if e.settings.Timeout > 0 && time.Since(e.startTime) >= e.settings.Timeout {
		return false, runComplete{}
	}

	e.examplesConsidered++

	n := min(e.best.index, len(e.best.buffer), len(buf))
	if compareBytes(buf[:n], e.best.buffer[:n]) == 0 {
		return false, nil
	}

	ro := NewRecordingObject(buf)

	if err := e.runTestFunction(ro); err != nil {
		return false, err
	}

	ro.Freeze()

	if ro.status >= e.best.status {
		e.debugReport(ro)
	}

	if ro.status >= Valid {
		e.validExamples++
	}

	if !Accept(ro, e.best) {
		return false, nil
	}

	if e.best.status == Interesting {
		e.shrinks++
	}

	e.best = ro
	e.changed++

	if e.shrinks >= e.settings.MaxShrinks {
		return true, runComplete{}
	}

	return true, nil
}

func (e *Engine) debugReport(ro *RecordingObject) {
	if e.settings.DebugReport == nil {
		return
	}

	n := min(ro.index, len(ro.buffer))

	e.settings.DebugReport(Report{
		Buffer: append([]byte(nil), ro.buffer[:n]...),
		Status: ro.status,
		Output: append([]byte(nil), ro.output...),
	})
}

func (e *Engine) randBytes(n int) []byte {
	if n <= 0 {
		return []byte{}
	}

	return randBytesFrom(e.rng, n)
}
