// Package conjecture implements the Conjecture engine: an adaptive
// fuzzer paired with a structure-aware shrinker that finds minimal
// byte sequences witnessing "interesting" behavior of a user-supplied
// test predicate.
//
// # Basic Usage
//
//	buf, stats, err := conjecture.FindInterestingBuffer(func(ro *conjecture.RecordingObject) error {
//	    b, err := ro.DrawBytes(1)
//	    if err != nil {
//	        return err
//	    }
//	    if b[0] >= 5 {
//	        return ro.MarkInteresting()
//	    }
//	    return ro.MarkInvalid()
//	}, conjecture.Settings{})
//	if buf == nil {
//	    // no interesting buffer found within budget
//	}
//
// # Strategies
//
// A strategy is any function that, given a [*RecordingObject], calls
// [RecordingObject.DrawBytes] (and optionally
// [RecordingObject.StartExample]/[RecordingObject.StopExample] to mark
// structural landmarks for the shrinker) and returns a decoded value.
// Strategies themselves — integers, lists, tuples, and their
// auto-derivation from user types — are out of scope for this
// package; it only defines the draw/example/cost/note contract they
// share with the engine.
//
// # Determinism
//
// A fixed [Settings.Seed] yields a bit-exact reproducible search
// trajectory: the PRNG is the engine's sole source of nondeterminism,
// and the sequence of considered buffers is a deterministic function
// of (seed, settings, test function).
package conjecture

import (
	"math/rand/v2"
	"sort"
)

// Interval is a span [Start, End) of byte positions corresponding to
// one logical draw or example, used as a structural landmark by the
// shrinker.
type Interval struct {
	Start int
	End   int
}

// RecordingObject is the per-execution scratchpad mediating all
// engine-strategy communication. It is created with a concrete
// buffer (and, in generate mode, a PRNG and an extension budget),
// passed once to a test function, then frozen. Frozen ROs are
// immutable and compared only via [Accept]; they are never replayed.
//
// The zero value is not usable; construct with [NewRecordingObject]
// or [NewGeneratingRecordingObject].
type RecordingObject struct {
	buffer []byte
	index  int
	status Status
	frozen bool

	intervals     []Interval
	intervalStack []int

	costs  []uint64
	output []byte

	// Generation-mode extras. rng is nil in replay mode.
	rng             *rand.Rand
	generateUpTo    int
	duplicationRate float64
	words           map[int][][]byte
}

// NewRecordingObject constructs a replay-mode RO over a fixed,
// immutable buffer: draws exceeding len(buffer) overrun immediately.
func NewRecordingObject(buffer []byte) *RecordingObject {
	ro := &RecordingObject{
		buffer: append([]byte(nil), buffer...),
		status: Valid,
		costs:  make([]uint64, len(buffer)+1),
	}
	ro.intervalStack = append(ro.intervalStack, 0)
	return ro
}

// NewGeneratingRecordingObject constructs a generate-mode RO: draws
// that exceed len(buffer) extend it (duplicating previously drawn
// same-length slices with probability duplicationRate, sampled once
// here) up to generateUpTo bytes of total index, beyond which the RO
// overruns. A generateUpTo below len(buffer) is raised to len(buffer).
func NewGeneratingRecordingObject(buffer []byte, rng *rand.Rand, generateUpTo int) *RecordingObject {
	if generateUpTo < len(buffer) {
		generateUpTo = len(buffer)
	}

	ro := &RecordingObject{
		buffer:       append([]byte(nil), buffer...),
		status:       Valid,
		costs:        make([]uint64, generateUpTo+1),
		rng:          rng,
		generateUpTo: generateUpTo,
		words:        make(map[int][][]byte),
	}
	ro.duplicationRate = rng.Float64()
	ro.intervalStack = append(ro.intervalStack, 0)
	return ro
}

// Buffer returns the RO's current byte buffer. Strategies and callers
// must treat the returned slice as read-only; it aliases internal
// state, before and after the RO is frozen.
func (ro *RecordingObject) Buffer() []byte { return ro.buffer }

// Index reports how many bytes have been consumed so far.
func (ro *RecordingObject) Index() int { return ro.index }

// Status reports the RO's current outcome status.
func (ro *RecordingObject) Status() Status { return ro.status }

// Frozen reports whether the RO has been frozen.
func (ro *RecordingObject) Frozen() bool { return ro.frozen }

// Intervals returns the RO's structural intervals. Before [RecordingObject.Freeze]
// these are in draw order; after freeze they are sorted longest-first,
// then by ascending start (see the interval-deletion shrink pass).
func (ro *RecordingObject) Intervals() []Interval {
	out := make([]Interval, len(ro.intervals))
	copy(out, ro.intervals)
	return out
}

// Output returns the RO's accumulated debug note log.
func (ro *RecordingObject) Output() []byte {
	return append([]byte(nil), ro.output...)
}

// Costs returns a copy of the RO's per-byte-position cost vector.
func (ro *RecordingObject) Costs() []uint64 {
	return append([]uint64(nil), ro.costs...)
}

// Generating reports whether this RO is in generate mode (constructed
// with a PRNG and an extension budget).
func (ro *RecordingObject) Generating() bool { return ro.rng != nil }

// Words returns a read-only snapshot of the generation-mode
// duplication cache: previously drawn n-byte slices, keyed by n. It
// is empty for replay-mode ROs.
func (ro *RecordingObject) Words() map[int][][]byte {
	view := make(map[int][][]byte, len(ro.words))
	for n, slices := range ro.words {
		cp := make([][]byte, len(slices))
		copy(cp, slices)
		view[n] = cp
	}
	return view
}

// DrawBytes consumes n bytes, returning a copy the caller owns.
//
// In replay mode, drawing past len(Buffer()) sets Status to Overrun,
// freezes the RO, and returns a *[StopTest] naming it. In generate
// mode, the buffer is extended (reusing a prior same-length slice
// with probability equal to the RO's sampled duplication rate,
// otherwise with fresh random bytes) up to the RO's generation
// budget; beyond that budget it overruns identically.
func (ro *RecordingObject) DrawBytes(n int) ([]byte, error) {
	if ro.frozen {
		return nil, ErrFrozen
	}

	start := ro.index
	ro.index += n

	if ro.index > len(ro.buffer) {
		if ro.rng == nil || ro.index > ro.generateUpTo {
			ro.status = Overrun
			ro.freezeLocked()
			return nil, &StopTest{RO: ro}
		}

		if start < len(ro.buffer) {
			// The draw straddles the current end of the buffer:
			// fill only the overshoot with fresh bytes.
			k := ro.index - len(ro.buffer)
			ro.buffer = append(ro.buffer, ro.randBytes(k)...)
		} else if prior := ro.words[n]; len(prior) > 0 && ro.rng.Float64() <= ro.duplicationRate {
			chosen := prior[ro.rng.IntN(len(prior))]
			ro.buffer = append(ro.buffer, chosen...)
		} else {
			ro.buffer = append(ro.buffer, ro.randBytes(n)...)
		}
	}

	ro.intervals = append(ro.intervals, Interval{start, ro.index})

	result := append([]byte(nil), ro.buffer[start:ro.index]...)

	if ro.rng != nil {
		ro.words[n] = append(ro.words[n], result)
	}

	return result, nil
}

// StartExample pushes the current index as the start of a new
// structural example; pair with [RecordingObject.StopExample].
func (ro *RecordingObject) StartExample() error {
	if ro.frozen {
		return ErrFrozen
	}

	ro.intervalStack = append(ro.intervalStack, ro.index)

	return nil
}

// StopExample pops the matching [RecordingObject.StartExample] index
// and, if any bytes were drawn since, records [k, Index()) as an
// interval (deduplicated against the immediately preceding interval).
func (ro *RecordingObject) StopExample() error {
	if ro.frozen {
		return ErrFrozen
	}

	if len(ro.intervalStack) == 0 {
		return nil
	}

	ro.popExample()

	return nil
}

func (ro *RecordingObject) popExample() {
	n := len(ro.intervalStack)
	k := ro.intervalStack[n-1]
	ro.intervalStack = ro.intervalStack[:n-1]

	if k == ro.index {
		return
	}

	iv := Interval{k, ro.index}
	if len(ro.intervals) == 0 || ro.intervals[len(ro.intervals)-1] != iv {
		ro.intervals = append(ro.intervals, iv)
	}
}

// IncurCost adds cost to the cost vector at the current index. Costs
// only affect the key2 ordering tiebreak; they never change status.
func (ro *RecordingObject) IncurCost(cost uint64) error {
	if ro.frozen {
		return ErrFrozen
	}

	ro.costs[ro.index] += cost

	return nil
}

// Note appends arbitrary debug bytes to the RO's output log, used
// only in the ordering tiebreak (key2).
func (ro *RecordingObject) Note(value []byte) error {
	if ro.frozen {
		return ErrFrozen
	}

	ro.output = append(ro.output, value...)

	return nil
}

// NoteString is [RecordingObject.Note] for a string value.
func (ro *RecordingObject) NoteString(value string) error {
	return ro.Note([]byte(value))
}

// MarkInteresting sets Status to Interesting (only from Valid) and
// returns a *[StopTest] naming this RO.
func (ro *RecordingObject) MarkInteresting() error {
	if ro.frozen {
		return ErrFrozen
	}

	if ro.status == Valid {
		ro.status = Interesting
	}

	return &StopTest{RO: ro}
}

// MarkInvalid sets Status to Invalid (unless already Overrun) and
// returns a *[StopTest] naming this RO.
func (ro *RecordingObject) MarkInvalid() error {
	if ro.frozen {
		return ErrFrozen
	}

	if ro.status != Overrun {
		ro.status = Invalid
	}

	return &StopTest{RO: ro}
}

// Freeze is idempotent. It runs the implicit outermost StopExample
// (and any still-open nested examples, so the interval stack is
// always empty afterward — see DESIGN.md's resolution of the
// overrun-inside-a-nested-example case), sorts Intervals() by
// (length descending, start ascending), and, if Status is
// Interesting, truncates Buffer() to [0, Index()).
func (ro *RecordingObject) Freeze() {
	if ro.frozen {
		return
	}

	ro.freezeLocked()
}

func (ro *RecordingObject) freezeLocked() {
	for len(ro.intervalStack) > 0 {
		ro.popExample()
	}

	ro.frozen = true

	sortIntervals(ro.intervals)

	if ro.status == Interesting {
		ro.buffer = ro.buffer[:ro.index]
	}
}

func sortIntervals(intervals []Interval) {
	sort.Slice(intervals, func(i, j int) bool {
		li := intervals[i].Start - intervals[i].End
		lj := intervals[j].Start - intervals[j].End

		if li != lj {
			return li < lj // more negative (longer) sorts first
		}

		return intervals[i].Start < intervals[j].Start
	})
}

func (ro *RecordingObject) randBytes(n int) []byte {
	if n <= 0 {
		return nil
	}

	out := make([]byte, n)
	for i := range out {
		out[i] = byte(ro.rng.IntN(256))
	}

	return out
}

// Key1 is the primary ordering key: shorter buffers are better, ties
// broken lexicographically. See [Accept].
type Key1 struct {
	Length int
	Buffer []byte
}

// Key1 returns the RO's primary comparison key.
func (ro *RecordingObject) Key1() Key1 {
	return Key1{Length: len(ro.buffer), Buffer: ro.buffer}
}

// Key2 is the secondary ordering key (the tiebreak among buffers with
// an equal key1): fewer/cheaper incurred costs are better, then
// shorter output logs, then output compared under the niceness order.
type Key2 struct {
	Costs     []uint64
	OutputLen int
	Output    []byte
}

// Key2 returns the RO's secondary comparison key.
func (ro *RecordingObject) Key2() Key2 {
	return Key2{Costs: ro.costs, OutputLen: len(ro.output), Output: ro.output}
}

func compareKey1(a, b Key1) int {
	if a.Length != b.Length {
		if a.Length < b.Length {
			return -1
		}

		return 1
	}

	return compareBytes(a.Buffer, b.Buffer)
}

func compareKey2(a, b Key2) int {
	if c := compareCosts(a.Costs, b.Costs); c != 0 {
		return c
	}

	if a.OutputLen != b.OutputLen {
		if a.OutputLen < b.OutputLen {
			return -1
		}

		return 1
	}

	return compareOutput(a.Output, b.Output)
}

func compareCosts(a, b []uint64) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}

			return 1
		}
	}

	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}

			return 1
		}
	}

	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
