// Package conjfuzz connects conjecture test functions to Go's native
// fuzzing (`go test -fuzz`): [Run] replays a corpus entry once through
// a [conjecture.TestFunction] (no [conjecture.Engine] generation or
// shrinking is involved), and [Seed] runs a full engine search whose
// Interesting buffer can be passed to testing.F.Add as a corpus seed.
//
// # Basic Usage
//
//	func FuzzParser(f *testing.F) {
//	    f.Add([]byte{0x05})
//	    f.Fuzz(func(t *testing.T, raw []byte) {
//	        conjfuzz.Run(raw, func(ro *conjecture.RecordingObject) error {
//	            b, err := ro.DrawBytes(1)
//	            if err != nil {
//	                return err
//	            }
//	            if b[0] >= 5 {
//	                t.Errorf("found: %v", b)
//	                return ro.MarkInteresting()
//	            }
//	            return ro.MarkInvalid()
//	        })
//	    })
//	}
package conjfuzz

import "github.com/conjecture-go/conjecture/pkg/conjecture"

// Run replays raw through testFn exactly once, as Go's fuzz corpus
// entries are themselves already-minimized byte sequences: rerunning
// the conjecture engine's generation phase over a corpus entry would
// rediscover what `go test -fuzz` already found. It reports whether
// testFn reached conjecture.Interesting.
func Run(raw []byte, testFn conjecture.TestFunction) bool {
	ro := conjecture.NewRecordingObject(raw)

	if err := testFn(ro); err != nil {
		if _, ok := conjecture.AsStopTest(err); !ok {
			panic(err)
		}
	}

	ro.Freeze()

	return ro.Status() == conjecture.Interesting
}

// Seed drives a fresh [conjecture.Engine] to completion and returns the
// buffer of the Interesting RO it found, suitable for passing to
// testing.F.Add to grow a fuzz corpus from a conjecture run. It returns
// nil if the engine found nothing interesting within settings' budget.
func Seed(testFn conjecture.TestFunction, settings conjecture.Settings) ([]byte, error) {
	buf, _, err := conjecture.FindInterestingBuffer(testFn, settings)
	return buf, err
}

// Cursor is a deterministic read cursor over a fuzz corpus entry:
// reads past the end return zero rather than erroring, so a fuzz
// target built on Cursor stays total over every byte slice the fuzzer
// or the corpus can produce.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor wraps raw for sequential reading.
func NewCursor(raw []byte) *Cursor {
	return &Cursor{buf: raw}
}

// NextByte returns the next byte, or 0 if the cursor is exhausted.
func (c *Cursor) NextByte() byte {
	if c.pos >= len(c.buf) {
		return 0
	}
	b := c.buf[c.pos]
	c.pos++
	return b
}

// HasMore reports whether any unread bytes remain.
func (c *Cursor) HasMore() bool {
	return c.pos < len(c.buf)
}

// Rest returns every unread byte without advancing the cursor.
func (c *Cursor) Rest() []byte {
	return append([]byte(nil), c.buf[c.pos:]...)
}
