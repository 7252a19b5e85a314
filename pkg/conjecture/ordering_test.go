package conjecture

import "testing"

func newFrozenValid(t *testing.T, buf []byte, draw int) *RecordingObject {
	t.Helper()

	ro := NewRecordingObject(buf)
	if draw > 0 {
		if _, err := ro.DrawBytes(draw); err != nil {
			t.Fatalf("DrawBytes: %v", err)
		}
	}
	ro.Freeze()

	return ro
}

func newFrozenInteresting(t *testing.T, buf []byte, draw int) *RecordingObject {
	t.Helper()

	ro := NewRecordingObject(buf)
	if draw > 0 {
		if _, err := ro.DrawBytes(draw); err != nil {
			t.Fatalf("DrawBytes: %v", err)
		}
	}
	if err := ro.MarkInteresting(); err == nil {
		t.Fatalf("MarkInteresting should return a *StopTest")
	}
	ro.Freeze()

	return ro
}

func Test_Accept_HigherStatusAlwaysWins(t *testing.T) {
	t.Parallel()

	best := newFrozenValid(t, []byte{0x01}, 1)
	candidate := newFrozenInteresting(t, []byte{0x01}, 1)

	if !Accept(candidate, best) {
		t.Fatalf("Accept(interesting, valid) = false, want true")
	}
}

func Test_Accept_LowerStatusAlwaysLoses(t *testing.T) {
	t.Parallel()

	best := newFrozenInteresting(t, []byte{0x01}, 1)
	candidate := newFrozenValid(t, []byte{0x01}, 1)

	if Accept(candidate, best) {
		t.Fatalf("Accept(valid, interesting) = true, want false")
	}
}

func Test_Accept_EqualValidStatusAlwaysAccepts(t *testing.T) {
	t.Parallel()

	best := newFrozenValid(t, []byte{0x01, 0x02}, 2)
	candidate := newFrozenValid(t, []byte{0x03, 0x04}, 2)

	if !Accept(candidate, best) {
		t.Fatalf("Accept(valid, valid) = false, want true")
	}
}

func Test_Accept_EqualInvalidStatusPrefersDeeperDraw(t *testing.T) {
	t.Parallel()

	best := NewRecordingObject([]byte{0x01, 0x02})
	if _, err := best.DrawBytes(1); err != nil {
		t.Fatalf("DrawBytes: %v", err)
	}
	if err := best.MarkInvalid(); err == nil {
		t.Fatalf("MarkInvalid should return a *StopTest")
	}
	best.Freeze()

	deeper := NewRecordingObject([]byte{0x01, 0x02})
	if _, err := deeper.DrawBytes(2); err != nil {
		t.Fatalf("DrawBytes: %v", err)
	}
	if err := deeper.MarkInvalid(); err == nil {
		t.Fatalf("MarkInvalid should return a *StopTest")
	}
	deeper.Freeze()

	if !Accept(deeper, best) {
		t.Fatalf("Accept(deeper invalid, shallower invalid) = false, want true")
	}
	if Accept(best, deeper) {
		t.Fatalf("Accept(shallower invalid, deeper invalid) = true, want false")
	}
}

func Test_Accept_EqualOverrunStatusPrefersEarlierOverrun(t *testing.T) {
	t.Parallel()

	shallow := NewRecordingObject(nil)
	if _, err := shallow.DrawBytes(1); err == nil {
		t.Fatalf("expected overrun")
	}

	deep := NewRecordingObject([]byte{0x01})
	if _, err := deep.DrawBytes(1); err != nil {
		t.Fatalf("DrawBytes: %v", err)
	}
	if _, err := deep.DrawBytes(1); err == nil {
		t.Fatalf("expected overrun")
	}

	if !Accept(shallow, deep) {
		t.Fatalf("Accept(shallower overrun, deeper overrun) = false, want true")
	}
	if Accept(deep, shallow) {
		t.Fatalf("Accept(deeper overrun, shallower overrun) = true, want false")
	}
}

func Test_Accept_InterestingPrefersShorterBuffer(t *testing.T) {
	t.Parallel()

	best := newFrozenInteresting(t, []byte{0x01, 0x02}, 2)
	candidate := newFrozenInteresting(t, []byte{0x01}, 1)

	if !Accept(candidate, best) {
		t.Fatalf("Accept(shorter interesting, longer interesting) = false, want true")
	}
}

func Test_Accept_InterestingRejectsLongerBuffer(t *testing.T) {
	t.Parallel()

	best := newFrozenInteresting(t, []byte{0x01}, 1)
	candidate := newFrozenInteresting(t, []byte{0x01, 0x02}, 2)

	if Accept(candidate, best) {
		t.Fatalf("Accept(longer interesting, shorter interesting) = true, want false")
	}
}

func Test_Accept_InterestingSameLengthRequiresLexicographicallySmaller(t *testing.T) {
	t.Parallel()

	best := newFrozenInteresting(t, []byte{0x01, 0x01}, 2)
	smaller := newFrozenInteresting(t, []byte{0x01, 0x00}, 2)
	larger := newFrozenInteresting(t, []byte{0x01, 0x02}, 2)

	if !Accept(smaller, best) {
		t.Fatalf("Accept(lexicographically smaller, best) = false, want true")
	}
	if Accept(larger, best) {
		t.Fatalf("Accept(lexicographically larger, best) = true, want false")
	}
}

func Test_Accept_InterestingIdenticalBufferIsRejectedWithoutPanic(t *testing.T) {
	t.Parallel()

	best := newFrozenInteresting(t, []byte{0x01, 0x02}, 2)
	same := newFrozenInteresting(t, []byte{0x01, 0x02}, 2)

	if Accept(same, best) {
		t.Fatalf("Accept(identical interesting buffer, best) = true, want false")
	}
}
