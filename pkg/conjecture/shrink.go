package conjecture

import "sort"

// shrinkPhase applies the shrink-pass library to e.best until a full
// round makes no further change, e.settings.MaxShrinks cumulative
// shrinks have been accepted, or the timeout elapses. e.best.status
// must already be Interesting.
func (e *Engine) shrinkPhase() error {
	if err := e.shrinkByteClamping(); err != nil {
		return err
	}

	initialChanges := e.changed
	changeCounter := -1

	for initialChanges+e.settings.MaxShrinks >= e.changed && e.changed > changeCounter {
		changeCounter = e.changed

		if err := e.shrinkIntervalDeletion(); err != nil {
			return err
		}

		if err := e.shrinkIntervalSort(); err != nil {
			return err
		}

		if err := e.shrinkByteValueReplacement(); err != nil {
			return err
		}

		if err := e.shrinkZeroWindow(); err != nil {
			return err
		}

		if err := e.shrinkByteByByte(); err != nil {
			return err
		}

		if err := e.shrinkAdjacentPairSort(); err != nil {
			return err
		}

		if e.changed > changeCounter {
			continue
		}

		if err := e.shrinkBorrowDown(); err != nil {
			return err
		}

		if e.changed > changeCounter {
			continue
		}

		if err := e.shrinkEqualBytePairedLowering(); err != nil {
			return err
		}

		if e.changed > changeCounter {
			continue
		}

		if err := e.shrinkSortPairSearch(); err != nil {
			return err
		}
	}

	return nil
}

// shrinkByteClamping is pass 1. For c = 0..255 it tries clamping every
// byte to at most c, stopping at the first accepted c. It runs once,
// before the repeated pass library, since clamping to smaller and
// smaller ceilings only needs a single sweep to reach its fixpoint.
func (e *Engine) shrinkByteClamping() error {
	for c := 0; c < 256; c++ {
		buf := e.best.buffer
		cand := make([]byte, len(buf))

		for i, b := range buf {
			if int(b) < c {
				cand[i] = b
			} else {
				cand[i] = byte(c)
			}
		}

		accepted, err := e.incorporateNewBuffer(cand)
		if err != nil {
			return err
		}

		if accepted {
			break
		}
	}

	return nil
}

// shrinkIntervalDeletion is pass 2. It iterates the (length-descending)
// interval list, trying to delete each span; on success it retries the
// same index against the now-current interval list rather than
// advancing, and the whole traversal repeats until one full pass makes
// no change.
func (e *Engine) shrinkIntervalDeletion() error {
	intervalChangeCounter := -1

	for e.changed > intervalChangeCounter {
		intervalChangeCounter = e.changed

		i := 0
		for i < len(e.best.intervals) {
			iv := e.best.intervals[i]
			buf := e.best.buffer

			cand := make([]byte, 0, len(buf)-(iv.End-iv.Start))
			cand = append(cand, buf[:iv.Start]...)
			cand = append(cand, buf[iv.End:]...)

			accepted, err := e.incorporateNewBuffer(cand)
			if err != nil {
				return err
			}

			if !accepted {
				i++
			}
		}
	}

	return nil
}

// shrinkIntervalSort is pass 3: replace each buf[u:v] with its
// byte-sorted form, one traversal.
func (e *Engine) shrinkIntervalSort() error {
	i := 0
	for i < len(e.best.intervals) {
		iv := e.best.intervals[i]
		buf := e.best.buffer

		if iv.End > len(buf) {
			i++
			continue
		}

		sorted := append([]byte(nil), buf[iv.Start:iv.End]...)
		sort.Slice(sorted, func(a, b int) bool { return sorted[a] < sorted[b] })

		cand := make([]byte, 0, len(buf))
		cand = append(cand, buf[:iv.Start]...)
		cand = append(cand, sorted...)
		cand = append(cand, buf[iv.End:]...)

		if _, err := e.incorporateNewBuffer(cand); err != nil {
			return err
		}

		i++
	}

	return nil
}

// shrinkByteValueReplacement is pass 4: for each c in 1..255 occurring
// more than once, try lowering every occurrence of c to c-1; on
// success, also try lowering every occurrence of the resulting c-1 to
// each d < c-1 in turn. Repeats until a full sweep over c makes no
// change.
func (e *Engine) shrinkByteValueReplacement() error {
	localChanges := -1

	for localChanges < e.changed {
		localChanges = e.changed

		for c := 1; c <= 255; c++ {
			buf := e.best.buffer

			if countByte(buf, byte(c)) <= 1 {
				continue
			}

			cand := make([]byte, len(buf))
			for i, b := range buf {
				if b == byte(c) {
					cand[i] = byte(c - 1)
				} else {
					cand[i] = b
				}
			}

			accepted, err := e.incorporateNewBuffer(cand)
			if err != nil {
				return err
			}

			if !accepted {
				continue
			}

			buf = e.best.buffer

			for d := 0; d < c-1; d++ {
				cand2 := make([]byte, len(buf))
				for i, b := range buf {
					if b == byte(c-1) {
						cand2[i] = byte(d)
					} else {
						cand2[i] = b
					}
				}

				ok, err := e.incorporateNewBuffer(cand2)
				if err != nil {
					return err
				}

				if ok {
					break
				}
			}
		}
	}

	return nil
}

// shrinkZeroWindow is pass 5: try zeroing each length-8 substring, one
// traversal over the buffer length as it stood at the start of the
// pass (substitutions never change buffer length).
func (e *Engine) shrinkZeroWindow() error {
	const windowSize = 8

	n := len(e.best.buffer) - windowSize
	for i := 0; i <= n; i++ {
		buf := e.best.buffer
		if i+windowSize > len(buf) {
			break
		}

		cand := make([]byte, 0, len(buf))
		cand = append(cand, buf[:i]...)
		cand = append(cand, make([]byte, windowSize)...)
		cand = append(cand, buf[i+windowSize:]...)

		if _, err := e.incorporateNewBuffer(cand); err != nil {
			return err
		}
	}

	return nil
}

// shrinkByteByByte is pass 6: at each position, try deleting the
// byte; if rejected, try replacing it with each value below it, and
// for each such value also try appending fresh random bytes after it
// (an exploration escape allowing the remainder of the buffer to be
// regenerated).
func (e *Engine) shrinkByteByByte() error {
	i := 0
	for i < len(e.best.buffer) {
		buf := e.best.buffer

		del := make([]byte, 0, len(buf)-1)
		del = append(del, buf[:i]...)
		del = append(del, buf[i+1:]...)

		accepted, err := e.incorporateNewBuffer(del)
		if err != nil {
			return err
		}

		if !accepted {
			for c := 0; c < int(buf[i]); c++ {
				cand := make([]byte, 0, len(buf))
				cand = append(cand, buf[:i]...)
				cand = append(cand, byte(c))
				cand = append(cand, buf[i+1:]...)

				ok, err := e.incorporateNewBuffer(cand)
				if err != nil {
					return err
				}

				if ok {
					break
				}

				tail := e.randBytes(len(buf) - i - 1)

				cand2 := make([]byte, 0, i+1+len(tail))
				cand2 = append(cand2, buf[:i]...)
				cand2 = append(cand2, byte(c))
				cand2 = append(cand2, tail...)

				ok2, err := e.incorporateNewBuffer(cand2)
				if err != nil {
					return err
				}

				if ok2 {
					break
				}
			}
		}

		i++
	}

	return nil
}

// shrinkAdjacentPairSort is pass 7: swap each out-of-order adjacent
// pair, one traversal.
func (e *Engine) shrinkAdjacentPairSort() error {
	i := 0
	for i+1 < len(e.best.buffer) {
		buf := e.best.buffer
		j := i + 1

		if buf[i] > buf[j] {
			cand := make([]byte, 0, len(buf))
			cand = append(cand, buf[:i]...)
			cand = append(cand, buf[j], buf[i])
			cand = append(cand, buf[j+1:]...)

			if _, err := e.incorporateNewBuffer(cand); err != nil {
				return err
			}
		}

		i++
	}

	return nil
}

// shrinkBorrowDown is pass 8: at each position, try deletion; if
// rejected and the byte is zero, walk leftwards decrementing the
// first nonzero byte found and setting the intervening zeros to 255
// (a base-256 decrement with borrow).
func (e *Engine) shrinkBorrowDown() error {
	i := 0
	for i < len(e.best.buffer) {
		buf := e.best.buffer

		del := make([]byte, 0, len(buf)-1)
		del = append(del, buf[:i]...)
		del = append(del, buf[i+1:]...)

		accepted, err := e.incorporateNewBuffer(del)
		if err != nil {
			return err
		}

		if !accepted && buf[i] == 0 {
			mut := append([]byte(nil), buf...)

			for j := i; j >= 0; j-- {
				if mut[j] > 0 {
					mut[j]--

					if _, err := e.incorporateNewBuffer(mut); err != nil {
						return err
					}

					break
				}

				mut[j] = 255
			}
		}

		i++
	}

	return nil
}

// shrinkEqualBytePairedLowering is pass 9: for each pair of positions
// sharing an equal byte value, try lowering both simultaneously (with
// a borrow variant when the shared value is zero), one traversal over
// the pairs as they stood at the start of the pass.
func (e *Engine) shrinkEqualBytePairedLowering() error {
	var buckets [256][]int

	for i, c := range e.best.buffer {
		buckets[c] = append(buckets[c], i)
	}

	type pair struct{ j, k int }

	var indices []pair

	for _, bucket := range buckets {
		if len(bucket) <= 1 {
			continue
		}

		for _, j := range bucket {
			for _, k := range bucket {
				if j < k {
					indices = append(indices, pair{j, k})
				}
			}
		}
	}

	for _, p := range indices {
		j, k := p.j, p.k

		buf := e.best.buffer
		if k >= len(buf) {
			continue
		}

		if buf[j] != buf[k] {
			continue
		}

		c := buf[j]

		if c == 0 {
			if j > 0 && buf[j-1] > 0 && buf[k-1] > 0 {
				cand := make([]byte, 0, len(buf))
				cand = append(cand, buf[:j-1]...)
				cand = append(cand, buf[j-1]-1, 255)
				cand = append(cand, buf[j+1:k-1]...)
				cand = append(cand, buf[k-1]-1, 255)
				cand = append(cand, buf[k+1:]...)

				if _, err := e.incorporateNewBuffer(cand); err != nil {
					return err
				}
			}
		}

		c = buf[j]
		if c == 0 {
			continue
		}

		cand := make([]byte, 0, len(buf))
		cand = append(cand, buf[:j]...)
		cand = append(cand, c-1)
		cand = append(cand, buf[j+1:k]...)
		cand = append(cand, c-1)
		cand = append(cand, buf[k+1:]...)

		accepted, err := e.incorporateNewBuffer(cand)
		if err != nil {
			return err
		}

		if !accepted {
			continue
		}

		for d := byte(0); d < c-1; d++ {
			buf = e.best.buffer

			cand := make([]byte, 0, len(buf))
			cand = append(cand, buf[:j]...)
			cand = append(cand, d)
			cand = append(cand, buf[j+1:k]...)
			cand = append(cand, d)
			cand = append(cand, buf[k+1:]...)

			ok, err := e.incorporateNewBuffer(cand)
			if err != nil {
				return err
			}

			if ok {
				break
			}
		}
	}

	return nil
}

// shrinkSortPairSearch is pass 10: for each ordered pair j<k, swap if
// out of order, try decrementing both together when both are nonzero
// and unequal, and otherwise probe every replacement for buf[k] while
// buf[j] is decremented by one.
func (e *Engine) shrinkSortPairSearch() error {
	jMax := len(e.best.buffer)

	for j := 0; j < jMax; j++ {
		buf := e.best.buffer
		if j >= len(buf) {
			break
		}

		if buf[j] == 0 {
			continue
		}

		for k := j + 1; k < len(buf); k++ {
			buf = e.best.buffer
			if k >= len(buf) {
				break
			}

			if buf[j] > buf[k] {
				cand := make([]byte, 0, len(buf))
				cand = append(cand, buf[:j]...)
				cand = append(cand, buf[k])
				cand = append(cand, buf[j+1:k]...)
				cand = append(cand, buf[j])
				cand = append(cand, buf[k+1:]...)

				if _, err := e.incorporateNewBuffer(cand); err != nil {
					return err
				}
			}

			buf = e.best.buffer
			if k >= len(buf) {
				break
			}

			if buf[j] > 0 && buf[k] > 0 && buf[j] != buf[k] {
				cand := make([]byte, 0, len(buf))
				cand = append(cand, buf[:j]...)
				cand = append(cand, buf[j]-1)
				cand = append(cand, buf[j+1:k]...)
				cand = append(cand, buf[k]-1)
				cand = append(cand, buf[k+1:]...)

				accepted, err := e.incorporateNewBuffer(cand)
				if err != nil {
					return err
				}

				if accepted {
					break
				}
			}

			if buf[j] == 0 {
				break
			}

			for t := 0; t < 256; t++ {
				cand := make([]byte, 0, len(buf))
				cand = append(cand, buf[:j]...)
				cand = append(cand, buf[j]-1)
				cand = append(cand, buf[j+1:k]...)
				cand = append(cand, byte(t))
				cand = append(cand, buf[k+1:]...)

				ok, err := e.incorporateNewBuffer(cand)
				if err != nil {
					return err
				}

				if ok {
					break
				}
			}
		}
	}

	return nil
}

func countByte(buf []byte, c byte) int {
	n := 0

	for _, b := range buf {
		if b == c {
			n++
		}
	}

	return n
}
