package conjecture

// niceOrder fixes a "niceness" permutation of 0..255 used only when
// comparing two ROs' output logs in the ordering tiebreak (key2).
// Digits first, then A,a,B,b,...,Z,z, then space, then structural
// punctuation, then whitespace control characters, then the rest of
// the C0 controls. Bytes >= 127 map to themselves, shifted past the
// permuted prefix.
var niceOrder = buildNiceOrder()

// niceChars lists the leading part of the niceness order: the digits,
// then the letters in A,a,B,b,... pairs. The spaces between the pairs
// are skipped by buildNiceOrder, which places space once after the
// letters, then the structural punctuation, then \t\n\r, then the
// remaining C0 controls in numeric order.
var niceChars = []byte(
	"0123456789" +
		"Aa Bb Cc Dd Ee Ff Gg Hh Ii Jj Kk Ll Mm Nn Oo Pp Qq Rr Ss Tt Uu Vv Ww Xx Yy Zz",
)

func buildNiceOrder() [256]byte {
	var order [256]byte
	var rank int

	seen := make(map[byte]bool, 256)

	place := func(b byte) {
		if seen[b] {
			return
		}
		seen[b] = true
		order[b] = byte(rank)
		rank++
	}

	for _, c := range niceChars {
		if c == ' ' {
			continue
		}
		place(c)
	}
	place(' ')

	for _, c := range []byte("_-=~\"':;,.?!(){}[]<>*+/&|%#$@\\^`") {
		place(c)
	}

	for _, c := range []byte("\t\n\r") {
		place(c)
	}

	for c := 0; c < 32; c++ {
		place(byte(c))
	}

	for c := 127; c < 256; c++ {
		order[c] = byte(rank)
		rank++
	}

	if rank != 256 {
		panic("conjecture: niceOrder did not cover all 256 byte values")
	}

	return order
}

// compareOutput compares two output logs under the niceness order,
// returning -1, 0, or 1 as in bytes.Compare.
func compareOutput(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	for i := 0; i < n; i++ {
		ra, rb := niceOrder[a[i]], niceOrder[b[i]]
		if ra != rb {
			if ra < rb {
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
