package similarity

// Global pairwise alignment over amino-acid strings, Needleman–Wunsch with
// a flat match/mismatch/gap scheme. Good enough for identity percentages;
// substitution-matrix scoring is not needed here.

const (
	scoreMatch    = 1
	scoreMismatch = -1
	scoreGap      = -1
)

// alignment holds two gapped strings of equal length.
type alignment struct {
	a, b []byte
}

// align computes a global alignment of a against b.
func align(a, b string) alignment {
	if len(a) == 0 || len(b) == 0 {
		return alignment{a: []byte(a), b: []byte(b)}
	}

	// score matrix, (len(a)+1) x (len(b)+1)
	rows, cols := len(a)+1, len(b)+1
	m := make([][]int, rows)
	for i := range m {
		m[i] = make([]int, cols)
		m[i][0] = scoreGap * i
	}
	for j := 0; j < cols; j++ {
		m[0][j] = scoreGap * j
	}
	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			m[i][j] = max3(
				m[i-1][j-1]+subst(a[i-1], b[j-1]),
				m[i-1][j]+scoreGap,
				m[i][j-1]+scoreGap)
		}
	}

	// traceback from the bottom-right corner
	out := alignment{
		a: make([]byte, 0, maxInt(len(a), len(b))),
		b: make([]byte, 0, maxInt(len(a), len(b))),
	}
	i, j := len(a), len(b)
	for i > 0 && j > 0 {
		switch m[i][j] {
		case m[i-1][j-1] + subst(a[i-1], b[j-1]):
			out.a = append(out.a, a[i-1])
			out.b = append(out.b, b[j-1])
			i--
			j--
		case m[i-1][j] + scoreGap:
			out.a = append(out.a, a[i-1])
			out.b = append(out.b, '-')
			i--
		default:
			out.a = append(out.a, '-')
			out.b = append(out.b, b[j-1])
			j--
		}
	}
	for i > 0 {
		i--
		out.a = append(out.a, a[i])
		out.b = append(out.b, '-')
	}
	for j > 0 {
		j--
		out.a = append(out.a, '-')
		out.b = append(out.b, b[j])
	}

	// built backwards, reverse both
	for l, r := 0, len(out.a)-1; l < r; l, r = l+1, r-1 {
		out.a[l], out.a[r] = out.a[r], out.a[l]
		out.b[l], out.b[r] = out.b[r], out.b[l]
	}
	return out
}

func subst(x, y byte) int {
	if x == y {
		return scoreMatch
	}
	return scoreMismatch
}

// Identity returns the percentage of identical aligned characters,
// normalized by the REFERENCE length rather than the alignment length.
// Scores skew when lengths differ a lot; callers compare identities of
// candidates against one fixed reference, where the skew cancels out.
func Identity(ref, other string) float64 {
	if len(ref) == 0 {
		return 0
	}
	al := align(ref, other)
	matches := 0
	for k := range al.a {
		if al.a[k] == al.b[k] && al.a[k] != '-' {
			matches++
		}
	}
	return 100 * float64(matches) / float64(len(ref))
}

func max3(a, b, c int) int {
	switch {
	case a >= b && a >= c:
		return a
	case b >= c:
		return b
	}
	return c
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
