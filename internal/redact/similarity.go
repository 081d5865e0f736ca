package redact

// similarityRatio computes the classic sequence-matcher ratio between
// two strings: twice the number of matching characters over the total
// length, with matches found by recursively taking the longest common
// contiguous block. Returns a value in [0, 1]; 1 means identical.
//
// Labels are short ASCII strings, so the quadratic longest-match scan
// is effectively free.
func similarityRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	m := matchingChars(a, b)
	return 2 * float64(m) / float64(len(a)+len(b))
}

// matchingChars counts characters covered by the matching blocks of a
// and b: the longest common contiguous block, plus matches recursively
// found to its left and right.
func matchingChars(a, b string) int {
	ai, bi, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingChars(a[:ai], b[:bi]) +
		matchingChars(a[ai+size:], b[bi+size:])
}

// longestMatch finds the longest common contiguous substring of a and
// b, returning its start in a, start in b, and length. Earlier matches
// win ties, keeping the result deterministic.
func longestMatch(a, b string) (int, int, int) {
	bestA, bestB, bestSize := 0, 0, 0
	// lengths[j] holds the length of the common suffix ending at
	// a[i-1], b[j-1] for the previous row.
	lengths := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prevDiag := 0
		for j := 1; j <= len(b); j++ {
			cur := lengths[j]
			if a[i-1] == b[j-1] {
				lengths[j] = prevDiag + 1
				if lengths[j] > bestSize {
					bestSize = lengths[j]
					bestA = i - bestSize
					bestB = j - bestSize
				}
			} else {
				lengths[j] = 0
			}
			prevDiag = cur
		}
	}
	return bestA, bestB, bestSize
}
