package resolver

// Ratio computes a normalized similarity score between two strings on a
// 0-100 scale: 100 for identical strings, falling with edit distance
// relative to the longer string.
func Ratio(a, b string) int {
	if a == b {
		return 100
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}

	distance := levenshtein(a, b)
	return (100 * (longer - distance)) / longer
}

// levenshtein computes edit distance between two strings using a rolling
// two-row matrix.
func levenshtein(a, b string) int {
	la, lb := len(a), len(b)

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			curr[j] = minOf(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

func minOf(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
