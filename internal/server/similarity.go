package server

import "strings"

// similarity scores how alike two strings are, in [0, 1]. It is the
// ratio of the longest common subsequence to the combined length, case
// folded, so partial file-name matches still score.
func similarity(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	if len(ra)+len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	// Single-row LCS table.
	prev := make([]int, len(rb)+1)
	row := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				row[j] = prev[j-1] + 1
			} else if prev[j] >= row[j-1] {
				row[j] = prev[j]
			} else {
				row[j] = row[j-1]
			}
		}
		prev, row = row, prev
	}
	return 2 * float64(prev[len(rb)]) / float64(len(ra)+len(rb))
}
