package crossval

import "github.com/agnivade/levenshtein"

// Similarity returns a normalized edit-distance similarity in [0,1]
// between two already-normalized strings. Either side being empty means
// no basis for comparison and scores 0.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	dist := levenshtein.ComputeDistance(a, b)
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	return 1 - float64(dist)/float64(longest)
}
