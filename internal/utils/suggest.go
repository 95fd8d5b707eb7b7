// internal/utils/suggest.go
package utils

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Suggest returns the candidate closest to input by case-insensitive edit
// distance. It reports false when the best distance exceeds maxDistance or
// when more than one candidate shares it.
func Suggest(input string, candidates []string, maxDistance int) (string, bool) {
	needle := strings.ToLower(input)
	best := -1
	var match string
	tied := false

	for _, candidate := range candidates {
		d := levenshtein.ComputeDistance(needle, strings.ToLower(candidate))
		switch {
		case best < 0 || d < best:
			best, match, tied = d, candidate, false
		case d == best:
			tied = true
		}
	}

	if best < 0 || best > maxDistance || tied {
		return "", false
	}
	return match, true
}
