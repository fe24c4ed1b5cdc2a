package sites

import (
	"context"
	"strings"
)

// SimilarityMatcher is a pure string-similarity fallback used when no
// semantic backend is configured or the backend call fails.
//
// It scores bigram overlap (Dice coefficient) between the spoken text and
// each candidate name, with a containment shortcut for partial names like
// "the ocean house one". Scores below the threshold are no-match: the
// caller is re-prompted with the site list instead of guessing.

type SimilarityMatcher struct {
	// Threshold defaults to 0.5 when zero.
	Threshold float64
}

func (m SimilarityMatcher) Match(_ context.Context, text string, candidates []Candidate) (Match, bool, error) {
	threshold := m.Threshold
	if threshold <= 0 {
		threshold = 0.5
	}

	norm := normalizeName(text)
	if norm == "" {
		return Match{}, false, nil
	}

	best := -1
	bestScore := 0.0
	for i, c := range candidates {
		score := similarity(norm, normalizeName(c.Name))
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	if best < 0 || bestScore < threshold {
		return Match{}, false, nil
	}

	confidence := "medium"
	if bestScore >= 0.8 {
		confidence = "high"
	}
	return Match{ID: candidates[best].ID, Name: candidates[best].Name, Confidence: confidence}, true, nil
}

func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	// Partial spoken names are common ("ocean white" for "Ocean White
	// House"); containment of a reasonably long fragment counts high.
	if len(a) >= 4 && (strings.Contains(b, a) || strings.Contains(a, b)) {
		return 0.9
	}
	return dice(bigrams(a), bigrams(b))
}

func bigrams(s string) map[string]int {
	out := map[string]int{}
	runes := []rune(s)
	for i := 0; i+1 < len(runes); i++ {
		out[string(runes[i:i+2])]++
	}
	return out
}

func dice(a, b map[string]int) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	overlap := 0
	total := 0
	for k, n := range a {
		total += n
		if m, ok := b[k]; ok {
			if m < n {
				overlap += m
			} else {
				overlap += n
			}
		}
	}
	for _, n := range b {
		total += n
	}
	return 2 * float64(overlap) / float64(total)
}
