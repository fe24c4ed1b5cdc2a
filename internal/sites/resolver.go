package sites

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Candidate is one site a caller may log time against.
type Candidate struct {
	ID   string
	Name string
}

// Match is the single best site for a free-text description.
type Match struct {
	ID         string
	Name       string
	Confidence string // exact, high, medium
}

// Matcher scores free text against a candidate list and returns at most
// one best match. Implementations may call out (OpenAI) or stay pure
// (similarity); the resolver treats them identically.
type Matcher interface {
	Match(ctx context.Context, text string, candidates []Candidate) (Match, bool, error)
}

var ErrNoMatch = errors.New("sites: no confident match")

// Resolver picks the best candidate for what the caller said.
//
// Exact-name input always resolves to that candidate before any matcher
// runs, so production and deterministic tests agree on that path. The
// primary matcher may be unavailable or fail; the fallback then decides.
type Resolver struct {
	primary  Matcher
	fallback Matcher
}

func NewResolver(primary Matcher) *Resolver {
	return &Resolver{primary: primary, fallback: SimilarityMatcher{}}
}

func (r *Resolver) Resolve(ctx context.Context, text string, candidates []Candidate) (Match, error) {
	if len(candidates) == 0 {
		return Match{}, ErrNoMatch
	}
	norm := normalizeName(text)
	if norm == "" {
		return Match{}, ErrNoMatch
	}

	for _, c := range candidates {
		if normalizeName(c.Name) == norm {
			return Match{ID: c.ID, Name: c.Name, Confidence: "exact"}, nil
		}
	}

	if r.primary != nil {
		m, ok, err := r.primary.Match(ctx, text, candidates)
		if err == nil {
			if !ok {
				return Match{}, ErrNoMatch
			}
			if valid := candidateByID(candidates, m.ID); valid != nil {
				return Match{ID: valid.ID, Name: valid.Name, Confidence: m.Confidence}, nil
			}
			// The matcher invented an id outside the candidate list;
			// treat it as no match rather than trusting it.
			return Match{}, ErrNoMatch
		}
		// fall through to the similarity fallback
	}

	if r.fallback == nil {
		return Match{}, ErrNoMatch
	}
	m, ok, err := r.fallback.Match(ctx, text, candidates)
	if err != nil {
		return Match{}, fmt.Errorf("sites: fallback match: %w", err)
	}
	if !ok {
		return Match{}, ErrNoMatch
	}
	return m, nil
}

func candidateByID(candidates []Candidate, id string) *Candidate {
	for i := range candidates {
		if candidates[i].ID == id {
			return &candidates[i]
		}
	}
	return nil
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}
