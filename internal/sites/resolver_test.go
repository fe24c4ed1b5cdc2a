package sites

import (
	"context"
	"errors"
	"testing"
)

var testCandidates = []Candidate{
	{ID: "site-1", Name: "Ocean White House"},
	{ID: "site-2", Name: "Harbour Tower"},
	{ID: "site-3", Name: "Greenfield Depot"},
}

type stubMatcher struct {
	match Match
	ok    bool
	err   error

	calls int
}

func (s *stubMatcher) Match(_ context.Context, _ string, _ []Candidate) (Match, bool, error) {
	s.calls++
	return s.match, s.ok, s.err
}

func TestResolve_ExactNameBypassesMatcher(t *testing.T) {
	stub := &stubMatcher{err: errors.New("must not be called")}
	r := NewResolver(stub)

	m, err := r.Resolve(context.Background(), "  ocean WHITE house ", testCandidates)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if m.ID != "site-1" || m.Confidence != "exact" {
		t.Fatalf("unexpected match: %+v", m)
	}
	if stub.calls != 0 {
		t.Fatalf("matcher called %d times for exact input", stub.calls)
	}
}

func TestResolve_UsesPrimaryMatcher(t *testing.T) {
	stub := &stubMatcher{match: Match{ID: "site-2", Name: "Harbour Tower", Confidence: "high"}, ok: true}
	r := NewResolver(stub)

	m, err := r.Resolve(context.Background(), "the tower by the harbour", testCandidates)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if m.ID != "site-2" {
		t.Fatalf("unexpected match: %+v", m)
	}
}

func TestResolve_RejectsInventedID(t *testing.T) {
	stub := &stubMatcher{match: Match{ID: "not-a-site", Confidence: "high"}, ok: true}
	r := NewResolver(stub)

	if _, err := r.Resolve(context.Background(), "somewhere", testCandidates); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch for invented id, got %v", err)
	}
}

func TestResolve_FallsBackOnPrimaryError(t *testing.T) {
	stub := &stubMatcher{err: errors.New("api down")}
	r := NewResolver(stub)

	m, err := r.Resolve(context.Background(), "ocean white", testCandidates)
	if err != nil {
		t.Fatalf("resolve via fallback: %v", err)
	}
	if m.ID != "site-1" {
		t.Fatalf("unexpected match: %+v", m)
	}
}

func TestResolve_NoMatch(t *testing.T) {
	r := NewResolver(nil)
	if _, err := r.Resolve(context.Background(), "the moon base", testCandidates); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
	if _, err := r.Resolve(context.Background(), "", testCandidates); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch for empty text, got %v", err)
	}
	if _, err := r.Resolve(context.Background(), "anything", nil); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch for empty candidates, got %v", err)
	}
}

func TestSimilarityMatcher(t *testing.T) {
	m := SimilarityMatcher{}

	got, ok, err := m.Match(context.Background(), "ocean white house", testCandidates)
	if err != nil || !ok {
		t.Fatalf("expected match, ok=%v err=%v", ok, err)
	}
	if got.ID != "site-1" {
		t.Fatalf("unexpected match: %+v", got)
	}

	// Partial name containment.
	got, ok, _ = m.Match(context.Background(), "greenfield", testCandidates)
	if !ok || got.ID != "site-3" {
		t.Fatalf("expected greenfield depot, got ok=%v %+v", ok, got)
	}

	// Gibberish stays unmatched.
	if _, ok, _ := m.Match(context.Background(), "xyzzy plugh", testCandidates); ok {
		t.Fatalf("expected no match for gibberish")
	}
}

func TestStripCodeFence(t *testing.T) {
	in := "```json\n{\"site_found\":true}\n```"
	if got := stripCodeFence(in); got != `{"site_found":true}` {
		t.Fatalf("unexpected: %q", got)
	}
	if got := stripCodeFence(`{"a":1}`); got != `{"a":1}` {
		t.Fatalf("unexpected: %q", got)
	}
}
