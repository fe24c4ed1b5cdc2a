package session

import (
	"context"
	"errors"
	"time"

	"timesheet-platform/internal/identity"
)

// A call session carries everything the platform forgets between webhook
// deliveries: who authenticated and what they have logged so far. One
// phone call is one logical transaction; the session is its working state.
//
// Invariants:
// - at most one live session per call id
// - mutations for the same call id are strictly serialized; stores must
//   never interleave two AppendEntry calls for one call id
// - sessions expire after an inactivity window so abandoned calls do not
//   accumulate

var (
	ErrNotFound  = errors.New("session: not found")
	ErrFinalized = errors.New("session: already finalized")
)

// PendingEntry is one not-yet-committed timesheet line item.
// Read-only once appended; a correction is a superseding re-entry.
type PendingEntry struct {
	SiteID           string  `json:"site_id"`
	SiteName         string  `json:"site_name"`
	WorkDate         string  `json:"work_date"`
	StartTime        string  `json:"start_time"`
	EndTime          string  `json:"end_time"`
	Hours            float64 `json:"hours"`
	WorkDescription  string  `json:"work_description"`
	PlansForTomorrow string  `json:"plans_for_tomorrow,omitempty"`
}

// SummaryLine is one read-back line for the caller.
type SummaryLine struct {
	SiteName string  `json:"site_name"`
	Hours    float64 `json:"hours"`
}

// Summary is the commit result read back at the end of a call. It is
// stored on the finalized session so a retried finalize replays it
// instead of re-persisting.
type Summary struct {
	Lines      []SummaryLine `json:"lines"`
	TotalHours float64       `json:"total_hours"`
	Entries    int           `json:"entries"`
}

// Session is the call-scoped state container.
type Session struct {
	CallID    string            `json:"call_id"`
	Identity  identity.Identity `json:"identity"`
	Entries   []PendingEntry    `json:"entries"`
	Finalized bool              `json:"finalized"`
	Summary   Summary           `json:"summary"`
	CreatedAt time.Time         `json:"created_at"`
	TouchedAt time.Time         `json:"touched_at"`
}

// FinalizeResult is what Finalize hands the committer: either the pending
// entries to persist, or (Already=true) the summary from a prior commit.
type FinalizeResult struct {
	Entries []PendingEntry
	Already bool
	Summary Summary
}

// Store is the call session container contract.
//
// All operations on the same call id are serialized by the
// implementation; operations on different call ids run in parallel.
type Store interface {
	// GetOrCreate returns the live session for callID, creating it with
	// the given identity when absent.
	GetOrCreate(ctx context.Context, callID string, id identity.Identity) (Session, error)

	// Get returns the live session or ErrNotFound.
	Get(ctx context.Context, callID string) (Session, error)

	// AppendEntry adds one pending entry. ErrNotFound without a prior
	// session, ErrFinalized after commit.
	AppendEntry(ctx context.Context, callID string, e PendingEntry) (Session, error)

	// Finalize returns the pending entries and, when the session was
	// already finalized, the stored summary with Already set.
	Finalize(ctx context.Context, callID string) (FinalizeResult, error)

	// MarkFinalized records a successful commit and its summary.
	MarkFinalized(ctx context.Context, callID string, s Summary) error

	// Expire removes the session if present.
	Expire(ctx context.Context, callID string) error
}
