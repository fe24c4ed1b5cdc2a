package timesheet

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"timesheet-platform/internal/audit"
	"timesheet-platform/internal/session"
	"timesheet-platform/internal/timeparse"

	"github.com/google/uuid"
)

// Repository is the persistence contract for committed records.
//
// It MUST be append-only; no Update/Delete methods are provided by design.

type Repository interface {
	Insert(ctx context.Context, r Record) error
	ListByTenant(ctx context.Context, tenantID, fromDate, toDate string) ([]Record, error)
}

var (
	ErrInvalidArgument = errors.New("timesheet: invalid argument")
	ErrUnknownSite     = errors.New("timesheet: site not assignable to caller")
	ErrTooManyEntries  = errors.New("timesheet: too many entries for one call")
	ErrPersistence     = errors.New("timesheet: persistence failure")
)

// Service accumulates pending entries on the call session and commits
// them at finalize.
//
// Commit semantics:
// - finalize writes one record per pending entry, tagged with the call id
// - a retried finalize after success replays the stored summary instead
//   of re-persisting
// - on partial failure, already-written records are kept and the failure
//   is reported; the (call_id, seq) key makes a later retry skip them
type Service struct {
	store session.Store
	repo  Repository
	audit *audit.Service

	maxEntries int
	clock      func() time.Time
}

func NewService(store session.Store, repo Repository, auditSvc *audit.Service, maxEntries int) *Service {
	if maxEntries <= 0 {
		maxEntries = 20
	}
	return &Service{
		store:      store,
		repo:       repo,
		audit:      auditSvc,
		maxEntries: maxEntries,
		clock:      time.Now,
	}
}

// AddEntry parses and validates one entry and appends it to the call's
// pending list. Multiple entries for the same site and date are allowed
// (split shifts are legitimate).
func (s *Service) AddEntry(ctx context.Context, callID string, in EntryInput) (session.PendingEntry, error) {
	if callID == "" || in.SiteID == "" || in.WorkDescription == "" {
		return session.PendingEntry{}, ErrInvalidArgument
	}

	sess, err := s.store.Get(ctx, callID)
	if err != nil {
		return session.PendingEntry{}, err
	}
	if len(sess.Entries) >= s.maxEntries {
		return session.PendingEntry{}, ErrTooManyEntries
	}

	// Tenancy: the site id must come from the caller's own assignable
	// set, whatever the conversational layer sent.
	site, ok := sess.Identity.SiteByID(in.SiteID)
	if !ok {
		return session.PendingEntry{}, ErrUnknownSite
	}

	start, err := timeparse.ParseClock(in.StartTime)
	if err != nil {
		return session.PendingEntry{}, err
	}
	end, err := timeparse.ParseClock(in.EndTime)
	if err != nil {
		return session.PendingEntry{}, err
	}
	hours, err := timeparse.Hours(start, end)
	if err != nil {
		return session.PendingEntry{}, err
	}

	workDate, err := timeparse.WorkDate(s.clock(), sess.Identity.Timezone)
	if err != nil {
		return session.PendingEntry{}, fmt.Errorf("timesheet: work date: %w", err)
	}

	entry := session.PendingEntry{
		SiteID:           site.ID,
		SiteName:         site.Name,
		WorkDate:         workDate,
		StartTime:        start.String(),
		EndTime:          end.String(),
		Hours:            hours,
		WorkDescription:  in.WorkDescription,
		PlansForTomorrow: in.PlansForTomorrow,
	}

	if _, err := s.store.AppendEntry(ctx, callID, entry); err != nil {
		return session.PendingEntry{}, err
	}
	return entry, nil
}

// Finalize commits all pending entries for the call and returns the
// read-back summary. Idempotent under webhook retries.
func (s *Service) Finalize(ctx context.Context, callID string) (session.Summary, error) {
	if callID == "" {
		return session.Summary{}, ErrInvalidArgument
	}

	sess, err := s.store.Get(ctx, callID)
	if err != nil {
		return session.Summary{}, err
	}

	res, err := s.store.Finalize(ctx, callID)
	if err != nil {
		return session.Summary{}, err
	}
	if res.Already {
		return res.Summary, nil
	}

	now := s.clock().UTC()
	for i, e := range res.Entries {
		rec := Record{
			ID:               uuid.NewString(),
			TenantID:         sess.Identity.TenantID,
			WorkerID:         sess.Identity.WorkerID,
			SiteID:           e.SiteID,
			CallID:           callID,
			Seq:              i,
			WorkDate:         e.WorkDate,
			StartTime:        e.StartTime,
			EndTime:          e.EndTime,
			Hours:            e.Hours,
			WorkDescription:  e.WorkDescription,
			PlansForTomorrow: e.PlansForTomorrow,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := s.repo.Insert(ctx, rec); err != nil {
			// Records written so far stay; the caller hears a failure and
			// a retry resumes safely on the (call_id, seq) key.
			return session.Summary{}, fmt.Errorf("%w: entry %d: %v", ErrPersistence, i, err)
		}
	}

	sum := summarize(res.Entries)
	if err := s.store.MarkFinalized(ctx, callID, sum); err != nil {
		return session.Summary{}, err
	}

	if s.audit != nil {
		_ = s.audit.LogTimesheetCommit(ctx, sess.Identity.TenantID, sess.Identity.WorkerID, callID,
			fmt.Sprintf("committed %d entries, %.2f hours", sum.Entries, sum.TotalHours))
	}
	return sum, nil
}

// ListByTenant returns committed records for the operator API.
func (s *Service) ListByTenant(ctx context.Context, tenantID, fromDate, toDate string) ([]Record, error) {
	if tenantID == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.ListByTenant(ctx, tenantID, fromDate, toDate)
}

func summarize(entries []session.PendingEntry) session.Summary {
	sum := session.Summary{Entries: len(entries)}
	total := 0.0
	for _, e := range entries {
		sum.Lines = append(sum.Lines, session.SummaryLine{SiteName: e.SiteName, Hours: e.Hours})
		total += e.Hours
	}
	sum.TotalHours = math.Round(total*100) / 100
	return sum
}
