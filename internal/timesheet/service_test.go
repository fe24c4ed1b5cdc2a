package timesheet

import (
	"context"
	"errors"
	"testing"
	"time"

	"timesheet-platform/internal/identity"
	"timesheet-platform/internal/session"
	"timesheet-platform/internal/timeparse"
)

func testStore(t *testing.T) *session.MemoryStore {
	t.Helper()
	s := session.NewMemoryStore(30 * time.Minute)
	s.Close()
	return s
}

func testIdentity() identity.Identity {
	return identity.Identity{
		WorkerID:   "worker-1",
		TenantID:   "tenant-1",
		TenantName: "Built by MK",
		FirstName:  "Mick",
		Timezone:   "Australia/Sydney",
		Sites: []identity.Site{
			{ID: "site-1", Name: "Ocean White House"},
			{ID: "site-2", Name: "Harbour Tower"},
		},
		Capabilities: []string{"timesheet"},
	}
}

func newTestService(t *testing.T) (*Service, *session.MemoryStore, *MemoryRepo) {
	t.Helper()
	store := testStore(t)
	repo := NewMemoryRepo()
	svc := NewService(store, repo, nil, 20)
	svc.clock = func() time.Time { return time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC) }
	if _, err := store.GetOrCreate(context.Background(), "call-1", testIdentity()); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return svc, store, repo
}

func TestAddEntry_ComputesHoursAndDate(t *testing.T) {
	svc, _, _ := newTestService(t)

	e, err := svc.AddEntry(context.Background(), "call-1", EntryInput{
		SiteID:          "site-1",
		StartTime:       "7am",
		EndTime:         "4pm",
		WorkDescription: "laying concrete",
	})
	if err != nil {
		t.Fatalf("add entry: %v", err)
	}
	if e.Hours != 9.00 {
		t.Fatalf("expected 9.00 hours, got %v", e.Hours)
	}
	if e.SiteName != "Ocean White House" {
		t.Fatalf("unexpected site name: %q", e.SiteName)
	}
	if e.StartTime != "07:00" || e.EndTime != "16:00" {
		t.Fatalf("unexpected normalized times: %s-%s", e.StartTime, e.EndTime)
	}
	// 2025-06-02 08:00 UTC is already 18:00 the same day in Sydney.
	if e.WorkDate != "2025-06-02" {
		t.Fatalf("unexpected work date: %s", e.WorkDate)
	}
}

func TestAddEntry_RejectsInvalidRange(t *testing.T) {
	svc, store, _ := newTestService(t)

	_, err := svc.AddEntry(context.Background(), "call-1", EntryInput{
		SiteID:          "site-1",
		StartTime:       "7am",
		EndTime:         "6am",
		WorkDescription: "x",
	})
	if !errors.Is(err, timeparse.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}

	sess, _ := store.Get(context.Background(), "call-1")
	if len(sess.Entries) != 0 {
		t.Fatalf("rejected entry must not be appended")
	}
}

func TestAddEntry_RejectsUnparseableTime(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.AddEntry(context.Background(), "call-1", EntryInput{
		SiteID:          "site-1",
		StartTime:       "sometime",
		EndTime:         "4pm",
		WorkDescription: "x",
	})
	if !errors.Is(err, timeparse.ErrUnparseable) {
		t.Fatalf("expected ErrUnparseable, got %v", err)
	}
}

func TestAddEntry_RejectsForeignSite(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.AddEntry(context.Background(), "call-1", EntryInput{
		SiteID:          "someone-elses-site",
		StartTime:       "7am",
		EndTime:         "4pm",
		WorkDescription: "x",
	})
	if !errors.Is(err, ErrUnknownSite) {
		t.Fatalf("expected ErrUnknownSite, got %v", err)
	}
}

func TestAddEntry_SplitShiftAllowed(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	for _, span := range [][2]string{{"7am", "11am"}, {"1pm", "4pm"}} {
		if _, err := svc.AddEntry(ctx, "call-1", EntryInput{
			SiteID:          "site-1",
			StartTime:       span[0],
			EndTime:         span[1],
			WorkDescription: "split shift",
		}); err != nil {
			t.Fatalf("add entry %v: %v", span, err)
		}
	}

	sess, _ := store.Get(ctx, "call-1")
	if len(sess.Entries) != 2 {
		t.Fatalf("expected both split-shift entries kept, got %d", len(sess.Entries))
	}
}

func TestAddEntry_EnforcesCap(t *testing.T) {
	store := testStore(t)
	repo := NewMemoryRepo()
	svc := NewService(store, repo, nil, 2)
	svc.clock = func() time.Time { return time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	_, _ = store.GetOrCreate(ctx, "call-1", testIdentity())

	in := EntryInput{SiteID: "site-1", StartTime: "7am", EndTime: "8am", WorkDescription: "x"}
	for i := 0; i < 2; i++ {
		if _, err := svc.AddEntry(ctx, "call-1", in); err != nil {
			t.Fatalf("add entry %d: %v", i, err)
		}
	}
	if _, err := svc.AddEntry(ctx, "call-1", in); !errors.Is(err, ErrTooManyEntries) {
		t.Fatalf("expected ErrTooManyEntries, got %v", err)
	}
}

func TestAddEntry_RequiresSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.AddEntry(context.Background(), "never-authenticated", EntryInput{
		SiteID: "site-1", StartTime: "7am", EndTime: "8am", WorkDescription: "x",
	})
	if !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected session.ErrNotFound, got %v", err)
	}
}

func TestFinalize_CommitsAndSummarizes(t *testing.T) {
	svc, _, repo := newTestService(t)
	ctx := context.Background()

	_, _ = svc.AddEntry(ctx, "call-1", EntryInput{SiteID: "site-1", StartTime: "7am", EndTime: "4pm", WorkDescription: "laying concrete"})
	_, _ = svc.AddEntry(ctx, "call-1", EntryInput{SiteID: "site-2", StartTime: "4:30pm", EndTime: "6pm", WorkDescription: "site cleanup"})

	sum, err := svc.Finalize(ctx, "call-1")
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if sum.Entries != 2 || sum.TotalHours != 10.5 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.Lines[0].SiteName != "Ocean White House" || sum.Lines[0].Hours != 9 {
		t.Fatalf("unexpected first line: %+v", sum.Lines[0])
	}

	recs := repo.Records()
	if len(recs) != 2 {
		t.Fatalf("expected 2 committed records, got %d", len(recs))
	}
	for i, rec := range recs {
		if rec.TenantID != "tenant-1" || rec.WorkerID != "worker-1" || rec.CallID != "call-1" {
			t.Fatalf("record %d missing scoping: %+v", i, rec)
		}
		if rec.Seq != i {
			t.Fatalf("record %d has seq %d", i, rec.Seq)
		}
		if rec.ID == "" {
			t.Fatalf("record %d missing id", i)
		}
	}
}

func TestFinalize_IdempotentUnderRetry(t *testing.T) {
	svc, _, repo := newTestService(t)
	ctx := context.Background()

	_, _ = svc.AddEntry(ctx, "call-1", EntryInput{SiteID: "site-1", StartTime: "7am", EndTime: "4pm", WorkDescription: "laying concrete"})

	first, err := svc.Finalize(ctx, "call-1")
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	second, err := svc.Finalize(ctx, "call-1")
	if err != nil {
		t.Fatalf("retried finalize: %v", err)
	}
	if second.TotalHours != first.TotalHours || second.Entries != first.Entries {
		t.Fatalf("retry changed the summary: %+v vs %+v", first, second)
	}
	if len(repo.Records()) != 1 {
		t.Fatalf("retry duplicated records: %d", len(repo.Records()))
	}
}

func TestFinalize_PartialFailureKeepsWrittenRecords(t *testing.T) {
	svc, store, repo := newTestService(t)
	ctx := context.Background()

	_, _ = svc.AddEntry(ctx, "call-1", EntryInput{SiteID: "site-1", StartTime: "7am", EndTime: "11am", WorkDescription: "a"})
	_, _ = svc.AddEntry(ctx, "call-1", EntryInput{SiteID: "site-2", StartTime: "1pm", EndTime: "4pm", WorkDescription: "b"})

	repo.FailAfter = 1
	_, err := svc.Finalize(ctx, "call-1")
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if len(repo.Records()) != 1 {
		t.Fatalf("already-written record must be preserved, got %d", len(repo.Records()))
	}

	// Session not marked finalized; a retry after the store recovers
	// resumes and does not duplicate the first record.
	repo.FailAfter = -1
	sum, err := svc.Finalize(ctx, "call-1")
	if err != nil {
		t.Fatalf("retry finalize: %v", err)
	}
	if sum.Entries != 2 || len(repo.Records()) != 2 {
		t.Fatalf("retry should complete the commit exactly once: %+v, %d records", sum, len(repo.Records()))
	}

	sess, _ := store.Get(ctx, "call-1")
	if !sess.Finalized {
		t.Fatalf("session should be finalized after successful retry")
	}
}

func TestFinalize_SessionNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.Finalize(context.Background(), "never-authenticated"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected session.ErrNotFound, got %v", err)
	}
}

func TestListByTenant_RequiresTenant(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.ListByTenant(context.Background(), "", "", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
