package reporting

import (
	"context"
	"testing"

	"timesheet-platform/internal/timesheet"
)

func seedRepo(t *testing.T) *timesheet.MemoryRepo {
	t.Helper()
	repo := timesheet.NewMemoryRepo()
	recs := []timesheet.Record{
		{ID: "r1", TenantID: "t1", WorkerID: "w1", SiteID: "s1", CallID: "c1", Seq: 0, WorkDate: "2025-06-02", Hours: 9},
		{ID: "r2", TenantID: "t1", WorkerID: "w1", SiteID: "s2", CallID: "c1", Seq: 1, WorkDate: "2025-06-02", Hours: 1.5},
		{ID: "r3", TenantID: "t1", WorkerID: "w2", SiteID: "s1", CallID: "c2", Seq: 0, WorkDate: "2025-06-03", Hours: 8},
		{ID: "r4", TenantID: "t2", WorkerID: "w9", SiteID: "s9", CallID: "c9", Seq: 0, WorkDate: "2025-06-02", Hours: 4},
	}
	for _, r := range recs {
		if err := repo.Insert(context.Background(), r); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return repo
}

func TestHoursSummary_TenantIsolation(t *testing.T) {
	svc := NewService(seedRepo(t))

	out, err := svc.HoursSummary(context.Background(), HoursSummaryRequest{TenantID: "t1"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalEntries != 3 {
		t.Fatalf("expected 3 entries, got %d", out.TotalEntries)
	}
	if out.TotalHours != 18.5 {
		t.Fatalf("expected 18.5 hours, got %v", out.TotalHours)
	}
}

func TestHoursSummary_GroupsBySiteAndWorker(t *testing.T) {
	svc := NewService(seedRepo(t))

	out, err := svc.HoursSummary(context.Background(), HoursSummaryRequest{TenantID: "t1"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(out.BySite) != 2 || len(out.ByWorker) != 2 {
		t.Fatalf("unexpected grouping: %+v", out)
	}
	if out.BySite[0].SiteID != "s1" || out.BySite[0].TotalHours != 17 {
		t.Fatalf("unexpected site aggregate: %+v", out.BySite[0])
	}
	if out.ByWorker[0].WorkerID != "w1" || out.ByWorker[0].TotalHours != 10.5 {
		t.Fatalf("unexpected worker aggregate: %+v", out.ByWorker[0])
	}
}

func TestHoursSummary_DateRangeFilter(t *testing.T) {
	svc := NewService(seedRepo(t))

	out, err := svc.HoursSummary(context.Background(), HoursSummaryRequest{
		TenantID: "t1", FromDate: "2025-06-03", ToDate: "2025-06-03",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalEntries != 1 || out.TotalHours != 8 {
		t.Fatalf("expected only the 2025-06-03 entry, got %+v", out)
	}
}

func TestHoursSummary_RequiresTenant(t *testing.T) {
	svc := NewService(seedRepo(t))
	if _, err := svc.HoursSummary(context.Background(), HoursSummaryRequest{}); err != ErrInvalidRequest {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}
