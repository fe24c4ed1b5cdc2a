package reporting

import (
	"context"
	"errors"
	"math"
	"sort"

	"timesheet-platform/internal/timesheet"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts data access for reporting.
//
// IMPORTANT:
// - Methods must enforce tenant filtering.
// - Reporting reads the immutable committed records only; pending call
//   sessions are never visible here.
//
// The timesheet repositories satisfy this interface directly.

type Repository interface {
	ListByTenant(ctx context.Context, tenantID, fromDate, toDate string) ([]timesheet.Record, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

// HoursSummary aggregates committed hours for a tenant over a work-date
// range, grouped by site and by worker.
func (s *Service) HoursSummary(ctx context.Context, req HoursSummaryRequest) (HoursSummary, error) {
	if req.TenantID == "" {
		return HoursSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return HoursSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListByTenant(ctx, req.TenantID, req.FromDate, req.ToDate)
	if err != nil {
		return HoursSummary{}, err
	}

	out := HoursSummary{TenantID: req.TenantID, FromDate: req.FromDate, ToDate: req.ToDate}
	bySite := map[string]*SiteHours{}
	byWorker := map[string]*WorkerHours{}
	total := 0.0
	for _, rec := range rows {
		out.TotalEntries++
		total += rec.Hours

		sh, ok := bySite[rec.SiteID]
		if !ok {
			sh = &SiteHours{SiteID: rec.SiteID}
			bySite[rec.SiteID] = sh
		}
		sh.Entries++
		sh.TotalHours = round2(sh.TotalHours + rec.Hours)

		wh, ok := byWorker[rec.WorkerID]
		if !ok {
			wh = &WorkerHours{WorkerID: rec.WorkerID}
			byWorker[rec.WorkerID] = wh
		}
		wh.Entries++
		wh.TotalHours = round2(wh.TotalHours + rec.Hours)
	}
	out.TotalHours = round2(total)

	for _, sh := range bySite {
		out.BySite = append(out.BySite, *sh)
	}
	for _, wh := range byWorker {
		out.ByWorker = append(out.ByWorker, *wh)
	}
	// Stable output ordering for API consumers.
	sort.Slice(out.BySite, func(i, j int) bool { return out.BySite[i].SiteID < out.BySite[j].SiteID })
	sort.Slice(out.ByWorker, func(i, j int) bool { return out.ByWorker[i].WorkerID < out.ByWorker[j].WorkerID })

	return out, nil
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
