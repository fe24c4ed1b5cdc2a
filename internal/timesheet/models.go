package timesheet

import "time"

// Record is the durable, tenant-isolated form of a committed timesheet
// entry.
//
// Invariants:
// - Records are append-only; this service never updates or deletes them
//   (corrections are future UI-layer work).
// - tenant_id is required and enforced in all queries.
// - (call_id, seq) is unique, which makes finalize retries safe even if
//   the session-level finalized marker is lost.
type Record struct {
	ID               string    `json:"id" db:"id"`
	TenantID         string    `json:"tenant_id" db:"tenant_id"`
	WorkerID         string    `json:"worker_id" db:"user_id"`
	SiteID           string    `json:"site_id" db:"site_id"`
	CallID           string    `json:"call_id" db:"call_id"`
	Seq              int       `json:"seq" db:"seq"`
	WorkDate         string    `json:"work_date" db:"work_date"`
	StartTime        string    `json:"start_time" db:"start_time"`
	EndTime          string    `json:"end_time" db:"end_time"`
	Hours            float64   `json:"hours_worked" db:"hours_worked"`
	WorkDescription  string    `json:"work_description" db:"work_description"`
	PlansForTomorrow string    `json:"plans_for_tomorrow,omitempty" db:"plans_for_tomorrow"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// EntryInput is the raw material for one pending entry, as relayed by
// the conversational layer.
type EntryInput struct {
	SiteID           string
	StartTime        string
	EndTime          string
	WorkDescription  string
	PlansForTomorrow string
}
