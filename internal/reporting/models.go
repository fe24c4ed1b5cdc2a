package reporting

// Common filtering inputs. Dates are civil YYYY-MM-DD work dates, not
// instants; an empty bound leaves that side of the range open.

type HoursSummaryRequest struct {
	TenantID string `json:"tenant_id"`
	FromDate string `json:"from_date,omitempty"`
	ToDate   string `json:"to_date,omitempty"`
}

// SiteHours aggregates committed hours for one site.
type SiteHours struct {
	SiteID     string  `json:"site_id"`
	Entries    int     `json:"entries"`
	TotalHours float64 `json:"total_hours"`
}

// WorkerHours aggregates committed hours for one worker.
type WorkerHours struct {
	WorkerID   string  `json:"worker_id"`
	Entries    int     `json:"entries"`
	TotalHours float64 `json:"total_hours"`
}

type HoursSummary struct {
	TenantID string `json:"tenant_id"`
	FromDate string `json:"from_date,omitempty"`
	ToDate   string `json:"to_date,omitempty"`

	TotalEntries int     `json:"total_entries"`
	TotalHours   float64 `json:"total_hours"`

	BySite   []SiteHours   `json:"by_site"`
	ByWorker []WorkerHours `json:"by_worker"`
}
