package identity

import "time"

// Worker is an active field worker belonging to one tenant.
// Resolution is read-only: this package never mutates worker records.
type Worker struct {
	ID         string    `json:"id" db:"id"`
	TenantID   string    `json:"tenant_id" db:"tenant_id"`
	FirstName  string    `json:"first_name" db:"first_name"`
	LastName   string    `json:"last_name" db:"last_name"`
	Phone      string    `json:"phone" db:"phone"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	TenantName string    `json:"tenant_name" db:"tenant_name"`
	Timezone   string    `json:"timezone" db:"timezone"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Site is an assignable work location within a tenant.
type Site struct {
	ID         string `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	Identifier string `json:"identifier,omitempty" db:"identifier"`
	Address    string `json:"address,omitempty" db:"address"`
}

// Identity is the resolved caller context for one call.
// It is immutable for the lifetime of the call and never persisted.
type Identity struct {
	WorkerID     string   `json:"worker_id"`
	TenantID     string   `json:"tenant_id"`
	TenantName   string   `json:"tenant_name"`
	FirstName    string   `json:"first_name"`
	DisplayName  string   `json:"display_name"`
	Phone        string   `json:"phone"`
	Timezone     string   `json:"timezone"`
	Capabilities []string `json:"capabilities"`
	Sites        []Site   `json:"sites"`
}

// HasCapability reports whether the tenant has the given skill enabled
// for this worker.
func (id Identity) HasCapability(key string) bool {
	for _, c := range id.Capabilities {
		if c == key {
			return true
		}
	}
	return false
}

// SiteByID returns the assignable site with the given id, if any.
func (id Identity) SiteByID(siteID string) (Site, bool) {
	for _, s := range id.Sites {
		if s.ID == siteID {
			return s, true
		}
	}
	return Site{}, false
}
