package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Repository is the read-only lookup contract behind identity resolution.
//
// Tenancy invariant:
// - every method is scoped to one tenant; implementations must filter
//   by tenant_id on all site and capability reads.

type Repository interface {
	FindActiveWorkerByPhone(ctx context.Context, phone string) (Worker, bool, error)
	ListActiveSites(ctx context.Context, tenantID string) ([]Site, error)
	ListEnabledCapabilities(ctx context.Context, tenantID string) ([]string, error)
}

var (
	ErrNotAuthorized = errors.New("identity: phone not recognized or inactive")
	ErrNoPhone       = errors.New("identity: no caller phone and no default configured")
)

// Service resolves a caller phone number into a full caller identity.
//
// Resolution is deterministic: the same phone yields the same identity on
// repeated calls, barring account changes between calls.
type Service struct {
	repo Repository

	// defaultPhone stands in when the webhook carries no caller number.
	// Config rejects it in production; empty means the fallback is off.
	defaultPhone string

	// defaultTimezone applies when the worker's tenant has none set.
	defaultTimezone string
}

func NewService(repo Repository, defaultPhone, defaultTimezone string) *Service {
	return &Service{repo: repo, defaultPhone: defaultPhone, defaultTimezone: defaultTimezone}
}

// Resolve looks up the active worker for the given phone number and
// assembles the caller identity with assignable sites and enabled
// capabilities. Returns ErrNotAuthorized when no active match exists.
func (s *Service) Resolve(ctx context.Context, phone string) (Identity, error) {
	if s.repo == nil {
		return Identity{}, errors.New("identity: repository not configured")
	}

	phone = NormalizePhone(phone)
	if phone == "" {
		if s.defaultPhone == "" {
			return Identity{}, ErrNoPhone
		}
		phone = NormalizePhone(s.defaultPhone)
	}

	w, ok, err := s.repo.FindActiveWorkerByPhone(ctx, phone)
	if err != nil {
		return Identity{}, fmt.Errorf("identity: worker lookup: %w", err)
	}
	if !ok || !w.IsActive {
		return Identity{}, ErrNotAuthorized
	}

	sites, err := s.repo.ListActiveSites(ctx, w.TenantID)
	if err != nil {
		return Identity{}, fmt.Errorf("identity: site lookup: %w", err)
	}
	caps, err := s.repo.ListEnabledCapabilities(ctx, w.TenantID)
	if err != nil {
		return Identity{}, fmt.Errorf("identity: capability lookup: %w", err)
	}

	tz := w.Timezone
	if tz == "" {
		tz = s.defaultTimezone
	}

	return Identity{
		WorkerID:     w.ID,
		TenantID:     w.TenantID,
		TenantName:   w.TenantName,
		FirstName:    w.FirstName,
		DisplayName:  strings.TrimSpace(w.FirstName + " " + w.LastName),
		Phone:        phone,
		Timezone:     tz,
		Capabilities: caps,
		Sites:        sites,
	}, nil
}

var nonPhoneChars = regexp.MustCompile(`[^\d+]`)

// NormalizePhone strips separators and keeps a leading plus so lookups
// compare E.164 forms. "anonymous" and similar platform markers collapse
// to empty.
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	s = nonPhoneChars.ReplaceAllString(s, "")
	if s == "" || s == "+" {
		return ""
	}
	if i := strings.LastIndex(s, "+"); i > 0 {
		// A plus anywhere but the front is noise.
		s = strings.ReplaceAll(s, "+", "")
	}
	return s
}
