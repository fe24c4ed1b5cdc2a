package identity

import (
	"context"
	"errors"
	"testing"
)

func testRepo() *MemoryRepo {
	r := NewMemoryRepo()
	r.Workers = []Worker{
		{ID: "worker-1", TenantID: "tenant-1", FirstName: "Mick", LastName: "Kelly", Phone: "+61412345678", IsActive: true, TenantName: "Built by MK", Timezone: "Australia/Sydney"},
		{ID: "worker-2", TenantID: "tenant-1", FirstName: "Dana", Phone: "+61499999999", IsActive: false, TenantName: "Built by MK"},
	}
	r.Sites["tenant-1"] = []Site{
		{ID: "site-1", Name: "Ocean White House"},
		{ID: "site-2", Name: "Harbour Tower"},
	}
	r.Capabilities["tenant-1"] = []string{"authentication", "timesheet"}
	return r
}

func TestResolve_ActiveWorker(t *testing.T) {
	svc := NewService(testRepo(), "", "Australia/Sydney")

	id, err := svc.Resolve(context.Background(), "+61412345678")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id.WorkerID != "worker-1" || id.TenantID != "tenant-1" {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if id.TenantName != "Built by MK" {
		t.Fatalf("unexpected tenant name: %q", id.TenantName)
	}
	if len(id.Sites) != 2 || id.Sites[0].Name != "Ocean White House" {
		t.Fatalf("unexpected sites: %+v", id.Sites)
	}
	if !id.HasCapability("timesheet") {
		t.Fatalf("expected timesheet capability")
	}
	if id.DisplayName != "Mick Kelly" {
		t.Fatalf("unexpected display name: %q", id.DisplayName)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	svc := NewService(testRepo(), "", "UTC")

	a, err := svc.Resolve(context.Background(), "+61412345678")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	b, err := svc.Resolve(context.Background(), "+61412345678")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if a.WorkerID != b.WorkerID || a.TenantID != b.TenantID || len(a.Capabilities) != len(b.Capabilities) {
		t.Fatalf("resolution not deterministic: %+v vs %+v", a, b)
	}
}

func TestResolve_UnknownPhone(t *testing.T) {
	svc := NewService(testRepo(), "", "UTC")
	if _, err := svc.Resolve(context.Background(), "+61400000000"); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestResolve_InactiveWorker(t *testing.T) {
	svc := NewService(testRepo(), "", "UTC")
	if _, err := svc.Resolve(context.Background(), "+61499999999"); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for inactive worker, got %v", err)
	}
}

func TestResolve_DefaultPhoneFallback(t *testing.T) {
	svc := NewService(testRepo(), "+61412345678", "UTC")
	id, err := svc.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("resolve with default phone: %v", err)
	}
	if id.WorkerID != "worker-1" {
		t.Fatalf("unexpected worker: %q", id.WorkerID)
	}

	// Fallback disabled: empty phone is an error, not a guess.
	svc = NewService(testRepo(), "", "UTC")
	if _, err := svc.Resolve(context.Background(), ""); !errors.Is(err, ErrNoPhone) {
		t.Fatalf("expected ErrNoPhone, got %v", err)
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"+61 412 345 678": "+61412345678",
		"0412-345-678":    "0412345678",
		"anonymous":       "",
		"  ":              "",
		"+":               "",
	}
	for in, want := range cases {
		if got := NormalizePhone(in); got != want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}
