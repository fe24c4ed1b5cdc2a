package audit

import (
	"context"
	"testing"
)

func TestService_AppendRequiresTenantAndType(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.Append(context.Background(), Event{Type: EventTypeAuthAttempt}); err == nil {
		t.Fatalf("expected error")
	}
	if err := svc.Append(context.Background(), Event{TenantID: "t"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestService_AppendsImmutableEvents(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.LogAuthAttempt(context.Background(), "tenant-1", "worker-1", "call-1", "+61412345678", "authenticated"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event")
	}
	if evs[0].CallerPhone != "+61412345678" {
		t.Fatalf("expected phone captured")
	}
	if evs[0].Type != EventTypeAuthAttempt {
		t.Fatalf("expected auth_attempt")
	}
	if evs[0].ID == "" || evs[0].CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp assigned")
	}
}

func TestService_FailedAuthLoggedUnderUnresolved(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.LogAuthAttempt(context.Background(), "", "", "call-1", "+61400000000", "not authorized"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	evs := repo.Events()
	if evs[0].TenantID != "unresolved" {
		t.Fatalf("expected unresolved tenant, got %q", evs[0].TenantID)
	}
}
