package auth

import (
	"context"
	"testing"

	domainauth "github.com/Dipk2003/itm-portal-gateway/internal/domain/auth"
	apperrors "github.com/Dipk2003/itm-portal-gateway/internal/errors"
	"github.com/Dipk2003/itm-portal-gateway/internal/ports"
)

func TestMemoryTokenStore_PartitionIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTokenStore()

	if err := store.Write(ctx, domainauth.RoleVendor, domainauth.TokenPair{Access: "va", Refresh: "vr"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, ok, _ := store.Read(ctx, domainauth.RoleBuyer); ok {
		t.Fatal("buyer partition should be empty")
	}
	pair, ok, err := store.Read(ctx, domainauth.RoleVendor)
	if err != nil || !ok {
		t.Fatalf("read vendor: ok=%v err=%v", ok, err)
	}
	if pair.Access != "va" || pair.Refresh != "vr" {
		t.Fatalf("unexpected pair: %+v", pair)
	}

	if err := store.ClearAll(ctx); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	if _, ok, _ := store.Read(ctx, domainauth.RoleVendor); ok {
		t.Fatal("vendor partition should be cleared")
	}
}

func TestMemoryTokenStore_FailAll(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTokenStore()
	store.FailAll = true

	if err := store.Write(ctx, domainauth.RoleBuyer, domainauth.TokenPair{Access: "a"}); !apperrors.IsStorageUnavailable(err) {
		t.Fatalf("expected storage unavailable, got %v", err)
	}
	if _, _, err := store.Read(ctx, domainauth.RoleBuyer); !apperrors.IsStorageUnavailable(err) {
		t.Fatalf("expected storage unavailable, got %v", err)
	}
}

func TestMemoryTokenVault_ScopesByContext(t *testing.T) {
	ctx := context.Background()
	vault := NewMemoryTokenVault()

	if err := vault.ForContext("ctx-a").Write(ctx, domainauth.RoleBuyer, domainauth.TokenPair{Access: "a"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, ok, _ := vault.ForContext("ctx-b").Read(ctx, domainauth.RoleBuyer); ok {
		t.Fatal("contexts must not share partitions")
	}
	if _, ok, _ := vault.ForContext("ctx-a").Read(ctx, domainauth.RoleBuyer); !ok {
		t.Fatal("same context must see its own partition")
	}
}

func TestMockStaffProvider_DeterministicStateNonce(t *testing.T) {
	ctx := context.Background()
	prov := &MockStaffProvider{}

	_, state1, nonce1, err := prov.Begin(ctx, ports.BeginInput{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	_, state2, nonce2, err := prov.Begin(ctx, ports.BeginInput{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	if state1 == state2 || nonce1 == nonce2 {
		t.Fatal("expected unique state and nonce per begin call")
	}
}

func TestRecordingAudit_CapturesKinds(t *testing.T) {
	ctx := context.Background()
	audit := &RecordingAudit{}

	_ = audit.Record(ctx, domainauth.AuthEvent{ContextID: "c1", Kind: domainauth.EventLogin})
	_ = audit.Record(ctx, domainauth.AuthEvent{ContextID: "c1", Kind: domainauth.EventLogout})

	kinds := audit.Kinds()
	if len(kinds) != 2 || kinds[0] != domainauth.EventLogin || kinds[1] != domainauth.EventLogout {
		t.Fatalf("unexpected kinds: %v", kinds)
	}
}
