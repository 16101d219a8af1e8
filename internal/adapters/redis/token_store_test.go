package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/Dipk2003/itm-portal-gateway/internal/domain/auth"
	apperrors "github.com/Dipk2003/itm-portal-gateway/internal/errors"
	"github.com/Dipk2003/itm-portal-gateway/internal/testutil"
)

func TestTokenStore_WriteReadClear(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	ctx := context.Background()

	vault := NewTokenVault(client)
	store := vault.ForContext("ctx-1")

	pair := domainauth.TokenPair{Access: "acc", Refresh: "ref"}
	require.NoError(t, store.Write(ctx, domainauth.RoleVendor, pair))

	got, ok, err := store.Read(ctx, domainauth.RoleVendor)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, pair, got)

	// Partition fields are role-scoped inside the context hash.
	fields, err := client.HGetAll(ctx, "ctx:ctx-1:tokens").Result()
	require.NoError(t, err)
	assert.Equal(t, "acc", fields["vendorToken"])
	assert.Equal(t, "ref", fields["vendorRefreshToken"])

	require.NoError(t, store.Clear(ctx, domainauth.RoleVendor))
	_, ok, err = store.Read(ctx, domainauth.RoleVendor)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokenStore_PartitionsDoNotBleed(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	ctx := context.Background()

	store := NewTokenVault(client).ForContext("ctx-1")
	require.NoError(t, store.Write(ctx, domainauth.RoleBuyer, domainauth.TokenPair{Access: "ba", Refresh: "br"}))
	require.NoError(t, store.Write(ctx, domainauth.RoleVendor, domainauth.TokenPair{Access: "va", Refresh: "vr"}))

	buyer, ok, err := store.Read(ctx, domainauth.RoleBuyer)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ba", buyer.Access)

	vendor, ok, err := store.Read(ctx, domainauth.RoleVendor)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "va", vendor.Access)

	// Overwriting one partition leaves the other intact.
	require.NoError(t, store.Write(ctx, domainauth.RoleBuyer, domainauth.TokenPair{Access: "ba2", Refresh: "br2"}))
	vendor, ok, err = store.Read(ctx, domainauth.RoleVendor)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "va", vendor.Access)
}

func TestTokenStore_RejectsUnknownRole(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	ctx := context.Background()

	store := NewTokenVault(client).ForContext("ctx-1")
	err := store.Write(ctx, domainauth.RoleUnknown, domainauth.TokenPair{Access: "a"})

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestTokenStore_ClearAllRemovesProfile(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	ctx := context.Background()

	store := NewTokenVault(client).ForContext("ctx-1")
	require.NoError(t, store.Write(ctx, domainauth.RoleBuyer, domainauth.TokenPair{Access: "a", Refresh: "r"}))
	require.NoError(t, store.SaveProfile(ctx, domainauth.Principal{ID: "u1", Role: domainauth.RoleBuyer}))

	p, ok, err := store.Profile(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "u1", p.ID)

	require.NoError(t, store.ClearAll(ctx))

	_, ok, err = store.Read(ctx, domainauth.RoleBuyer)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = store.Profile(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokenVault_ContextIsolation(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	ctx := context.Background()

	vault := NewTokenVault(client)
	require.NoError(t, vault.ForContext("ctx-a").Write(ctx, domainauth.RoleBuyer, domainauth.TokenPair{Access: "a", Refresh: "r"}))

	_, ok, err := vault.ForContext("ctx-b").Read(ctx, domainauth.RoleBuyer)
	require.NoError(t, err)
	assert.False(t, ok, "contexts must not observe each other's tokens")
}
