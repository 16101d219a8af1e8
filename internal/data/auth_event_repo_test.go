package data_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dipk2003/itm-portal-gateway/internal/data"
	domainauth "github.com/Dipk2003/itm-portal-gateway/internal/domain/auth"
	"github.com/Dipk2003/itm-portal-gateway/internal/testutil"
)

func TestAuthEventRepo_RecordAndList(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := data.NewAuthEventRepo(db)
		ctx := context.Background()
		base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

		events := []domainauth.AuthEvent{
			{ContextID: "ctx-1", Kind: domainauth.EventLogin, Role: domainauth.RoleBuyer, Identifier: "asha@example.com", CreatedAt: base},
			{ContextID: "ctx-1", Kind: domainauth.EventLogout, Role: domainauth.RoleBuyer, CreatedAt: base.Add(time.Minute)},
			{ContextID: "ctx-2", Kind: domainauth.EventLoginFailed, Role: domainauth.RoleUnknown, Identifier: "mallory@example.com", CreatedAt: base.Add(2 * time.Minute)},
		}
		for _, ev := range events {
			require.NoError(t, repo.Record(ctx, ev))
		}

		got, err := repo.ListRecent(ctx, data.AuthEventListOptions{})
		require.NoError(t, err)
		require.Len(t, got, 3)

		// Newest first.
		assert.Equal(t, domainauth.EventLoginFailed, got[0].Kind)
		assert.Equal(t, domainauth.EventLogout, got[1].Kind)
		assert.Equal(t, domainauth.EventLogin, got[2].Kind)
		assert.NotEmpty(t, got[0].ID)
	})
}

func TestAuthEventRepo_ListFilters(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := data.NewAuthEventRepo(db)
		ctx := context.Background()

		require.NoError(t, repo.Record(ctx, domainauth.AuthEvent{
			ContextID: "ctx-1", Kind: domainauth.EventLogin, Role: domainauth.RoleVendor,
		}))
		require.NoError(t, repo.Record(ctx, domainauth.AuthEvent{
			ContextID: "ctx-1", Kind: domainauth.EventTokenRejected, Role: domainauth.RoleVendor,
		}))
		require.NoError(t, repo.Record(ctx, domainauth.AuthEvent{
			ContextID: "ctx-2", Kind: domainauth.EventLogin, Role: domainauth.RoleBuyer,
		}))

		byContext, err := repo.ListRecent(ctx, data.AuthEventListOptions{ContextID: "ctx-1"})
		require.NoError(t, err)
		assert.Len(t, byContext, 2)

		byKind, err := repo.ListRecent(ctx, data.AuthEventListOptions{Kind: domainauth.EventLogin})
		require.NoError(t, err)
		assert.Len(t, byKind, 2)

		both, err := repo.ListRecent(ctx, data.AuthEventListOptions{
			ContextID: "ctx-1",
			Kind:      domainauth.EventTokenRejected,
		})
		require.NoError(t, err)
		require.Len(t, both, 1)
		assert.Equal(t, domainauth.RoleVendor, both[0].Role)
	})
}

func TestAuthEventRepo_ListLimit(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := data.NewAuthEventRepo(db)
		ctx := context.Background()

		for range 5 {
			require.NoError(t, repo.Record(ctx, domainauth.AuthEvent{
				ContextID: "ctx-1", Kind: domainauth.EventLogin, Role: domainauth.RoleBuyer,
			}))
		}

		got, err := repo.ListRecent(ctx, data.AuthEventListOptions{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		// Out-of-range limits fall back to the default.
		got, err = repo.ListRecent(ctx, data.AuthEventListOptions{Limit: 10000})
		require.NoError(t, err)
		assert.Len(t, got, 5)
	})
}

func TestAuthEventRepo_RecordValidation(t *testing.T) {
	repo := data.NewAuthEventRepo(nil)
	ctx := context.Background()

	err := repo.Record(ctx, domainauth.AuthEvent{Kind: domainauth.EventLogin})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context id")

	err = repo.Record(ctx, domainauth.AuthEvent{ContextID: "ctx-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kind")
}
