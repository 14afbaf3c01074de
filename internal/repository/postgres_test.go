package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/core-coin/mailnet/internal/mailer"
	"github.com/core-coin/mailnet/internal/mailservice"
	"github.com/core-coin/mailnet/internal/repository"
	"github.com/core-coin/mailnet/internal/runtime"
)

// openTestDB stands in for a live Postgres connection with an in-memory
// sqlite one, exercising the exact same AutoMigrate/gorm query paths
// repository.NewPostgresDB runs in production without a Postgres
// dependency in CI.
func openTestDB(t *testing.T) *repository.PostgresDB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(conn))
	return &repository.PostgresDB{Conn: conn}
}

func addr(b byte) runtime.Principal {
	var a runtime.Principal
	a[len(a)-1] = b
	return a
}

func TestPostgresDBMailerStateRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, ok, err := db.LoadState(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	state := &mailer.State{Owner: addr(1), UnitMint: addr(2), SendFee: mailer.DefaultSendFee, Bump: 7}
	require.NoError(t, db.CreateState(ctx, state))

	loaded, ok, err := db.LoadState(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, state.SendFee, loaded.SendFee)
	assert.Equal(t, state.Owner, loaded.Owner)

	loaded.OwnerClaimable = 500
	require.NoError(t, db.SaveState(ctx, loaded))

	reloaded, ok, err := db.LoadState(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(500), reloaded.OwnerClaimable)
}

func TestPostgresDBRecipientClaimRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	sender := addr(9)

	_, ok, err := db.LoadClaim(ctx, sender)
	require.NoError(t, err)
	assert.False(t, ok)

	claim := &mailer.Claim{Recipient: sender, Amount: 1_000, Timestamp: 123}
	require.NoError(t, db.SaveClaim(ctx, claim))

	loaded, ok, err := db.LoadClaim(ctx, sender)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1_000), loaded.Amount)

	claims, err := db.ListClaims(ctx)
	require.NoError(t, err)
	assert.Len(t, claims, 1)

	loaded.Amount = 0
	loaded.Timestamp = 0
	require.NoError(t, db.SaveClaim(ctx, loaded))

	claims, err = db.ListClaims(ctx)
	require.NoError(t, err)
	assert.Empty(t, claims)
}

func TestPostgresDBDelegationRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := repository.NewMailServiceStore(db)

	serviceState := &mailservice.State{
		Owner:           addr(1),
		UnitMint:        addr(2),
		RegistrationFee: mailservice.DefaultRegistrationFee,
		DelegationFee:   mailservice.DefaultDelegationFee,
	}
	require.NoError(t, store.CreateState(ctx, serviceState))

	loaded, ok, err := store.LoadState(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, mailservice.DefaultDelegationFee, loaded.DelegationFee)

	delegator, delegate := addr(10), addr(11)
	d := &mailservice.Delegation{Delegator: delegator, Delegate: delegate, HasDelegate: true}
	require.NoError(t, store.SaveDelegation(ctx, d))

	loadedDelegation, ok, err := store.LoadDelegation(ctx, delegator)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, loadedDelegation.HasDelegate)
	assert.Equal(t, delegate, loadedDelegation.Delegate)
}
