package storage

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	users []User
	debts []Debt

	failNext bool
	saves    int
}

func (r *memRepo) LoadAll(context.Context) ([]User, []Debt, error) {
	return r.users, r.debts, nil
}

func (r *memRepo) Save(_ context.Context, users []User, debts []Debt) error {
	if r.failNext {
		r.failNext = false
		return errors.New("disk full")
	}
	r.users, r.debts = users, debts
	r.saves++
	return nil
}

func (r *memRepo) Close() error { return nil }

func TestAddUserIsIdempotent(t *testing.T) {
	repo := &memRepo{}
	store, err := NewStore(context.Background(), repo)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := store.AddUser(ctx, "100", "alice")
	require.NoError(t, err)

	again, err := store.AddUser(ctx, "100", "renamed")
	require.NoError(t, err)

	assert.Equal(t, first, again)
	assert.Len(t, store.Users(), 1)
	assert.Equal(t, 1, repo.saves)
}

func TestAddUserRollsBackOnPersistFailure(t *testing.T) {
	repo := &memRepo{failNext: true}
	store, err := NewStore(context.Background(), repo)
	require.NoError(t, err)

	_, err = store.AddUser(context.Background(), "100", "alice")
	require.Error(t, err)

	assert.False(t, store.UserExists("100"))
	assert.Empty(t, repo.users)
}

func TestAddDebtRollsBackOnPersistFailure(t *testing.T) {
	repo := &memRepo{failNext: true}
	store, err := NewStore(context.Background(), repo)
	require.NoError(t, err)

	_, err = store.AddDebt(context.Background(), "100", "Essen", "10€", "2024:05:10", "200")
	require.Error(t, err)

	assert.Empty(t, store.Debts())
}

func TestSetAcceptedRollsBackOnPersistFailure(t *testing.T) {
	repo := &memRepo{}
	store, err := NewStore(context.Background(), repo)
	require.NoError(t, err)
	ctx := context.Background()

	debt, err := store.AddDebt(ctx, "100", "Essen", "10€", "2024:05:10", "200")
	require.NoError(t, err)

	repo.failNext = true
	_, err = store.SetAccepted(ctx, debt.ID, true)
	require.Error(t, err)

	assert.False(t, store.DebtByID(debt.ID).Accepted)
}

func TestStatusUpdatesOnUnknownIDAreNoops(t *testing.T) {
	store, err := NewStore(context.Background(), &memRepo{})
	require.NoError(t, err)
	ctx := context.Background()

	debt, err := store.SetAccepted(ctx, "no-such-debt", true)
	require.NoError(t, err)
	assert.Nil(t, debt)

	debt, err = store.SetPaid(ctx, "no-such-debt", true)
	require.NoError(t, err)
	assert.Nil(t, debt)
}

func TestOpenQueriesFilterByRoleAndStatus(t *testing.T) {
	repo := &memRepo{}
	store, err := NewStore(context.Background(), repo)
	require.NoError(t, err)
	ctx := context.Background()

	// alice -> bob, accepted and unpaid: open for both queries.
	open, err := store.AddDebt(ctx, "100", "Essen", "10€", "2024:05:10", "200")
	require.NoError(t, err)
	_, err = store.SetAccepted(ctx, open.ID, true)
	require.NoError(t, err)

	// bob -> alice, still proposed: invisible until accepted.
	proposed, err := store.AddDebt(ctx, "200", "Taxi", "5€", "2024:05:10", "100")
	require.NoError(t, err)

	// alice -> bob, settled: invisible again.
	settled, err := store.AddDebt(ctx, "100", "Kino", "8€", "2024:05:10", "200")
	require.NoError(t, err)
	_, err = store.SetAccepted(ctx, settled.ID, true)
	require.NoError(t, err)
	_, err = store.SetPaid(ctx, settled.ID, true)
	require.NoError(t, err)

	debtsOfBob := store.OpenDebtsFor("200")
	require.Len(t, debtsOfBob, 1)
	assert.Equal(t, open.ID, debtsOfBob[0].ID)

	claimsOfAlice := store.OpenClaimsFor("100")
	require.Len(t, claimsOfAlice, 1)
	assert.Equal(t, open.ID, claimsOfAlice[0].ID)

	assert.Empty(t, store.OpenDebtsFor("100"))
	assert.Empty(t, store.OpenClaimsFor("200"))
	assert.False(t, store.DebtByID(proposed.ID).Open())
}

func TestStoreReloadsPersistedSnapshot(t *testing.T) {
	repo := &memRepo{}
	ctx := context.Background()

	store, err := NewStore(ctx, repo)
	require.NoError(t, err)
	_, err = store.AddUser(ctx, "100", "alice")
	require.NoError(t, err)
	_, err = store.AddUser(ctx, "200", "bob")
	require.NoError(t, err)
	debt, err := store.AddDebt(ctx, "100", "Essen", "10€", "2024:05:10", "200")
	require.NoError(t, err)
	_, err = store.SetAccepted(ctx, debt.ID, true)
	require.NoError(t, err)

	reloaded, err := NewStore(ctx, repo)
	require.NoError(t, err)

	assert.Equal(t, store.Users(), reloaded.Users())
	assert.Equal(t, store.Debts(), reloaded.Debts())
	require.NotNil(t, reloaded.DebtByID(debt.ID))
	assert.True(t, reloaded.DebtByID(debt.ID).Accepted)
}

func TestDeadlineDisplay(t *testing.T) {
	d := Debt{Deadline: "2024:05:10"}
	assert.Equal(t, "10.05.2024", d.DeadlineDisplay())
}
