package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberholt/mud/internal/game/character"
	"github.com/emberholt/mud/internal/game/combatant"
	"github.com/emberholt/mud/internal/storage/postgres"
	"github.com/emberholt/mud/internal/testutil"
)

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func setupCharRepo(t *testing.T) (*postgres.CharacterRepository, *postgres.AccountRepository, int64) {
	t.Helper()
	pool := testutil.NewPool(t)
	acctRepo := postgres.NewAccountRepository(pool)
	acct, err := acctRepo.Create(context.Background(), uniqueName("user"), "password123")
	require.NoError(t, err)
	return postgres.NewCharacterRepository(pool), acctRepo, acct.ID
}

func makeTestRecord(name string) character.Record {
	p := character.New(uuid.New().String(), name, 40)
	p.MoveTo("town_square")
	return p.Snapshot()
}

func TestCharacterRepository_CreateAndGet(t *testing.T) {
	repo, _, accountID := setupCharRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, accountID, makeTestRecord("Zara"))
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Zara", fetched.Name)
	assert.Equal(t, character.RolePlayer, fetched.Role)
	assert.Equal(t, "town_square", fetched.RoomID)
	assert.Equal(t, 40, fetched.CurrentHP)
	assert.Equal(t, 40, fetched.MaxHP)
	assert.Equal(t, 1, fetched.Level)
}

func TestCharacterRepository_DuplicateNameError(t *testing.T) {
	repo, _, accountID := setupCharRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, accountID, makeTestRecord("Zara"))
	require.NoError(t, err)

	// Same name under the same account, fresh ID.
	_, err = repo.Create(ctx, accountID, makeTestRecord("Zara"))
	require.Error(t, err)
	assert.ErrorIs(t, err, postgres.ErrCharacterNameTaken)
}

func TestCharacterRepository_SameNameDifferentAccounts(t *testing.T) {
	pool := testutil.NewPool(t)
	acctRepo := postgres.NewAccountRepository(pool)
	repo := postgres.NewCharacterRepository(pool)
	ctx := context.Background()

	a1, err := acctRepo.Create(ctx, uniqueName("a1"), "password123")
	require.NoError(t, err)
	a2, err := acctRepo.Create(ctx, uniqueName("a2"), "password123")
	require.NoError(t, err)

	_, err = repo.Create(ctx, a1.ID, makeTestRecord("Zara"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, a2.ID, makeTestRecord("Zara"))
	require.NoError(t, err, "name uniqueness is per account")
}

func TestCharacterRepository_GetByID_NotFound(t *testing.T) {
	repo, _, _ := setupCharRepo(t)
	_, err := repo.GetByID(context.Background(), uuid.New().String())
	require.Error(t, err)
	assert.ErrorIs(t, err, postgres.ErrCharacterNotFound)
}

func TestCharacterRepository_ListByAccount(t *testing.T) {
	repo, _, accountID := setupCharRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, accountID, makeTestRecord("Alpha"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, accountID, makeTestRecord("Beta"))
	require.NoError(t, err)

	recs, err := repo.ListByAccount(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Alpha", recs[0].Name, "ordered by creation time")
}

func TestCharacterRepository_ListByAccount_Empty(t *testing.T) {
	repo, _, accountID := setupCharRepo(t)
	recs, err := repo.ListByAccount(context.Background(), accountID)
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestCharacterRepository_SaveState(t *testing.T) {
	repo, _, accountID := setupCharRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, accountID, makeTestRecord("Zara"))
	require.NoError(t, err)

	// Simulate a play session: wounded, moved, promoted, wimpy configured.
	p := character.FromRecord(created)
	p.SetRole(character.RoleStaff)
	p.MoveTo("dark_forest")
	p.ApplyDamage(15, combatant.Slashing)
	p.SetWimpy(combatant.WimpySettings{ThresholdPercent: 25, Reaction: "shadow_step"})

	require.NoError(t, repo.SaveState(ctx, p.Snapshot()))

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, character.RoleStaff, fetched.Role)
	assert.Equal(t, "dark_forest", fetched.RoomID)
	assert.Equal(t, 25, fetched.CurrentHP)
	assert.Equal(t, 25.0, fetched.WimpyThreshold)
	assert.Equal(t, "shadow_step", fetched.WimpyReaction)
}

func TestCharacterRepository_SaveState_NotFound(t *testing.T) {
	repo, _, _ := setupCharRepo(t)
	rec := makeTestRecord("Ghost")
	err := repo.SaveState(context.Background(), rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, postgres.ErrCharacterNotFound)
}

func TestCharacterRepository_RecordRoundTripsThroughPlayer(t *testing.T) {
	repo, _, accountID := setupCharRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, accountID, makeTestRecord("Zara"))
	require.NoError(t, err)

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)

	p := character.FromRecord(fetched)
	assert.Equal(t, "Zara", p.Name())
	assert.Equal(t, "town_square", p.RoomID())
	assert.Equal(t, 40, p.Health())
	assert.False(t, p.Privileged())
}
