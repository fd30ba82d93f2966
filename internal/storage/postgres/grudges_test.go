package postgres_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/emberholt/mud/internal/game/npc"
	"github.com/emberholt/mud/internal/storage/postgres"
	"github.com/emberholt/mud/internal/testutil"
)

// The repository is the persistent backing for NPC grudge books.
var _ npc.GrudgeStore = (*postgres.GrudgeRepository)(nil)

func TestGrudgeRepository_SaveAndGet(t *testing.T) {
	repo := postgres.NewGrudgeRepository(testutil.NewPool(t))
	ctx := context.Background()

	require.NoError(t, repo.SaveGrudge(ctx, "goblin", "alice", 42, true))

	g, err := repo.Get(ctx, "goblin", "alice")
	require.NoError(t, err)
	assert.Equal(t, "goblin", g.NPCTemplateID)
	assert.Equal(t, "alice", g.PlayerID)
	assert.Equal(t, 42, g.Intensity)
	assert.True(t, g.Fled)
	assert.False(t, g.CreatedAt.IsZero())
}

func TestGrudgeRepository_UpsertAccumulates(t *testing.T) {
	repo := postgres.NewGrudgeRepository(testutil.NewPool(t))
	ctx := context.Background()

	require.NoError(t, repo.SaveGrudge(ctx, "goblin", "alice", 10, false))
	require.NoError(t, repo.SaveGrudge(ctx, "goblin", "alice", 15, true))
	require.NoError(t, repo.SaveGrudge(ctx, "goblin", "alice", 5, false))

	g, err := repo.Get(ctx, "goblin", "alice")
	require.NoError(t, err)
	assert.Equal(t, 30, g.Intensity, "repeat escapes accumulate")
	assert.True(t, g.Fled, "fled latches once set")
}

func TestGrudgeRepository_Get_NotFound(t *testing.T) {
	repo := postgres.NewGrudgeRepository(testutil.NewPool(t))
	_, err := repo.Get(context.Background(), "goblin", "nobody")
	require.Error(t, err)
	assert.ErrorIs(t, err, postgres.ErrGrudgeNotFound)
}

func TestGrudgeRepository_ListByTemplate(t *testing.T) {
	repo := postgres.NewGrudgeRepository(testutil.NewPool(t))
	ctx := context.Background()

	require.NoError(t, repo.SaveGrudge(ctx, "goblin", "alice", 10, false))
	require.NoError(t, repo.SaveGrudge(ctx, "goblin", "bob", 50, true))
	require.NoError(t, repo.SaveGrudge(ctx, "wolf", "alice", 99, false))

	grudges, err := repo.ListByTemplate(ctx, "goblin")
	require.NoError(t, err)
	require.Len(t, grudges, 2)
	assert.Equal(t, "bob", grudges[0].PlayerID, "strongest grudge first")
	assert.Equal(t, "alice", grudges[1].PlayerID)
}

func TestGrudgeRepository_Settle(t *testing.T) {
	repo := postgres.NewGrudgeRepository(testutil.NewPool(t))
	ctx := context.Background()

	require.NoError(t, repo.SaveGrudge(ctx, "goblin", "alice", 10, false))
	require.NoError(t, repo.Settle(ctx, "goblin", "alice"))

	_, err := repo.Get(ctx, "goblin", "alice")
	assert.ErrorIs(t, err, postgres.ErrGrudgeNotFound)

	err = repo.Settle(ctx, "goblin", "alice")
	assert.ErrorIs(t, err, postgres.ErrGrudgeNotFound)
}

// Property: any sequence of saves leaves the row holding the exact sum of
// intensities, with fled set iff any save set it.
func TestGrudgeRepository_Property_AccumulationSums(t *testing.T) {
	repo := postgres.NewGrudgeRepository(testutil.NewPool(t))
	ctx := context.Background()

	seq := 0
	rapid.Check(t, func(rt *rapid.T) {
		seq++
		playerID := fmt.Sprintf("player-%d", seq)

		n := rapid.IntRange(1, 6).Draw(rt, "saves")
		sum := 0
		anyFled := false
		for i := 0; i < n; i++ {
			amount := rapid.IntRange(0, 100).Draw(rt, "amount")
			fled := rapid.Bool().Draw(rt, "fled")
			require.NoError(rt, repo.SaveGrudge(ctx, "goblin", playerID, amount, fled))
			sum += amount
			anyFled = anyFled || fled
		}

		g, err := repo.Get(ctx, "goblin", playerID)
		require.NoError(rt, err)
		assert.Equal(rt, sum, g.Intensity)
		assert.Equal(rt, anyFled, g.Fled)
	})
}
