package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emberholt/mud/internal/game/combatant"
	"github.com/emberholt/mud/internal/game/combatant/combatanttest"
)

func TestResolveRound_StunnedSkips(t *testing.T) {
	atk := combatanttest.New("alice")
	atk.FCond.Stunned = true
	def := combatanttest.New("goblin")

	r := NewResolver(script(), zap.NewNop())
	res := r.ResolveRound(atk, def)

	assert.True(t, res.Skipped)
	assert.Equal(t, "You are stunned and cannot attack!", res.SkipMsg)
	assert.Empty(t, res.Attacks)
	assert.Equal(t, 100, def.Health())
}

func TestResolveRound_BothArmsDisabledSkips(t *testing.T) {
	atk := combatanttest.New("alice")
	atk.FCond.RightArmDisabled = true
	atk.FCond.LeftArmDisabled = true
	def := combatanttest.New("goblin")

	r := NewResolver(script(), zap.NewNop())
	res := r.ResolveRound(atk, def)

	assert.True(t, res.Skipped)
	assert.Equal(t, "Both of your arms are useless!", res.SkipMsg)
}

func TestResolveRound_SingleSwingByDefault(t *testing.T) {
	atk := combatanttest.New("alice")
	atk.Player = true
	def := combatanttest.New("goblin")

	r := NewResolver(script(0, 99, 3), zap.NewNop())
	res := r.ResolveRound(atk, def)

	require.Len(t, res.Attacks, 1)
	assert.False(t, res.Skipped)
	assert.False(t, res.DefenderDied)
}

func TestResolveRound_DualWieldLightOffhand(t *testing.T) {
	atk := combatanttest.New("alice")
	atk.Player = true
	atk.Main = &combatant.Weapon{Name: "shortsword", Damage: "1d6", Type: combatant.Slashing}
	atk.Off = &combatant.Weapon{Name: "dirk", Damage: "1d4", Type: combatant.Piercing, Light: true}
	def := combatanttest.New("goblin")

	// Two full swings: (hit, crit, die) twice.
	r := NewResolver(script(0, 99, 2, 0, 99, 1), zap.NewNop())
	res := r.ResolveRound(atk, def)

	require.Len(t, res.Attacks, 2)
	assert.Equal(t, combatant.Slashing, res.Attacks[0].Type)
	assert.Equal(t, combatant.Piercing, res.Attacks[1].Type)
}

func TestResolveRound_HeavyOffhandDoesNotSwing(t *testing.T) {
	atk := combatanttest.New("alice")
	atk.Player = true
	atk.Main = &combatant.Weapon{Name: "shortsword", Damage: "1d6", Type: combatant.Slashing}
	atk.Off = &combatant.Weapon{Name: "warhammer", Damage: "1d10", Type: combatant.Bludgeoning}
	def := combatanttest.New("goblin")

	r := NewResolver(script(0, 99, 2), zap.NewNop())
	res := r.ResolveRound(atk, def)

	require.Len(t, res.Attacks, 1, "only light weapons swing from the off hand")
}

func TestResolveRound_DisabledRightArmUsesOffhandOnly(t *testing.T) {
	atk := combatanttest.New("alice")
	atk.Player = true
	atk.FCond.RightArmDisabled = true
	atk.Main = &combatant.Weapon{Name: "shortsword", Damage: "1d6", Type: combatant.Slashing}
	atk.Off = &combatant.Weapon{Name: "dirk", Damage: "1d4", Type: combatant.Piercing, Light: true}
	def := combatanttest.New("goblin")

	r := NewResolver(script(0, 99, 1), zap.NewNop())
	res := r.ResolveRound(atk, def)

	require.Len(t, res.Attacks, 1)
	assert.Equal(t, combatant.Piercing, res.Attacks[0].Type)
}

func TestResolveRound_OffhandSkippedWhenDefenderFalls(t *testing.T) {
	atk := combatanttest.New("alice")
	atk.Player = true
	atk.Main = &combatant.Weapon{Name: "greatsword", Damage: "2d6+20", Type: combatant.Slashing}
	atk.Off = &combatant.Weapon{Name: "dirk", Damage: "1d4", Type: combatant.Piercing, Light: true}
	def := combatanttest.New("goblin")
	def.HP = 5

	r := NewResolver(script(0, 99, 3, 3), zap.NewNop())
	res := r.ResolveRound(atk, def)

	require.Len(t, res.Attacks, 1, "no swings land on a corpse")
	assert.True(t, res.DefenderDied)
	assert.False(t, def.Alive())
}

func TestResolveRound_ThornsReflection(t *testing.T) {
	atk := combatanttest.New("alice")
	atk.Player = true
	def := combatanttest.New("briar-beast")
	def.Reflect = 5

	r := NewResolver(script(0, 99, 3), zap.NewNop())
	res := r.ResolveRound(atk, def)

	assert.Equal(t, 5, res.ReflectedDamage)
	assert.Equal(t, 95, atk.Health())
	assert.False(t, res.AttackerDied)

	found := false
	for _, msg := range atk.Received() {
		if msg == "briar-beast's thorns tear into you for 5 damage!" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestResolveRound_NoThornsOnWhiff(t *testing.T) {
	atk := combatanttest.New("alice")
	atk.Player = true
	def := combatanttest.New("briar-beast")
	def.Reflect = 5

	// Miss: hit roll 99 against chance 76.
	r := NewResolver(script(99), zap.NewNop())
	res := r.ResolveRound(atk, def)

	assert.Zero(t, res.ReflectedDamage)
	assert.Equal(t, 100, atk.Health())
}

func TestSeverityVerb(t *testing.T) {
	tests := []struct {
		dmg, maxHP int
		want       string
	}{
		{0, 100, "fail to harm"},
		{2, 100, "graze"},
		{10, 100, "hit"},
		{20, 100, "wound"},
		{40, 100, "maul"},
		{75, 100, "devastate"},
	}
	for _, tc := range tests {
		second, _ := severityVerb(tc.dmg, tc.maxHP)
		assert.Equal(t, tc.want, second, "dmg %d / %d", tc.dmg, tc.maxHP)
	}
}
