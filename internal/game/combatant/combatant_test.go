package combatant_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/emberholt/mud/internal/game/combatant"
	"github.com/emberholt/mud/internal/game/combatant/combatanttest"
)

func TestDamageType_Physical(t *testing.T) {
	tests := []struct {
		dt   combatant.DamageType
		want bool
	}{
		{combatant.Slashing, true},
		{combatant.Piercing, true},
		{combatant.Bludgeoning, true},
		{combatant.Fire, false},
		{combatant.Cold, false},
		{combatant.Lightning, false},
		{combatant.Acid, false},
		{combatant.Poison, false},
		{combatant.Arcane, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.dt.Physical(), "type %s", tc.dt)
	}
}

func TestHealthPercent(t *testing.T) {
	f := combatanttest.New("a")
	f.HP, f.MaxHP = 50, 200
	assert.InDelta(t, 25.0, combatant.HealthPercent(f), 0.001)

	f.HP = 0
	assert.Zero(t, combatant.HealthPercent(f))

	f.MaxHP = 0
	assert.Zero(t, combatant.HealthPercent(f), "zero max health reports 0, not NaN")
}

func TestArmorTotal(t *testing.T) {
	f := combatanttest.New("a")
	f.FCombat.ArmorBonus = 3
	f.Armor = []combatant.Armor{
		{Name: "helm", Rating: 2},
		{Name: "breastplate", Rating: 5},
	}
	assert.Equal(t, 10, combatant.ArmorTotal(f))
}

func TestResistancePercent_CapsAtHundred(t *testing.T) {
	f := combatanttest.New("a")
	f.Armor = []combatant.Armor{
		{Name: "cloak", Resistances: map[combatant.DamageType]int{combatant.Fire: 60}},
		{Name: "ring", Resistances: map[combatant.DamageType]int{combatant.Fire: 70}},
	}
	assert.Equal(t, 100, combatant.ResistancePercent(f, combatant.Fire))
	assert.Equal(t, 0, combatant.ResistancePercent(f, combatant.Cold))
}

func TestResistancePercent_Property_InRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := combatanttest.New("a")
		n := rapid.IntRange(0, 5).Draw(rt, "pieces")
		for i := 0; i < n; i++ {
			f.Armor = append(f.Armor, combatant.Armor{
				Resistances: map[combatant.DamageType]int{
					combatant.Fire: rapid.IntRange(-20, 80).Draw(rt, "res"),
				},
			})
		}
		got := combatant.ResistancePercent(f, combatant.Fire)
		assert.GreaterOrEqual(rt, got, 0)
		assert.LessOrEqual(rt, got, 100)
	})
}

func TestFake_ApplyDamageFloorsAtZero(t *testing.T) {
	f := combatanttest.New("a")
	f.ApplyDamage(250, combatant.Slashing)
	assert.Equal(t, 0, f.Health())
	assert.False(t, f.Alive())
}
