package combat

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/emberholt/mud/internal/game/combatant"
	"github.com/emberholt/mud/internal/game/combatant/combatanttest"
)

// scriptSource replays a fixed sequence of Intn results, clamping each value
// into [0, n). Exhausted scripts return 0.
type scriptSource struct {
	mu   sync.Mutex
	vals []int
	next int
}

func script(vals ...int) *scriptSource {
	return &scriptSource{vals: vals}
}

func (s *scriptSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.vals) {
		return 0
	}
	v := s.vals[s.next]
	s.next++
	if v >= n {
		v = n - 1
	}
	if v < 0 {
		v = 0
	}
	return v
}

func TestCalculateHitChance(t *testing.T) {
	tests := []struct {
		name string
		atk  func(f *combatanttest.Fake)
		def  func(f *combatanttest.Fake)
		want int
	}{
		{
			name: "baseline",
			atk:  func(f *combatanttest.Fake) {},
			def:  func(f *combatanttest.Fake) {},
			// 75 + 0 + 0 + 10/10 - 0 - 0 + 0
			want: 76,
		},
		{
			name: "dexterity advantage",
			atk:  func(f *combatanttest.Fake) { f.FStats.Dexterity = 16 },
			def:  func(f *combatanttest.Fake) { f.FStats.Dexterity = 8 },
			want: 76 + 12 + 4,
		},
		{
			name: "level difference clamped",
			atk:  func(f *combatanttest.Fake) { f.FStats.Level = 50 },
			def:  func(f *combatanttest.Fake) { f.FStats.Level = 1 },
			want: 76 + 10,
		},
		{
			name: "floor at 5",
			atk:  func(f *combatanttest.Fake) { f.FStats.Dexterity = 1 },
			def: func(f *combatanttest.Fake) {
				f.FCombat.ToDodge = 60
				f.FStats.Dexterity = 20
			},
			want: 5,
		},
		{
			name: "ceiling at 95",
			atk: func(f *combatanttest.Fake) {
				f.FCombat.ToHit = 80
				f.FStats.Luck = 100
			},
			def:  func(f *combatanttest.Fake) {},
			want: 95,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			atk := combatanttest.New("atk")
			def := combatanttest.New("def")
			tc.atk(atk)
			tc.def(def)
			assert.Equal(t, tc.want, CalculateHitChance(atk, def))
		})
	}
}

func TestCalculateHitChance_AlwaysInBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		atk := combatanttest.New("atk")
		def := combatanttest.New("def")
		atk.FStats.Level = rapid.IntRange(1, 100).Draw(t, "atkLevel")
		atk.FStats.Dexterity = rapid.IntRange(1, 30).Draw(t, "atkDex")
		atk.FStats.Luck = rapid.IntRange(1, 30).Draw(t, "atkLuck")
		atk.FCombat.ToHit = rapid.IntRange(-50, 100).Draw(t, "toHit")
		def.FStats.Level = rapid.IntRange(1, 100).Draw(t, "defLevel")
		def.FStats.Dexterity = rapid.IntRange(1, 30).Draw(t, "defDex")
		def.FCombat.ToDodge = rapid.IntRange(-50, 100).Draw(t, "toDodge")

		chance := CalculateHitChance(atk, def)
		if chance < 5 || chance > 95 {
			t.Fatalf("hit chance %d outside [5, 95]", chance)
		}
	})
}

func TestCalculateDodgeChance(t *testing.T) {
	def := combatanttest.New("def")
	assert.Equal(t, 0, CalculateDodgeChance(def))

	def.FCombat.ToDodge = 20
	def.FStats.Dexterity = 14
	assert.Equal(t, 28, CalculateDodgeChance(def))

	def.FStats.Dexterity = 20
	assert.Equal(t, 40, CalculateDodgeChance(def))

	def.FStats.Dexterity = 14
	def.FCond.DodgePenalty = 0.4
	assert.Equal(t, 8, CalculateDodgeChance(def))

	def.FCombat.ToDodge = 80
	def.FCond.DodgePenalty = 0
	assert.Equal(t, 50, CalculateDodgeChance(def))
}

func TestCalculateBlockChance(t *testing.T) {
	def := combatanttest.New("def")
	def.FCombat.ToBlock = 30

	assert.Equal(t, 0, CalculateBlockChance(def), "no shield means no block")

	def.Shield = true
	assert.Equal(t, 31, CalculateBlockChance(def))

	def.FCombat.ToBlock = 90
	assert.Equal(t, 50, CalculateBlockChance(def))
}

func TestCalculateCritChance(t *testing.T) {
	atk := combatanttest.New("atk")
	assert.Equal(t, 7, CalculateCritChance(atk))

	atk.FCombat.ToCritical = 10
	atk.FStats.Luck = 25
	assert.Equal(t, 20, CalculateCritChance(atk))

	atk.FCombat.ToCritical = 100
	assert.Equal(t, 50, CalculateCritChance(atk))
}

func TestResolveAttack_UnarmedPlayerHit(t *testing.T) {
	atk := combatanttest.New("Alice")
	atk.Player = true
	def := combatanttest.New("goblin")

	// hit roll 0 (< 76), crit roll 99 (>= 7), 1d4 roll 3 -> die 4.
	r := NewResolver(script(0, 99, 3), zap.NewNop())
	res := r.ResolveAttack(atk, def, nil)

	require.True(t, res.Hit)
	assert.False(t, res.Critical)
	assert.False(t, res.Blocked)
	assert.Equal(t, 4, res.BaseDamage)
	assert.Equal(t, 4, res.FinalDamage)
	assert.Equal(t, combatant.Bludgeoning, res.Type)
	assert.Equal(t, 96, def.Health())
	assert.Contains(t, res.AttackerMsg, "for 4 damage")
}

func TestResolveAttack_MissAndDodge(t *testing.T) {
	atk := combatanttest.New("Alice")
	atk.Player = true
	def := combatanttest.New("goblin")

	// Plain miss: hit roll 99, dodge chance 0 so no dodge roll consumed.
	r := NewResolver(script(99), zap.NewNop())
	res := r.ResolveAttack(atk, def, nil)
	require.False(t, res.Hit)
	assert.False(t, res.Dodged)
	assert.Zero(t, res.FinalDamage)
	assert.Contains(t, res.AttackerMsg, "miss")
	assert.Equal(t, 100, def.Health())

	// Dodge flavor: hit roll 99, dodge roll 0 against chance 30.
	def.FCombat.ToDodge = 30
	r = NewResolver(script(99, 0), zap.NewNop())
	res = r.ResolveAttack(atk, def, nil)
	require.False(t, res.Hit)
	assert.True(t, res.Dodged)
	assert.Zero(t, res.FinalDamage)
	assert.Contains(t, res.DefenderMsg, "dodge")
}

func TestResolveAttack_CriticalAndBlockStack(t *testing.T) {
	atk := combatanttest.New("Alice")
	atk.Player = true
	atk.Main = &combatant.Weapon{Name: "longsword", Damage: "1d8+2", Type: combatant.Slashing}
	def := combatanttest.New("guard")
	def.Shield = true
	def.FCombat.ToBlock = 40 // block chance 41

	// hit 0, block 0 (< 41), crit 0 (< 7), 1d8 roll 5 -> die 6, +2 = 8.
	r := NewResolver(script(0, 0, 0, 5), zap.NewNop())
	res := r.ResolveAttack(atk, def, atk.Main)

	require.True(t, res.Hit)
	assert.True(t, res.Blocked)
	assert.True(t, res.Critical)
	assert.Equal(t, 8, res.BaseDamage)
	// 8 doubled to 16, halved to 8.
	assert.Equal(t, 8, res.FinalDamage)
	assert.Contains(t, res.AttackerMsg, "vicious strike")
	assert.Contains(t, res.DefenderMsg, "shield turns part of the blow")
}

func TestResolveAttack_ArmorFloorsAtOne(t *testing.T) {
	atk := combatanttest.New("Alice")
	atk.Player = true
	def := combatanttest.New("knight")
	def.Armor = []combatant.Armor{{Name: "full plate", Rating: 50}}

	r := NewResolver(script(0, 99, 0), zap.NewNop())
	res := r.ResolveAttack(atk, def, nil)

	require.True(t, res.Hit)
	assert.Equal(t, 1, res.FinalDamage, "a landed hit always deals at least 1")
	assert.Equal(t, 99, def.Health())
}

func TestResolveAttack_ResistanceReducesDamage(t *testing.T) {
	atk := combatanttest.New("mage")
	atk.Player = true
	atk.Main = &combatant.Weapon{Name: "flame rod", Damage: "1d6+9", Type: combatant.Fire}
	def := combatanttest.New("salamander")
	def.Armor = []combatant.Armor{{
		Name:        "ember scales",
		Resistances: map[combatant.DamageType]int{combatant.Fire: 50},
	}}

	// hit 0, crit 99, 1d6 roll 0 -> die 1, +9 = 10 base.
	r := NewResolver(script(0, 99, 0), zap.NewNop())
	res := r.ResolveAttack(atk, def, atk.Main)

	require.True(t, res.Hit)
	assert.Equal(t, 10, res.BaseDamage)
	assert.Equal(t, 5, res.FinalDamage)
}

func TestResolveAttack_InvulnerableDefender(t *testing.T) {
	atk := combatanttest.New("Alice")
	atk.Player = true
	def := combatanttest.New("wisp")
	def.FCond.Invulnerable = true

	r := NewResolver(script(0, 99, 3), zap.NewNop())
	res := r.ResolveAttack(atk, def, nil)

	require.True(t, res.Hit)
	assert.Zero(t, res.FinalDamage)
	assert.Equal(t, 100, def.Health())
	assert.Contains(t, res.AttackerMsg, "fail to harm")
}

func TestResolveAttack_AbsorberConsumesDamage(t *testing.T) {
	atk := combatanttest.New("Alice")
	atk.Player = true
	def := combatanttest.New("warded")
	def.AbsorbFunc = func(amount int, dtype combatant.DamageType) int {
		if amount > 2 {
			return amount - 2
		}
		return 0
	}

	r := NewResolver(script(0, 99, 3), zap.NewNop())
	res := r.ResolveAttack(atk, def, nil)

	require.True(t, res.Hit)
	assert.Equal(t, 2, res.FinalDamage)
	assert.Equal(t, 98, def.Health())
}

func TestResolveAttack_PrivilegedDefenderFloorsAtOneHealth(t *testing.T) {
	atk := combatanttest.New("bandit")
	def := combatanttest.New("Admin")
	def.Player = true
	def.Priv = true
	def.HP = 3

	// NPC unarmed: level 1 -> roll = 1 + Intn(3). Script hit 0, crit 99,
	// unarmed 2 -> 1+2 = 3 damage, which would kill.
	r := NewResolver(script(0, 99, 2), zap.NewNop())
	res := r.ResolveAttack(atk, def, nil)

	require.True(t, res.Hit)
	assert.Equal(t, 2, res.FinalDamage)
	assert.Equal(t, 1, def.Health())
	assert.True(t, def.Alive())

	found := false
	for _, msg := range def.Received() {
		if strings.Contains(msg, "protective force") {
			found = true
		}
	}
	assert.True(t, found, "defender should be told about the absorbed killing blow")
}

func TestResolveAttack_NPCUnarmedScalesWithLevel(t *testing.T) {
	atk := combatanttest.New("ogre")
	atk.FStats.Level = 5
	def := combatanttest.New("Alice")
	def.Player = true

	// hit 0, crit 99, unarmed Intn(11) = 6 -> 5 + 6 = 11.
	r := NewResolver(script(0, 99, 6), zap.NewNop())
	res := r.ResolveAttack(atk, def, nil)

	require.True(t, res.Hit)
	assert.Equal(t, 11, res.BaseDamage)
}

func TestResolveAttack_BadWeaponExpressionDegradesToFloor(t *testing.T) {
	atk := combatanttest.New("Alice")
	atk.Player = true
	atk.Main = &combatant.Weapon{Name: "glitchblade", Damage: "not-dice", Type: combatant.Slashing}
	def := combatanttest.New("goblin")

	r := NewResolver(script(0, 99), zap.NewNop())
	res := r.ResolveAttack(atk, def, atk.Main)

	require.True(t, res.Hit)
	assert.Equal(t, 1, res.BaseDamage)
	assert.Equal(t, 1, res.FinalDamage)
}

func TestResolveAttack_StatBonusByDamageType(t *testing.T) {
	atk := combatanttest.New("Alice")
	atk.Player = true
	atk.FStats.Strength = 16
	atk.FStats.Intelligence = 10
	def := combatanttest.New("dummy")

	// Physical swings add (str-10)/2.
	r := NewResolver(script(0, 99, 0), zap.NewNop())
	res := r.ResolveAttack(atk, def, nil)
	assert.Equal(t, 1+3, res.BaseDamage)

	// Arcane swings add (int-10)/2 instead.
	atk.Main = &combatant.Weapon{Name: "wand", Damage: "1d4", Type: combatant.Arcane}
	atk.FStats.Intelligence = 18
	r = NewResolver(script(0, 99, 0), zap.NewNop())
	res = r.ResolveAttack(atk, def, atk.Main)
	assert.Equal(t, 1+4, res.BaseDamage)
}

func TestResolveAttack_FeedsThreatToNPCDefender(t *testing.T) {
	atk := combatanttest.New("Alice")
	atk.Player = true
	def := newThreatFake("goblin")

	r := NewResolver(script(0, 99, 3), zap.NewNop())
	res := r.ResolveAttack(atk, def, nil)

	require.True(t, res.Hit)
	require.Equal(t, 4, res.FinalDamage)
	assert.Equal(t, float64(4), def.ThreatScore("Alice"), "physical damage maps 1:1 to threat")
}
