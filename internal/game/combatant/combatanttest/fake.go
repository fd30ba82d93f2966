// Package combatanttest provides a scriptable Combatant fake for tests across
// the combat, threat, and npc packages.
package combatanttest

import (
	"sync"

	"github.com/emberholt/mud/internal/game/combatant"
)

// Fake is a fully in-memory Combatant with settable fields.
// It is safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	FID        string
	FName      string
	Player     bool
	HP         int
	MaxHP      int
	Room       string
	FStats     combatant.Stats
	FCombat    combatant.CombatStats
	FCond      combatant.Conditions
	Main       *combatant.Weapon
	Off        *combatant.Weapon
	Armor      []combatant.Armor
	Shield     bool
	Priv       bool
	Hassle     bool
	Guardian   string
	FWimpy     combatant.WimpySettings
	Reflect    int
	AbsorbFunc func(amount int, dtype combatant.DamageType) int

	fighting bool
	target   string

	// Messages records everything delivered via Receive, in order.
	Messages []string
	// Damage records every ApplyDamage call amount, in order.
	Damage []int
}

// New returns a Fake with sane baseline stats: level 1, all attributes 10,
// 100 HP, alive, in room "start".
func New(id string) *Fake {
	return &Fake{
		FID:   id,
		FName: id,
		HP:    100,
		MaxHP: 100,
		Room:  "start",
		FStats: combatant.Stats{
			Level: 1, Strength: 10, Dexterity: 10, Intelligence: 10, Luck: 10,
		},
	}
}

func (f *Fake) ID() string     { return f.FID }
func (f *Fake) Name() string   { return f.FName }
func (f *Fake) IsPlayer() bool { return f.Player }

func (f *Fake) Alive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.HP > 0
}

func (f *Fake) Health() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.HP
}

func (f *Fake) MaxHealth() int { return f.MaxHP }

func (f *Fake) ApplyDamage(amount int, dtype combatant.DamageType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Damage = append(f.Damage, amount)
	f.HP -= amount
	if f.HP < 0 {
		f.HP = 0
	}
}

func (f *Fake) RoomID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Room
}

// MoveTo relocates the fake, simulating separation mid-fight.
func (f *Fake) MoveTo(roomID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Room = roomID
}

func (f *Fake) Stats() combatant.Stats             { return f.FStats }
func (f *Fake) CombatStats() combatant.CombatStats { return f.FCombat }
func (f *Fake) Conditions() combatant.Conditions   { return f.FCond }
func (f *Fake) MainHand() *combatant.Weapon        { return f.Main }
func (f *Fake) OffHand() *combatant.Weapon         { return f.Off }
func (f *Fake) WornArmor() []combatant.Armor       { return f.Armor }
func (f *Fake) HasShield() bool                    { return f.Shield }

func (f *Fake) Receive(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Messages = append(f.Messages, msg)
}

// Received returns a snapshot of all delivered messages.
func (f *Fake) Received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Messages))
	copy(out, f.Messages)
	return out
}

func (f *Fake) InCombat() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fighting
}

func (f *Fake) SetInCombat(fighting bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fighting = fighting
}

func (f *Fake) TargetID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.target
}

func (f *Fake) SetTargetID(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.target = id
}

func (f *Fake) Privileged() bool                  { return f.Priv }
func (f *Fake) NoHassle() bool                    { return f.Hassle }
func (f *Fake) GuardianID() string                { return f.Guardian }
func (f *Fake) Wimpy() combatant.WimpySettings    { return f.FWimpy }

// ReflectDamage implements combatant.Reflector.
func (f *Fake) ReflectDamage() int { return f.Reflect }

// AbsorbDamage implements combatant.Absorber; pass-through when AbsorbFunc is nil.
func (f *Fake) AbsorbDamage(amount int, dtype combatant.DamageType) int {
	if f.AbsorbFunc == nil {
		return amount
	}
	return f.AbsorbFunc(amount, dtype)
}
