// Package character provides the player model participating in combat.
package character

import (
	"sync"
	"time"

	"github.com/emberholt/mud/internal/game/combatant"
)

// Role distinguishes ordinary players from staff.
type Role string

// Player roles.
const (
	RolePlayer Role = "player"
	RoleStaff  Role = "staff"
)

// Player is a connected player character. It implements the combat Combatant
// contract; all mutable state is guarded by an internal mutex.
type Player struct {
	id   string
	name string

	mu       sync.Mutex
	role     Role
	noHassle bool
	roomID   string
	hp       int
	maxHP    int
	stats    combatant.Stats
	cstats   combatant.CombatStats
	cond     combatant.Conditions
	main     *combatant.Weapon
	off      *combatant.Weapon
	armor    []combatant.Armor
	shield   bool
	fighting bool
	target   string
	guardian string
	wimpy    combatant.WimpySettings
	sink     func(msg string)
}

// New creates a level-1 Player with baseline attributes and full health.
//
// Precondition: id and name must be non-empty; maxHP >= 1.
func New(id, name string, maxHP int) *Player {
	return &Player{
		id:    id,
		name:  name,
		role:  RolePlayer,
		hp:    maxHP,
		maxHP: maxHP,
		stats: combatant.Stats{
			Level: 1, Strength: 10, Dexterity: 10, Intelligence: 10, Luck: 10,
		},
	}
}

// SetSink installs the message delivery callback, normally bound to the
// player's connection. A nil sink discards messages.
func (p *Player) SetSink(sink func(msg string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sink = sink
}

func (p *Player) ID() string     { return p.id }
func (p *Player) Name() string   { return p.name }
func (p *Player) IsPlayer() bool { return true }

func (p *Player) Alive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hp > 0
}

func (p *Player) Health() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hp
}

func (p *Player) MaxHealth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxHP
}

func (p *Player) ApplyDamage(amount int, dtype combatant.DamageType) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hp -= amount
	if p.hp < 0 {
		p.hp = 0
	}
}

// Heal restores amount health, capped at maximum.
//
// Precondition: amount >= 0.
func (p *Player) Heal(amount int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hp += amount
	if p.hp > p.maxHP {
		p.hp = p.maxHP
	}
}

// Restore resets health to maximum, used on respawn.
func (p *Player) Restore() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hp = p.maxHP
}

func (p *Player) RoomID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.roomID
}

func (p *Player) MoveTo(roomID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.roomID = roomID
}

func (p *Player) Stats() combatant.Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// SetStats replaces the attribute block, used on level-up and buffs.
func (p *Player) SetStats(s combatant.Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = s
}

func (p *Player) CombatStats() combatant.CombatStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cstats
}

// SetCombatStats replaces the derived combat modifiers.
func (p *Player) SetCombatStats(cs combatant.CombatStats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cstats = cs
}

func (p *Player) Conditions() combatant.Conditions {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cond
}

// SetConditions replaces the transient condition flags.
func (p *Player) SetConditions(c combatant.Conditions) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cond = c
}

func (p *Player) MainHand() *combatant.Weapon {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.main
}

func (p *Player) OffHand() *combatant.Weapon {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.off
}

func (p *Player) WornArmor() []combatant.Armor {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]combatant.Armor, len(p.armor))
	copy(out, p.armor)
	return out
}

func (p *Player) HasShield() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shield
}

// Equip sets the wielded weapons, worn armor, and shield flag in one step.
func (p *Player) Equip(main, off *combatant.Weapon, armor []combatant.Armor, shield bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.main = main
	p.off = off
	p.armor = append([]combatant.Armor(nil), armor...)
	p.shield = shield
}

func (p *Player) Receive(msg string) {
	p.mu.Lock()
	sink := p.sink
	p.mu.Unlock()
	if sink != nil {
		sink(msg)
	}
}

func (p *Player) InCombat() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fighting
}

func (p *Player) SetInCombat(fighting bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fighting = fighting
}

func (p *Player) TargetID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target
}

func (p *Player) SetTargetID(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.target = id
}

func (p *Player) Privileged() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.role == RoleStaff
}

// SetRole changes the player's role. Demoting from staff clears nohassle,
// which is meaningless for ordinary players.
func (p *Player) SetRole(role Role) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.role = role
	if role != RoleStaff {
		p.noHassle = false
	}
}

func (p *Player) Role() Role {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.role
}

func (p *Player) NoHassle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.noHassle
}

// SetNoHassle toggles the staff opt-out from autonomous NPC attacks.
// Only effective while the player holds the staff role.
func (p *Player) SetNoHassle(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.role == RoleStaff {
		p.noHassle = on
	}
}

func (p *Player) GuardianID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.guardian
}

// SetGuardianID marks the player as another entity's protected companion.
func (p *Player) SetGuardianID(ownerID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.guardian = ownerID
}

func (p *Player) Wimpy() combatant.WimpySettings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wimpy
}

// SetWimpy configures the automatic defensive reaction. A threshold of 0
// disables it.
func (p *Player) SetWimpy(w combatant.WimpySettings) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.wimpy = w
}

// Record is the persistent form of a Player.
type Record struct {
	ID             string
	Name           string
	Role           Role
	RoomID         string
	CurrentHP      int
	MaxHP          int
	Level          int
	WimpyThreshold float64
	WimpyReaction  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Snapshot captures the player's persistent state for storage.
func (p *Player) Snapshot() Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Record{
		ID:             p.id,
		Name:           p.name,
		Role:           p.role,
		RoomID:         p.roomID,
		CurrentHP:      p.hp,
		MaxHP:          p.maxHP,
		Level:          p.stats.Level,
		WimpyThreshold: p.wimpy.ThresholdPercent,
		WimpyReaction:  p.wimpy.Reaction,
	}
}

// FromRecord reconstructs a Player from its persistent form.
//
// Postcondition: the returned Player has no sink; callers bind one on login.
func FromRecord(rec Record) *Player {
	p := New(rec.ID, rec.Name, rec.MaxHP)
	p.role = rec.Role
	p.roomID = rec.RoomID
	p.hp = rec.CurrentHP
	p.stats.Level = rec.Level
	p.wimpy = combatant.WimpySettings{
		ThresholdPercent: rec.WimpyThreshold,
		Reaction:         rec.WimpyReaction,
	}
	return p
}
