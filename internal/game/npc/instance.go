package npc

import (
	"sync"
	"time"

	"github.com/emberholt/mud/internal/game/combatant"
	"github.com/emberholt/mud/internal/game/threat"
)

// Grudge is one remembered escape: a player who fled or slipped away from
// this NPC mid-fight.
type Grudge struct {
	// TargetID identifies the escaped player.
	TargetID string
	// Intensity is the threat score held against the target at escape time.
	Intensity int
	// Fled distinguishes a wimpy flee from mere separation.
	Fled bool
	// RecordedAt is when the escape happened.
	RecordedAt time.Time
}

// Instance is a live NPC occupying a room. It implements the combat
// Combatant contract and tracks threat and grudges for autonomous targeting.
//
// Invariant: the embedded threat tracker is only touched under mu; the
// tracker itself is not concurrency-safe.
type Instance struct {
	id          string
	templateID  string
	name        string
	description string

	mu       sync.Mutex
	roomID   string
	hp       int
	fighting bool
	target   string
	guardian string
	tracker  *threat.Tracker
	grudges  map[string]Grudge

	// Immutable after construction.
	maxHP   int
	stats   combatant.Stats
	cstats  combatant.CombatStats
	weapon  *combatant.Weapon
	wimpy   combatant.WimpySettings
	aggro   bool
	respawn string
}

// NewInstance creates a live NPC instance from a template, placed in roomID.
//
// Precondition: id and roomID must be non-empty; tmpl must be validated.
// Postcondition: the instance is at full health with an empty threat table.
func NewInstance(id string, tmpl *Template, roomID string, threatCfg threat.Config) *Instance {
	return &Instance{
		id:          id,
		templateID:  tmpl.ID,
		name:        tmpl.Name,
		description: tmpl.Description,
		roomID:      roomID,
		hp:          tmpl.MaxHP,
		maxHP:       tmpl.MaxHP,
		stats: combatant.Stats{
			Level:        tmpl.Level,
			Strength:     tmpl.Strength,
			Dexterity:    tmpl.Dexterity,
			Intelligence: tmpl.Intelligence,
			Luck:         tmpl.Luck,
			AttackSpeed:  tmpl.AttackSpeed,
		},
		cstats: combatant.CombatStats{
			ToHit:      tmpl.ToHit,
			ToDodge:    tmpl.ToDodge,
			ToCritical: tmpl.ToCritical,
			ArmorBonus: tmpl.ArmorBonus,
		},
		weapon: tmpl.weapon(),
		wimpy: combatant.WimpySettings{
			ThresholdPercent: tmpl.Wimpy.ThresholdPercent,
			Reaction:         tmpl.Wimpy.Reaction,
		},
		aggro:   tmpl.Aggressive,
		respawn: tmpl.RespawnDelay,
		tracker: threat.NewTracker(threatCfg),
		grudges: make(map[string]Grudge),
	}
}

func (i *Instance) ID() string          { return i.id }
func (i *Instance) TemplateID() string  { return i.templateID }
func (i *Instance) Name() string        { return i.name }
func (i *Instance) Description() string { return i.description }
func (i *Instance) IsPlayer() bool      { return false }
func (i *Instance) MaxHealth() int      { return i.maxHP }
func (i *Instance) Aggressive() bool    { return i.aggro }

func (i *Instance) Alive() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.hp > 0
}

func (i *Instance) Health() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.hp
}

func (i *Instance) ApplyDamage(amount int, dtype combatant.DamageType) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.hp -= amount
	if i.hp < 0 {
		i.hp = 0
	}
}

func (i *Instance) RoomID() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.roomID
}

func (i *Instance) MoveTo(roomID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.roomID = roomID
}

func (i *Instance) Stats() combatant.Stats             { return i.stats }
func (i *Instance) CombatStats() combatant.CombatStats { return i.cstats }
func (i *Instance) Conditions() combatant.Conditions   { return combatant.Conditions{} }
func (i *Instance) MainHand() *combatant.Weapon        { return i.weapon }
func (i *Instance) OffHand() *combatant.Weapon         { return nil }
func (i *Instance) WornArmor() []combatant.Armor       { return nil }
func (i *Instance) HasShield() bool                    { return false }

// Receive discards the message; NPCs have no client connection.
func (i *Instance) Receive(msg string) {}

func (i *Instance) InCombat() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.fighting
}

// SetInCombat flips the combat flag and switches the threat decay regime with
// it: slow decay while fighting, fast while idle.
func (i *Instance) SetInCombat(fighting bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.fighting = fighting
	i.tracker.SetFighting(fighting)
}

func (i *Instance) TargetID() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.target
}

func (i *Instance) SetTargetID(id string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.target = id
}

func (i *Instance) Privileged() bool { return false }
func (i *Instance) NoHassle() bool   { return false }

func (i *Instance) GuardianID() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.guardian
}

// SetGuardianID marks the instance as an owned companion.
func (i *Instance) SetGuardianID(ownerID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.guardian = ownerID
}

func (i *Instance) Wimpy() combatant.WimpySettings { return i.wimpy }

// RespawnDelay returns the template's parsed respawn delay, or 0 when the
// instance does not respawn.
func (i *Instance) RespawnDelay() time.Duration {
	if i.respawn == "" {
		return 0
	}
	d, err := time.ParseDuration(i.respawn)
	if err != nil {
		return 0
	}
	return d
}

// AddThreat accumulates threat against source. Called by the combat resolver
// whenever source damages this instance.
func (i *Instance) AddThreat(source combatant.Combatant, amount int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.tracker.Add(source, amount, time.Now())
}

// ThreatScore returns sourceID's current threat after decay.
func (i *Instance) ThreatScore(sourceID string) float64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.tracker.Score(sourceID, time.Now())
}

// ApplyTaunt forces source to be this instance's priority target for duration.
func (i *Instance) ApplyTaunt(source combatant.Combatant, duration time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.tracker.ApplyTaunt(source, duration, time.Now())
}

// AcquireTarget consults the threat table for the best target currently
// sharing this instance's room.
//
// Postcondition: Returns nil when no valid threat entry remains.
func (i *Instance) AcquireTarget(now time.Time) combatant.Combatant {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.tracker.Target(i.roomID, now)
}

// RecordGrudge remembers that target escaped this instance mid-fight.
// Repeated escapes accumulate intensity; the fled flag latches once set.
func (i *Instance) RecordGrudge(targetID string, intensity int, fled bool, now time.Time) {
	i.mu.Lock()
	defer i.mu.Unlock()
	g := i.grudges[targetID]
	g.TargetID = targetID
	g.Intensity += intensity
	g.Fled = g.Fled || fled
	g.RecordedAt = now
	i.grudges[targetID] = g
}

// GrudgeAgainst returns the remembered grudge for targetID.
//
// Postcondition: Returns (grudge, true) if one exists, or (Grudge{}, false).
func (i *Instance) GrudgeAgainst(targetID string) (Grudge, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	g, ok := i.grudges[targetID]
	return g, ok
}

// Grudges returns a snapshot of every held grudge.
func (i *Instance) Grudges() []Grudge {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]Grudge, 0, len(i.grudges))
	for _, g := range i.grudges {
		out = append(out, g)
	}
	return out
}

// ForgetGrudge drops the grudge against targetID, typically after revenge.
func (i *Instance) ForgetGrudge(targetID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.grudges, targetID)
}

// HealthDescription returns a visible health state string for examine output.
//
// Postcondition: Returns a non-empty string.
func (i *Instance) HealthDescription() string {
	i.mu.Lock()
	hp := i.hp
	i.mu.Unlock()

	if hp <= 0 {
		return "dead"
	}
	pct := float64(hp) / float64(i.maxHP)
	switch {
	case pct >= 1.0:
		return "unharmed"
	case pct >= 0.85:
		return "barely scratched"
	case pct >= 0.60:
		return "lightly wounded"
	case pct >= 0.40:
		return "moderately wounded"
	case pct >= 0.20:
		return "heavily wounded"
	default:
		return "critically wounded"
	}
}
