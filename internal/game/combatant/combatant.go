package combatant

// Combatant is the minimal contract combat requires from a participant.
// Every life-form entity in the world implements it; combat code must not
// assume anything beyond this capability set.
//
// Implementations are mutated only on the owning subsystem's goroutine or
// under the combat registry's lock; see the combat package for the
// re-validation rules around suspension points.
type Combatant interface {
	// ID uniquely identifies this entity for session keys and threat entries.
	ID() string
	// Name is the display name used in combat messages.
	Name() string
	// IsPlayer reports whether this entity is a player character.
	IsPlayer() bool

	// Alive reports liveness; dead entities are pruned from sessions and
	// threat tables eagerly.
	Alive() bool
	// Health returns current hit points.
	Health() int
	// MaxHealth returns maximum hit points.
	MaxHealth() int
	// ApplyDamage reduces health by amount. Implementations floor at 0.
	//
	// Precondition: amount >= 0.
	ApplyDamage(amount int, dtype DamageType)

	// RoomID identifies the entity's current location; combat requires
	// attacker and defender to share a room.
	RoomID() string
	// MoveTo relocates the entity; used by flee. Occupancy bookkeeping in
	// the world layer is the caller's responsibility.
	MoveTo(roomID string)

	// Stats returns the core attribute block.
	Stats() Stats
	// CombatStats returns the derived combat modifiers.
	CombatStats() CombatStats
	// Conditions returns the transient state flags for this round.
	Conditions() Conditions

	// MainHand returns the primary wielded weapon or natural attack; nil
	// means unarmed.
	MainHand() *Weapon
	// OffHand returns the secondary wielded weapon; nil means empty hand.
	OffHand() *Weapon
	// WornArmor returns all worn armor pieces.
	WornArmor() []Armor
	// HasShield reports whether a shield is equipped; blocking requires one.
	HasShield() bool

	// Receive delivers a combat message to this entity.
	Receive(msg string)

	// InCombat reports whether this entity currently has an attack session.
	InCombat() bool
	// SetInCombat marks or clears the combat-state flag.
	SetInCombat(fighting bool)
	// TargetID returns the entity's current target ID, or "".
	TargetID() string
	// SetTargetID records the entity's current target.
	SetTargetID(id string)

	// Privileged reports staff status: privileged defenders cannot be
	// attacked by unprivileged entities nor reduced below 1 health.
	Privileged() bool
	// NoHassle reports the staff opt-out flag blocking autonomous attackers.
	NoHassle() bool
	// GuardianID returns the owner's ID when this entity is an owned
	// companion, or "" for free-standing entities.
	GuardianID() string

	// Wimpy returns the automatic defensive reaction settings.
	Wimpy() WimpySettings
}

// Absorber is implemented by combatants protected by a damage shield.
// Combat consults it after armor and resistance have been applied.
type Absorber interface {
	// AbsorbDamage consumes part or all of amount, returning the remainder
	// to apply as health loss.
	//
	// Postcondition: 0 <= returned <= amount.
	AbsorbDamage(amount int, dtype DamageType) int
}

// Reflector is implemented by combatants with thorns-style effects that
// return damage to their attacker at the end of a round.
type Reflector interface {
	// ReflectDamage returns the flat damage to apply back to the attacker;
	// 0 means no reflection.
	ReflectDamage() int
}

// HealthPercent returns c's current health as a percentage of maximum,
// in [0, 100]. A combatant with MaxHealth() <= 0 reports 0.
func HealthPercent(c Combatant) float64 {
	max := c.MaxHealth()
	if max <= 0 {
		return 0
	}
	pct := float64(c.Health()) / float64(max) * 100
	if pct < 0 {
		return 0
	}
	return pct
}

// ArmorTotal returns c's flat damage reduction: the armor-bonus stat plus the
// rating of every worn piece.
//
// Postcondition: Returns >= 0 when ArmorBonus >= 0 and all ratings >= 0.
func ArmorTotal(c Combatant) int {
	total := c.CombatStats().ArmorBonus
	for _, piece := range c.WornArmor() {
		total += piece.Rating
	}
	return total
}

// ResistancePercent returns c's combined resistance against dtype as a
// percentage, summed across worn pieces and capped at 100.
//
// Postcondition: Returns a value in [0, 100].
func ResistancePercent(c Combatant, dtype DamageType) int {
	total := 0
	for _, piece := range c.WornArmor() {
		total += piece.Resistances[dtype]
	}
	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}
	return total
}
