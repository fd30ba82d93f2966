// Package combatant defines the capability surface combat requires from any
// participant in the world, along with the stat and equipment value types
// that surface exposes. Combat code depends only on these types, never on the
// concrete player or NPC implementations.
package combatant

// DamageType classifies an attack's damage for stat bonuses, resistances,
// and threat weighting.
type DamageType string

// Damage types. Slashing, piercing, and bludgeoning are physical; everything
// else counts as magical for stat bonuses and threat.
const (
	Slashing    DamageType = "slashing"
	Piercing    DamageType = "piercing"
	Bludgeoning DamageType = "bludgeoning"
	Fire        DamageType = "fire"
	Cold        DamageType = "cold"
	Lightning   DamageType = "lightning"
	Acid        DamageType = "acid"
	Poison      DamageType = "poison"
	Arcane      DamageType = "arcane"
)

// Physical reports whether d is one of the physical damage types.
// Physical damage draws its stat bonus from strength; all other types draw
// from intelligence and are eligible for the magic threat multiplier.
func (d DamageType) Physical() bool {
	switch d {
	case Slashing, Piercing, Bludgeoning:
		return true
	}
	return false
}

// Stats holds a combatant's core attributes.
type Stats struct {
	Level        int
	Strength     int
	Dexterity    int
	Intelligence int
	Luck         int
	// AttackSpeed is an additive round-speed modifier; 0 is baseline.
	AttackSpeed float64
}

// CombatStats holds the derived combat modifiers supplied by the entity layer
// (equipment, buffs, and training are already folded in).
type CombatStats struct {
	ToHit       int
	ToDodge     int
	ToBlock     int
	ToCritical  int
	DamageBonus int
	ArmorBonus  int
}

// Conditions holds the transient state flags combat consults each round.
type Conditions struct {
	Stunned          bool
	RightArmDisabled bool
	LeftArmDisabled  bool
	LegsDisabled     bool
	Stealthed        bool
	Invulnerable     bool
	Encumbered       bool
	// AttackSpeedPenalty slows the round timer while Encumbered; 0 is none.
	AttackSpeedPenalty float64
	// DodgePenalty is the encumbrance dodge reduction as a fraction in [0, 1].
	DodgePenalty float64
	// ThreatModifier scales threat generated by this combatant; 0 means no
	// active effect (treated as 1.0).
	ThreatModifier float64
}

// Weapon describes a wielded weapon or an NPC's natural attack.
type Weapon struct {
	// Name is the display name, e.g. "rusty shortsword" or "claws".
	Name string
	// Damage is the dice expression rolled on a hit, e.g. "1d8+1".
	Damage string
	// Type is the damage type dealt.
	Type DamageType
	// Speed is an additive round-speed modifier; 0 is baseline.
	Speed float64
	// Light weapons may be dual-wielded in the off hand.
	Light bool
}

// Armor describes one worn armor piece.
type Armor struct {
	// Name is the display name.
	Name string
	// Rating is the flat damage reduction this piece contributes.
	Rating int
	// Resistances maps damage types to percentage reductions in [0, 100].
	Resistances map[DamageType]int
}

// WimpySettings configures a combatant's automatic defensive reaction.
type WimpySettings struct {
	// ThresholdPercent triggers the reaction when health% falls below it.
	// Zero disables the wimpy check entirely.
	ThresholdPercent float64
	// Reaction names a scripted reaction to try before fleeing; empty means
	// flee directly.
	Reaction string
}
