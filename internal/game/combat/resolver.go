package combat

import (
	"go.uber.org/zap"

	"github.com/emberholt/mud/internal/game/combatant"
	"github.com/emberholt/mud/internal/game/dice"
	"github.com/emberholt/mud/internal/game/threat"
)

// unarmedPlayerDamage is the fallback damage die for players with empty hands.
var unarmedPlayerDamage = dice.MustParse("1d4")

// AttackResult holds the outcome of a single weapon or natural-attack swing.
// It is immutable once produced.
type AttackResult struct {
	// Hit is true when the swing connected.
	Hit bool
	// Dodged is true for a miss the defender actively avoided; flavor only,
	// both dodge and plain miss deal zero damage.
	Dodged bool
	// Blocked is true when the defender's shield halved the damage.
	Blocked bool
	// Critical is true when the swing dealt double base damage.
	Critical bool
	// BaseDamage is the raw roll plus stat and flat bonuses, before the
	// critical and block multipliers and before defense.
	BaseDamage int
	// FinalDamage is the health actually removed from the defender.
	FinalDamage int
	// Type is the damage type dealt.
	Type combatant.DamageType
	// AttackerMsg, DefenderMsg, and RoomMsg are the three rendered
	// perspectives of this swing.
	AttackerMsg string
	DefenderMsg string
	RoomMsg     string
}

// CalculateHitChance returns the percent chance for attacker to land a swing
// on defender: 75 + toHit + (atkDex-10)*2 + atkLuck/10 − toDodge −
// (defDex-10)*2 + levelBonus, where levelBonus is the level difference
// clamped to [-10, 10].
//
// Postcondition: Returns a value in [5, 95].
func CalculateHitChance(attacker, defender combatant.Combatant) int {
	as, ds := attacker.Stats(), defender.Stats()
	acs, dcs := attacker.CombatStats(), defender.CombatStats()

	levelBonus := clampInt(as.Level-ds.Level, -10, 10)
	chance := 75 + acs.ToHit +
		(as.Dexterity-10)*2 + as.Luck/10 -
		dcs.ToDodge - (ds.Dexterity-10)*2 +
		levelBonus
	return clampInt(chance, 5, 95)
}

// CalculateDodgeChance returns the percent chance for defender to turn a miss
// into a dodge: toDodge + (dex-10)*2 − encumbranceDodgePenalty*50.
//
// Postcondition: Returns a value in [0, 50].
func CalculateDodgeChance(defender combatant.Combatant) int {
	stats := defender.Stats()
	cs := defender.CombatStats()
	cond := defender.Conditions()

	chance := cs.ToDodge + (stats.Dexterity-10)*2 - int(cond.DodgePenalty*50)
	return clampInt(chance, 0, 50)
}

// CalculateBlockChance returns the percent chance for defender to block:
// toBlock + str/10, or 0 without a shield.
//
// Postcondition: Returns a value in [0, 50]; 0 when no shield is equipped.
func CalculateBlockChance(defender combatant.Combatant) int {
	if !defender.HasShield() {
		return 0
	}
	chance := defender.CombatStats().ToBlock + defender.Stats().Strength/10
	return clampInt(chance, 0, 50)
}

// CalculateCritChance returns the percent chance for attacker to land a
// critical: 5 + toCritical + luck/5.
//
// Postcondition: Returns a value in [0, 50].
func CalculateCritChance(attacker combatant.Combatant) int {
	chance := 5 + attacker.CombatStats().ToCritical + attacker.Stats().Luck/5
	return clampInt(chance, 0, 50)
}

// Resolver performs stateless attack resolution. The only mutation it makes
// is applying the computed damage (and threat) to the participants.
type Resolver struct {
	src    dice.Source
	logger *zap.Logger
}

// NewResolver creates a Resolver rolling with src and logging to logger.
//
// Precondition: src and logger must be non-nil.
func NewResolver(src dice.Source, logger *zap.Logger) *Resolver {
	return &Resolver{src: src, logger: logger}
}

// ResolveAttack resolves a single swing of weapon (nil = unarmed/natural)
// from attacker against defender, applies the resulting damage, and feeds
// threat to NPC defenders.
//
// Precondition: attacker and defender must be non-nil and alive.
// Postcondition: Returns a fully populated, immutable AttackResult;
// FinalDamage >= 1 on a hit against a non-invulnerable, non-absorbing
// defender, and 0 on a miss.
func (r *Resolver) ResolveAttack(attacker, defender combatant.Combatant, weapon *combatant.Weapon) AttackResult {
	dtype := combatant.Bludgeoning
	if weapon != nil {
		dtype = weapon.Type
	}
	res := AttackResult{Type: dtype}

	if !dice.PercentChance(r.src, CalculateHitChance(attacker, defender)) {
		// Miss. A dodge roll decides flavor only; both deal zero damage.
		res.Dodged = dice.PercentChance(r.src, CalculateDodgeChance(defender))
		renderMiss(attacker, defender, weapon, &res)
		return res
	}

	res.Hit = true
	// Block and critical roll independently; both can apply to one swing.
	res.Blocked = dice.PercentChance(r.src, CalculateBlockChance(defender))
	res.Critical = dice.PercentChance(r.src, CalculateCritChance(attacker))

	res.BaseDamage = r.baseDamage(attacker, weapon, dtype)

	dmg := res.BaseDamage
	if res.Critical {
		dmg *= 2
	}
	if res.Blocked {
		dmg /= 2
	}

	dmg -= combatant.ArmorTotal(defender)
	if resist := combatant.ResistancePercent(defender, dtype); resist > 0 {
		dmg -= dmg * resist / 100
	}
	if dmg < 1 {
		dmg = 1
	}

	if defender.Conditions().Invulnerable {
		dmg = 0
	} else if abs, ok := defender.(combatant.Absorber); ok {
		dmg = abs.AbsorbDamage(dmg, dtype)
		if dmg < 0 {
			dmg = 0
		}
	}

	res.FinalDamage = r.applyWithImmunity(attacker, defender, dmg, dtype)
	renderHit(attacker, defender, weapon, &res)

	if res.FinalDamage > 0 && !defender.IsPlayer() {
		if sink, ok := defender.(ThreatSink); ok {
			sink.AddThreat(attacker, threat.CalculateFor(attacker, res.FinalDamage, dtype))
		}
	}

	return res
}

// baseDamage computes the pre-multiplier damage: the weapon (or natural
// attack) roll, or a level-scaled unarmed range for NPCs, or 1d4 for unarmed
// players, plus the governing stat bonus and the flat damage-bonus modifier.
func (r *Resolver) baseDamage(attacker combatant.Combatant, weapon *combatant.Weapon, dtype combatant.DamageType) int {
	stats := attacker.Stats()

	var roll int
	switch {
	case weapon != nil:
		result, err := dice.RollExpr(weapon.Damage, r.src)
		if err != nil {
			// Bad weapon data degrades to the damage floor, never into
			// invalid health mutation.
			r.logger.Warn("invalid weapon damage expression",
				zap.String("weapon", weapon.Name),
				zap.String("expression", weapon.Damage),
				zap.Error(err),
			)
			roll = 1
		} else {
			roll = result.Total()
		}
	case !attacker.IsPlayer():
		// Level-scaled unarmed range for NPCs: [level, 3*level].
		level := stats.Level
		if level < 1 {
			level = 1
		}
		roll = level + r.src.Intn(level*2+1)
	default:
		result, _ := dice.Roll(unarmedPlayerDamage, r.src)
		roll = result.Total()
	}

	stat := stats.Strength
	if !dtype.Physical() {
		stat = stats.Intelligence
	}
	statBonus := (stat - 10) / 2
	if statBonus < 0 {
		statBonus = 0
	}

	dmg := roll + statBonus + attacker.CombatStats().DamageBonus
	if dmg < 1 {
		dmg = 1
	}
	return dmg
}

// applyWithImmunity applies dmg to defender, clamping so a privileged
// defender is never reduced below 1 health. Returns the damage actually
// applied.
func (r *Resolver) applyWithImmunity(attacker, defender combatant.Combatant, dmg int, dtype combatant.DamageType) int {
	if dmg <= 0 {
		return 0
	}
	if defender.Privileged() && dmg >= defender.Health() {
		dmg = defender.Health() - 1
		if dmg < 0 {
			dmg = 0
		}
		defender.Receive("A protective force absorbs the killing blow.")
		attacker.Receive("An unseen power shields " + defender.Name() + " from your killing blow.")
	}
	if dmg > 0 {
		defender.ApplyDamage(dmg, dtype)
	}
	return dmg
}
