package combat

import (
	"fmt"

	"github.com/emberholt/mud/internal/game/combatant"
)

// RoundResult aggregates the ordered attack outcomes of one combat round.
// It is produced fresh each round and not retained.
type RoundResult struct {
	// Attacks holds the resolved swings in execution order.
	Attacks []AttackResult
	// Skipped is true when the attacker could not act this round (stunned or
	// both arms disabled).
	Skipped bool
	// SkipMsg explains a skipped round to the attacker.
	SkipMsg string
	// ReflectedDamage is the thorns damage applied back onto the attacker.
	ReflectedDamage int
	// AttackerDied is true when reflection killed the attacker.
	AttackerDied bool
	// DefenderDied is true when this round's attacks killed the defender.
	DefenderDied bool
}

// ResolveRound resolves all of attacker's swings against defender for one
// round: main hand always (unless the right arm is disabled), off hand only
// for a dual-wielded light weapon (unless the left arm is disabled). Stunned
// attackers or attackers with both arms disabled skip the round. After the
// attacks, the defender's thorns reflection is applied back to the attacker
// with the same privileged floor.
//
// Precondition: attacker and defender must be non-nil and alive.
// Postcondition: Returns a RoundResult with death flags matching the
// participants' health after all applications.
func (r *Resolver) ResolveRound(attacker, defender combatant.Combatant) RoundResult {
	cond := attacker.Conditions()

	if cond.Stunned {
		return RoundResult{Skipped: true, SkipMsg: "You are stunned and cannot attack!"}
	}
	if cond.RightArmDisabled && cond.LeftArmDisabled {
		return RoundResult{Skipped: true, SkipMsg: "Both of your arms are useless!"}
	}

	var result RoundResult

	if !cond.RightArmDisabled {
		res := r.ResolveAttack(attacker, defender, attacker.MainHand())
		result.Attacks = append(result.Attacks, res)
	}

	off := attacker.OffHand()
	if off != nil && off.Light && !cond.LeftArmDisabled && defender.Alive() {
		res := r.ResolveAttack(attacker, defender, off)
		result.Attacks = append(result.Attacks, res)
	}

	result.DefenderDied = !defender.Alive()

	// Thorns: the defender's reflection strikes back even as it falls.
	if refl, ok := defender.(combatant.Reflector); ok && r.dealtDamage(result) {
		if back := refl.ReflectDamage(); back > 0 {
			applied := r.applyWithImmunity(defender, attacker, back, combatant.Piercing)
			if applied > 0 {
				result.ReflectedDamage = applied
				attacker.Receive(fmt.Sprintf("%s's thorns tear into you for %d damage!", defender.Name(), applied))
				defender.Receive(fmt.Sprintf("Your thorns tear into %s for %d damage!", attacker.Name(), applied))
			}
		}
	}

	result.AttackerDied = !attacker.Alive()
	return result
}

// dealtDamage reports whether any swing in result landed for damage.
func (r *Resolver) dealtDamage(result RoundResult) bool {
	for _, a := range result.Attacks {
		if a.FinalDamage > 0 {
			return true
		}
	}
	return false
}
