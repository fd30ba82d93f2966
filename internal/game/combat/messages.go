package combat

import (
	"fmt"

	"github.com/emberholt/mud/internal/game/combatant"
)

// severityVerb maps damage relative to the defender's maximum health to a
// message verb pair (second person, third person).
func severityVerb(dmg, maxHealth int) (string, string) {
	if maxHealth < 1 {
		maxHealth = 1
	}
	pct := dmg * 100 / maxHealth
	switch {
	case dmg == 0:
		return "fail to harm", "fails to harm"
	case pct < 5:
		return "graze", "grazes"
	case pct < 15:
		return "hit", "hits"
	case pct < 30:
		return "wound", "wounds"
	case pct < 50:
		return "maul", "mauls"
	default:
		return "devastate", "devastates"
	}
}

// weaponPhrase renders "with your <weapon>" / "with its <weapon>" fragments;
// empty for unarmed swings.
func weaponPhrase(weapon *combatant.Weapon, secondPerson bool) string {
	if weapon == nil {
		return ""
	}
	if secondPerson {
		return " with your " + weapon.Name
	}
	return " with " + weapon.Name
}

// renderMiss fills the three message perspectives for a miss or dodge.
func renderMiss(attacker, defender combatant.Combatant, weapon *combatant.Weapon, res *AttackResult) {
	if res.Dodged {
		res.AttackerMsg = fmt.Sprintf("%s deftly dodges your attack%s.", defender.Name(), weaponPhrase(weapon, true))
		res.DefenderMsg = fmt.Sprintf("You deftly dodge %s's attack.", attacker.Name())
		res.RoomMsg = fmt.Sprintf("%s dodges %s's attack.", defender.Name(), attacker.Name())
		return
	}
	res.AttackerMsg = fmt.Sprintf("You swing at %s%s and miss.", defender.Name(), weaponPhrase(weapon, true))
	res.DefenderMsg = fmt.Sprintf("%s swings at you and misses.", attacker.Name())
	res.RoomMsg = fmt.Sprintf("%s swings at %s and misses.", attacker.Name(), defender.Name())
}

// renderHit fills the three message perspectives for a connecting swing.
func renderHit(attacker, defender combatant.Combatant, weapon *combatant.Weapon, res *AttackResult) {
	verb2, verb3 := severityVerb(res.FinalDamage, defender.MaxHealth())

	critNote := ""
	if res.Critical {
		critNote = " A vicious strike!"
	}
	blockNoteAtk := ""
	blockNoteDef := ""
	if res.Blocked {
		blockNoteAtk = fmt.Sprintf(" %s's shield turns part of the blow.", defender.Name())
		blockNoteDef = " Your shield turns part of the blow."
	}

	res.AttackerMsg = fmt.Sprintf("You %s %s%s for %d damage.%s%s",
		verb2, defender.Name(), weaponPhrase(weapon, true), res.FinalDamage, critNote, blockNoteAtk)
	res.DefenderMsg = fmt.Sprintf("%s %s you%s for %d damage.%s%s",
		attacker.Name(), verb3, weaponPhrase(weapon, false), res.FinalDamage, critNote, blockNoteDef)
	res.RoomMsg = fmt.Sprintf("%s %s %s%s.%s",
		attacker.Name(), verb3, defender.Name(), weaponPhrase(weapon, false), critNote)
}
