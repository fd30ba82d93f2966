package combat

import (
	"go.uber.org/zap"

	"github.com/emberholt/mud/internal/game/combatant"
)

// checkWimpy evaluates c's automatic defensive reaction after a round of
// damage. When c's health has dropped below its wimpy threshold, the
// configured scripted reaction runs first; if no script handles it (or the
// script fails), c attempts to flee through a random passable exit.
//
// Postcondition: Returns true iff a reaction or flee ended c's combats; the
// caller must not touch the round's session afterwards.
func (r *Registry) checkWimpy(c combatant.Combatant) bool {
	w := c.Wimpy()
	if w.ThresholdPercent <= 0 || !c.Alive() {
		return false
	}
	if combatant.HealthPercent(c) >= w.ThresholdPercent {
		return false
	}

	if w.Reaction != "" && r.deps.Reactions != nil {
		handled, err := r.deps.Reactions.RunReaction(w.Reaction, c)
		if err != nil {
			r.deps.Logger.Warn("wimpy reaction failed",
				zap.String("entity", c.ID()),
				zap.String("reaction", w.Reaction),
				zap.Error(err),
			)
		} else if handled {
			r.endAllWithReason(c, ReasonFled)
			return true
		}
	}

	return r.AttemptFlee(c)
}

// AttemptFlee tries to move c out of its current room through a random
// passable exit, ending all of c's combats with a fled reason first so
// pursuing NPCs record a grudge.
//
// Postcondition: Returns true iff c changed rooms; on failure c stays put
// and its sessions are untouched.
func (r *Registry) AttemptFlee(c combatant.Combatant) bool {
	if c.Conditions().LegsDisabled {
		c.Receive("Your legs won't carry you!")
		return false
	}

	exit, ok := r.deps.World.RandomExit(c.RoomID(), r.deps.Source)
	if !ok {
		c.Receive("There is nowhere to flee!")
		return false
	}

	from := c.RoomID()
	r.endAllWithReason(c, ReasonFled)

	c.Receive("You flee " + string(exit.Direction) + "!")
	r.deps.World.Broadcast(from, c.Name()+" flees "+string(exit.Direction)+"!", c.ID())

	if _, moved := r.deps.World.Navigate(c, exit.Direction); !moved {
		// Exit vanished between selection and movement; treat as a plain
		// escape to the target room.
		r.deps.World.Enter(c, exit.TargetRoom)
		c.MoveTo(exit.TargetRoom)
	}

	r.deps.Logger.Info("entity fled combat",
		zap.String("entity", c.ID()),
		zap.String("from", from),
		zap.String("to", exit.TargetRoom),
		zap.String("direction", string(exit.Direction)),
	)
	return true
}
