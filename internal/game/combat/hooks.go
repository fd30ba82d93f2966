package combat

import (
	"go.uber.org/zap"

	"github.com/emberholt/mud/internal/game/combatant"
)

// Policy supplies the player-versus-player configuration toggle.
type Policy interface {
	// PlayerKillingEnabled reports whether players may attack each other.
	PlayerKillingEnabled() bool
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func() bool

// PlayerKillingEnabled calls f.
func (f PolicyFunc) PlayerKillingEnabled() bool { return f() }

// Notifier receives fire-and-forget combat lifecycle notifications for the
// party, quest, and aggro-memory collaborators. Combat never blocks on or
// depends on the success of these hooks; failures (including panics) are
// isolated and logged.
type Notifier interface {
	// CombatStarted fires after Initiate succeeds, letting allied
	// participants auto-assist.
	CombatStarted(attacker, defender combatant.Combatant)
	// KillConfirmed fires after a death has been fully unregistered, for
	// kill-objective bookkeeping.
	KillConfirmed(killer, victim combatant.Combatant)
	// GrudgeRecorded fires when a player escapes a pursuing NPC, with
	// intensity derived from accumulated threat. fled distinguishes a wimpy
	// flee from mere separation.
	GrudgeRecorded(npc, target combatant.Combatant, intensity int, fled bool)
}

// NopNotifier is the default Notifier; every hook is a no-op.
type NopNotifier struct{}

func (NopNotifier) CombatStarted(attacker, defender combatant.Combatant)                  {}
func (NopNotifier) KillConfirmed(killer, victim combatant.Combatant)                      {}
func (NopNotifier) GrudgeRecorded(npc, target combatant.Combatant, intensity int, fled bool) {}

// DeathHandler is the external death lifecycle collaborator: corpse creation,
// loot, respawn scheduling. The registry guarantees the session is fully
// unregistered and combat-state cleared before HandleDeath is invoked, so
// death handling never observes a dangling scheduled round.
type DeathHandler interface {
	HandleDeath(victim, killer combatant.Combatant)
}

// NopDeathHandler is the default DeathHandler; it does nothing.
type NopDeathHandler struct{}

func (NopDeathHandler) HandleDeath(victim, killer combatant.Combatant) {}

// ReactionRunner executes a combatant's scripted wimpy reaction. Execution
// is a suspension point: registry state may change while the script runs,
// and the caller re-validates afterwards.
type ReactionRunner interface {
	// RunReaction executes the named reaction for actor and reports whether
	// it handled the situation. An error counts as unhandled.
	RunReaction(name string, actor combatant.Combatant) (bool, error)
}

// ThreatSink is implemented by entities that track threat (NPCs). The
// resolver feeds damage-derived threat through it; session teardown reads
// accumulated scores for grudge intensity.
type ThreatSink interface {
	AddThreat(source combatant.Combatant, amount int)
	ThreatScore(sourceID string) float64
}

// dispatch runs hook inside a recover guard so a panicking collaborator
// cannot corrupt combat state.
func dispatch(logger *zap.Logger, name string, hook func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("combat hook panicked",
				zap.String("hook", name),
				zap.Any("panic", r),
			)
		}
	}()
	hook()
}
