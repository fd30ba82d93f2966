package combat

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emberholt/mud/internal/config"
	"github.com/emberholt/mud/internal/game/combatant"
	"github.com/emberholt/mud/internal/game/dice"
	"github.com/emberholt/mud/internal/game/world"
)

// Deps bundles the collaborators the Registry consumes. World, Source, and
// Logger are required; the rest default to no-op implementations.
type Deps struct {
	World     *world.Manager
	Source    dice.Source
	Logger    *zap.Logger
	Policy    Policy
	Notifier  Notifier
	Deaths    DeathHandler
	Reactions ReactionRunner
	// Clock returns the current time; defaults to time.Now. Injectable for
	// tests.
	Clock func() time.Time
}

// Registry is the combat daemon: the sole authority over the set of live
// combat sessions. It orchestrates round scheduling and attack resolution
// per tick and invokes reaction handlers.
//
// Invariant: the session map is the single source of truth; no state derived
// from it survives a suspension point without re-validation.
type Registry struct {
	mu       sync.Mutex
	cfg      config.CombatConfig
	deps     Deps
	resolver *Resolver
	sessions map[sessionKey]*Session
	// retaliations holds the pending auto-retaliation arm per prospective
	// session key, so sweeping a participant cancels it.
	retaliations map[sessionKey]*RoundTimer
}

// NewRegistry creates an empty Registry.
//
// Precondition: deps.World, deps.Source, and deps.Logger must be non-nil.
// Postcondition: Returns a ready Registry with no live sessions; nil
// optional collaborators are replaced with no-op defaults.
func NewRegistry(cfg config.CombatConfig, deps Deps) *Registry {
	if deps.Policy == nil {
		deps.Policy = PolicyFunc(func() bool { return cfg.PlayerKilling })
	}
	if deps.Notifier == nil {
		deps.Notifier = NopNotifier{}
	}
	if deps.Deaths == nil {
		deps.Deaths = NopDeathHandler{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Registry{
		cfg:          cfg,
		deps:         deps,
		resolver:     NewResolver(deps.Source, deps.Logger),
		sessions:     make(map[sessionKey]*Session),
		retaliations: make(map[sessionKey]*RoundTimer),
	}
}

// Initiate attempts to start combat from attacker against defender. Each
// precondition failure rejects with a user-facing reason (except the silent
// nohassle case); on success the session is created, the first round armed,
// and both participants and the room notified.
//
// Postcondition: Returns true iff a new session now exists for the ordered
// (attacker, defender) pair.
func (r *Registry) Initiate(attacker, defender combatant.Combatant) bool {
	if attacker == nil || defender == nil || attacker.ID() == defender.ID() {
		return false
	}
	key := sessionKey{attacker: attacker.ID(), defender: defender.ID()}

	r.mu.Lock()
	_, exists := r.sessions[key]
	r.mu.Unlock()
	if exists {
		attacker.Receive("You are already fighting " + defender.Name() + ".")
		return false
	}

	if !attacker.Alive() {
		attacker.Receive("You are in no condition to fight.")
		return false
	}
	if !defender.Alive() {
		attacker.Receive(defender.Name() + " is already dead.")
		return false
	}
	if attacker.RoomID() != defender.RoomID() {
		attacker.Receive(defender.Name() + " is not here.")
		return false
	}

	pvp := r.deps.Policy.PlayerKillingEnabled()
	if attacker.IsPlayer() && defender.IsPlayer() && !pvp {
		attacker.Receive("Player killing is not permitted here.")
		return false
	}
	if defender.Privileged() && !attacker.Privileged() {
		if attacker.IsPlayer() {
			attacker.Receive("You cannot bring yourself to attack " + defender.Name() + ".")
			return false
		}
		if defender.NoHassle() {
			// Autonomous attacker; rejected silently.
			return false
		}
	}
	if defender.GuardianID() != "" && !pvp {
		attacker.Receive(defender.Name() + " is under another's protection and refuses to fight.")
		return false
	}

	now := r.deps.Clock()
	s := &Session{
		ID:        uuid.New(),
		Attacker:  attacker,
		Defender:  defender,
		StartedAt: now,
	}

	r.mu.Lock()
	if _, exists := r.sessions[key]; exists {
		r.mu.Unlock()
		return false
	}
	r.sessions[key] = s
	attacker.SetInCombat(true)
	attacker.SetTargetID(defender.ID())
	r.armRoundLocked(key, s)
	r.mu.Unlock()

	// A short-delay retaliation keeps an attacked NPC from recursing into
	// Initiate within the same call stack. The arm is tracked so that
	// sweeping either participant cancels it; a fired callback re-checks its
	// own handle under the lock and backs off when it has been replaced or
	// swept.
	if !defender.IsPlayer() && !defender.InCombat() {
		retKey := sessionKey{attacker: defender.ID(), defender: attacker.ID()}
		r.mu.Lock()
		if prior, tracked := r.retaliations[retKey]; tracked {
			prior.Stop()
		}
		var arm *RoundTimer
		arm = NewRoundTimer(r.cfg.RetaliationDelay(), func() {
			r.mu.Lock()
			if r.retaliations[retKey] != arm {
				r.mu.Unlock()
				return
			}
			delete(r.retaliations, retKey)
			_, already := r.sessions[retKey]
			r.mu.Unlock()
			if !already {
				r.Initiate(defender, attacker)
			}
		})
		r.retaliations[retKey] = arm
		r.mu.Unlock()
	}

	attacker.Receive("You attack " + defender.Name() + "!")
	defender.Receive(attacker.Name() + " attacks you!")
	r.deps.World.Broadcast(attacker.RoomID(),
		fmt.Sprintf("%s attacks %s!", attacker.Name(), defender.Name()),
		attacker.ID(), defender.ID())

	go dispatch(r.deps.Logger, "combat_started", func() {
		r.deps.Notifier.CombatStarted(attacker, defender)
	})

	r.deps.Logger.Info("combat initiated",
		zap.String("session_id", s.ID.String()),
		zap.String("attacker", attacker.ID()),
		zap.String("defender", defender.ID()),
	)
	return true
}

// EndCombat cancels the scheduled round, clears attacker combat-state, and
// removes the session for the ordered pair.
//
// Postcondition: Returns true iff a session existed and was removed.
func (r *Registry) EndCombat(attacker, defender combatant.Combatant) bool {
	key := sessionKey{attacker: attacker.ID(), defender: defender.ID()}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	if !ok {
		return false
	}
	r.removeSessionLocked(key, s, ReasonStopped)
	return true
}

// EndAllCombats removes every session where entity is attacker or defender,
// clearing combat-state on a counterpart only if that counterpart's current
// target is entity. Used on death, disconnect, and flee.
func (r *Registry) EndAllCombats(entity combatant.Combatant) {
	r.endAllWithReason(entity, ReasonStopped)
}

func (r *Registry) endAllWithReason(entity combatant.Combatant, reason EndReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, s := range r.sessions {
		if key.attacker == entity.ID() || key.defender == entity.ID() {
			r.removeSessionLocked(key, s, reason)
		}
	}
	for key, arm := range r.retaliations {
		if key.attacker == entity.ID() || key.defender == entity.ID() {
			arm.Stop()
			delete(r.retaliations, key)
		}
	}
}

// AreInCombat reports whether a session exists for the ordered pair.
func (r *Registry) AreInCombat(attackerID, defenderID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[sessionKey{attacker: attackerID, defender: defenderID}]
	return ok
}

// InCombat reports whether entityID participates in any live session.
func (r *Registry) InCombat(entityID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.sessions {
		if key.attacker == entityID || key.defender == entityID {
			return true
		}
	}
	return false
}

// GetCombatEntry returns a read-only snapshot of the session for the ordered
// pair.
//
// Postcondition: Returns (entry, true) if the session exists, or
// (Entry{}, false) otherwise.
func (r *Registry) GetCombatEntry(attackerID, defenderID string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionKey{attacker: attackerID, defender: defenderID}]
	if !ok {
		return Entry{}, false
	}
	return s.entry(), true
}

// SessionCount returns the number of live sessions.
func (r *Registry) SessionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// armRoundLocked computes a fresh round delay for the session's attacker and
// arms the single deferred callback, cancelling any stale arm first.
//
// Precondition: r.mu must be held.
func (r *Registry) armRoundLocked(key sessionKey, s *Session) {
	delay := CalculateRoundTime(s.Attacker, r.cfg)
	s.NextRoundAt = r.deps.Clock().Add(delay)
	fire := func() { r.executeRound(key) }
	if s.timer != nil {
		s.timer.Reset(delay, fire)
	} else {
		s.timer = NewRoundTimer(delay, fire)
	}
}

// removeSessionLocked cancels the timer, deletes the session, conditionally
// clears the attacker's combat-state, and records a grudge when a player
// escaped a pursuing NPC.
//
// Precondition: r.mu must be held; s must be the live session for key.
func (r *Registry) removeSessionLocked(key sessionKey, s *Session, reason EndReason) {
	if s.timer != nil {
		s.timer.Stop()
	}
	delete(r.sessions, key)

	if s.Attacker.TargetID() == s.Defender.ID() {
		s.Attacker.SetInCombat(false)
		s.Attacker.SetTargetID("")
	}

	if (reason == ReasonFled || reason == ReasonSeparated) &&
		!s.Attacker.IsPlayer() && s.Defender.IsPlayer() {
		if sink, ok := s.Attacker.(ThreatSink); ok {
			npc, target := s.Attacker, s.Defender
			intensity := int(sink.ThreatScore(target.ID()))
			fled := reason == ReasonFled
			go dispatch(r.deps.Logger, "grudge_recorded", func() {
				r.deps.Notifier.GrudgeRecorded(npc, target, intensity, fled)
			})
		}
	}

	r.deps.Logger.Info("combat ended",
		zap.String("session_id", s.ID.String()),
		zap.String("attacker", key.attacker),
		zap.String("defender", key.defender),
		zap.String("reason", string(reason)),
		zap.Int("rounds", s.Round),
	)
}

// executeRound is the scheduled entry point for one combat round. The
// session may have been removed between scheduling and firing; that is a
// no-op, not an error.
func (r *Registry) executeRound(key sessionKey) {
	r.mu.Lock()
	s, ok := r.sessions[key]
	if !ok {
		r.mu.Unlock()
		return
	}
	attacker, defender := s.Attacker, s.Defender

	switch {
	case !attacker.Alive():
		r.removeSessionLocked(key, s, ReasonAttackerDied)
		r.mu.Unlock()
		return
	case !defender.Alive():
		r.removeSessionLocked(key, s, ReasonDefenderDied)
		r.mu.Unlock()
		return
	case attacker.RoomID() != defender.RoomID():
		r.removeSessionLocked(key, s, ReasonSeparated)
		r.mu.Unlock()
		attacker.Receive(defender.Name() + " is no longer here.")
		return
	}
	s.Round++
	round := s.Round
	r.mu.Unlock()

	result := r.resolver.ResolveRound(attacker, defender)
	r.deliverRound(attacker, defender, result)

	r.deps.Logger.Debug("combat round",
		zap.String("session_id", s.ID.String()),
		zap.Int("round", round),
		zap.Int("attacks", len(result.Attacks)),
		zap.Bool("attacker_died", result.AttackerDied),
		zap.Bool("defender_died", result.DefenderDied),
	)

	// Wimpy checks: defender first, then attacker. A triggered reaction or
	// flee short-circuits the remainder of the round, but never a death from
	// this round: the hand-off must still run or the victim is never removed
	// from the world. Both checks are suspension points; everything after
	// re-validates through the registry.
	if r.checkWimpy(defender) {
		if result.AttackerDied {
			r.handleDeath(attacker, defender, ReasonAttackerDied)
		}
		return
	}
	if !result.AttackerDied && r.checkWimpy(attacker) {
		if result.DefenderDied {
			r.handleDeath(defender, attacker, ReasonDefenderDied)
		}
		return
	}

	if result.DefenderDied {
		r.handleDeath(defender, attacker, ReasonDefenderDied)
		if result.AttackerDied {
			r.handleDeath(attacker, defender, ReasonAttackerDied)
		}
		return
	}
	if result.AttackerDied {
		r.handleDeath(attacker, defender, ReasonAttackerDied)
		return
	}

	// Re-arm with a freshly computed delay; attacker speed may have changed.
	// The session may have been removed while unlocked (cross-session
	// mutation); only re-arm the exact session we resolved.
	r.mu.Lock()
	if live, ok := r.sessions[key]; ok && live == s {
		r.armRoundLocked(key, s)
	}
	r.mu.Unlock()
}

// deliverRound sends the three message perspectives for every swing, or the
// skip notification for a lost round.
func (r *Registry) deliverRound(attacker, defender combatant.Combatant, result RoundResult) {
	if result.Skipped {
		attacker.Receive(result.SkipMsg)
		defender.Receive(attacker.Name() + " struggles but cannot attack.")
		return
	}
	for _, a := range result.Attacks {
		attacker.Receive(a.AttackerMsg)
		defender.Receive(a.DefenderMsg)
		r.deps.World.Broadcast(attacker.RoomID(), a.RoomMsg, attacker.ID(), defender.ID())
	}
}

// handleDeath fully unregisters every session involving victim, then hands
// off to the death lifecycle collaborator. The hand-off never observes a
// dangling scheduled round.
func (r *Registry) handleDeath(victim, killer combatant.Combatant, reason EndReason) {
	r.endAllWithReason(victim, reason)

	victim.Receive("You have been slain by " + killer.Name() + "!")
	killer.Receive("You have slain " + victim.Name() + "!")
	r.deps.World.Broadcast(victim.RoomID(),
		victim.Name()+" falls to the ground, dead!",
		victim.ID(), killer.ID())

	go dispatch(r.deps.Logger, "kill_confirmed", func() {
		r.deps.Notifier.KillConfirmed(killer, victim)
	})
	dispatch(r.deps.Logger, "death_handler", func() {
		r.deps.Deaths.HandleDeath(victim, killer)
	})
}
