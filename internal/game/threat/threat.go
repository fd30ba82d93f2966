// Package threat implements the decaying, taunt-overridable threat table an
// NPC uses to pick its target autonomously.
package threat

import (
	"math"
	"time"

	"github.com/emberholt/mud/internal/game/combatant"
)

// Threat weighting multipliers, composed in declaration order by Calculate.
const (
	// MagicMultiplier boosts threat from non-physical damage; magic draws aggro.
	MagicMultiplier = 1.3
	// HealingMultiplier splits threat credit for healing actions.
	HealingMultiplier = 0.5
	// StealthMultiplier dampens threat from stealthed or invisible sources.
	StealthMultiplier = 0.7
)

// Config holds the decay tuning for a Tracker.
type Config struct {
	// FightingDecayRate is the per-second decay while the owner is in combat.
	FightingDecayRate float64
	// IdleDecayRate is the per-second decay while the owner is idle.
	// Idle threat cools off faster than in-fight threat.
	IdleDecayRate float64
	// Floor is the score below which an entry is pruned.
	Floor float64
}

// DefaultConfig returns the standard decay tuning.
func DefaultConfig() Config {
	return Config{
		FightingDecayRate: 0.02,
		IdleDecayRate:     0.10,
		Floor:             5,
	}
}

// CalcOptions carries the source-side modifiers applied by Calculate.
type CalcOptions struct {
	// Healing marks the action as a heal rather than damage.
	Healing bool
	// Modifier is a multiplicative threat effect on the source; <= 0 means none.
	Modifier float64
	// Stealthed marks the source as stealthed or invisible.
	Stealthed bool
}

// Calculate converts an action's magnitude into threat. Magic damage is
// multiplied by MagicMultiplier, healing by HealingMultiplier, any active
// threat-modifier effect multiplicatively, and stealth by StealthMultiplier,
// composed in that order, then floored to an integer.
//
// Precondition: amount >= 0.
// Postcondition: Returns >= 0.
func Calculate(amount int, dtype combatant.DamageType, opts CalcOptions) int {
	v := float64(amount)
	if !dtype.Physical() {
		v *= MagicMultiplier
	}
	if opts.Healing {
		v *= HealingMultiplier
	}
	if opts.Modifier > 0 {
		v *= opts.Modifier
	}
	if opts.Stealthed {
		v *= StealthMultiplier
	}
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return int(math.Floor(v))
}

// CalculateFor derives the CalcOptions from the source's current conditions
// and computes threat for a damage action.
func CalculateFor(source combatant.Combatant, amount int, dtype combatant.DamageType) int {
	cond := source.Conditions()
	return Calculate(amount, dtype, CalcOptions{
		Modifier:  cond.ThreatModifier,
		Stealthed: cond.Stealthed,
	})
}

// entry is one (owner, source) threat record.
type entry struct {
	source      combatant.Combatant
	score       float64
	lastUpdate  time.Time
	taunted     bool
	tauntExpiry time.Time
}

// Tracker is the per-NPC threat table. It is not safe for concurrent use;
// the owning NPC serialises access through its own lock.
//
// Invariant: every stored entry has score >= cfg.Floor at the end of any
// Target call; lower-scoring entries are pruned during evaluation.
type Tracker struct {
	cfg      Config
	entries  map[string]*entry
	fighting bool
}

// NewTracker creates an empty Tracker with the given tuning.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{cfg: cfg, entries: make(map[string]*entry)}
}

// Add accumulates amount threat against source, creating the entry if absent.
// Decay owed since the entry's last update is applied first so scores from
// different moments compose correctly.
//
// Precondition: source must be non-nil; amount >= 0.
func (t *Tracker) Add(source combatant.Combatant, amount int, now time.Time) {
	e, ok := t.entries[source.ID()]
	if !ok {
		e = &entry{source: source, lastUpdate: now}
		t.entries[source.ID()] = e
	}
	t.decay(e, now)
	e.score += float64(amount)
	e.source = source
}

// ApplyTaunt forces source to be the priority target until now+duration,
// regardless of threat magnitude.
//
// Precondition: source must be non-nil; duration > 0.
func (t *Tracker) ApplyTaunt(source combatant.Combatant, duration time.Duration, now time.Time) {
	e, ok := t.entries[source.ID()]
	if !ok {
		e = &entry{source: source, lastUpdate: now}
		t.entries[source.ID()] = e
	}
	e.source = source
	e.taunted = true
	e.tauntExpiry = now.Add(duration)
}

// SetFighting switches the decay regime: slow decay while the owner is
// actively fighting, fast decay while idle.
func (t *Tracker) SetFighting(fighting bool) {
	t.fighting = fighting
}

// Score returns source's current threat after applying owed decay.
// Returns 0 for unknown sources.
func (t *Tracker) Score(sourceID string, now time.Time) float64 {
	e, ok := t.entries[sourceID]
	if !ok {
		return 0
	}
	t.decay(e, now)
	return e.score
}

// Forget removes source's entry entirely.
func (t *Tracker) Forget(sourceID string) {
	delete(t.entries, sourceID)
}

// Len returns the number of live entries.
func (t *Tracker) Len() int {
	return len(t.entries)
}

// Target evaluates the table and returns the owner's best target: the active
// taunter if any taunt is still live, else the highest-threat valid source,
// else nil. Evaluation applies decay, expires stale taunts, and prunes
// entries that fell below the floor or whose source is dead or no longer in
// roomID.
//
// Postcondition: Every surviving entry has score >= cfg.Floor, a live
// source, and source.RoomID() == roomID.
func (t *Tracker) Target(roomID string, now time.Time) combatant.Combatant {
	var taunter, best *entry

	for id, e := range t.entries {
		if e.source == nil || !e.source.Alive() || e.source.RoomID() != roomID {
			delete(t.entries, id)
			continue
		}
		if e.taunted && now.After(e.tauntExpiry) {
			e.taunted = false
		}
		t.decay(e, now)
		if e.score < t.cfg.Floor && !e.taunted {
			delete(t.entries, id)
			continue
		}
		if e.taunted {
			// Latest-expiring taunt wins when several are active.
			if taunter == nil || e.tauntExpiry.After(taunter.tauntExpiry) {
				taunter = e
			}
		}
		if best == nil || e.score > best.score {
			best = e
		}
	}

	if taunter != nil {
		return taunter.source
	}
	if best != nil {
		return best.source
	}
	return nil
}

// decay applies exponential decay owed since e.lastUpdate:
// score *= (1-rate)^secondsElapsed, with the rate chosen by the current
// fighting regime.
func (t *Tracker) decay(e *entry, now time.Time) {
	elapsed := now.Sub(e.lastUpdate).Seconds()
	if elapsed <= 0 {
		return
	}
	rate := t.cfg.IdleDecayRate
	if t.fighting {
		rate = t.cfg.FightingDecayRate
	}
	e.score *= math.Pow(1-rate, elapsed)
	e.lastUpdate = now
}
