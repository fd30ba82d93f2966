package combat

import (
	"math"
	"sync"
	"time"

	"github.com/emberholt/mud/internal/config"
	"github.com/emberholt/mud/internal/game/combatant"
)

// CalculateRoundTime computes the delay until attacker's next combat round:
// base / max(0.5, 1 + attackSpeed + weaponSpeed), adjusted by
// -(dexterity-10)/5 * 100ms, multiplied by (1 + attackSpeedPenalty) when
// encumbered, clamped to [RoundMin, RoundMax]. It is recomputed every round
// rather than cached, since equipment and buffs change mid-fight.
//
// Postcondition: Returns a duration in [cfg.RoundMin(), cfg.RoundMax()].
// Invalid stat data (NaN, infinities) degrades to the base round time before
// clamping, never propagates.
func CalculateRoundTime(attacker combatant.Combatant, cfg config.CombatConfig) time.Duration {
	stats := attacker.Stats()
	cond := attacker.Conditions()

	weaponSpeed := 0.0
	if w := attacker.MainHand(); w != nil {
		weaponSpeed = w.Speed
	}

	divisor := 1 + stats.AttackSpeed + weaponSpeed
	if divisor < 0.5 {
		divisor = 0.5
	}

	ms := float64(cfg.RoundBaseMs) / divisor
	ms -= float64(stats.Dexterity-10) / 5 * 100
	if cond.Encumbered {
		ms *= 1 + cond.AttackSpeedPenalty
	}

	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		ms = float64(cfg.RoundBaseMs)
	}

	d := time.Duration(ms) * time.Millisecond
	if d < cfg.RoundMin() {
		d = cfg.RoundMin()
	}
	if d > cfg.RoundMax() {
		d = cfg.RoundMax()
	}
	return d
}

// RoundTimer fires a callback after a configurable duration unless stopped.
// It is safe for concurrent use. At most one callback is outstanding per
// timer; Reset cancels the previous arm before installing the next, and
// stopping an already-fired or already-stopped timer is a no-op.
type RoundTimer struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// NewRoundTimer creates and starts a timer that calls onFire after duration.
// onFire is called in a separate goroutine.
//
// Precondition: duration > 0; onFire must not be nil.
// Postcondition: Returns a running RoundTimer; onFire will be called unless
// Stop is called first.
func NewRoundTimer(duration time.Duration, onFire func()) *RoundTimer {
	rt := &RoundTimer{}
	rt.timer = time.AfterFunc(duration, func() {
		rt.mu.Lock()
		stopped := rt.stopped
		rt.mu.Unlock()
		if !stopped {
			onFire()
		}
	})
	return rt
}

// Reset cancels the current arm and starts a new one with the provided
// duration and callback.
//
// Precondition: duration > 0; onFire must not be nil.
// Postcondition: onFire will be called after duration from now unless Stop is
// called first.
func (rt *RoundTimer) Reset(duration time.Duration, onFire func()) {
	rt.mu.Lock()
	rt.stopped = false
	rt.timer.Stop()
	rt.mu.Unlock()

	newTimer := time.AfterFunc(duration, func() {
		rt.mu.Lock()
		s := rt.stopped
		rt.mu.Unlock()
		if !s {
			onFire()
		}
	})

	rt.mu.Lock()
	rt.timer = newTimer
	rt.mu.Unlock()
}

// Stop prevents the callback from firing. Safe to call multiple times.
//
// Postcondition: onFire will not be called after Stop returns.
func (rt *RoundTimer) Stop() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.stopped = true
	rt.timer.Stop()
}
