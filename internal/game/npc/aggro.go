package npc

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/emberholt/mud/internal/game/combatant"
)

// GrudgeStore persists grudges across restarts. Implemented by the postgres
// grudge repository; nil disables persistence.
type GrudgeStore interface {
	// SaveGrudge upserts a grudge, accumulating intensity on conflict.
	SaveGrudge(ctx context.Context, templateID, playerID string, intensity int, fled bool) error
}

// AggroNotifier is the combat lifecycle listener backing NPC aggro memory:
// escapes become grudges (in memory and optionally persisted), confirmed
// revenge kills clear them.
type AggroNotifier struct {
	npcs   *Manager
	store  GrudgeStore
	logger *zap.Logger
	clock  func() time.Time

	// saveTimeout bounds each persistence write.
	saveTimeout time.Duration
}

// NewAggroNotifier wires an AggroNotifier. store may be nil.
func NewAggroNotifier(npcs *Manager, store GrudgeStore, logger *zap.Logger) *AggroNotifier {
	return &AggroNotifier{
		npcs:        npcs,
		store:       store,
		logger:      logger,
		clock:       time.Now,
		saveTimeout: 5 * time.Second,
	}
}

// CombatStarted is a no-op; assist behaviour is driven by the heartbeat's
// threat evaluation instead.
func (a *AggroNotifier) CombatStarted(attacker, defender combatant.Combatant) {}

// KillConfirmed clears any grudge an NPC killer held against its victim.
func (a *AggroNotifier) KillConfirmed(killer, victim combatant.Combatant) {
	inst, ok := a.npcs.Get(killer.ID())
	if !ok {
		return
	}
	if _, held := inst.GrudgeAgainst(victim.ID()); held {
		inst.ForgetGrudge(victim.ID())
		a.logger.Debug("grudge settled",
			zap.String("npc", inst.ID()),
			zap.String("target", victim.ID()),
		)
	}
}

// GrudgeRecorded stores the escape in the NPC's grudge book and flushes it to
// the persistent store when one is configured.
func (a *AggroNotifier) GrudgeRecorded(npc, target combatant.Combatant, intensity int, fled bool) {
	inst, ok := a.npcs.Get(npc.ID())
	if !ok {
		return
	}
	inst.RecordGrudge(target.ID(), intensity, fled, a.clock())

	if a.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.saveTimeout)
	defer cancel()
	if err := a.store.SaveGrudge(ctx, inst.TemplateID(), target.ID(), intensity, fled); err != nil {
		a.logger.Warn("persisting grudge",
			zap.String("npc", inst.ID()),
			zap.String("target", target.ID()),
			zap.Error(err),
		)
	}
}
