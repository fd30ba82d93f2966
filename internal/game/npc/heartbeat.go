package npc

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/emberholt/mud/internal/game/combatant"
	"github.com/emberholt/mud/internal/game/world"
)

// Initiator is the slice of the combat registry the heartbeat needs.
type Initiator interface {
	Initiate(attacker, defender combatant.Combatant) bool
}

// Heartbeat drives autonomous NPC behaviour on a fixed pulse: threat-table
// target acquisition, aggression and grudge pursuit, and respawn ticking.
type Heartbeat struct {
	npcs     *Manager
	world    *world.Manager
	respawns *RespawnManager
	combat   Initiator
	logger   *zap.Logger
	interval time.Duration
}

// NewHeartbeat wires a Heartbeat.
//
// Precondition: all collaborators must be non-nil; interval > 0.
func NewHeartbeat(npcs *Manager, w *world.Manager, respawns *RespawnManager, combat Initiator, logger *zap.Logger, interval time.Duration) *Heartbeat {
	return &Heartbeat{
		npcs:     npcs,
		world:    w,
		respawns: respawns,
		combat:   combat,
		logger:   logger,
		interval: interval,
	}
}

// Run pulses until ctx is cancelled. It owns respawn ticking, so no other
// goroutine may call RespawnManager.Tick concurrently.
func (h *Heartbeat) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.Pulse(now)
		}
	}
}

// Pulse executes one heartbeat: respawns due NPCs, then lets every idle
// instance pick a target.
func (h *Heartbeat) Pulse(now time.Time) {
	h.respawns.Tick(now, h.npcs)

	for _, inst := range h.npcs.All() {
		if !inst.Alive() || inst.InCombat() {
			continue
		}
		target := h.pickTarget(inst, now)
		if target == nil {
			continue
		}
		if h.combat.Initiate(inst, target) {
			h.logger.Debug("npc acquired target",
				zap.String("npc", inst.ID()),
				zap.String("target", target.ID()),
			)
		}
	}
}

// pickTarget chooses who inst should attack this pulse: the threat table's
// verdict first, then the most-hated grudge target present in the room, then
// any player for aggressive templates.
func (h *Heartbeat) pickTarget(inst *Instance, now time.Time) combatant.Combatant {
	if target := inst.AcquireTarget(now); target != nil {
		return target
	}

	occupants := h.world.Occupants(inst.RoomID())

	var revenge combatant.Combatant
	var worst int
	for _, occ := range occupants {
		if !occ.IsPlayer() || !occ.Alive() {
			continue
		}
		if g, ok := inst.GrudgeAgainst(occ.ID()); ok && g.Intensity > worst {
			revenge, worst = occ, g.Intensity
		}
	}
	if revenge != nil {
		return revenge
	}

	if inst.Aggressive() {
		for _, occ := range occupants {
			if occ.IsPlayer() && occ.Alive() {
				return occ
			}
		}
	}
	return nil
}
