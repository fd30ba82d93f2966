package npc

import (
	"time"

	"go.uber.org/zap"

	"github.com/emberholt/mud/internal/game/combatant"
	"github.com/emberholt/mud/internal/game/world"
)

// DeathHandler removes dead NPC instances from the world and schedules their
// respawn. The combat registry guarantees the victim's sessions are already
// fully unregistered when HandleDeath runs. Non-NPC victims pass through
// untouched.
type DeathHandler struct {
	npcs     *Manager
	world    *world.Manager
	respawns *RespawnManager
	logger   *zap.Logger
	clock    func() time.Time
}

// NewDeathHandler wires a DeathHandler.
//
// Precondition: npcs, w, respawns, and logger must be non-nil.
func NewDeathHandler(npcs *Manager, w *world.Manager, respawns *RespawnManager, logger *zap.Logger) *DeathHandler {
	return &DeathHandler{
		npcs:     npcs,
		world:    w,
		respawns: respawns,
		logger:   logger,
		clock:    time.Now,
	}
}

// HandleDeath unregisters an NPC victim and queues its respawn.
func (h *DeathHandler) HandleDeath(victim, killer combatant.Combatant) {
	inst, ok := h.npcs.Get(victim.ID())
	if !ok {
		return
	}

	roomID := inst.RoomID()
	h.world.Leave(inst)
	if err := h.npcs.Remove(inst.ID()); err != nil {
		h.logger.Warn("removing dead npc", zap.String("npc", inst.ID()), zap.Error(err))
		return
	}

	delay := h.respawns.ResolvedDelay(inst.TemplateID(), roomID)
	h.respawns.Schedule(inst.TemplateID(), roomID, h.clock(), delay)

	h.logger.Info("npc died",
		zap.String("npc", inst.ID()),
		zap.String("template", inst.TemplateID()),
		zap.String("killer", killer.ID()),
		zap.String("room", roomID),
		zap.Duration("respawn_in", delay),
	)
}
