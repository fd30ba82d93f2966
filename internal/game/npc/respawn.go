package npc

import (
	"sync"
	"time"

	"github.com/emberholt/mud/internal/game/world"
)

// RoomSpawn holds the resolved spawn configuration for one NPC template in one room.
//
// Invariant: Max >= 1; RespawnDelay == 0 means the room defers to the template.
type RoomSpawn struct {
	// TemplateID is the NPC template to spawn.
	TemplateID string
	// Max is the population cap: respawn is suppressed when live count >= Max.
	Max int
	// RespawnDelay overrides the template's respawn delay when non-zero.
	RespawnDelay time.Duration
}

// SpawnsFromZones converts the zone files' spawn blocks into the room-indexed
// form the RespawnManager consumes. Unparseable respawn overrides fall back
// to the template default.
func SpawnsFromZones(zones []*world.Zone) map[string][]RoomSpawn {
	spawns := make(map[string][]RoomSpawn)
	for _, z := range zones {
		for roomID, room := range z.Rooms {
			for _, sc := range room.Spawns {
				rs := RoomSpawn{TemplateID: sc.Template, Max: sc.Count}
				if rs.Max < 1 {
					rs.Max = 1
				}
				if sc.RespawnAfter != "" {
					if d, err := time.ParseDuration(sc.RespawnAfter); err == nil {
						rs.RespawnDelay = d
					}
				}
				spawns[roomID] = append(spawns[roomID], rs)
			}
		}
	}
	return spawns
}

// respawnEntry represents a single pending respawn.
type respawnEntry struct {
	templateID string
	roomID     string
	readyAt    time.Time
}

// RespawnManager schedules and executes NPC respawns.
//
// Concurrency: Tick and PopulateRoom must not be called concurrently with
// each other or with themselves; Schedule may be called from any goroutine.
// In practice PopulateRoom runs during single-threaded startup and Tick is
// driven by one heartbeat goroutine.
type RespawnManager struct {
	mu        sync.RWMutex
	spawns    map[string][]RoomSpawn // roomID → configs
	templates map[string]*Template   // templateID → Template
	pending   []respawnEntry

	// onSpawn runs for every instance this manager creates, letting the
	// wiring register it with world occupancy. Nil means no hook.
	onSpawn func(*Instance)
}

// NewRespawnManager creates a RespawnManager from room spawn configs, a
// template index, and an optional per-spawn hook.
//
// Precondition: spawns and templates may be nil (manager becomes a no-op).
func NewRespawnManager(spawns map[string][]RoomSpawn, templates map[string]*Template, onSpawn func(*Instance)) *RespawnManager {
	if spawns == nil {
		spawns = make(map[string][]RoomSpawn)
	}
	if templates == nil {
		templates = make(map[string]*Template)
	}
	return &RespawnManager{
		spawns:    spawns,
		templates: templates,
		onSpawn:   onSpawn,
	}
}

// PopulateRoom enforces the population cap for each RoomSpawn config in
// roomID: excess instances are removed, then new ones spawned up to the cap.
//
// Precondition: mgr must not be nil.
// Postcondition: for each template config in roomID, the live count equals
// Max (subject to Spawn succeeding).
func (r *RespawnManager) PopulateRoom(roomID string, mgr *Manager) {
	r.mu.RLock()
	configs := append([]RoomSpawn(nil), r.spawns[roomID]...)
	r.mu.RUnlock()

	for _, cfg := range configs {
		// r.templates is read-only after construction; no lock required.
		tmpl, ok := r.templates[cfg.TemplateID]
		if !ok {
			continue
		}

		instances := mgr.InstancesInRoom(roomID)
		var matching []*Instance
		for _, inst := range instances {
			if inst.TemplateID() == cfg.TemplateID {
				matching = append(matching, inst)
			}
		}
		for len(matching) > cfg.Max {
			last := matching[len(matching)-1]
			matching = matching[:len(matching)-1]
			_ = mgr.Remove(last.ID())
		}

		for i := len(matching); i < cfg.Max; i++ {
			inst, err := mgr.Spawn(tmpl, roomID)
			if err != nil {
				// Non-fatal; the next PopulateRoom call retries.
				continue
			}
			if r.onSpawn != nil {
				r.onSpawn(inst)
			}
		}
	}
}

// Schedule enqueues a future respawn for templateID in roomID to fire at
// now+delay. No-op when delay <= 0 (template does not respawn).
func (r *RespawnManager) Schedule(templateID, roomID string, now time.Time, delay time.Duration) {
	if delay <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, respawnEntry{
		templateID: templateID,
		roomID:     roomID,
		readyAt:    now.Add(delay),
	})
}

// Tick drains all entries whose readyAt <= now, checks the population cap for
// each, and spawns up to the remaining capacity.
//
// Precondition: mgr must not be nil.
// Postcondition: pending entries with readyAt <= now are consumed.
func (r *RespawnManager) Tick(now time.Time, mgr *Manager) {
	r.mu.Lock()
	var ready, future []respawnEntry
	for _, e := range r.pending {
		if !e.readyAt.After(now) {
			ready = append(ready, e)
		} else {
			future = append(future, e)
		}
	}
	r.pending = future
	r.mu.Unlock()

	for _, e := range ready {
		tmpl, ok := r.templates[e.templateID]
		if !ok {
			continue
		}
		cfg, ok := r.configFor(e.roomID, e.templateID)
		if !ok {
			continue
		}
		if r.countInRoom(e.roomID, e.templateID, mgr) >= cfg.Max {
			continue
		}
		inst, err := mgr.Spawn(tmpl, e.roomID)
		if err != nil {
			continue
		}
		if r.onSpawn != nil {
			r.onSpawn(inst)
		}
	}
}

// ResolvedDelay returns the effective respawn delay for templateID in roomID:
// the room override if non-zero, otherwise the template's parsed delay.
// Returns 0 when neither is set or the template is unknown.
func (r *RespawnManager) ResolvedDelay(templateID, roomID string) time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cfg := range r.spawns[roomID] {
		if cfg.TemplateID == templateID && cfg.RespawnDelay > 0 {
			return cfg.RespawnDelay
		}
	}
	tmpl, ok := r.templates[templateID]
	if !ok || tmpl.RespawnDelay == "" {
		return 0
	}
	d, err := time.ParseDuration(tmpl.RespawnDelay)
	if err != nil {
		return 0
	}
	return d
}

// configFor finds the RoomSpawn config for templateID in roomID.
func (r *RespawnManager) configFor(roomID, templateID string) (RoomSpawn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cfg := range r.spawns[roomID] {
		if cfg.TemplateID == templateID {
			return cfg, true
		}
	}
	return RoomSpawn{}, false
}

// countInRoom counts live instances of templateID in roomID.
func (r *RespawnManager) countInRoom(roomID, templateID string, mgr *Manager) int {
	count := 0
	for _, inst := range mgr.InstancesInRoom(roomID) {
		if inst.TemplateID() == templateID {
			count++
		}
	}
	return count
}
