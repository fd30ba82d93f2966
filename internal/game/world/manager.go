package world

import (
	"fmt"
	"sync"

	"github.com/emberholt/mud/internal/game/combatant"
	"github.com/emberholt/mud/internal/game/dice"
)

// Manager provides thread-safe access to the loaded world state and tracks
// which combatants occupy which rooms. It indexes rooms across all zones for
// O(1) lookup by room ID.
type Manager struct {
	mu        sync.RWMutex
	zones     map[string]*Zone
	rooms     map[string]*Room
	occupants map[string]map[string]combatant.Combatant // roomID → entityID → entity
	startRoom string
}

// NewManager creates a Manager from the given zones.
//
// Precondition: zones must contain at least one zone; the first zone's start
// room is the global start room.
// Postcondition: Returns a Manager with all rooms indexed by ID, or an error
// on duplicate zone or room IDs.
func NewManager(zones []*Zone) (*Manager, error) {
	m := &Manager{
		zones:     make(map[string]*Zone, len(zones)),
		rooms:     make(map[string]*Room),
		occupants: make(map[string]map[string]combatant.Combatant),
	}

	for _, z := range zones {
		if _, exists := m.zones[z.ID]; exists {
			return nil, fmt.Errorf("duplicate zone ID: %q", z.ID)
		}
		m.zones[z.ID] = z
		for id, room := range z.Rooms {
			if existing, exists := m.rooms[id]; exists {
				return nil, fmt.Errorf("duplicate room ID %q: in zone %q and %q", id, existing.ZoneID, z.ID)
			}
			m.rooms[id] = room
		}
	}

	if len(zones) > 0 {
		m.startRoom = zones[0].StartRoom
	}

	return m, nil
}

// ValidateExits checks that every exit target in every room resolves to a
// known room across all loaded zones.
//
// Postcondition: Returns nil if all exits resolve, or an error naming the
// first dangling target.
func (m *Manager) ValidateExits() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, zone := range m.zones {
		for _, room := range zone.Rooms {
			for _, exit := range room.Exits {
				if _, ok := m.rooms[exit.TargetRoom]; !ok {
					return fmt.Errorf("zone %q: room %q: exit %q targets unknown room %q",
						zone.ID, room.ID, exit.Direction, exit.TargetRoom)
				}
			}
		}
	}
	return nil
}

// GetRoom returns the room with the given ID.
//
// Postcondition: Returns (room, true) if found, or (nil, false) otherwise.
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// StartRoom returns the global start room.
//
// Postcondition: Returns the start room or nil if the world is empty.
func (m *Manager) StartRoom() *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.startRoom == "" {
		return nil
	}
	return m.rooms[m.startRoom]
}

// RoomCount returns the total number of rooms across all zones.
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// ZoneCount returns the number of loaded zones.
func (m *Manager) ZoneCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.zones)
}

// Enter registers c as an occupant of roomID, removing it from any previous
// room. The entity's own RoomID bookkeeping is the caller's responsibility.
//
// Precondition: c must be non-nil; roomID should exist in the world.
func (m *Manager) Enter(c combatant.Combatant, roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, set := range m.occupants {
		delete(set, c.ID())
	}
	if m.occupants[roomID] == nil {
		m.occupants[roomID] = make(map[string]combatant.Combatant)
	}
	m.occupants[roomID][c.ID()] = c
}

// Leave removes c from the occupancy index entirely (death, disconnect).
func (m *Manager) Leave(c combatant.Combatant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for roomID, set := range m.occupants {
		delete(set, c.ID())
		if len(set) == 0 {
			delete(m.occupants, roomID)
		}
	}
}

// Occupants returns a snapshot of all combatants in roomID.
//
// Postcondition: Returns a non-nil slice (may be empty).
func (m *Manager) Occupants(roomID string) []combatant.Combatant {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := m.occupants[roomID]
	out := make([]combatant.Combatant, 0, len(set))
	for _, c := range set {
		out = append(out, c)
	}
	return out
}

// Broadcast delivers msg to every occupant of roomID except the listed IDs.
// Combat uses this for the room-facing third of every attack message.
func (m *Manager) Broadcast(roomID, msg string, exclude ...string) {
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	m.mu.RLock()
	set := m.occupants[roomID]
	targets := make([]combatant.Combatant, 0, len(set))
	for id, c := range set {
		if !skip[id] {
			targets = append(targets, c)
		}
	}
	m.mu.RUnlock()

	// Deliver outside the lock; Receive may be arbitrarily slow.
	for _, c := range targets {
		c.Receive(msg)
	}
}

// Navigate moves c through the named exit of its current room, updating both
// the occupancy index and the entity's own room bookkeeping.
//
// Postcondition: Returns (targetRoomID, true) on success; ("", false) when
// the room is unknown or has no passable exit in that direction, leaving c
// where it was.
func (m *Manager) Navigate(c combatant.Combatant, dir Direction) (string, bool) {
	m.mu.RLock()
	room, ok := m.rooms[c.RoomID()]
	m.mu.RUnlock()
	if !ok {
		return "", false
	}
	exit, ok := room.ExitForDirection(dir)
	if !ok || exit.Locked {
		return "", false
	}
	m.Enter(c, exit.TargetRoom)
	c.MoveTo(exit.TargetRoom)
	return exit.TargetRoom, true
}

// RandomExit picks a uniformly random passable exit from roomID, used for
// automatic flee movement.
//
// Postcondition: Returns (exit, true) when at least one passable exit exists,
// or (Exit{}, false) otherwise.
func (m *Manager) RandomExit(roomID string, src dice.Source) (Exit, bool) {
	m.mu.RLock()
	room, ok := m.rooms[roomID]
	m.mu.RUnlock()
	if !ok {
		return Exit{}, false
	}
	open := room.PassableExits()
	if len(open) == 0 {
		return Exit{}, false
	}
	return open[src.Intn(len(open))], true
}
