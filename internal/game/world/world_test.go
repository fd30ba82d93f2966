package world_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberholt/mud/internal/game/combatant/combatanttest"
	"github.com/emberholt/mud/internal/game/world"
)

// fixedSource always returns the same value (mod n).
type fixedSource struct{ v int }

func (f fixedSource) Intn(n int) int { return f.v % n }

func testZone() *world.Zone {
	return &world.Zone{
		ID:        "crypt",
		Name:      "The Crypt",
		StartRoom: "antechamber",
		Rooms: map[string]*world.Room{
			"antechamber": {
				ID:     "antechamber",
				ZoneID: "crypt",
				Title:  "Antechamber",
				Exits: []world.Exit{
					{Direction: world.North, TargetRoom: "ossuary"},
					{Direction: world.East, TargetRoom: "ossuary", Locked: true},
					{Direction: world.Down, TargetRoom: "ossuary", Hidden: true},
				},
			},
			"ossuary": {
				ID:     "ossuary",
				ZoneID: "crypt",
				Title:  "Ossuary",
				Exits: []world.Exit{
					{Direction: world.South, TargetRoom: "antechamber"},
				},
			},
		},
	}
}

func TestZone_Validate(t *testing.T) {
	z := testZone()
	require.NoError(t, z.Validate())

	z.StartRoom = "nowhere"
	assert.Error(t, z.Validate())
}

func TestManager_RejectsDuplicateRooms(t *testing.T) {
	z1 := testZone()
	z2 := testZone()
	z2.ID = "crypt2"
	_, err := world.NewManager([]*world.Zone{z1, z2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate room ID")
}

func TestRoom_PassableExits(t *testing.T) {
	z := testZone()
	open := z.Rooms["antechamber"].PassableExits()
	require.Len(t, open, 1, "locked and hidden exits are not passable")
	assert.Equal(t, world.North, open[0].Direction)
}

func TestManager_OccupancyAndBroadcast(t *testing.T) {
	m, err := world.NewManager([]*world.Zone{testZone()})
	require.NoError(t, err)

	a := combatanttest.New("alice")
	b := combatanttest.New("bob")
	c := combatanttest.New("carol")
	m.Enter(a, "antechamber")
	m.Enter(b, "antechamber")
	m.Enter(c, "ossuary")

	m.Broadcast("antechamber", "Something stirs.", "alice")

	assert.Empty(t, a.Received(), "excluded occupant hears nothing")
	assert.Equal(t, []string{"Something stirs."}, b.Received())
	assert.Empty(t, c.Received(), "other rooms hear nothing")
}

func TestManager_EnterMovesBetweenRooms(t *testing.T) {
	m, err := world.NewManager([]*world.Zone{testZone()})
	require.NoError(t, err)

	a := combatanttest.New("alice")
	m.Enter(a, "antechamber")
	m.Enter(a, "ossuary")

	assert.Empty(t, m.Occupants("antechamber"))
	require.Len(t, m.Occupants("ossuary"), 1)

	m.Leave(a)
	assert.Empty(t, m.Occupants("ossuary"))
}

func TestManager_Navigate(t *testing.T) {
	m, err := world.NewManager([]*world.Zone{testZone()})
	require.NoError(t, err)

	a := combatanttest.New("alice")
	m.Enter(a, "antechamber")
	a.MoveTo("antechamber")

	to, ok := m.Navigate(a, world.North)
	require.True(t, ok)
	assert.Equal(t, "ossuary", to)
	assert.Equal(t, "ossuary", a.RoomID())
	require.Len(t, m.Occupants("ossuary"), 1)

	_, ok = m.Navigate(a, world.West)
	assert.False(t, ok, "no such exit")
	assert.Equal(t, "ossuary", a.RoomID())

	a.MoveTo("antechamber")
	m.Enter(a, "antechamber")
	_, ok = m.Navigate(a, world.East)
	assert.False(t, ok, "locked exits are not navigable")
}

func TestManager_RandomExit(t *testing.T) {
	m, err := world.NewManager([]*world.Zone{testZone()})
	require.NoError(t, err)

	exit, ok := m.RandomExit("antechamber", fixedSource{0})
	require.True(t, ok)
	assert.Equal(t, world.North, exit.Direction, "only passable exits are candidates")

	_, ok = m.RandomExit("missing", fixedSource{0})
	assert.False(t, ok)
}

func TestLoadZoneFromBytes(t *testing.T) {
	data := []byte(`
zone:
  id: crypt
  name: The Crypt
  start_room: antechamber
  rooms:
    - id: antechamber
      title: Antechamber
      description: Dust and old bones.
      exits:
        - direction: north
          target: ossuary
      spawns:
        - template: skeleton
          count: 2
          respawn_after: 30s
    - id: ossuary
      title: Ossuary
      description: Stacked femurs line the walls.
      exits:
        - direction: south
          target: antechamber
`)
	z, err := world.LoadZoneFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, "crypt", z.ID)
	require.Contains(t, z.Rooms, "antechamber")
	require.Len(t, z.Rooms["antechamber"].Spawns, 1)
	assert.Equal(t, "skeleton", z.Rooms["antechamber"].Spawns[0].Template)
	assert.Equal(t, 2, z.Rooms["antechamber"].Spawns[0].Count)

	m, err := world.NewManager([]*world.Zone{z})
	require.NoError(t, err)
	assert.NoError(t, m.ValidateExits())
	assert.Equal(t, 2, m.RoomCount())
}

func TestLoadZoneFromBytes_InvalidZone(t *testing.T) {
	_, err := world.LoadZoneFromBytes([]byte("zone:\n  id: broken\n"))
	require.Error(t, err)
}
