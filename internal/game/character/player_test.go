package character

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberholt/mud/internal/game/combatant"
)

func TestPlayer_ImplementsCombatant(t *testing.T) {
	var _ combatant.Combatant = (*Player)(nil)
}

func TestPlayer_HealthBounds(t *testing.T) {
	p := New("p1", "Alice", 50)

	p.ApplyDamage(60, combatant.Slashing)
	assert.Equal(t, 0, p.Health())
	assert.False(t, p.Alive())

	p.Heal(200)
	assert.Equal(t, 50, p.Health(), "healing caps at maximum")

	p.ApplyDamage(30, combatant.Fire)
	p.Restore()
	assert.Equal(t, 50, p.Health())
}

func TestPlayer_RolesAndNoHassle(t *testing.T) {
	p := New("p1", "Alice", 50)
	assert.False(t, p.Privileged())

	p.SetNoHassle(true)
	assert.False(t, p.NoHassle(), "nohassle requires the staff role")

	p.SetRole(RoleStaff)
	assert.True(t, p.Privileged())
	p.SetNoHassle(true)
	assert.True(t, p.NoHassle())

	p.SetRole(RolePlayer)
	assert.False(t, p.NoHassle(), "demotion clears nohassle")
}

func TestPlayer_Equip(t *testing.T) {
	p := New("p1", "Alice", 50)
	sword := &combatant.Weapon{Name: "sword", Damage: "1d8", Type: combatant.Slashing}
	dirk := &combatant.Weapon{Name: "dirk", Damage: "1d4", Type: combatant.Piercing, Light: true}
	mail := []combatant.Armor{{Name: "chainmail", Rating: 3}}

	p.Equip(sword, dirk, mail, true)

	assert.Equal(t, "sword", p.MainHand().Name)
	assert.Equal(t, "dirk", p.OffHand().Name)
	assert.True(t, p.HasShield())
	require.Len(t, p.WornArmor(), 1)

	// The returned armor slice is a copy.
	worn := p.WornArmor()
	worn[0].Rating = 99
	assert.Equal(t, 3, p.WornArmor()[0].Rating)
}

func TestPlayer_SinkDelivery(t *testing.T) {
	p := New("p1", "Alice", 50)
	p.Receive("dropped") // no sink yet

	var got []string
	p.SetSink(func(msg string) { got = append(got, msg) })
	p.Receive("hello")

	assert.Equal(t, []string{"hello"}, got)
}

func TestPlayer_RecordRoundTrip(t *testing.T) {
	p := New("p1", "Alice", 80)
	p.SetRole(RoleStaff)
	p.MoveTo("square")
	p.ApplyDamage(30, combatant.Cold)
	p.SetStats(combatant.Stats{Level: 7, Strength: 14, Dexterity: 12, Intelligence: 11, Luck: 9})
	p.SetWimpy(combatant.WimpySettings{ThresholdPercent: 25, Reaction: "blink_away"})

	rec := p.Snapshot()
	assert.Equal(t, "p1", rec.ID)
	assert.Equal(t, RoleStaff, rec.Role)
	assert.Equal(t, 50, rec.CurrentHP)
	assert.Equal(t, 7, rec.Level)

	back := FromRecord(rec)
	assert.Equal(t, "Alice", back.Name())
	assert.True(t, back.Privileged())
	assert.Equal(t, "square", back.RoomID())
	assert.Equal(t, 50, back.Health())
	assert.Equal(t, 80, back.MaxHealth())
	assert.Equal(t, 25.0, back.Wimpy().ThresholdPercent)
	assert.Equal(t, "blink_away", back.Wimpy().Reaction)
}
