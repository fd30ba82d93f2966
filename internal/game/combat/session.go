package combat

import (
	"time"

	"github.com/google/uuid"

	"github.com/emberholt/mud/internal/game/combatant"
)

// sessionKey identifies one directional combat relationship. A mutual fight
// is two sessions with mirrored keys.
type sessionKey struct {
	attacker string
	defender string
}

// Session is one directional, time-boxed combat relationship.
//
// Invariant: at most one Session exists per ordered (attacker, defender)
// pair; it is created by Initiate and deleted on death, separation, or flee.
// A deleted session is never resurrected.
type Session struct {
	// ID uniquely identifies this session for logging.
	ID uuid.UUID
	// Attacker initiated (or retaliated into) this session.
	Attacker combatant.Combatant
	// Defender is the target of Attacker's rounds.
	Defender combatant.Combatant
	// StartedAt is when Initiate created the session.
	StartedAt time.Time
	// Round counts executed rounds, starting at 0.
	Round int
	// NextRoundAt is when the currently armed round will fire.
	NextRoundAt time.Time

	// timer is the single outstanding deferred round callback.
	timer *RoundTimer
}

// Entry is the read-only view of a Session returned to callers.
type Entry struct {
	SessionID   uuid.UUID
	AttackerID  string
	DefenderID  string
	StartedAt   time.Time
	Round       int
	NextRoundAt time.Time
}

// entry snapshots the session for external consumption.
func (s *Session) entry() Entry {
	return Entry{
		SessionID:   s.ID,
		AttackerID:  s.Attacker.ID(),
		DefenderID:  s.Defender.ID(),
		StartedAt:   s.StartedAt,
		Round:       s.Round,
		NextRoundAt: s.NextRoundAt,
	}
}
