// Package combat implements the Emberholt combat daemon: session registry,
// variable-timing round scheduling, attack resolution, wimpy reactions, and
// death hand-off.
//
// Concurrency model: the registry mutex guards only the session map. Round
// execution re-validates the session and both participants after every
// suspension point (scripted reactions, collaborator hooks) instead of
// holding the lock across them; a fired round whose session was removed in
// the meantime is a no-op. Timer cancellation is idempotent.
package combat

// EndReason records why a combat session terminated.
type EndReason string

// Session termination reasons.
const (
	ReasonAttackerDied EndReason = "attacker_died"
	ReasonDefenderDied EndReason = "defender_died"
	ReasonSeparated    EndReason = "separated"
	ReasonFled         EndReason = "fled"
	ReasonStopped      EndReason = "stopped"
)

// clampInt bounds v to [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
