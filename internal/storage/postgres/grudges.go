package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Grudge is a persisted record of hostility an NPC template holds toward a
// player who escaped combat. Instances of the template consult it on spawn
// so the hostility survives both despawn and server restarts.
type Grudge struct {
	NPCTemplateID string
	PlayerID      string
	Intensity     int
	Fled          bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ErrGrudgeNotFound is returned when a grudge lookup yields no results.
var ErrGrudgeNotFound = errors.New("grudge not found")

// GrudgeRepository provides grudge persistence operations.
type GrudgeRepository struct {
	db *pgxpool.Pool
}

// NewGrudgeRepository creates a GrudgeRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewGrudgeRepository(db *pgxpool.Pool) *GrudgeRepository {
	return &GrudgeRepository{db: db}
}

// SaveGrudge records hostility from an NPC template toward a player. Repeat
// escapes accumulate: the intensity is added to any existing row, and the
// fled flag latches once set.
//
// Precondition: templateID and playerID must be non-empty; intensity >= 0.
// Postcondition: A row exists for (templateID, playerID) with the summed
// intensity.
func (r *GrudgeRepository) SaveGrudge(ctx context.Context, templateID, playerID string, intensity int, fled bool) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO grudges (npc_template_id, player_id, intensity, fled)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (npc_template_id, player_id) DO UPDATE
		SET intensity  = grudges.intensity + EXCLUDED.intensity,
		    fled       = grudges.fled OR EXCLUDED.fled,
		    updated_at = NOW()`,
		templateID, playerID, intensity, fled,
	)
	if err != nil {
		return fmt.Errorf("saving grudge: %w", err)
	}
	return nil
}

// Get retrieves the grudge an NPC template holds toward a player.
//
// Postcondition: Returns the Grudge or ErrGrudgeNotFound.
func (r *GrudgeRepository) Get(ctx context.Context, templateID, playerID string) (Grudge, error) {
	var g Grudge
	err := r.db.QueryRow(ctx, `
		SELECT npc_template_id, player_id, intensity, fled, created_at, updated_at
		FROM grudges WHERE npc_template_id = $1 AND player_id = $2`,
		templateID, playerID,
	).Scan(&g.NPCTemplateID, &g.PlayerID, &g.Intensity, &g.Fled, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Grudge{}, ErrGrudgeNotFound
		}
		return Grudge{}, fmt.Errorf("querying grudge: %w", err)
	}
	return g, nil
}

// ListByTemplate returns all grudges held by one NPC template, strongest
// first. Spawn logic uses this to seed new instances of the template.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *GrudgeRepository) ListByTemplate(ctx context.Context, templateID string) ([]Grudge, error) {
	rows, err := r.db.Query(ctx, `
		SELECT npc_template_id, player_id, intensity, fled, created_at, updated_at
		FROM grudges WHERE npc_template_id = $1
		ORDER BY intensity DESC`,
		templateID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing grudges: %w", err)
	}
	defer rows.Close()

	grudges := make([]Grudge, 0)
	for rows.Next() {
		var g Grudge
		if err := rows.Scan(
			&g.NPCTemplateID, &g.PlayerID, &g.Intensity, &g.Fled,
			&g.CreatedAt, &g.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning grudge row: %w", err)
		}
		grudges = append(grudges, g)
	}
	return grudges, rows.Err()
}

// Settle removes a grudge, typically after the NPC kills the player and the
// score is even.
//
// Postcondition: Returns nil on success, ErrGrudgeNotFound if no row existed.
func (r *GrudgeRepository) Settle(ctx context.Context, templateID, playerID string) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM grudges WHERE npc_template_id = $1 AND player_id = $2`,
		templateID, playerID,
	)
	if err != nil {
		return fmt.Errorf("settling grudge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrGrudgeNotFound
	}
	return nil
}
