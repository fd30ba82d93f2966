package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emberholt/mud/internal/game/character"
)

// ErrCharacterNotFound is returned when a character lookup yields no results.
var ErrCharacterNotFound = errors.New("character not found")

// ErrCharacterNameTaken is returned when creating a character with a name
// already used by the account.
var ErrCharacterNameTaken = errors.New("character name already taken")

// CharacterRepository persists character records. The game holds the live
// Player objects; rows are written on logout and after each combat round
// settles, and read back on login.
type CharacterRepository struct {
	db *pgxpool.Pool
}

// NewCharacterRepository creates a CharacterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// Create inserts a new character owned by accountID.
//
// Precondition: rec.ID must be a unique identifier (the caller generates it);
// accountID must reference an existing account.
// Postcondition: Returns the record with timestamps set, or
// ErrCharacterNameTaken if the account already has a character named rec.Name.
func (r *CharacterRepository) Create(ctx context.Context, accountID int64, rec character.Record) (character.Record, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO characters
			(id, account_id, name, role, room_id, current_hp, max_hp, level,
			 wimpy_threshold, wimpy_reaction)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		rec.ID, accountID, rec.Name, string(rec.Role), rec.RoomID,
		rec.CurrentHP, rec.MaxHP, rec.Level,
		rec.WimpyThreshold, rec.WimpyReaction,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return character.Record{}, ErrCharacterNameTaken
		}
		return character.Record{}, fmt.Errorf("inserting character: %w", err)
	}
	return rec, nil
}

// GetByID retrieves a character by its identifier.
//
// Precondition: id must be non-empty.
// Postcondition: Returns the record or ErrCharacterNotFound.
func (r *CharacterRepository) GetByID(ctx context.Context, id string) (character.Record, error) {
	var rec character.Record
	var role string
	err := r.db.QueryRow(ctx, `
		SELECT id, name, role, room_id, current_hp, max_hp, level,
		       wimpy_threshold, wimpy_reaction, created_at, updated_at
		FROM characters WHERE id = $1`,
		id,
	).Scan(
		&rec.ID, &rec.Name, &role, &rec.RoomID,
		&rec.CurrentHP, &rec.MaxHP, &rec.Level,
		&rec.WimpyThreshold, &rec.WimpyReaction,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return character.Record{}, ErrCharacterNotFound
		}
		return character.Record{}, fmt.Errorf("querying character: %w", err)
	}
	rec.Role = character.Role(role)
	return rec, nil
}

// ListByAccount returns all characters owned by the given account, ordered
// by creation time.
//
// Precondition: accountID must be > 0.
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *CharacterRepository) ListByAccount(ctx context.Context, accountID int64) ([]character.Record, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, role, room_id, current_hp, max_hp, level,
		       wimpy_threshold, wimpy_reaction, created_at, updated_at
		FROM characters WHERE account_id = $1 ORDER BY created_at ASC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	defer rows.Close()

	recs := make([]character.Record, 0)
	for rows.Next() {
		var rec character.Record
		var role string
		if err := rows.Scan(
			&rec.ID, &rec.Name, &role, &rec.RoomID,
			&rec.CurrentHP, &rec.MaxHP, &rec.Level,
			&rec.WimpyThreshold, &rec.WimpyReaction,
			&rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		rec.Role = character.Role(role)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// SaveState persists the mutable parts of a character snapshot: room,
// health, level, role, and wimpy settings.
//
// Precondition: rec.ID must identify an existing row.
// Postcondition: Returns nil on success, ErrCharacterNotFound if no row
// was updated.
func (r *CharacterRepository) SaveState(ctx context.Context, rec character.Record) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE characters
		SET role = $2, room_id = $3, current_hp = $4, max_hp = $5, level = $6,
		    wimpy_threshold = $7, wimpy_reaction = $8, updated_at = NOW()
		WHERE id = $1`,
		rec.ID, string(rec.Role), rec.RoomID, rec.CurrentHP, rec.MaxHP,
		rec.Level, rec.WimpyThreshold, rec.WimpyReaction,
	)
	if err != nil {
		return fmt.Errorf("saving character state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCharacterNotFound
	}
	return nil
}
