package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vocalis-app/vocalis/internal/content"
	"github.com/vocalis-app/vocalis/internal/store"
)

// Level implements [store.LevelStore].
func (s *Store) Level(ctx context.Context, id string) (*content.Level, error) {
	const q = `
		SELECT id, name, description, color, words, next_level_id, next_level_name
		FROM   levels
		WHERE  id = $1`

	level, err := scanLevel(s.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("level store: get %q: %w", id, err)
	}
	return level, nil
}

// Levels implements [store.LevelStore]. Levels are returned in seeding order.
func (s *Store) Levels(ctx context.Context) ([]content.Level, error) {
	const q = `
		SELECT id, name, description, color, words, next_level_id, next_level_name
		FROM   levels
		ORDER  BY seq`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("level store: list: %w", err)
	}
	defer rows.Close()

	var levels []content.Level
	for rows.Next() {
		level, err := scanLevel(rows)
		if err != nil {
			return nil, fmt.Errorf("level store: scan: %w", err)
		}
		levels = append(levels, *level)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("level store: list: %w", err)
	}
	return levels, nil
}

// UpsertLevel implements [store.LevelStore]. Used by content seeding only.
func (s *Store) UpsertLevel(ctx context.Context, level *content.Level) error {
	words, err := json.Marshal(level.Words)
	if err != nil {
		return fmt.Errorf("level store: marshal words: %w", err)
	}

	const q = `
		INSERT INTO levels (id, name, description, color, words, next_level_id, next_level_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
		    name            = EXCLUDED.name,
		    description     = EXCLUDED.description,
		    color           = EXCLUDED.color,
		    words           = EXCLUDED.words,
		    next_level_id   = EXCLUDED.next_level_id,
		    next_level_name = EXCLUDED.next_level_name`

	_, err = s.pool.Exec(ctx, q,
		level.ID,
		level.Name,
		level.Description,
		level.Color,
		words,
		level.NextLevelID,
		level.NextLevelName,
	)
	if err != nil {
		return fmt.Errorf("level store: upsert %q: %w", level.ID, err)
	}
	return nil
}

// scanLevel reads one level row, decoding the JSONB word list with its
// tagged prompt union (bare strings or {text, image} objects).
func scanLevel(row pgx.Row) (*content.Level, error) {
	var (
		l     content.Level
		words []byte
	)
	if err := row.Scan(
		&l.ID, &l.Name, &l.Description, &l.Color,
		&words, &l.NextLevelID, &l.NextLevelName,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(words, &l.Words); err != nil {
		return nil, fmt.Errorf("decode words: %w", err)
	}
	return &l, nil
}
