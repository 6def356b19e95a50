package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vocalis-app/vocalis/internal/store"
)

// InsertScore implements [store.ScoreStore]. Submissions are append-only.
func (s *Store) InsertScore(ctx context.Context, sub *store.ScoreSubmission) error {
	const q = `
		INSERT INTO score_submissions (id, learner_id, score, max_combo)
		VALUES ($1, $2, $3, $4)
		RETURNING date`

	err := s.pool.QueryRow(ctx, q, sub.ID, sub.LearnerID, sub.Score, sub.MaxCombo).Scan(&sub.Date)
	if err != nil {
		return fmt.Errorf("score store: insert: %w", err)
	}
	return nil
}

// TopScores implements [store.ScoreStore]. Equal scores fall back to
// insertion order, which is documented as non-deterministic for callers.
func (s *Store) TopScores(ctx context.Context, limit int) ([]store.RankedScore, error) {
	const q = `
		SELECT sub.id, sub.learner_id, sub.score, sub.max_combo, sub.date,
		       l.name, l.avatar
		FROM   score_submissions sub
		JOIN   learners l ON l.id = sub.learner_id
		ORDER  BY sub.score DESC, sub.seq
		LIMIT  $1`

	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("score store: top: %w", err)
	}

	ranked, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.RankedScore, error) {
		var rs store.RankedScore
		err := row.Scan(&rs.ID, &rs.LearnerID, &rs.Score, &rs.MaxCombo, &rs.Date,
			&rs.LearnerName, &rs.LearnerAvatar)
		return rs, err
	})
	if err != nil {
		return nil, fmt.Errorf("score store: scan rows: %w", err)
	}
	if ranked == nil {
		ranked = []store.RankedScore{}
	}
	return ranked, nil
}
