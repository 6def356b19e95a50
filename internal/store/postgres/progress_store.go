package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vocalis-app/vocalis/internal/store"
)

// UpsertProgress implements [store.ProgressStore]. The ON CONFLICT clause
// makes a repeat attempt at the same word a superseding overwrite of
// accuracy, mastered, level and date — last write wins, by design of the
// progress model.
func (s *Store) UpsertProgress(ctx context.Context, rec store.ProgressRecord) (store.ProgressRecord, error) {
	const q = `
		INSERT INTO progress (learner_id, word, accuracy, mastered, level, date)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (learner_id, word) DO UPDATE SET
		    accuracy = EXCLUDED.accuracy,
		    mastered = EXCLUDED.mastered,
		    level    = EXCLUDED.level,
		    date     = EXCLUDED.date
		RETURNING date`

	err := s.pool.QueryRow(ctx, q,
		rec.LearnerID, rec.Word, rec.Accuracy, rec.Mastered, rec.Level,
	).Scan(&rec.Date)
	if err != nil {
		return store.ProgressRecord{}, fmt.Errorf("progress store: upsert: %w", err)
	}
	return rec, nil
}

// ProgressByLearner implements [store.ProgressStore]. Newest first.
func (s *Store) ProgressByLearner(ctx context.Context, learnerID string) ([]store.ProgressRecord, error) {
	const q = `
		SELECT learner_id, word, accuracy, mastered, level, date
		FROM   progress
		WHERE  learner_id = $1
		ORDER  BY date DESC`

	rows, err := s.pool.Query(ctx, q, learnerID)
	if err != nil {
		return nil, fmt.Errorf("progress store: list: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.ProgressRecord, error) {
		var rec store.ProgressRecord
		err := row.Scan(&rec.LearnerID, &rec.Word, &rec.Accuracy, &rec.Mastered, &rec.Level, &rec.Date)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("progress store: scan rows: %w", err)
	}
	if records == nil {
		records = []store.ProgressRecord{}
	}
	return records, nil
}

// UnmasteredWords implements [store.ProgressStore].
func (s *Store) UnmasteredWords(ctx context.Context, learnerID string) ([]string, error) {
	const q = `
		SELECT word
		FROM   progress
		WHERE  learner_id = $1
		  AND  mastered = FALSE
		ORDER  BY word`

	rows, err := s.pool.Query(ctx, q, learnerID)
	if err != nil {
		return nil, fmt.Errorf("progress store: unmastered: %w", err)
	}

	words, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("progress store: scan rows: %w", err)
	}
	return words, nil
}

// DeleteProgress implements [store.ProgressStore].
func (s *Store) DeleteProgress(ctx context.Context, learnerID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM progress WHERE learner_id = $1`, learnerID)
	if err != nil {
		return 0, fmt.Errorf("progress store: delete: %w", err)
	}
	return tag.RowsAffected(), nil
}
