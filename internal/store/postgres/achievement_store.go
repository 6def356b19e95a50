package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vocalis-app/vocalis/internal/store"
)

// InsertGrant implements [store.AchievementStore]. The insert is attempted
// unconditionally; a unique violation on (learner_id, achievement_id) means
// the grant is already held and comes back as [store.ErrDuplicate]. Two
// concurrent evaluations racing on the same grant therefore cannot both
// succeed — the constraint closes the check-then-insert window atomically.
func (s *Store) InsertGrant(ctx context.Context, learnerID, achievementID string) error {
	const q = `
		INSERT INTO achievement_grants (learner_id, achievement_id)
		VALUES ($1, $2)`

	if _, err := s.pool.Exec(ctx, q, learnerID, achievementID); err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("achievement store: insert grant: %w", err)
	}
	return nil
}

// GrantsByLearner implements [store.AchievementStore]. Ordered by grant date.
func (s *Store) GrantsByLearner(ctx context.Context, learnerID string) ([]store.AchievementGrant, error) {
	const q = `
		SELECT learner_id, achievement_id, date
		FROM   achievement_grants
		WHERE  learner_id = $1
		ORDER  BY date`

	rows, err := s.pool.Query(ctx, q, learnerID)
	if err != nil {
		return nil, fmt.Errorf("achievement store: list grants: %w", err)
	}

	grants, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.AchievementGrant, error) {
		var g store.AchievementGrant
		err := row.Scan(&g.LearnerID, &g.AchievementID, &g.Date)
		return g, err
	})
	if err != nil {
		return nil, fmt.Errorf("achievement store: scan rows: %w", err)
	}
	if grants == nil {
		grants = []store.AchievementGrant{}
	}
	return grants, nil
}
