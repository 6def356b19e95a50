package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vocalis-app/vocalis/internal/store"
)

// CreateLearner implements [store.LearnerStore]. A duplicate email surfaces
// as [store.ErrDuplicate] via the unique constraint, not an upfront check.
func (s *Store) CreateLearner(ctx context.Context, learner *store.Learner) error {
	const q = `
		INSERT INTO learners (id, name, email, password_hash, avatar)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := s.pool.QueryRow(ctx, q,
		learner.ID,
		learner.Name,
		strings.ToLower(learner.Email),
		learner.PasswordHash,
		learner.Avatar,
	).Scan(&learner.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("learner store: create: %w", err)
	}
	return nil
}

// LearnerByEmail implements [store.LearnerStore].
func (s *Store) LearnerByEmail(ctx context.Context, email string) (*store.Learner, error) {
	return s.learnerBy(ctx, "email = $1", strings.ToLower(email))
}

// LearnerByID implements [store.LearnerStore].
func (s *Store) LearnerByID(ctx context.Context, id string) (*store.Learner, error) {
	return s.learnerBy(ctx, "id = $1", id)
}

func (s *Store) learnerBy(ctx context.Context, cond string, arg any) (*store.Learner, error) {
	q := `
		SELECT id, name, email, password_hash, avatar, created_at
		FROM   learners
		WHERE  ` + cond

	var l store.Learner
	err := s.pool.QueryRow(ctx, q, arg).Scan(
		&l.ID, &l.Name, &l.Email, &l.PasswordHash, &l.Avatar, &l.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("learner store: query: %w", err)
	}
	return &l, nil
}
