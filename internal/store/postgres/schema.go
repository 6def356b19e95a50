package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ─────────────────────────────────────────────────────────────────────────────
// DDL — identity
// ─────────────────────────────────────────────────────────────────────────────

const ddlLearners = `
CREATE TABLE IF NOT EXISTS learners (
    id            TEXT         PRIMARY KEY,
    name          TEXT         NOT NULL,
    email         TEXT         NOT NULL UNIQUE,
    password_hash TEXT         NOT NULL,
    avatar        TEXT         NOT NULL DEFAULT '🦜',
    created_at    TIMESTAMPTZ  NOT NULL DEFAULT now()
);
`

// ─────────────────────────────────────────────────────────────────────────────
// DDL — content
// ─────────────────────────────────────────────────────────────────────────────

const ddlLevels = `
CREATE TABLE IF NOT EXISTS levels (
    id              TEXT   PRIMARY KEY,
    name            TEXT   NOT NULL,
    description     TEXT   NOT NULL DEFAULT '',
    color           TEXT   NOT NULL DEFAULT '',
    words           JSONB  NOT NULL DEFAULT '[]',
    next_level_id   TEXT   NOT NULL DEFAULT '',
    next_level_name TEXT   NOT NULL DEFAULT '',
    seq             BIGINT GENERATED ALWAYS AS IDENTITY
);
`

// ─────────────────────────────────────────────────────────────────────────────
// DDL — progress, scores, achievements
// ─────────────────────────────────────────────────────────────────────────────

// The (learner_id, word) primary key enforces one progress record per pair;
// upserts go through ON CONFLICT so a repeat attempt overwrites in place.
const ddlProgress = `
CREATE TABLE IF NOT EXISTS progress (
    learner_id TEXT         NOT NULL REFERENCES learners (id) ON DELETE CASCADE,
    word       TEXT         NOT NULL,
    accuracy   INTEGER      NOT NULL,
    mastered   BOOLEAN      NOT NULL DEFAULT FALSE,
    level      TEXT         NOT NULL DEFAULT '',
    date       TIMESTAMPTZ  NOT NULL DEFAULT now(),
    PRIMARY KEY (learner_id, word)
);

CREATE INDEX IF NOT EXISTS idx_progress_learner_mastered
    ON progress (learner_id, mastered);
`

const ddlScores = `
CREATE TABLE IF NOT EXISTS score_submissions (
    id         TEXT         PRIMARY KEY,
    learner_id TEXT         NOT NULL REFERENCES learners (id) ON DELETE CASCADE,
    score      INTEGER      NOT NULL,
    max_combo  INTEGER      NOT NULL DEFAULT 0,
    date       TIMESTAMPTZ  NOT NULL DEFAULT now(),
    seq        BIGINT       GENERATED ALWAYS AS IDENTITY
);

CREATE INDEX IF NOT EXISTS idx_score_submissions_score
    ON score_submissions (score DESC);
`

// The composite primary key is the idempotence guarantee for grants: a
// duplicate insert fails with SQLSTATE 23505 and the caller treats that as
// "already granted".
const ddlAchievements = `
CREATE TABLE IF NOT EXISTS achievement_grants (
    learner_id     TEXT         NOT NULL REFERENCES learners (id) ON DELETE CASCADE,
    achievement_id TEXT         NOT NULL,
    date           TIMESTAMPTZ  NOT NULL DEFAULT now(),
    PRIMARY KEY (learner_id, achievement_id)
);
`

// Migrate creates or ensures all required tables and indexes exist. It is
// idempotent and safe to call on every application start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		ddlLearners,
		ddlLevels,
		ddlProgress,
		ddlScores,
		ddlAchievements,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres migrate: %w", err)
		}
	}
	return nil
}
