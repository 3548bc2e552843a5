package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrations run in order exactly once; applied versions are tracked in
// schema_migrations.
var migrations = []struct {
	version string
	ddl     string
}{
	{
		version: "001_rituals",
		ddl: `
CREATE TABLE IF NOT EXISTS rituals (
    ritual_id       UUID PRIMARY KEY,
    owner_id        TEXT NOT NULL,
    name            TEXT NOT NULL,
    category        TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    location        TEXT NOT NULL DEFAULT '',
    gear            TEXT[] NOT NULL DEFAULT '{}',
    visibility      TEXT NOT NULL DEFAULT 'private',
    scheduled_time  TEXT NOT NULL DEFAULT '',
    forked_from_id  UUID REFERENCES rituals(ritual_id) ON DELETE SET NULL,
    fork_count      INTEGER NOT NULL DEFAULT 0,
    completion_count INTEGER NOT NULL DEFAULT 0,
    is_active       BOOLEAN NOT NULL DEFAULT TRUE,
    created_at      TIMESTAMPTZ NOT NULL,
    updated_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rituals_owner ON rituals(owner_id);
CREATE INDEX IF NOT EXISTS idx_rituals_visibility ON rituals(visibility) WHERE visibility = 'public';

CREATE TABLE IF NOT EXISTS frequency_rules (
    ritual_id       UUID PRIMARY KEY REFERENCES rituals(ritual_id) ON DELETE CASCADE,
    freq_type       TEXT NOT NULL,
    freq_interval   INTEGER NOT NULL DEFAULT 1,
    days_of_week    INTEGER[] NOT NULL DEFAULT '{}',
    specific_dates  DATE[] NOT NULL DEFAULT '{}'
);`,
	},
	{
		version: "002_steps",
		ddl: `
CREATE TABLE IF NOT EXISTS step_definitions (
    step_id              UUID PRIMARY KEY,
    ritual_id            UUID NOT NULL REFERENCES rituals(ritual_id) ON DELETE CASCADE,
    name                 TEXT NOT NULL,
    step_type            TEXT NOT NULL,
    is_required          BOOLEAN NOT NULL DEFAULT TRUE,
    order_index          INTEGER NOT NULL,
    target_count         DOUBLE PRECISION,
    quantity             TEXT,
    counter_target_seconds INTEGER,
    timer_target_seconds INTEGER,
    min_value            INTEGER,
    max_value            INTEGER,
    UNIQUE (ritual_id, order_index)
);

CREATE TABLE IF NOT EXISTS workout_exercises (
    exercise_id   UUID PRIMARY KEY,
    step_id       UUID NOT NULL REFERENCES step_definitions(step_id) ON DELETE CASCADE,
    exercise_name TEXT NOT NULL,
    measurement   TEXT NOT NULL,
    order_index   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS workout_sets (
    set_id            UUID PRIMARY KEY,
    exercise_id       UUID NOT NULL REFERENCES workout_exercises(exercise_id) ON DELETE CASCADE,
    set_number        INTEGER NOT NULL,
    target_weight_kg  DOUBLE PRECISION,
    target_reps       INTEGER,
    target_seconds    INTEGER,
    target_distance_m DOUBLE PRECISION
);`,
	},
	{
		version: "003_completions",
		ddl: `
CREATE TABLE IF NOT EXISTS ritual_completions (
    completion_id  UUID PRIMARY KEY,
    ritual_id      UUID NOT NULL REFERENCES rituals(ritual_id) ON DELETE CASCADE,
    user_id        TEXT NOT NULL,
    scheduled_date DATE NOT NULL,
    completed_at   TIMESTAMPTZ NOT NULL,
    notes          TEXT NOT NULL DEFAULT '',
    UNIQUE (user_id, ritual_id, scheduled_date)
);
CREATE INDEX IF NOT EXISTS idx_completions_user_date ON ritual_completions(user_id, scheduled_date);

CREATE TABLE IF NOT EXISTS step_responses (
    response_id        UUID PRIMARY KEY,
    completion_id      UUID NOT NULL REFERENCES ritual_completions(completion_id) ON DELETE CASCADE,
    step_definition_id UUID NOT NULL,
    response_type      TEXT NOT NULL,
    value_boolean      BOOLEAN,
    actual_count       DOUBLE PRECISION,
    answer             TEXT,
    actual_seconds     INTEGER,
    scale_response     INTEGER,
    skipped            BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS workout_set_responses (
    set_response_id   UUID PRIMARY KEY,
    response_id       UUID NOT NULL REFERENCES step_responses(response_id) ON DELETE CASCADE,
    workout_set_id    UUID NOT NULL,
    actual_weight_kg  DOUBLE PRECISION,
    actual_reps       INTEGER,
    actual_seconds    INTEGER,
    actual_distance_m DOUBLE PRECISION
);`,
	},
	{
		version: "004_streaks_outbox",
		ddl: `
CREATE TABLE IF NOT EXISTS user_streaks (
    user_id             TEXT PRIMARY KEY,
    current_streak      INTEGER NOT NULL DEFAULT 0,
    longest_streak      INTEGER NOT NULL DEFAULT 0,
    last_completed_date DATE,
    updated_at          TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS outbox (
    event_id      BIGSERIAL PRIMARY KEY,
    aggregate_id  TEXT NOT NULL,
    event_type    TEXT NOT NULL,
    topic         TEXT NOT NULL,
    partition_key TEXT NOT NULL,
    payload       JSONB NOT NULL,
    dedupe_key    TEXT NOT NULL UNIQUE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    claimed_at    TIMESTAMPTZ,
    published_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_outbox_unpublished ON outbox(event_id) WHERE published_at IS NULL;`,
	},
}

// Migrate applies pending schema migrations in order.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS schema_migrations (
            version    TEXT PRIMARY KEY,
            applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, migration := range migrations {
		var exists bool
		if err := pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)`, migration.version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", migration.version, err)
		}
		if exists {
			continue
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, migration.ddl); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("apply migration %s: %w", migration.version, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, migration.version); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("record migration %s: %w", migration.version, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return err
		}
	}
	return nil
}
