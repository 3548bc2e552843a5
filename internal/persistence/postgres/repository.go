// Package postgres provides pgx-backed persistence for rituals,
// completions, streaks and outbox events.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/ritual/internal/domain"
	"example.com/ritual/internal/events"
	"example.com/ritual/internal/observability"
)

const topicRitualEvents = "ritual_events"

// Repository implements domain.Repository and the streak sweep store
// over Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CreateRitual persists the ritual, its frequency rule and its steps in
// one transaction.
func (r *Repository) CreateRitual(ctx context.Context, ritual domain.RitualDefinition) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if err = insertRitualTree(ctx, tx, ritual); err != nil {
		return err
	}
	err = tx.Commit(ctx)
	return err
}

// GetRitual loads a ritual and its full step tree, nil when absent.
func (r *Repository) GetRitual(ctx context.Context, ritualID string) (*domain.RitualDefinition, error) {
	rituals, err := r.queryRituals(ctx, `WHERE r.ritual_id = $1`, ritualID)
	if err != nil {
		return nil, err
	}
	if len(rituals) == 0 {
		return nil, nil
	}
	if err := r.attachSteps(ctx, rituals); err != nil {
		return nil, err
	}
	return &rituals[0], nil
}

// UpdateRitual replaces mutable fields, the frequency rule and the
// entire step list in one transaction. Counters stay untouched.
func (r *Repository) UpdateRitual(ctx context.Context, ritual domain.RitualDefinition) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	tag, execErr := tx.Exec(ctx, `
        UPDATE rituals SET name=$2, category=$3, description=$4, location=$5,
            gear=$6, visibility=$7, scheduled_time=$8, is_active=$9, updated_at=$10
        WHERE ritual_id=$1`,
		ritual.ID, ritual.Name, string(ritual.Category), ritual.Description, ritual.Location,
		ritual.Gear, string(ritual.Visibility), ritual.ScheduledTime, ritual.IsActive, ritual.UpdatedAt,
	)
	if execErr != nil {
		err = execErr
		return err
	}
	if tag.RowsAffected() == 0 {
		err = domain.ErrRitualNotFound
		return err
	}

	if _, err = tx.Exec(ctx, `DELETE FROM step_definitions WHERE ritual_id=$1`, ritual.ID); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `DELETE FROM frequency_rules WHERE ritual_id=$1`, ritual.ID); err != nil {
		return err
	}
	if err = insertFrequency(ctx, tx, ritual.ID, ritual.Frequency); err != nil {
		return err
	}
	if err = insertSteps(ctx, tx, ritual.Steps); err != nil {
		return err
	}
	err = tx.Commit(ctx)
	return err
}

// DeleteRitual removes the ritual; steps, frequency rule and
// completions go with it by cascade.
func (r *Repository) DeleteRitual(ctx context.Context, ritualID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM rituals WHERE ritual_id=$1`, ritualID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRitualNotFound
	}
	return nil
}

// ListVisible returns the user's own rituals plus public ones, step
// trees included.
func (r *Repository) ListVisible(ctx context.Context, userID string) ([]domain.RitualDefinition, error) {
	rituals, err := r.queryRituals(ctx, `WHERE r.owner_id = $1 OR r.visibility = 'public'`, userID)
	if err != nil {
		return nil, err
	}
	if err := r.attachSteps(ctx, rituals); err != nil {
		return nil, err
	}
	return rituals, nil
}

// CompletionsOn returns the user's completion rows for a calendar date.
// Step responses are not loaded; schedule resolution needs only the
// completion itself.
func (r *Repository) CompletionsOn(ctx context.Context, userID string, date time.Time) ([]domain.RitualCompletion, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT completion_id, ritual_id, user_id, scheduled_date, completed_at, notes
        FROM ritual_completions
        WHERE user_id=$1 AND scheduled_date=$2`,
		userID, domain.DateOf(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RitualCompletion
	for rows.Next() {
		var completion domain.RitualCompletion
		if err := rows.Scan(&completion.ID, &completion.RitualID, &completion.UserID,
			&completion.ScheduledDate, &completion.CompletedAt, &completion.Notes); err != nil {
			return nil, err
		}
		out = append(out, completion)
	}
	return out, rows.Err()
}

// CreateCompletion records the completion and everything that hangs off
// it atomically: per-step responses, per-set workout rows, the ritual's
// completion counter, the user's streak and the outbox event. The
// duplicate check shares the transaction with the insert, and the
// unique index on (user_id, ritual_id, scheduled_date) is the final
// backstop under concurrent requests.
func (r *Repository) CreateCompletion(ctx context.Context, completion domain.RitualCompletion) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	var exists bool
	if err = tx.QueryRow(ctx, `
        SELECT EXISTS(SELECT 1 FROM ritual_completions
            WHERE user_id=$1 AND ritual_id=$2 AND scheduled_date=$3)`,
		completion.UserID, completion.RitualID, domain.DateOf(completion.ScheduledDate),
	).Scan(&exists); err != nil {
		return err
	}
	if exists {
		err = domain.ErrDuplicateCompletion
		return err
	}

	if _, err = tx.Exec(ctx, `
        INSERT INTO ritual_completions (completion_id, ritual_id, user_id, scheduled_date, completed_at, notes)
        VALUES ($1,$2,$3,$4,$5,$6)`,
		completion.ID, completion.RitualID, completion.UserID,
		domain.DateOf(completion.ScheduledDate), completion.CompletedAt, completion.Notes,
	); err != nil {
		if isUniqueViolation(err) {
			err = domain.ErrDuplicateCompletion
		}
		return err
	}

	for _, resp := range completion.Responses {
		if _, err = tx.Exec(ctx, `
            INSERT INTO step_responses (response_id, completion_id, step_definition_id, response_type,
                value_boolean, actual_count, answer, actual_seconds, scale_response, skipped)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			resp.ID, completion.ID, resp.StepDefinitionID, string(resp.Type),
			resp.ValueBoolean, resp.ActualCount, resp.Answer, resp.ActualSeconds, resp.ScaleResponse, resp.Skipped,
		); err != nil {
			return err
		}
		for _, set := range resp.Sets {
			if _, err = tx.Exec(ctx, `
                INSERT INTO workout_set_responses (set_response_id, response_id, workout_set_id,
                    actual_weight_kg, actual_reps, actual_seconds, actual_distance_m)
                VALUES ($1,$2,$3,$4,$5,$6,$7)`,
				set.ID, resp.ID, set.WorkoutSetID,
				set.ActualWeightKg, set.ActualReps, set.ActualSeconds, set.ActualDistanceM,
			); err != nil {
				return err
			}
		}
	}

	tag, execErr := tx.Exec(ctx,
		`UPDATE rituals SET completion_count = completion_count + 1 WHERE ritual_id=$1`,
		completion.RitualID)
	if execErr != nil {
		err = execErr
		return err
	}
	if tag.RowsAffected() == 0 {
		err = domain.ErrRitualNotFound
		return err
	}

	if err = bumpStreak(ctx, tx, completion.UserID, domain.DateOf(completion.ScheduledDate)); err != nil {
		return err
	}

	if err = insertOutbox(ctx, tx, completion.RitualID, "ritual.completed",
		fmt.Sprintf("%s:%s", completion.ID, "ritual.completed"),
		completion.UserID,
		events.RitualCompleted{
			CompletionID:  completion.ID,
			RitualID:      completion.RitualID,
			UserID:        completion.UserID,
			ScheduledDate: domain.DateOf(completion.ScheduledDate).Format(time.DateOnly),
			CompletedAt:   completion.CompletedAt,
			StepCount:     len(completion.Responses),
		}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordCompletionPersisted(completion.CompletedAt)
	return nil
}

// Fork stores the copy with its full tree and increments the source's
// fork counter, all in one transaction.
func (r *Repository) Fork(ctx context.Context, sourceID string, copy domain.RitualDefinition) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	tag, execErr := tx.Exec(ctx,
		`UPDATE rituals SET fork_count = fork_count + 1 WHERE ritual_id=$1`, sourceID)
	if execErr != nil {
		err = execErr
		return err
	}
	if tag.RowsAffected() == 0 {
		err = domain.ErrRitualNotFound
		return err
	}

	if err = insertRitualTree(ctx, tx, copy); err != nil {
		return err
	}

	if err = insertOutbox(ctx, tx, sourceID, "ritual.forked",
		fmt.Sprintf("%s:%s", copy.ID, "ritual.forked"),
		copy.OwnerID,
		events.RitualForked{
			SourceRitualID: sourceID,
			ForkRitualID:   copy.ID,
			NewOwnerID:     copy.OwnerID,
			ForkedAt:       copy.CreatedAt,
		}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordForkPersisted(copy.CreatedAt)
	return nil
}

// Streak returns the user's streak row, nil when absent.
func (r *Repository) Streak(ctx context.Context, userID string) (*domain.UserStreak, error) {
	var streak domain.UserStreak
	var lastCompleted *time.Time
	err := r.pool.QueryRow(ctx, `
        SELECT user_id, current_streak, longest_streak, last_completed_date, updated_at
        FROM user_streaks WHERE user_id=$1`, userID,
	).Scan(&streak.UserID, &streak.Current, &streak.Longest, &lastCompleted, &streak.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lastCompleted != nil {
		streak.LastCompletedDate = *lastCompleted
	}
	return &streak, nil
}

// ResetStreak zeroes the user's current streak.
func (r *Repository) ResetStreak(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `
        UPDATE user_streaks SET current_streak = 0, updated_at = NOW() WHERE user_id=$1`, userID)
	return err
}

// ActiveRitualsByOwner groups active rituals by owner for the daily
// streak sweep. Step trees are not loaded; the sweep only needs the
// frequency rule and creation date.
func (r *Repository) ActiveRitualsByOwner(ctx context.Context) (map[string][]domain.RitualDefinition, error) {
	rituals, err := r.queryRituals(ctx, `WHERE r.is_active`)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]domain.RitualDefinition)
	for _, ritual := range rituals {
		out[ritual.OwnerID] = append(out[ritual.OwnerID], ritual)
	}
	return out, nil
}

// HasCompletion reports whether the user completed the ritual on the
// date.
func (r *Repository) HasCompletion(ctx context.Context, userID, ritualID string, date time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
        SELECT EXISTS(SELECT 1 FROM ritual_completions
            WHERE user_id=$1 AND ritual_id=$2 AND scheduled_date=$3)`,
		userID, ritualID, domain.DateOf(date)).Scan(&exists)
	return exists, err
}

func (r *Repository) queryRituals(ctx context.Context, where string, args ...any) ([]domain.RitualDefinition, error) {
	query := `
        SELECT r.ritual_id, r.owner_id, r.name, r.category, r.description, r.location,
            r.gear, r.visibility, r.scheduled_time, r.forked_from_id, r.fork_count,
            r.completion_count, r.is_active, r.created_at, r.updated_at,
            f.freq_type, f.freq_interval, f.days_of_week, f.specific_dates
        FROM rituals r
        JOIN frequency_rules f ON f.ritual_id = r.ritual_id ` + where

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RitualDefinition
	for rows.Next() {
		var ritual domain.RitualDefinition
		var category, visibility, freqType string
		var days []int32
		if err := rows.Scan(&ritual.ID, &ritual.OwnerID, &ritual.Name, &category,
			&ritual.Description, &ritual.Location, &ritual.Gear, &visibility,
			&ritual.ScheduledTime, &ritual.ForkedFromID, &ritual.ForkCount,
			&ritual.CompletionCount, &ritual.IsActive, &ritual.CreatedAt, &ritual.UpdatedAt,
			&freqType, &ritual.Frequency.Interval, &days, &ritual.Frequency.SpecificDates,
		); err != nil {
			return nil, err
		}
		ritual.Category = domain.Category(category)
		ritual.Visibility = domain.Visibility(visibility)
		ritual.Frequency.Type = domain.FrequencyType(freqType)
		ritual.Frequency.DaysOfWeek = make([]int, len(days))
		for i, day := range days {
			ritual.Frequency.DaysOfWeek[i] = int(day)
		}
		out = append(out, ritual)
	}
	return out, rows.Err()
}

// attachSteps loads the full step tree for every ritual in the slice.
func (r *Repository) attachSteps(ctx context.Context, rituals []domain.RitualDefinition) error {
	if len(rituals) == 0 {
		return nil
	}
	ritualIDs := make([]string, len(rituals))
	for i, ritual := range rituals {
		ritualIDs[i] = ritual.ID
	}

	rows, err := r.pool.Query(ctx, `
        SELECT step_id, ritual_id, name, step_type, is_required, order_index,
            target_count, quantity, counter_target_seconds, timer_target_seconds,
            min_value, max_value
        FROM step_definitions
        WHERE ritual_id = ANY($1)
        ORDER BY ritual_id, order_index`, ritualIDs)
	if err != nil {
		return err
	}
	defer rows.Close()

	stepsByRitual := make(map[string][]*domain.StepDefinition)
	stepIndex := make(map[string]*domain.StepDefinition)
	var stepIDs []string
	for rows.Next() {
		var step domain.StepDefinition
		var stepType string
		var targetCount *float64
		var quantity *string
		var counterSeconds, timerSeconds, minValue, maxValue *int
		if err := rows.Scan(&step.ID, &step.RitualID, &step.Name, &stepType,
			&step.Required, &step.OrderIndex, &targetCount, &quantity,
			&counterSeconds, &timerSeconds, &minValue, &maxValue); err != nil {
			return err
		}
		step.Type = domain.StepType(stepType)
		switch step.Type {
		case domain.StepCounter:
			config := domain.CounterConfig{}
			if targetCount != nil {
				config.TargetCount = *targetCount
			}
			if quantity != nil {
				config.Quantity = *quantity
			}
			if counterSeconds != nil {
				config.TargetSeconds = *counterSeconds
			}
			step.Counter = &config
		case domain.StepTimer:
			config := domain.TimerConfig{}
			if timerSeconds != nil {
				config.TargetSeconds = *timerSeconds
			}
			step.Timer = &config
		case domain.StepScale:
			config := domain.ScaleConfig{}
			if minValue != nil {
				config.MinValue = *minValue
			}
			if maxValue != nil {
				config.MaxValue = *maxValue
			}
			step.Scale = &config
		case domain.StepWorkout:
			step.Workout = &domain.WorkoutConfig{}
			stepIDs = append(stepIDs, step.ID)
		}
		stored := step
		stepsByRitual[step.RitualID] = append(stepsByRitual[step.RitualID], &stored)
		stepIndex[step.ID] = &stored
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if len(stepIDs) > 0 {
		if err := r.attachWorkouts(ctx, stepIDs, stepIndex); err != nil {
			return err
		}
	}

	for i := range rituals {
		loaded := stepsByRitual[rituals[i].ID]
		steps := make([]domain.StepDefinition, len(loaded))
		for j, step := range loaded {
			steps[j] = *step
		}
		rituals[i].Steps = steps
	}
	return nil
}

func (r *Repository) attachWorkouts(ctx context.Context, stepIDs []string, stepIndex map[string]*domain.StepDefinition) error {
	rows, err := r.pool.Query(ctx, `
        SELECT exercise_id, step_id, exercise_name, measurement, order_index
        FROM workout_exercises
        WHERE step_id = ANY($1)
        ORDER BY step_id, order_index`, stepIDs)
	if err != nil {
		return err
	}
	defer rows.Close()

	type exerciseRow struct {
		stepID   string
		exercise *domain.WorkoutExercise
	}
	var ordered []exerciseRow
	exerciseIndex := make(map[string]*domain.WorkoutExercise)
	var exerciseIDs []string
	for rows.Next() {
		var exercise domain.WorkoutExercise
		var stepID, measurement string
		if err := rows.Scan(&exercise.ID, &stepID, &exercise.ExerciseName, &measurement, &exercise.OrderIndex); err != nil {
			return err
		}
		exercise.Measurement = domain.MeasurementType(measurement)
		step, ok := stepIndex[stepID]
		if !ok || step.Workout == nil {
			continue
		}
		stored := exercise
		ordered = append(ordered, exerciseRow{stepID: stepID, exercise: &stored})
		exerciseIndex[exercise.ID] = &stored
		exerciseIDs = append(exerciseIDs, exercise.ID)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(exerciseIDs) == 0 {
		return nil
	}

	setRows, err := r.pool.Query(ctx, `
        SELECT set_id, exercise_id, set_number, target_weight_kg, target_reps,
            target_seconds, target_distance_m
        FROM workout_sets
        WHERE exercise_id = ANY($1)
        ORDER BY exercise_id, set_number`, exerciseIDs)
	if err != nil {
		return err
	}
	defer setRows.Close()

	for setRows.Next() {
		var set domain.WorkoutSet
		var exerciseID string
		if err := setRows.Scan(&set.ID, &exerciseID, &set.SetNumber,
			&set.TargetWeightKg, &set.TargetReps, &set.TargetSeconds, &set.TargetDistanceM); err != nil {
			return err
		}
		if exercise, ok := exerciseIndex[exerciseID]; ok {
			exercise.Sets = append(exercise.Sets, set)
		}
	}
	if err := setRows.Err(); err != nil {
		return err
	}

	// Exercises attach only after their sets are loaded; the query
	// ordered them by step and order_index already.
	for _, row := range ordered {
		if step, ok := stepIndex[row.stepID]; ok && step.Workout != nil {
			step.Workout.Exercises = append(step.Workout.Exercises, *row.exercise)
		}
	}
	return nil
}

func insertRitualTree(ctx context.Context, q queryer, ritual domain.RitualDefinition) error {
	if _, err := q.Exec(ctx, `
        INSERT INTO rituals (ritual_id, owner_id, name, category, description, location,
            gear, visibility, scheduled_time, forked_from_id, fork_count, completion_count,
            is_active, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		ritual.ID, ritual.OwnerID, ritual.Name, string(ritual.Category), ritual.Description,
		ritual.Location, ritual.Gear, string(ritual.Visibility), ritual.ScheduledTime,
		ritual.ForkedFromID, ritual.ForkCount, ritual.CompletionCount, ritual.IsActive,
		ritual.CreatedAt, ritual.UpdatedAt,
	); err != nil {
		return err
	}
	if err := insertFrequency(ctx, q, ritual.ID, ritual.Frequency); err != nil {
		return err
	}
	return insertSteps(ctx, q, ritual.Steps)
}

func insertFrequency(ctx context.Context, q queryer, ritualID string, rule domain.FrequencyRule) error {
	dates := make([]time.Time, len(rule.SpecificDates))
	for i, d := range rule.SpecificDates {
		dates[i] = domain.DateOf(d)
	}
	_, err := q.Exec(ctx, `
        INSERT INTO frequency_rules (ritual_id, freq_type, freq_interval, days_of_week, specific_dates)
        VALUES ($1,$2,$3,$4,$5)`,
		ritualID, string(rule.Type), rule.Interval, rule.DaysOfWeek, dates)
	return err
}

func insertSteps(ctx context.Context, q queryer, steps []domain.StepDefinition) error {
	for _, step := range steps {
		var targetCount *float64
		var quantity *string
		var counterSeconds, timerSeconds, minValue, maxValue *int
		switch {
		case step.Counter != nil:
			targetCount = &step.Counter.TargetCount
			quantity = &step.Counter.Quantity
			counterSeconds = &step.Counter.TargetSeconds
		case step.Timer != nil:
			timerSeconds = &step.Timer.TargetSeconds
		case step.Scale != nil:
			minValue = &step.Scale.MinValue
			maxValue = &step.Scale.MaxValue
		}

		if _, err := q.Exec(ctx, `
            INSERT INTO step_definitions (step_id, ritual_id, name, step_type, is_required,
                order_index, target_count, quantity, counter_target_seconds,
                timer_target_seconds, min_value, max_value)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			step.ID, step.RitualID, step.Name, string(step.Type), step.Required,
			step.OrderIndex, targetCount, quantity, counterSeconds,
			timerSeconds, minValue, maxValue,
		); err != nil {
			return err
		}

		if step.Workout == nil {
			continue
		}
		for _, exercise := range step.Workout.Exercises {
			if _, err := q.Exec(ctx, `
                INSERT INTO workout_exercises (exercise_id, step_id, exercise_name, measurement, order_index)
                VALUES ($1,$2,$3,$4,$5)`,
				exercise.ID, step.ID, exercise.ExerciseName, string(exercise.Measurement), exercise.OrderIndex,
			); err != nil {
				return err
			}
			for _, set := range exercise.Sets {
				if _, err := q.Exec(ctx, `
                    INSERT INTO workout_sets (set_id, exercise_id, set_number, target_weight_kg,
                        target_reps, target_seconds, target_distance_m)
                    VALUES ($1,$2,$3,$4,$5,$6,$7)`,
					set.ID, exercise.ID, set.SetNumber, set.TargetWeightKg,
					set.TargetReps, set.TargetSeconds, set.TargetDistanceM,
				); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// bumpStreak advances the user's streak once per calendar day. It only
// ever increments; misses are handled by the daily sweep.
func bumpStreak(ctx context.Context, q queryer, userID string, date time.Time) error {
	_, err := q.Exec(ctx, `
        INSERT INTO user_streaks (user_id, current_streak, longest_streak, last_completed_date, updated_at)
        VALUES ($1, 1, 1, $2, NOW())
        ON CONFLICT (user_id) DO UPDATE SET
            current_streak = CASE
                WHEN user_streaks.last_completed_date IS NULL OR user_streaks.last_completed_date < EXCLUDED.last_completed_date
                THEN user_streaks.current_streak + 1
                ELSE user_streaks.current_streak END,
            longest_streak = GREATEST(user_streaks.longest_streak, CASE
                WHEN user_streaks.last_completed_date IS NULL OR user_streaks.last_completed_date < EXCLUDED.last_completed_date
                THEN user_streaks.current_streak + 1
                ELSE user_streaks.current_streak END),
            last_completed_date = GREATEST(user_streaks.last_completed_date, EXCLUDED.last_completed_date),
            updated_at = NOW()`,
		userID, date)
	return err
}

func insertOutbox(ctx context.Context, q queryer, aggregateID, eventType, dedupeKey, partitionKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
        INSERT INTO outbox (aggregate_id, event_type, topic, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (dedupe_key) DO NOTHING`,
		aggregateID, eventType, topicRitualEvents, partitionKey, body, dedupeKey)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
