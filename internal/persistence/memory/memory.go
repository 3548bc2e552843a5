// Package memory provides an in-memory Repository for local
// development and unit tests. It enforces the same duplicate-completion
// and counter semantics as the Postgres repository.
package memory

import (
	"context"
	"sync"
	"time"

	"example.com/ritual/internal/domain"
)

type completionKey struct {
	userID   string
	ritualID string
	date     string
}

// Repository stores rituals, completions and streaks in process memory.
type Repository struct {
	mu          sync.RWMutex
	rituals     map[string]domain.RitualDefinition
	completions map[completionKey]domain.RitualCompletion
	streaks     map[string]domain.UserStreak
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{
		rituals:     make(map[string]domain.RitualDefinition),
		completions: make(map[completionKey]domain.RitualCompletion),
		streaks:     make(map[string]domain.UserStreak),
	}
}

// CreateRitual implements domain.Repository.
func (r *Repository) CreateRitual(ctx context.Context, ritual domain.RitualDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rituals[ritual.ID] = ritual
	return nil
}

// GetRitual returns the ritual or nil when absent.
func (r *Repository) GetRitual(ctx context.Context, ritualID string) (*domain.RitualDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ritual, ok := r.rituals[ritualID]
	if !ok {
		return nil, nil
	}
	return &ritual, nil
}

// UpdateRitual replaces the stored definition, keeping the counters the
// completion and fork flows own.
func (r *Repository) UpdateRitual(ctx context.Context, ritual domain.RitualDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.rituals[ritual.ID]
	if !ok {
		return domain.ErrRitualNotFound
	}
	ritual.ForkCount = stored.ForkCount
	ritual.CompletionCount = stored.CompletionCount
	r.rituals[ritual.ID] = ritual
	return nil
}

// DeleteRitual removes the ritual and its completions (cascade).
func (r *Repository) DeleteRitual(ctx context.Context, ritualID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rituals[ritualID]; !ok {
		return domain.ErrRitualNotFound
	}
	delete(r.rituals, ritualID)
	for key := range r.completions {
		if key.ritualID == ritualID {
			delete(r.completions, key)
		}
	}
	return nil
}

// ListVisible returns the user's own rituals plus public ones.
func (r *Repository) ListVisible(ctx context.Context, userID string) ([]domain.RitualDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.RitualDefinition, 0, len(r.rituals))
	for _, ritual := range r.rituals {
		if ritual.OwnerID == userID || ritual.IsPublic() {
			out = append(out, ritual)
		}
	}
	return out, nil
}

// CompletionsOn returns the user's completions for a calendar date.
func (r *Repository) CompletionsOn(ctx context.Context, userID string, date time.Time) ([]domain.RitualCompletion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	day := dateKey(date)
	var out []domain.RitualCompletion
	for key, completion := range r.completions {
		if key.userID == userID && key.date == day {
			out = append(out, completion)
		}
	}
	return out, nil
}

// CreateCompletion records the completion, bumps the ritual's counter
// and advances the user's streak, mirroring the Postgres transaction.
func (r *Repository) CreateCompletion(ctx context.Context, completion domain.RitualCompletion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ritual, ok := r.rituals[completion.RitualID]
	if !ok {
		return domain.ErrRitualNotFound
	}

	key := completionKey{
		userID:   completion.UserID,
		ritualID: completion.RitualID,
		date:     dateKey(completion.ScheduledDate),
	}
	if _, exists := r.completions[key]; exists {
		return domain.ErrDuplicateCompletion
	}

	r.completions[key] = completion
	ritual.CompletionCount++
	r.rituals[ritual.ID] = ritual
	r.bumpStreak(completion.UserID, completion.ScheduledDate)
	return nil
}

// Fork stores the copy and increments the source's fork counter
// together.
func (r *Repository) Fork(ctx context.Context, sourceID string, copy domain.RitualDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	source, ok := r.rituals[sourceID]
	if !ok {
		return domain.ErrRitualNotFound
	}
	source.ForkCount++
	r.rituals[sourceID] = source
	r.rituals[copy.ID] = copy
	return nil
}

// Streak returns the user's streak state, nil when never completed.
func (r *Repository) Streak(ctx context.Context, userID string) (*domain.UserStreak, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	streak, ok := r.streaks[userID]
	if !ok {
		return nil, nil
	}
	return &streak, nil
}

// ResetStreak zeroes the user's current streak. Used by the daily
// sweep when a due ritual had no completion.
func (r *Repository) ResetStreak(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	streak, ok := r.streaks[userID]
	if !ok {
		return nil
	}
	streak.Current = 0
	streak.UpdatedAt = time.Now().UTC()
	r.streaks[userID] = streak
	return nil
}

// ActiveRitualsByOwner groups every active ritual by its owner.
func (r *Repository) ActiveRitualsByOwner(ctx context.Context) (map[string][]domain.RitualDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][]domain.RitualDefinition)
	for _, ritual := range r.rituals {
		if ritual.IsActive {
			out[ritual.OwnerID] = append(out[ritual.OwnerID], ritual)
		}
	}
	return out, nil
}

// HasCompletion reports whether the user completed the ritual on the
// date.
func (r *Repository) HasCompletion(ctx context.Context, userID, ritualID string, date time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key := completionKey{userID: userID, ritualID: ritualID, date: dateKey(date)}
	_, ok := r.completions[key]
	return ok, nil
}

// bumpStreak advances the streak once per calendar day; repeated
// completions on the same day leave it unchanged. Callers hold r.mu.
func (r *Repository) bumpStreak(userID string, date time.Time) {
	date = domain.DateOf(date)
	streak := r.streaks[userID]
	streak.UserID = userID
	if !date.After(streak.LastCompletedDate) {
		return
	}
	streak.Current++
	if streak.Current > streak.Longest {
		streak.Longest = streak.Current
	}
	streak.LastCompletedDate = date
	streak.UpdatedAt = time.Now().UTC()
	r.streaks[userID] = streak
}

func dateKey(t time.Time) string {
	return domain.DateOf(t).Format(time.DateOnly)
}
