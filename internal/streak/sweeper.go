// Package streak implements the out-of-band daily job that detects
// missed rituals. Completion recording only ever increments a streak;
// this sweep is the one place a streak goes back to zero.
package streak

import (
	"context"
	"log"
	"time"

	"example.com/ritual/internal/domain"
	"example.com/ritual/internal/observability"
)

// Store captures the persistence operations the sweep needs.
type Store interface {
	ActiveRitualsByOwner(ctx context.Context) (map[string][]domain.RitualDefinition, error)
	HasCompletion(ctx context.Context, userID, ritualID string, date time.Time) (bool, error)
	ResetStreak(ctx context.Context, userID string) error
}

// Sweeper resets streaks for users who missed a due ritual.
type Sweeper struct {
	store  Store
	logger *log.Logger
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Sweeper) { s.logger = logger }
}

// NewSweeper constructs a Sweeper.
func NewSweeper(store Store, opts ...Option) *Sweeper {
	s := &Sweeper{store: store, logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep checks every active ritual due on the day against its owner's
// completions and resets the streak of each owner who missed at least
// one. It returns the number of streaks reset.
func (s *Sweeper) Sweep(ctx context.Context, day time.Time) (int, error) {
	day = domain.DateOf(day)

	byOwner, err := s.store.ActiveRitualsByOwner(ctx)
	if err != nil {
		return 0, err
	}

	resets := 0
	for owner, rituals := range byOwner {
		missed, err := s.ownerMissed(ctx, owner, rituals, day)
		if err != nil {
			return resets, err
		}
		if !missed {
			continue
		}
		if err := s.store.ResetStreak(ctx, owner); err != nil {
			return resets, err
		}
		observability.RecordStreakReset()
		resets++
		s.logger.Printf("streak reset for user %s: missed ritual on %s", owner, day.Format(time.DateOnly))
	}
	return resets, nil
}

func (s *Sweeper) ownerMissed(ctx context.Context, owner string, rituals []domain.RitualDefinition, day time.Time) (bool, error) {
	for _, ritual := range rituals {
		if !domain.OccursOn(ritual.Frequency, ritual.CreatedDate(), day) {
			continue
		}
		done, err := s.store.HasCompletion(ctx, owner, ritual.ID, day)
		if err != nil {
			return false, err
		}
		if !done {
			return true, nil
		}
	}
	return false, nil
}
