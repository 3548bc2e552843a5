package streak

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/ritual/internal/domain"
	"example.com/ritual/internal/persistence/memory"
)

func seedRitual(t *testing.T, repo *memory.Repository, owner string, rule domain.FrequencyRule, createdAt time.Time) domain.RitualDefinition {
	t.Helper()
	ritual := domain.RitualDefinition{
		ID:         owner + "-" + string(rule.Type),
		OwnerID:    owner,
		Name:       "ritual",
		Category:   domain.CategoryHealth,
		Visibility: domain.VisibilityPrivate,
		IsActive:   true,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
		Frequency:  rule,
	}
	require.NoError(t, repo.CreateRitual(context.Background(), ritual))
	return ritual
}

func seedCompletion(t *testing.T, repo *memory.Repository, ritual domain.RitualDefinition, day time.Time) {
	t.Helper()
	err := repo.CreateCompletion(context.Background(), domain.RitualCompletion{
		ID:            ritual.ID + "-" + day.Format(time.DateOnly),
		RitualID:      ritual.ID,
		UserID:        ritual.OwnerID,
		ScheduledDate: day,
		CompletedAt:   day,
	})
	require.NoError(t, err)
}

func TestSweepResetsMissedOwners(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	created := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	day := created.AddDate(0, 0, 5)
	daily := domain.FrequencyRule{Type: domain.FrequencyDaily, Interval: 1}

	// diligent completed their due ritual, lazy did not.
	diligentRitual := seedRitual(t, repo, "diligent", daily, created)
	seedRitual(t, repo, "lazy", daily, created)
	seedCompletion(t, repo, diligentRitual, day)
	// Both carry a streak going in.
	seedCompletion(t, repo, seedRitual(t, repo, "lazy", domain.FrequencyRule{Type: domain.FrequencyOnce}, created), created)

	reset, err := NewSweeper(repo).Sweep(ctx, day)
	require.NoError(t, err)
	require.Equal(t, 1, reset)

	lazyStreak, err := repo.Streak(ctx, "lazy")
	require.NoError(t, err)
	require.Equal(t, 0, lazyStreak.Current)

	diligentStreak, err := repo.Streak(ctx, "diligent")
	require.NoError(t, err)
	require.Equal(t, 1, diligentStreak.Current)
}

func TestSweepIgnoresRitualsNotDue(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	created := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC) // a Monday

	// Due on Mondays only; sweeping a Tuesday resets nobody.
	seedRitual(t, repo, "user-1", domain.FrequencyRule{
		Type: domain.FrequencyWeekly, Interval: 1, DaysOfWeek: []int{1},
	}, created)

	reset, err := NewSweeper(repo).Sweep(ctx, created.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Equal(t, 0, reset)
}

func TestSweepIgnoresInactiveRituals(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	created := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	ritual := seedRitual(t, repo, "user-1", domain.FrequencyRule{Type: domain.FrequencyDaily, Interval: 1}, created)
	ritual.IsActive = false
	require.NoError(t, repo.CreateRitual(ctx, ritual))

	reset, err := NewSweeper(repo).Sweep(ctx, created.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Equal(t, 0, reset)
}
