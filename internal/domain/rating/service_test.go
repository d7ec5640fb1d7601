package rating

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/mens-health/internal/domain/localstore"
	"github.com/yanqian/mens-health/internal/infra/kvstore"
	apperrors "github.com/yanqian/mens-health/pkg/errors"
)

func newTestService() Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(localstore.NewStore(kvstore.NewMemoryStore(), logger), logger)
}

func TestAdd_UpsertsPerUser(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	rater := Rater{ID: "u1", Email: "a@example.com", Name: "Alex"}

	first, err := svc.Add(ctx, rater, SubmitRequest{Rating: 3, Feedback: "ok"})
	require.NoError(t, err)
	require.Contains(t, first.ID, "rating_")

	second, err := svc.Add(ctx, rater, SubmitRequest{Rating: 5})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 5, second.Rating)
	require.Empty(t, second.Feedback)
	require.Equal(t, first.CreatedAt, second.CreatedAt)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalRatings)

	rated, err := svc.HasRated(ctx, "u1")
	require.NoError(t, err)
	require.True(t, rated)
	rated, err = svc.HasRated(ctx, "u2")
	require.NoError(t, err)
	require.False(t, rated)
}

func TestAdd_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.Add(ctx, Rater{ID: "u1"}, SubmitRequest{Rating: 6})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	_, err = svc.Add(ctx, Rater{ID: "u1"}, SubmitRequest{Rating: 0})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	_, err = svc.Add(ctx, Rater{}, SubmitRequest{Rating: 4})
	require.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

func TestAverageAndDistribution(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	avg, err := svc.Average(ctx)
	require.NoError(t, err)
	require.Zero(t, avg)

	for i, stars := range []int{5, 4, 4} {
		_, err := svc.Add(ctx, Rater{ID: string(rune('a' + i))}, SubmitRequest{Rating: stars})
		require.NoError(t, err)
	}

	avg, err = svc.Average(ctx)
	require.NoError(t, err)
	require.Equal(t, 4.3, avg)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 2, 5: 1}, stats.RatingDistribution)
	require.Len(t, stats.RecentRatings, 3)

	fours, err := svc.CountByStar(ctx, 4)
	require.NoError(t, err)
	require.Equal(t, 2, fours)
}

func TestStats_RecentCappedAndOrdered(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	list := make([]Rating, 0, 12)
	for i := 0; i < 12; i++ {
		list = append(list, Rating{ID: string(rune('a' + i)), Rating: 3, CreatedAt: base.Add(time.Duration(i) * time.Hour)})
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := localstore.NewStore(kvstore.NewMemoryStore(), logger)
	require.NoError(t, localstore.NewCollection(store, localstore.KeyRatings, func() []Rating { return nil }).Save(context.Background(), list))

	stats, err := NewService(store, logger).Stats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats.RecentRatings, 10)
	require.Equal(t, "l", stats.RecentRatings[0].ID)
	require.Equal(t, 3.0, stats.AverageRating)
}
