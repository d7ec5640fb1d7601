package rating

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/yanqian/mens-health/internal/domain/localstore"
	apperrors "github.com/yanqian/mens-health/pkg/errors"
	"github.com/yanqian/mens-health/pkg/util"
)

const (
	minStars    = 1
	maxStars    = 5
	recentLimit = 10
)

type service struct {
	ratings *localstore.Collection[[]Rating]
	logger  *slog.Logger
}

// NewService constructs the rating service over the shared ratings collection.
func NewService(store *localstore.Store, logger *slog.Logger) Service {
	return &service{
		ratings: localstore.NewCollection(store, localstore.KeyRatings, func() []Rating { return []Rating{} }),
		logger:  logger.With("component", "rating.service"),
	}
}

// Add stores the rating, replacing any previous rating by the same user.
func (s *service) Add(ctx context.Context, rater Rater, req SubmitRequest) (Rating, error) {
	if strings.TrimSpace(rater.ID) == "" {
		return Rating{}, apperrors.Wrap(apperrors.CodeUnauthorized, "User not logged in", nil)
	}
	if req.Rating < minStars || req.Rating > maxStars {
		return Rating{}, apperrors.Wrap(apperrors.CodeInvalidInput, "rating must be between 1 and 5", nil)
	}

	var saved Rating
	_, err := s.ratings.Update(ctx, func(list []Rating) ([]Rating, error) {
		now := util.NowUTC()
		for i := range list {
			if list[i].UserID == rater.ID {
				list[i].Rating = req.Rating
				list[i].Feedback = req.Feedback
				list[i].UpdatedAt = now
				saved = list[i]
				return list, nil
			}
		}
		saved = Rating{
			ID:        "rating_" + uuid.NewString(),
			UserID:    rater.ID,
			UserEmail: rater.Email,
			UserName:  rater.Name,
			Rating:    req.Rating,
			Feedback:  req.Feedback,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return append(list, saved), nil
	})
	if err != nil {
		return Rating{}, apperrors.Wrap(apperrors.CodeInternal, "failed to save rating", err)
	}
	s.logger.Info("rating stored", "userId", rater.ID, "rating", saved.Rating)
	return saved, nil
}

func (s *service) ForUser(ctx context.Context, userID string) (Rating, bool, error) {
	for _, r := range s.ratings.Load(ctx) {
		if r.UserID == userID {
			return r, true, nil
		}
	}
	return Rating{}, false, nil
}

func (s *service) HasRated(ctx context.Context, userID string) (bool, error) {
	_, found, err := s.ForUser(ctx, userID)
	return found, err
}

func (s *service) Average(ctx context.Context) (float64, error) {
	return average(s.ratings.Load(ctx)), nil
}

func (s *service) Stats(ctx context.Context) (Stats, error) {
	list := s.ratings.Load(ctx)
	stats := Stats{
		TotalRatings:       len(list),
		AverageRating:      average(list),
		RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		RecentRatings:      []Rating{},
	}
	for _, r := range list {
		stats.RatingDistribution[r.Rating]++
	}
	recent := append([]Rating(nil), list...)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	stats.RecentRatings = append(stats.RecentRatings, recent...)
	return stats, nil
}

func (s *service) CountByStar(ctx context.Context, star int) (int, error) {
	count := 0
	for _, r := range s.ratings.Load(ctx) {
		if r.Rating == star {
			count++
		}
	}
	return count, nil
}

// average rounds to one decimal place.
func average(list []Rating) float64 {
	if len(list) == 0 {
		return 0
	}
	total := 0
	for _, r := range list {
		total += r.Rating
	}
	return math.Round(float64(total)/float64(len(list))*10) / 10
}
