package fitness

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/yanqian/mens-health/internal/domain/localstore"
	apperrors "github.com/yanqian/mens-health/pkg/errors"
	"github.com/yanqian/mens-health/pkg/util"
)

// Progress tracks one workout. CurrentExercise only moves forward and
// CompletedExercises only grows until the workout is restarted.
type Progress struct {
	Started            bool       `json:"started"`
	CurrentExercise    int        `json:"currentExercise"`
	CompletedExercises []int      `json:"completedExercises"`
	Completed          bool       `json:"completed"`
	StartTime          *time.Time `json:"startTime"`
	EndTime            *time.Time `json:"endTime"`
}

// Stats aggregates every workout of a user.
type Stats struct {
	TotalWorkouts      int     `json:"totalWorkouts"`
	CompletedWorkouts  int     `json:"completedWorkouts"`
	TotalExercises     int     `json:"totalExercises"`
	CompletedExercises int     `json:"completedExercises"`
	TotalTime          float64 `json:"totalTime"`
}

// Service records workout progress per user scope.
type Service interface {
	Progress(ctx context.Context, scope, workout string) (Progress, error)
	Start(ctx context.Context, scope, workout string) (Progress, error)
	CompleteExercise(ctx context.Context, scope, workout string, index int) (Progress, error)
	Finish(ctx context.Context, scope, workout string) (Progress, error)
	Percent(ctx context.Context, scope, workout string, total int) (int, error)
	Stats(ctx context.Context, scope string) (Stats, error)
}

type service struct {
	store  *localstore.Store
	logger *slog.Logger
}

// NewService constructs the fitness service.
func NewService(store *localstore.Store, logger *slog.Logger) Service {
	return &service{store: store, logger: logger.With("component", "fitness.service")}
}

func newProgress() Progress {
	return Progress{CompletedExercises: []int{}}
}

func (s *service) Progress(ctx context.Context, scope, workout string) (Progress, error) {
	if err := validateWorkout(workout); err != nil {
		return Progress{}, err
	}
	return progressOf(s.collection(scope).Load(ctx), workout), nil
}

func (s *service) Start(ctx context.Context, scope, workout string) (Progress, error) {
	return s.update(ctx, scope, workout, func(Progress) Progress {
		now := util.NowUTC()
		return Progress{
			Started:            true,
			CompletedExercises: []int{},
			StartTime:          &now,
		}
	})
}

func (s *service) CompleteExercise(ctx context.Context, scope, workout string, index int) (Progress, error) {
	if index < 0 {
		return Progress{}, apperrors.Wrap(apperrors.CodeInvalidInput, "exercise index cannot be negative", nil)
	}
	return s.update(ctx, scope, workout, func(p Progress) Progress {
		if !p.Started {
			now := util.NowUTC()
			p.Started = true
			p.StartTime = &now
			p.CompletedExercises = []int{}
		}
		if !slices.Contains(p.CompletedExercises, index) {
			p.CompletedExercises = append(p.CompletedExercises, index)
		}
		p.CurrentExercise = max(p.CurrentExercise, index+1)
		return p
	})
}

func (s *service) Finish(ctx context.Context, scope, workout string) (Progress, error) {
	return s.update(ctx, scope, workout, func(p Progress) Progress {
		now := util.NowUTC()
		p.Completed = true
		p.EndTime = &now
		return p
	})
}

func (s *service) Percent(ctx context.Context, scope, workout string, total int) (int, error) {
	p, err := s.Progress(ctx, scope, workout)
	if err != nil {
		return 0, err
	}
	if !p.Started || total <= 0 {
		return 0, nil
	}
	return int(math.Round(float64(len(p.CompletedExercises)) / float64(total) * 100)), nil
}

func (s *service) Stats(ctx context.Context, scope string) (Stats, error) {
	var stats Stats
	for _, p := range s.collection(scope).Load(ctx) {
		stats.TotalWorkouts++
		stats.TotalExercises += len(p.CompletedExercises)
		if !p.Completed {
			continue
		}
		stats.CompletedWorkouts++
		stats.CompletedExercises += len(p.CompletedExercises)
		if p.StartTime != nil && p.EndTime != nil {
			stats.TotalTime += p.EndTime.Sub(*p.StartTime).Minutes()
		}
	}
	return stats, nil
}

func (s *service) update(ctx context.Context, scope, workout string, fn func(Progress) Progress) (Progress, error) {
	if err := validateWorkout(workout); err != nil {
		return Progress{}, err
	}
	var next Progress
	_, err := s.collection(scope).Update(ctx, func(all map[string]Progress) (map[string]Progress, error) {
		if all == nil {
			all = map[string]Progress{}
		}
		next = fn(progressOf(all, workout))
		all[workout] = next
		return all, nil
	})
	if err != nil {
		s.logger.Warn("failed to save workout progress", "workout", workout, "error", err)
		return Progress{}, apperrors.Wrap(apperrors.CodeInternal, "failed to save workout progress", err)
	}
	return next, nil
}

func (s *service) collection(scope string) *localstore.Collection[map[string]Progress] {
	return localstore.NewCollection(s.store, localstore.ScopedKey(scope, localstore.KeyFitnessProgress), func() map[string]Progress {
		return map[string]Progress{}
	})
}

func progressOf(all map[string]Progress, workout string) Progress {
	p, ok := all[workout]
	if !ok {
		return newProgress()
	}
	if p.CompletedExercises == nil {
		p.CompletedExercises = []int{}
	}
	return p
}

func validateWorkout(workout string) error {
	if strings.TrimSpace(workout) == "" {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "workout id cannot be empty", nil)
	}
	return nil
}
