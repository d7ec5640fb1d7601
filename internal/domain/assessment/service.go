package assessment

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/yanqian/mens-health/internal/domain/localstore"
	"github.com/yanqian/mens-health/internal/domain/remote"
	"github.com/yanqian/mens-health/internal/domain/scoring"
	apperrors "github.com/yanqian/mens-health/pkg/errors"
	"github.com/yanqian/mens-health/pkg/metrics"
	"github.com/yanqian/mens-health/pkg/util"
)

const defaultMaxStored = 50

// Service orchestrates scoring and the per-user assessment history.
// scope is the storage namespace of the caller, normally the user ID.
type Service interface {
	Submit(ctx context.Context, scope string, req SubmitRequest) (StoredAssessment, error)
	History(ctx context.Context, scope string) (History, error)
	Local(ctx context.Context, scope, assessmentType string) ([]StoredAssessment, error)
	Latest(ctx context.Context, scope string) (StoredAssessment, bool, error)
	Stats(ctx context.Context, scope string) (Stats, error)
	Delete(ctx context.Context, scope, id string) error
	Clear(ctx context.Context, scope string) error
}

type service struct {
	cfg      Config
	engine   *scoring.Engine
	invoker  remote.Invoker
	store    *localstore.Store
	recorder *metrics.Recorder
	logger   *slog.Logger
}

// NewService constructs the orchestrator.
func NewService(cfg Config, engine *scoring.Engine, invoker remote.Invoker, store *localstore.Store, recorder *metrics.Recorder, logger *slog.Logger) Service {
	if cfg.MaxStored <= 0 {
		cfg.MaxStored = defaultMaxStored
	}
	return &service{
		cfg:      cfg,
		engine:   engine,
		invoker:  invoker,
		store:    store,
		recorder: recorder,
		logger:   logger.With("component", "assessment.service"),
	}
}

func (s *service) Submit(ctx context.Context, scope string, req SubmitRequest) (StoredAssessment, error) {
	if missing := req.Intake.MissingSections(); len(missing) > 0 {
		return StoredAssessment{}, apperrors.Wrap(apperrors.CodeInvalidInput, "missing required assessment sections: "+strings.Join(missing, ", "), nil)
	}
	assessmentType := strings.TrimSpace(req.Type)
	if assessmentType == "" {
		assessmentType = DefaultType
	}

	res := remote.Call[scoring.Result](ctx, s.invoker, remote.FnCalculateHealthScore, scorePayload{
		Intake: req.Intake,
		UserID: scope,
		Type:   assessmentType,
	})
	result, usedFallback := res.OrElse(func() scoring.Result {
		return s.engine.Score(req.Intake)
	})
	if usedFallback {
		s.recorder.Fallback(remote.FnCalculateHealthScore)
		s.logger.Info("scored locally", "profile", s.engine.ProfileName(), "reason", res.Err.Error())
	} else if result.Status == "" {
		result.Status = s.engine.Status(result.Score)
	}

	now := util.NowUTC()
	stored := StoredAssessment{
		ID:              uuid.NewString(),
		Date:            util.DateOf(now),
		Type:            assessmentType,
		Score:           result.Score,
		Status:          result.Status,
		Recommendations: result.Recommendations,
		CreatedAt:       now,
	}
	if stored.Recommendations == nil {
		stored.Recommendations = []string{}
	}

	// The local write follows scoring so the stored entry carries the final result.
	_, err := s.collection(scope).Update(ctx, func(list []StoredAssessment) ([]StoredAssessment, error) {
		list = append([]StoredAssessment{stored}, list...)
		if len(list) > s.cfg.MaxStored {
			list = list[:s.cfg.MaxStored]
		}
		return list, nil
	})
	if err != nil {
		s.logger.Warn("failed to store assessment locally", "scope", scope, "error", err)
	}
	return stored, nil
}

func (s *service) History(ctx context.Context, scope string) (History, error) {
	res := remote.Call[historyResponse](ctx, s.invoker, remote.FnGetHealthHistory, historyPayload{UserID: scope})
	if res.OK() {
		list := res.Value.Assessments
		if list == nil {
			list = []StoredAssessment{}
		}
		return History{Assessments: list, Source: SourceRemote}, nil
	}
	s.recorder.Fallback(remote.FnGetHealthHistory)
	s.logger.Info("serving local history", "reason", res.Err.Error())
	return History{Assessments: s.collection(scope).Load(ctx), Source: SourceLocal}, nil
}

func (s *service) Local(ctx context.Context, scope, assessmentType string) ([]StoredAssessment, error) {
	list := s.collection(scope).Load(ctx)
	if assessmentType == "" {
		return list, nil
	}
	filtered := make([]StoredAssessment, 0, len(list))
	for _, item := range list {
		if item.Type == assessmentType {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

func (s *service) Latest(ctx context.Context, scope string) (StoredAssessment, bool, error) {
	list := s.collection(scope).Load(ctx)
	if len(list) == 0 {
		return StoredAssessment{}, false, nil
	}
	return list[0], true, nil
}

func (s *service) Stats(ctx context.Context, scope string) (Stats, error) {
	return computeStats(s.collection(scope).Load(ctx)), nil
}

func (s *service) Delete(ctx context.Context, scope, id string) error {
	// The local write follows scoring so the stored entry carries the final result.
	_, err := s.collection(scope).Update(ctx, func(list []StoredAssessment) ([]StoredAssessment, error) {
		filtered := make([]StoredAssessment, 0, len(list))
		for _, item := range list {
			if item.ID != id {
				filtered = append(filtered, item)
			}
		}
		return filtered, nil
	})
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to delete assessment", err)
	}
	return nil
}

func (s *service) Clear(ctx context.Context, scope string) error {
	if err := s.collection(scope).Clear(ctx); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to clear assessments", err)
	}
	return nil
}

func (s *service) collection(scope string) *localstore.Collection[[]StoredAssessment] {
	return localstore.NewCollection(s.store, localstore.ScopedKey(scope, localstore.KeyAssessments), func() []StoredAssessment {
		return []StoredAssessment{}
	})
}

func computeStats(list []StoredAssessment) Stats {
	stats := Stats{Total: len(list), ByType: map[string]int{}, RecentTrend: TrendNoData}
	if len(list) == 0 {
		return stats
	}
	total := 0
	for _, item := range list {
		total += item.Score
		stats.ByType[item.Type]++
	}
	stats.AverageScore = int(math.Round(float64(total) / float64(len(list))))

	stats.RecentTrend = TrendStable
	if len(list) >= 6 {
		recent := averageScore(list[:3])
		previous := averageScore(list[3:6])
		switch {
		case recent > previous+5:
			stats.RecentTrend = TrendImproving
		case recent < previous-5:
			stats.RecentTrend = TrendDeclining
		}
	}
	return stats
}

func averageScore(list []StoredAssessment) float64 {
	total := 0
	for _, item := range list {
		total += item.Score
	}
	return float64(total) / float64(len(list))
}
