//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yanqian/mens-health/internal/bootstrap"
	"github.com/yanqian/mens-health/internal/domain/article"
	"github.com/yanqian/mens-health/internal/domain/assessment"
	"github.com/yanqian/mens-health/internal/domain/auth"
	"github.com/yanqian/mens-health/internal/domain/fitness"
	"github.com/yanqian/mens-health/internal/domain/healthfn"
	"github.com/yanqian/mens-health/internal/domain/localstore"
	"github.com/yanqian/mens-health/internal/domain/rating"
	"github.com/yanqian/mens-health/internal/infra/config"
	httpiface "github.com/yanqian/mens-health/internal/interface/http"
	"github.com/yanqian/mens-health/pkg/logger"
	"github.com/yanqian/mens-health/pkg/metrics"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		metrics.NewRegistry,
		wire.Bind(new(prometheus.Gatherer), new(*prometheus.Registry)),
		provideMetrics,
		provideAuthConfig,
		provideAssessmentConfig,
		provideFunctionsConfig,
		provideScoringEngine,
		provideKV,
		localstore.NewStore,
		providePostgresPool,
		provideAssessmentRepository,
		provideUserRepository,
		provideIDTokenVerifier,
		provideInvoker,
		provideEmailSender,
		provideArchive,
		auth.NewService,
		healthfn.NewService,
		assessment.NewService,
		rating.NewService,
		fitness.NewService,
		article.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
