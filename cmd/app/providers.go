package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/mens-health/internal/domain/article"
	"github.com/yanqian/mens-health/internal/domain/assessment"
	"github.com/yanqian/mens-health/internal/domain/auth"
	"github.com/yanqian/mens-health/internal/domain/healthfn"
	"github.com/yanqian/mens-health/internal/domain/localstore"
	"github.com/yanqian/mens-health/internal/domain/remote"
	"github.com/yanqian/mens-health/internal/domain/scoring"
	"github.com/yanqian/mens-health/internal/infra/archive"
	"github.com/yanqian/mens-health/internal/infra/assessmentrepo"
	"github.com/yanqian/mens-health/internal/infra/config"
	"github.com/yanqian/mens-health/internal/infra/emailjs"
	"github.com/yanqian/mens-health/internal/infra/kvstore"
	remoteclient "github.com/yanqian/mens-health/internal/infra/remote"
	"github.com/yanqian/mens-health/internal/infra/userrepo"
	"github.com/yanqian/mens-health/pkg/metrics"
)

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:          cfg.Auth.Secret,
		TokenTTL:        cfg.Auth.TokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
		AdminSecret:     cfg.Auth.AdminSecret,
		Firebase:        auth.FirebaseConfig{ProjectID: cfg.Auth.FirebaseProject},
		Google: auth.GoogleConfig{
			ClientID:             cfg.Auth.Google.ClientID,
			ClientSecret:         cfg.Auth.Google.ClientSecret,
			RedirectURL:          cfg.Auth.Google.RedirectURL,
			TokenEncryptionKey:   cfg.Auth.Google.TokenEncryptionKey,
			PostLoginRedirectURL: cfg.Auth.Google.PostLoginRedirectURL,
		},
	}
}

func provideAssessmentConfig(cfg *config.Config) assessment.Config {
	return assessment.Config{MaxStored: cfg.Assessments.MaxStored}
}

func provideFunctionsConfig(cfg *config.Config) healthfn.Config {
	return healthfn.Config{DefaultUserID: cfg.Functions.DefaultUserID}
}

func provideScoringEngine(cfg *config.Config, logger *slog.Logger) (*scoring.Engine, error) {
	if path := strings.TrimSpace(cfg.Scoring.ProfilePath); path != "" {
		profile, err := scoring.LoadProfile(path)
		if err != nil {
			return nil, fmt.Errorf("load scoring profile: %w", err)
		}
		logger.Info("scoring profile loaded from file", "path", path, "profile", profile.Name)
		return scoring.NewEngine(profile), nil
	}
	profile, ok := scoring.ProfileByName(cfg.Scoring.Profile)
	if !ok {
		return nil, fmt.Errorf("unknown scoring profile %q", cfg.Scoring.Profile)
	}
	return scoring.NewEngine(profile), nil
}

func provideMetrics(reg *prometheus.Registry) *metrics.Recorder {
	return metrics.NewRecorder(reg)
}

func provideKV(cfg *config.Config, logger *slog.Logger) localstore.KV {
	switch cfg.Storage.Backend {
	case "valkey":
		opt, err := buildValkeyOptions(cfg.Storage.Addr)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
			return kvstore.NewMemoryStore()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory store", "error", err)
			return kvstore.NewMemoryStore()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory store", "error", err)
			client.Close()
			return kvstore.NewMemoryStore()
		}
		logger.Info("valkey store enabled", "addr", cfg.Storage.Addr)
		return kvstore.NewValkeyStore(client, cfg.Storage.Prefix)
	case "sqlite":
		store, err := kvstore.OpenSQLite(cfg.Storage.Path)
		if err != nil {
			logger.Error("failed to open sqlite store, falling back to memory store", "path", cfg.Storage.Path, "error", err)
			return kvstore.NewMemoryStore()
		}
		logger.Info("sqlite store enabled", "path", cfg.Storage.Path)
		return store
	default:
		logger.Info("using memory store")
		return kvstore.NewMemoryStore()
	}
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

// providePostgresPool returns nil when no DSN is set or the database is unreachable.
func providePostgresPool(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using in-process repositories")
		return nil
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using in-process repositories", "error", err)
		return nil
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using in-process repositories", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using in-process repositories", "error", err)
		pool.Close()
		return nil
	}
	logger.Info("postgres enabled")
	return pool
}

func provideAssessmentRepository(pool *pgxpool.Pool) healthfn.Repository {
	if pool == nil {
		return assessmentrepo.NewMemoryRepository()
	}
	return assessmentrepo.NewPostgresRepository(pool)
}

func provideUserRepository(pool *pgxpool.Pool, store *localstore.Store) auth.Repository {
	if pool == nil {
		return userrepo.NewKVRepository(store)
	}
	return userrepo.NewPostgresRepository(pool)
}

func provideIDTokenVerifier(cfg *config.Config) auth.IDTokenVerifier {
	project := strings.TrimSpace(cfg.Auth.FirebaseProject)
	if project == "" {
		return nil
	}
	return auth.NewFirebaseVerifier(project)
}

func provideInvoker(cfg *config.Config, recorder *metrics.Recorder, logger *slog.Logger) remote.Invoker {
	if !cfg.Remote.Enabled {
		logger.Info("remote functions disabled, scoring locally")
		return remote.Unavailable{}
	}
	return remoteclient.NewClient(cfg.Remote.Endpoints, cfg.Remote.Timeout, recorder, logger)
}

func provideEmailSender(cfg *config.Config) healthfn.EmailSender {
	return emailjs.NewClient(emailjs.Config{
		Endpoint:   cfg.Email.Endpoint,
		ServiceID:  cfg.Email.ServiceID,
		TemplateID: cfg.Email.TemplateID,
		UserID:     cfg.Email.UserID,
		Timeout:    cfg.Email.Timeout,
	})
}

func provideArchive(cfg *config.Config, logger *slog.Logger) article.Archive {
	ac := cfg.Articles.Archive
	if !ac.Enabled {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := archive.NewMinioArchive(ctx, archive.Config{
		Endpoint:  ac.Endpoint,
		AccessKey: ac.AccessKey,
		SecretKey: ac.SecretKey,
		Bucket:    ac.Bucket,
		Region:    ac.Region,
	}, logger)
	if err != nil {
		logger.Error("article archive unavailable, pages will not be archived", "error", err)
		return nil
	}
	logger.Info("article archive enabled", "bucket", ac.Bucket)
	return store
}
