package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/escuelahq/escuela-ui-api/config"
	"github.com/escuelahq/escuela-ui-api/internal/data"
	httpx "github.com/escuelahq/escuela-ui-api/internal/http"
	"github.com/escuelahq/escuela-ui-api/internal/service"
)

// RunDeps contains the shared dependencies for the service runtime.
type RunDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// Run wires the auth service and HTTP server, then blocks until the context
// is cancelled or a shutdown signal arrives.
func Run(ctx context.Context, deps RunDeps) error {
	if deps.Config == nil {
		return errors.New("config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var auditRepo *data.AuditRepo
	var auditRecorder service.AuditRecorder
	var auditStore httpx.AuditStore
	if deps.Config.Audit.Enabled && deps.DB != nil {
		auditRepo = data.NewAuditRepo(deps.DB)
		auditRecorder = auditRepo
		auditStore = auditRepo
	}

	authResult := BuildAuthService(AuthConfig{
		Auth:        deps.Config.Auth,
		BaseURL:     deps.Config.HTTP.BaseURL,
		RedisClient: deps.RedisClient,
		Audit:       auditRecorder,
		Logger:      logger,
	})
	if authResult.Service == nil {
		return errors.New("auth service could not be configured")
	}

	server := StartHTTPServer(&HTTPServerConfig{
		Config: deps.Config,
		Auth:   authResult,
		Audit:  auditStore,
		Logger: logger,
	})
	if server == nil {
		return errors.New("HTTP server could not be started")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		return ShutdownHTTPServer(context.Background(), server, logger)
	})

	if auditRepo != nil {
		g.Go(func() error {
			return runAuditRetention(gctx, auditRepo, deps.Config.Audit, logger)
		})
	}

	return g.Wait()
}

// runAuditRetention purges audit entries past the retention window once a
// day until the context is cancelled.
func runAuditRetention(
	ctx context.Context,
	repo *data.AuditRepo,
	cfg config.AuditConfig,
	logger *slog.Logger,
) error {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			cutoff := time.Now().AddDate(0, 0, -cfg.RetentionDays)
			purged, err := repo.Purge(ctx, cutoff)
			if err != nil {
				logger.WarnContext(ctx, "audit retention purge failed", "error", err)
				continue
			}
			if purged > 0 {
				logger.InfoContext(ctx, "audit retention purge",
					"purged", purged,
					"retention_days", cfg.RetentionDays,
				)
			}
		}
	}
}
