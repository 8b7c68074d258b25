package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ave4ge/findateammatebot/internal/config"
	s3infra "github.com/ave4ge/findateammatebot/internal/infra/s3"
	pgrepo "github.com/ave4ge/findateammatebot/internal/repo/postgres"
	"github.com/ave4ge/findateammatebot/internal/services/access"
	adminsvc "github.com/ave4ge/findateammatebot/internal/services/admin"
	authsvc "github.com/ave4ge/findateammatebot/internal/services/auth"
	mediasvc "github.com/ave4ge/findateammatebot/internal/services/media"
	modsvc "github.com/ave4ge/findateammatebot/internal/services/moderation"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, fmt.Errorf("auth.jwt_secret is required for the admin api")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres for api app: %w", err)
	}

	participantRepo := pgrepo.NewParticipantRepo(pool)
	roles := access.NewService(cfg.Bot.AdminIDs, cfg.Bot.VerifierIDs)

	deps := Dependencies{
		Tokens: authsvc.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL),
		Admin: adminsvc.NewService(participantRepo, roles, adminsvc.Config{
			MaxWarnings: cfg.Economy.MaxWarnings,
			UsersPage:   cfg.Limits.UsersPage,
			LeadersTop:  cfg.Limits.LeadersTop,
		}, log),
		Verifications:     modsvc.NewService(participantRepo, roles, log),
		VerificationsPage: cfg.Limits.VerificationsPage,
		Logger:            log,
	}

	if strings.TrimSpace(cfg.S3.Endpoint) != "" && strings.TrimSpace(cfg.S3.Bucket) != "" {
		s3Client, err := s3infra.NewClient(s3infra.Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			log.Warn("s3 unavailable, photo links disabled", zap.Error(err))
		} else {
			storage := mediasvc.NewSkinArchive(s3Client, cfg.S3.Bucket)
			deps.Photos = mediasvc.NewService(nil, storage, participantRepo, log)
		}
	}

	RegisterRoutes(r, deps)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if a.postgres != nil {
		a.postgres.Close()
	}
	return err
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
