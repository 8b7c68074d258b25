package botapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ave4ge/findateammatebot/internal/config"
	"github.com/ave4ge/findateammatebot/internal/domain/model"
	s3infra "github.com/ave4ge/findateammatebot/internal/infra/s3"
	tginfra "github.com/ave4ge/findateammatebot/internal/infra/telegram"
	"github.com/ave4ge/findateammatebot/internal/jobs/cleanup"
	pgrepo "github.com/ave4ge/findateammatebot/internal/repo/postgres"
	redrepo "github.com/ave4ge/findateammatebot/internal/repo/redis"
	"github.com/ave4ge/findateammatebot/internal/services/access"
	adminsvc "github.com/ave4ge/findateammatebot/internal/services/admin"
	"github.com/ave4ge/findateammatebot/internal/services/auth"
	"github.com/ave4ge/findateammatebot/internal/services/commerce"
	"github.com/ave4ge/findateammatebot/internal/services/ledger"
	"github.com/ave4ge/findateammatebot/internal/services/matching"
	mediasvc "github.com/ave4ge/findateammatebot/internal/services/media"
	modsvc "github.com/ave4ge/findateammatebot/internal/services/moderation"
	"github.com/ave4ge/findateammatebot/internal/services/participants"
	ratesvc "github.com/ave4ge/findateammatebot/internal/services/rate"
	"github.com/ave4ge/findateammatebot/internal/services/referrals"
	"github.com/ave4ge/findateammatebot/internal/services/sessions"
	"github.com/ave4ge/findateammatebot/internal/services/support"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	bot        *tginfra.Bot
	handler    *Handler
	cleanupJob *cleanup.Job
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	if cfg.Postgres.AutoMigrate {
		if err := migrate(ctx, cfg.Postgres.DSN, logger); err != nil {
			return nil, err
		}
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres for bot app: %w", err)
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	redisUp := true
	if err := redrepo.Ping(ctx, redisClient); err != nil {
		redisUp = false
		logger.Warn("redis unavailable, rate limits fail open", zap.Error(err))
	}

	participantRepo := pgrepo.NewParticipantRepo(pool)
	interactionRepo := pgrepo.NewInteractionRepo(pool)
	referralRepo := pgrepo.NewReferralRepo(pool)
	purchaseRepo := pgrepo.NewPurchaseRepo(pool)
	supportRepo := pgrepo.NewSupportRepo(pool)
	throttleRepo := redrepo.NewThrottleRepo(redisClient)

	var sessionStore sessions.Store
	if cfg.Sessions.Backend == "memory" || !redisUp {
		sessionStore = sessions.NewMemoryStore(cfg.Sessions.TTL)
		logger.Info("using in-memory sessions")
	} else {
		sessionStore = redrepo.NewSessionRepo(redisClient, cfg.Sessions.TTL)
	}

	roles := access.NewService(cfg.Bot.AdminIDs, cfg.Bot.VerifierIDs)
	if len(roles.AdminIDs()) == 0 {
		logger.Warn("no admin ids configured, admin commands are unreachable")
	}

	likeLimiter := ratesvc.NewLimiter(throttleRepo, "like",
		ratesvc.Window{Name: "10s", Period: 10 * time.Second, Max: cfg.Limits.LikePer10Sec},
		ratesvc.Window{Name: "1m", Period: time.Minute, Max: cfg.Limits.LikePerMinute},
	)
	supportLimiter := ratesvc.NewLimiter(throttleRepo, "support",
		ratesvc.Window{Name: "10m", Period: 10 * time.Minute, Max: cfg.Limits.SupportPer10Min},
	)

	participantService := participants.NewService(participants.Dependencies{
		Participants: participantRepo,
		Referrals:    referralRepo,
		Likes:        interactionRepo,
		Logger:       logger,
	})
	referralService := referrals.NewService(referralRepo, participantRepo, referrals.Config{
		Reward:          cfg.Economy.ReferralReward,
		MatchesRequired: cfg.Economy.ReferralMatchesRequired,
	}, logger)
	ledgerService := ledger.NewService(ledger.Dependencies{
		Participants: participantRepo,
		Interactions: interactionRepo,
		Referrals:    referralService,
		Limiter:      likeLimiter,
		Logger:       logger,
	}, ledger.Config{
		MatchReward:    cfg.Economy.MatchReward,
		MatchCooldown:  cfg.Economy.MatchCooldown,
		LikeMessageMax: cfg.Limits.LikeMessageMax,
	})
	matchingService := matching.NewService(interactionRepo, participantRepo, ledgerService, cfg.Limits.CandidateBatch, logger)
	commerceService := commerce.NewService(purchaseRepo, participantRepo, promoCatalog(cfg.Economy.Promos), logger)
	adminService := adminsvc.NewService(participantRepo, roles, adminsvc.Config{
		MaxWarnings: cfg.Economy.MaxWarnings,
		UsersPage:   cfg.Limits.UsersPage,
		LeadersTop:  cfg.Limits.LeadersTop,
	}, logger)
	supportService := support.NewService(supportRepo, roles, supportLimiter, cfg.Limits.SupportMaxLength, logger)
	moderationService := modsvc.NewService(participantRepo, roles, logger)

	var storage *mediasvc.SkinArchive
	if strings.TrimSpace(cfg.S3.Endpoint) != "" && strings.TrimSpace(cfg.S3.Bucket) != "" {
		s3Client, err := s3infra.NewClient(s3infra.Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			logger.Warn("s3 unavailable, photo archive disabled", zap.Error(err))
		} else {
			storage = mediasvc.NewSkinArchive(s3Client, cfg.S3.Bucket)
		}
	} else {
		logger.Warn("photo archive is disabled: missing S3_ENDPOINT or S3_BUCKET")
	}

	app := &App{
		cfg:      cfg,
		logger:   logger,
		postgres: pool,
		redis:    redisClient,
	}
	if storage != nil {
		app.cleanupJob = cleanup.NewPhotoCleanupJob(participantRepo, storage, cfg.Bot.PhotoRetention, logger)
	}

	if strings.TrimSpace(cfg.Bot.Token) == "" {
		logger.Warn("BOT_TOKEN is empty, telegram listener disabled")
		return app, nil
	}

	bot, err := tginfra.NewBot(cfg.Bot.Token, cfg.Bot.PollTimeout)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	app.bot = bot

	var media *mediasvc.Service
	if storage != nil {
		media = mediasvc.NewService(bot, storage, participantRepo, logger)
	}

	app.handler = NewHandler(Deps{
		Gateway:           bot,
		Sessions:          sessionStore,
		Access:            roles,
		Participants:      participantService,
		Moderation:        moderationService,
		Matching:          matchingService,
		Ledger:            ledgerService,
		Referrals:         referralService,
		Commerce:          commerceService,
		Admin:             adminService,
		Support:           supportService,
		Media:             media,
		Tokens:            auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL),
		BotUsername:       bot.Username,
		VerificationsPage: cfg.Limits.VerificationsPage,
		Logger:            logger,
	})

	return app, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("bot app started")

	scheduler, err := a.startScheduler(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			a.logger.Warn("shutdown scheduler", zap.Error(err))
		}
	}()

	errCh := make(chan error, 1)
	if a.bot != nil {
		go func() {
			errCh <- a.bot.Listen(ctx, a.handler.Handlers())
		}()
	}

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("bot app stopped")
			return nil
		case err := <-errCh:
			if err == nil || errors.Is(err, context.Canceled) {
				continue
			}
			return err
		}
	}
}

// startScheduler registers the maintenance jobs. The cleanup job runs once at
// start and then every cleanup interval.
func (a *App) startScheduler(ctx context.Context) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	if a.cleanupJob != nil {
		interval := a.cfg.Bot.CleanupInterval
		if interval <= 0 {
			interval = 6 * time.Hour
		}

		_, err := scheduler.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(func() {
				if err := a.cleanupJob.Run(ctx); err != nil {
					a.logger.Error("photo cleanup failed", zap.Error(err))
				}
			}),
			gocron.WithName("photo-cleanup"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			_ = scheduler.Shutdown()
			return nil, fmt.Errorf("schedule photo cleanup: %w", err)
		}
	}

	scheduler.Start()
	return scheduler, nil
}

func (a *App) Close() {
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
}

func migrate(ctx context.Context, dsn string, logger *zap.Logger) error {
	db, err := pgrepo.OpenSQL(ctx, dsn)
	if err != nil {
		return fmt.Errorf("open postgres for migrations: %w", err)
	}
	defer db.Close()

	applied, err := pgrepo.Migrate(ctx, db)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	logger.Info("migrations applied", zap.Strings("files", applied))
	return nil
}

func promoCatalog(items []config.PromoConfig) []model.Promo {
	catalog := make([]model.Promo, 0, len(items))
	for _, item := range items {
		catalog = append(catalog, model.Promo{ID: item.ID, Title: item.Title, Price: item.Price})
	}
	return catalog
}
