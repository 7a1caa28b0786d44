package app

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"openchat/internal/app/health"
	"openchat/internal/app/message"
	"openchat/internal/app/question"
	"openchat/internal/app/reaction"
	"openchat/internal/app/upload"
	"openchat/internal/app/user"
	"openchat/internal/clock"
	"openchat/internal/config"
	"openchat/internal/db"
	"openchat/internal/db/seeder"
	"openchat/internal/gateways/websocket"
	"openchat/internal/identitytoken"
	"openchat/internal/metrics"
	"openchat/internal/middleware"
	"openchat/internal/providers/minio"
	"openchat/internal/providers/redis"
	"openchat/internal/realtime"
	"openchat/internal/retention"
	"openchat/internal/router"
	"openchat/internal/scheduler"
	"openchat/internal/transcript"
	"openchat/internal/utils"
)

type Application struct {
	Router *router.Router
	DB     *gorm.DB

	redis      *redis.RedisProvider
	bus        *utils.EventBus
	broker     *realtime.Broker
	hub        *websocket.Hub
	schedulers []*scheduler.Scheduler
	logger     *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func Bootstrap(cfg *config.Config, logger *zap.Logger) (*Application, error) {
	dbConn, err := db.Connect(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(dbConn, logger); err != nil {
		return nil, err
	}

	seed := seeder.NewSeeder(dbConn, logger)
	if err := seed.Seed(); err != nil {
		logger.Warn("Failed to run seeders", zap.Error(err))
	}

	redisProvider := redis.NewRedisProvider(cfg.RedisURL, logger, cfg.RedisTTL)

	// nil providers must stay nil interfaces for the handlers that check them
	var (
		storage upload.Storage
		media   message.MediaStore
		pinger  utils.Pinger
	)
	minioProvider, err := minio.NewMinioProvider(cfg, logger)
	if err != nil {
		logger.Warn("Failed to initialize MinIO provider, uploads disabled", zap.Error(err))
	} else {
		storage, media, pinger = minioProvider, minioProvider, minioProvider
	}

	m := metrics.New()
	eventBus := utils.NewEventBus()
	broker := realtime.NewBroker(realtime.NewRedisTransport(redisProvider), eventBus, m, logger)
	hub := websocket.NewHub(logger,
		transcript.TableMessages,
		transcript.TableReactions,
		question.Question{}.TableName(),
		question.TableAnswers,
	)
	eventBus.Subscribe(utils.AllTables, hub.Broadcast)
	m.GaugeFunc("ws_connections", "Open realtime websocket connections.", func() float64 {
		return float64(hub.Connections())
	})

	issuer := identitytoken.NewIssuer(cfg.JWTSecret, cfg.IdentityTokenTTL)
	policy := middleware.IdentityPolicy{RequireSigned: cfg.RequireSignedIdentity}

	userRepo := user.NewRepository(dbConn)
	messageRepo := message.NewRepository(dbConn)
	reactionRepo := reaction.NewRepository(dbConn)
	questionRepo := question.NewRepository(dbConn)

	userService := user.NewService(userRepo, issuer, logger)
	messageService := message.NewService(messageRepo, redisProvider, redisProvider, media, broker, m, logger, message.Options{
		HistoryLimit: cfg.HistoryLimit,
		SendCooldown: cfg.SendCooldown,
		CacheTTL:     cfg.RedisTTL,
	})
	reactionService := reaction.NewService(reactionRepo, messageRepo, redisProvider, broker, logger, cfg.RedisTTL)
	questionService := question.NewService(questionRepo, broker, m, logger)

	jobs := retention.New(messageService, questionService, cfg.RetentionPeriod, clock.Real(), m, logger)
	purge, err := scheduler.New("retention", cfg.RetentionCron, jobs.PurgeExpired, nil, logger)
	if err != nil {
		return nil, err
	}
	rotate, err := scheduler.New("daily-question", cfg.QuestionCron, jobs.RotateQuestion, nil, logger)
	if err != nil {
		return nil, err
	}

	healthHandler := health.NewHandler(health.NewService(&utils.HealthChecker{
		DB:      dbConn,
		Redis:   redisProvider.Client,
		Storage: pinger,
	}, hub.Connections))
	userHandler := user.NewHandler(userService, policy)
	messageHandler := message.NewHandler(messageService, policy)
	reactionHandler := reaction.NewHandler(reactionService, policy)
	questionHandler := question.NewHandler(questionService, policy)
	uploadHandler := upload.NewHandler(storage, upload.Limits{
		MaxImageBytes: cfg.MaxImageSize,
		MaxAudioBytes: cfg.MaxFileSize,
	}, logger)

	r := router.NewRouter(cfg, logger, m, issuer)

	r.RegisterHealthRoutes(healthHandler)
	r.RegisterWebSocketRoutes(hub)
	r.RegisterUserRoutes(userHandler)
	r.RegisterMessageRoutes(messageHandler)
	r.RegisterReactionRoutes(reactionHandler)
	r.RegisterQuestionRoutes(questionHandler)
	r.RegisterUploadRoutes(uploadHandler)
	r.RegisterMetricsRoutes(m)
	r.RegisterSwaggerRoutes()

	return &Application{
		Router:     r,
		DB:         dbConn,
		redis:      redisProvider,
		bus:        eventBus,
		broker:     broker,
		hub:        hub,
		schedulers: []*scheduler.Scheduler{purge, rotate},
		logger:     logger,
	}, nil
}

// Start launches the background workers: change fan-out, the websocket
// hub and the scheduled jobs.
func (a *Application) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)

	for _, run := range []func(context.Context){a.bus.Run, a.broker.Run, a.hub.Run} {
		run := run
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			run(ctx)
		}()
	}

	for _, s := range a.schedulers {
		s.Start(ctx)
	}
}

// Stop halts the workers and releases connections.
func (a *Application) Stop() {
	for _, s := range a.schedulers {
		s.Stop()
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	if err := a.redis.Close(); err != nil {
		a.logger.Warn("Failed to close redis", zap.Error(err))
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
