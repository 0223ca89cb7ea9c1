package app

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sfms-dev/facility_bot/internal/backend"
	"github.com/sfms-dev/facility_bot/internal/config"
	"github.com/sfms-dev/facility_bot/internal/controller"
	"github.com/sfms-dev/facility_bot/internal/controller/handlers"
	"github.com/sfms-dev/facility_bot/internal/inventory"
	"github.com/sfms-dev/facility_bot/internal/model"
	"github.com/sfms-dev/facility_bot/internal/repository"
	"github.com/sfms-dev/facility_bot/internal/repository/memory"
	"github.com/sfms-dev/facility_bot/internal/repository/redisstore"
	"github.com/sfms-dev/facility_bot/internal/service"
)

// Stores is the selected persistence backend.
type Stores struct {
	Daily     repository.DailyStateStore
	Borrowers repository.BorrowerStore
	close     func()
}

func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStores connects the state store named by STATE_STORE.
func OpenStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	switch cfg.StateStore {
	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}

		migrator, err := NewMigrator(pool, logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
		defer migrator.Close()
		if err := migrator.Run(ctx); err != nil {
			pool.Close()
			return nil, err
		}

		logger.Info("Using postgres state store")
		return &Stores{
			Daily:     repository.NewDailyStateRepository(pool),
			Borrowers: repository.NewBorrowerRepository(pool),
			close:     pool.Close,
		}, nil

	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}

		logger.Info("Using redis state store", zap.String("addr", cfg.RedisAddr))
		return &Stores{
			Daily:     redisstore.NewDailyStateStore(rdb, redisstore.DayTTL),
			Borrowers: redisstore.NewBorrowerStore(rdb),
			close:     func() { _ = rdb.Close() },
		}, nil

	default:
		logger.Warn("Using in-memory state store; check-in progress is lost on restart")
		return &Stores{
			Daily:     memory.NewDailyStateStore(),
			Borrowers: memory.NewBorrowerStore(),
		}, nil
	}
}

// App is the assembled desk bot.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	stores     *Stores
	client     *backend.Client
	session    *service.SessionService
	scheduler  *Scheduler
	controller *controller.BotController
}

// New wires the stores, the backend client, the services and the bot.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	client, err := backend.NewClient(cfg.BackendURL, cfg.HTTPTimeout, logger.Named("backend"))
	if err != nil {
		return nil, fmt.Errorf("create backend client: %w", err)
	}

	stores, err := OpenStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	clock := service.SystemClock(loc)
	mirror := inventory.NewMirror()

	session := service.NewSessionService(client, cfg.BackendUser, cfg.BackendPassword, logger)
	checkins := service.NewCheckinService(model.DefaultCatalog(), stores.Daily, client, clock, logger)
	feedback := service.NewFeedbackService(checkins, client, cfg.FeedbackUpload, logger)
	returns := service.NewReturnService(mirror, client, logger)
	faculty := service.NewFacultyService(client, logger)
	stock := service.NewStockService(mirror, client, logger)
	borrows := service.NewBorrowService(mirror, client, faculty, stores.Borrowers, returns, clock, logger)

	var ctrl *controller.BotController
	b, err := bot.New(cfg.TelegramToken,
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			ctrl.DefaultHandler(ctx, b, update)
		}),
	)
	if err != nil {
		stores.Close()
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	ctrl = controller.NewBotController(b, handlers.Services{
		Checkins: checkins,
		Feedback: feedback,
		Stock:    stock,
		Borrows:  borrows,
		Returns:  returns,
		Faculty:  faculty,
		Session:  session,
	}, handlers.NewAccess(cfg.AllowedChatIDs, cfg.StaffChatIDs), logger.Named("bot"))

	return &App{
		cfg:        cfg,
		logger:     logger,
		stores:     stores,
		client:     client,
		session:    session,
		scheduler:  NewScheduler(returns, checkins, cfg.ReconcileInterval, logger.Named("scheduler")),
		controller: ctrl,
	}, nil
}

// Run signs in, starts the background jobs and polls Telegram until ctx is
// cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.stores.Close()

	if err := a.session.Ensure(ctx); err != nil {
		// Public endpoints still work without a session.
		a.logger.Warn("Backend sign-in failed", zap.Error(err))
	}

	if err := a.controller.RegisterHandlers(ctx); err != nil {
		return fmt.Errorf("register handlers: %w", err)
	}

	a.scheduler.Start(ctx)
	defer a.scheduler.Stop()

	err := a.controller.Start(ctx)

	if a.session.Enabled() {
		logoutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.HTTPTimeout)
		defer cancel()
		if lerr := a.client.Logout(logoutCtx); lerr != nil {
			a.logger.Warn("Backend sign-out failed", zap.Error(lerr))
		}
	}
	return err
}
