package app

import (
	"context"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qs-lzh/campus-cinema/config"
	"github.com/qs-lzh/campus-cinema/internal/cache"
	"github.com/qs-lzh/campus-cinema/internal/metrics"
	"github.com/qs-lzh/campus-cinema/internal/mq"
	"github.com/qs-lzh/campus-cinema/internal/repository"
	"github.com/qs-lzh/campus-cinema/internal/service/domain"
	"github.com/qs-lzh/campus-cinema/internal/service/workflow"
)

type App struct {
	Config *config.Config

	DB        *gorm.DB
	Cache     *cache.RedisCache
	Logger    *zap.Logger
	MQConn    *amqp.Connection
	Publisher mq.Publisher
	Metrics   *metrics.Metrics

	MovieRepo       repository.MovieRepo
	ShowingRepo     repository.ShowingRepo
	ReservationRepo repository.ReservationRepo

	MovieService       domain.MovieService
	ShowingService     domain.ShowingService
	ReservationService domain.ReservationService
	RedemptionService  domain.RedemptionService
	StatsService       domain.StatsService

	ReservationWorkflow *workflow.ReservationWorkflow
	RedemptionWorkflow  *workflow.RedemptionWorkflow
	StatsWorkflow       *workflow.StatsWorkflow
}

// New wires repositories, services and workflows. The broker connection is
// attached separately by Init so the app can run against any Publisher.
func New(config *config.Config, db *gorm.DB, cache *cache.RedisCache, publisher mq.Publisher, logger *zap.Logger) *App {
	clock := domain.NewClock(config.Location)

	movieRepo := repository.NewMovieRepoGorm(db)
	showingRepo := repository.NewShowingRepoGorm(db)
	reservationRepo := repository.NewReservationRepoGorm(db)

	ledger := domain.NewInventoryLedger(showingRepo)
	movieService := domain.NewMovieService(db, movieRepo, showingRepo, cache, config.CatalogCacheTTL, logger)
	showingService := domain.NewShowingService(db, showingRepo, movieRepo, reservationRepo, clock)
	reservationService := domain.NewReservationService(db, ledger, showingRepo, reservationRepo,
		domain.NewTokenGenerator(config.TokenPrefix), clock, logger)
	redemptionService := domain.NewRedemptionService(reservationRepo, clock, logger)
	statsService := domain.NewStatsService(db, movieRepo, showingRepo, reservationRepo, cache, config.StatsCacheTTL, clock, logger)

	reservationWorkflow := workflow.NewReservationWorkflow(reservationService, publisher, logger)
	redemptionWorkflow := workflow.NewRedemptionWorkflow(redemptionService, publisher, logger)
	statsWorkflow := workflow.NewStatsWorkflow(statsService, logger)

	return &App{
		Config:              config,
		DB:                  db,
		Cache:               cache,
		Logger:              logger,
		Publisher:           publisher,
		Metrics:             metrics.New(),
		MovieRepo:           movieRepo,
		ShowingRepo:         showingRepo,
		ReservationRepo:     reservationRepo,
		MovieService:        movieService,
		ShowingService:      showingService,
		ReservationService:  reservationService,
		RedemptionService:   redemptionService,
		StatsService:        statsService,
		ReservationWorkflow: reservationWorkflow,
		RedemptionWorkflow:  redemptionWorkflow,
		StatsWorkflow:       statsWorkflow,
	}
}

// Init declares the queues and starts the consumers on mqConn.
func (app *App) Init(mqConn *amqp.Connection) error {
	app.MQConn = mqConn

	// init rabbit mq
	if err := mq.InitQueues(app.MQConn); err != nil {
		return err
	}
	if err := app.StatsWorkflow.Start(app.MQConn); err != nil {
		return err
	}

	return nil
}

// Ping checks the database and the cache.
func (app *App) Ping(ctx context.Context) error {
	sqlDB, err := app.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return err
	}
	return app.Cache.Ping(ctx)
}

func (app *App) Close() error {
	var errs []error
	if app.MQConn != nil {
		errs = append(errs, app.MQConn.Close())
	}
	errs = append(errs, app.Cache.Close())
	sqlDB, err := app.DB.DB()
	if err != nil {
		errs = append(errs, err)
	} else {
		errs = append(errs, sqlDB.Close())
	}
	return errors.Join(errs...)
}
