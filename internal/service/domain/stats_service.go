package domain

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qs-lzh/campus-cinema/internal/cache"
	"github.com/qs-lzh/campus-cinema/internal/model"
	"github.com/qs-lzh/campus-cinema/internal/repository"
	"github.com/qs-lzh/campus-cinema/internal/service"
	"github.com/qs-lzh/campus-cinema/internal/stats"
)

type StatsService interface {
	Attendance(ctx context.Context) (*stats.Attendance, error)
	PopularMovies(ctx context.Context) ([]stats.MoviePopularity, error)
	Occupancy(ctx context.Context) (float64, error)
	DailyTickets(ctx context.Context) ([]stats.DailyTickets, error)
	Summary(ctx context.Context) (*stats.Summary, error)
	InvalidateSummary(ctx context.Context) error
}

type statsService struct {
	db              *gorm.DB
	movieRepo       repository.MovieRepo
	showingRepo     repository.ShowingRepo
	reservationRepo repository.ReservationRepo
	cache           Cache
	cacheTTL        time.Duration
	now             Clock
	logger          *zap.Logger
}

var _ StatsService = (*statsService)(nil)

func NewStatsService(db *gorm.DB, movieRepo repository.MovieRepo, showingRepo repository.ShowingRepo, reservationRepo repository.ReservationRepo, cache Cache, cacheTTL time.Duration, now Clock, logger *zap.Logger) *statsService {
	return &statsService{
		db:              db,
		movieRepo:       movieRepo,
		showingRepo:     showingRepo,
		reservationRepo: reservationRepo,
		cache:           cache,
		cacheTTL:        cacheTTL,
		now:             now,
		logger:          logger,
	}
}

type snapshot struct {
	reservations []model.Reservation
	showings     []model.Showing
	movies       int64
}

// load reads everything the aggregations need inside one transaction.
func (s *statsService) load(ctx context.Context) (*snapshot, error) {
	var snap snapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if snap.reservations, err = s.reservationRepo.WithTx(tx).List(ctx, repository.ReservationFilter{}); err != nil {
			return err
		}
		if snap.showings, err = s.showingRepo.WithTx(tx).ListAll(ctx); err != nil {
			return err
		}
		snap.movies, err = s.movieRepo.WithTx(tx).Count(ctx)
		return err
	})
	if err != nil {
		return nil, service.StoreError("load stats snapshot", err)
	}
	return &snap, nil
}

func (s *statsService) Attendance(ctx context.Context) (*stats.Attendance, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	a := stats.ComputeAttendance(snap.reservations, s.now())
	return &a, nil
}

func (s *statsService) PopularMovies(ctx context.Context) ([]stats.MoviePopularity, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return stats.PopularMovies(snap.reservations), nil
}

func (s *statsService) Occupancy(ctx context.Context) (float64, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	return stats.Occupancy(snap.reservations, snap.showings), nil
}

func (s *statsService) DailyTickets(ctx context.Context) ([]stats.DailyTickets, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return stats.TicketsPerDay(snap.reservations, s.now().Location()), nil
}

// Summary serves the dashboard from the cache when possible. A cached
// summary lives at most cacheTTL, or until a reservation event invalidates it.
func (s *statsService) Summary(ctx context.Context) (*stats.Summary, error) {
	var cached stats.Summary
	err := s.cache.Get(ctx, cache.StatsSummaryKey, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("stats cache read failed", zap.Error(err))
	}

	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	summary := stats.Summarize(snap.reservations, snap.showings, snap.movies, s.now())
	if err := s.cache.Set(ctx, cache.StatsSummaryKey, summary, s.cacheTTL); err != nil {
		s.logger.Warn("stats cache write failed", zap.Error(err))
	}
	return &summary, nil
}

func (s *statsService) InvalidateSummary(ctx context.Context) error {
	if err := s.cache.Delete(ctx, cache.StatsSummaryKey); err != nil {
		return service.StoreError("invalidate stats summary", err)
	}
	return nil
}
