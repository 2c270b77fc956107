package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qs-lzh/campus-cinema/internal/cache"
	"github.com/qs-lzh/campus-cinema/internal/model"
	"github.com/qs-lzh/campus-cinema/internal/repository"
	"github.com/qs-lzh/campus-cinema/internal/service"
)

type MovieInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DurationMin int    `json:"duration_min"`
	PosterURL   string `json:"poster_url"`
}

func (in *MovieInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.PosterURL = strings.TrimSpace(in.PosterURL)
	if in.Title == "" {
		return service.Validationf("title is required")
	}
	if utf8.RuneCountInString(in.Title) > model.MaxTitleLen {
		return service.Validationf("title must be at most %d characters", model.MaxTitleLen)
	}
	if utf8.RuneCountInString(in.PosterURL) > model.MaxPosterURLLen {
		return service.Validationf("poster_url must be at most %d characters", model.MaxPosterURLLen)
	}
	if in.DurationMin <= 0 {
		return service.Validationf("duration_min must be positive")
	}
	return nil
}

type MovieService interface {
	CreateMovie(ctx context.Context, input MovieInput) (*model.Movie, error)
	UpdateMovie(ctx context.Context, id uint, input MovieInput) (*model.Movie, error)
	DeleteMovie(ctx context.Context, id uint) error
	GetMovieByID(ctx context.Context, id uint) (*model.Movie, error)
	GetAllMovies(ctx context.Context) ([]model.Movie, error)
}

type movieService struct {
	db          *gorm.DB
	repo        repository.MovieRepo
	showingRepo repository.ShowingRepo
	cache       Cache
	cacheTTL    time.Duration
	logger      *zap.Logger
}

var _ MovieService = (*movieService)(nil)

func NewMovieService(db *gorm.DB, movieRepo repository.MovieRepo, showingRepo repository.ShowingRepo, cache Cache, cacheTTL time.Duration, logger *zap.Logger) *movieService {
	return &movieService{
		db:          db,
		repo:        movieRepo,
		showingRepo: showingRepo,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

func (s *movieService) CreateMovie(ctx context.Context, input MovieInput) (*model.Movie, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}
	movie := &model.Movie{
		Title:       input.Title,
		Description: input.Description,
		DurationMin: input.DurationMin,
		PosterURL:   input.PosterURL,
	}
	if err := s.repo.Create(ctx, movie); err != nil {
		return nil, storeErr("create movie", err)
	}
	s.invalidate(ctx, movie.ID)
	return movie, nil
}

func (s *movieService) UpdateMovie(ctx context.Context, id uint, input MovieInput) (*model.Movie, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}
	movie := &model.Movie{
		ID:          id,
		Title:       input.Title,
		Description: input.Description,
		DurationMin: input.DurationMin,
		PosterURL:   input.PosterURL,
	}
	if err := s.repo.Update(ctx, movie); err != nil {
		return nil, storeErr("update movie", err)
	}
	s.invalidate(ctx, id)
	return s.loadMovie(ctx, id)
}

// DeleteMovie refuses to remove a movie that still has showings.
func (s *movieService) DeleteMovie(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).GetByID(ctx, id); err != nil {
			return storeErr("get movie", err)
		}
		n, err := s.showingRepo.WithTx(tx).CountByMovie(ctx, id)
		if err != nil {
			return storeErr("count showings", err)
		}
		if n > 0 {
			return fmt.Errorf("%w: movie %d has %d showings", service.ErrConflict, id, n)
		}
		if err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
			return storeErr("delete movie", err)
		}
		return nil
	})
	if err != nil {
		if isBusinessErr(err) {
			return err
		}
		return service.StoreError("delete movie", err)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *movieService) GetMovieByID(ctx context.Context, id uint) (*model.Movie, error) {
	key := cache.MakeMovieKey(id)
	var cached model.Movie
	if s.readCache(ctx, key, &cached) {
		return &cached, nil
	}
	movie, err := s.loadMovie(ctx, id)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, key, movie)
	return movie, nil
}

func (s *movieService) GetAllMovies(ctx context.Context) ([]model.Movie, error) {
	var cached []model.Movie
	if s.readCache(ctx, cache.MovieListKey, &cached) {
		return cached, nil
	}
	movies, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, storeErr("list movies", err)
	}
	s.writeCache(ctx, cache.MovieListKey, movies)
	return movies, nil
}

func (s *movieService) loadMovie(ctx context.Context, id uint) (*model.Movie, error) {
	movie, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get movie", err)
	}
	return movie, nil
}

// cache failures only cost a database round trip, so they are logged and
// never returned

func (s *movieService) readCache(ctx context.Context, key string, dest any) bool {
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (s *movieService) writeCache(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *movieService) invalidate(ctx context.Context, id uint) {
	if err := s.cache.Delete(ctx, cache.MovieListKey, cache.MakeMovieKey(id)); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Uint("movie_id", id), zap.Error(err))
	}
}
