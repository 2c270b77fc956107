package domain

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/qs-lzh/campus-cinema/internal/model"
	"github.com/qs-lzh/campus-cinema/internal/repository"
	"github.com/qs-lzh/campus-cinema/internal/service"
)

type ShowingInput struct {
	MovieID       uint   `json:"movie_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Room          string `json:"room"`
	TotalCapacity int    `json:"total_capacity"`
}

func (in *ShowingInput) normalize() error {
	in.Room = strings.TrimSpace(in.Room)
	date, clock, err := model.CanonicalSchedule(strings.TrimSpace(in.Date), strings.TrimSpace(in.Time))
	if err != nil {
		return service.Validationf("%v", err)
	}
	in.Date, in.Time = date, clock
	if utf8.RuneCountInString(in.Room) > model.MaxRoomLen {
		return service.Validationf("room must be at most %d characters", model.MaxRoomLen)
	}
	if in.TotalCapacity <= 0 {
		return service.Validationf("total_capacity must be positive")
	}
	return nil
}

type ShowingService interface {
	CreateShowing(ctx context.Context, input ShowingInput) (*model.Showing, error)
	UpdateShowing(ctx context.Context, id uint, input ShowingInput) (*model.Showing, error)
	DeleteShowing(ctx context.Context, id uint) error
	GetShowingByID(ctx context.Context, id uint) (*model.Showing, error)
	GetShowingsForMovie(ctx context.Context, movieID uint, fromDate string) ([]model.Showing, error)
	GetAllShowings(ctx context.Context) ([]model.Showing, error)
}

type showingService struct {
	db              *gorm.DB
	repo            repository.ShowingRepo
	movieRepo       repository.MovieRepo
	reservationRepo repository.ReservationRepo
	now             Clock
}

var _ ShowingService = (*showingService)(nil)

func NewShowingService(db *gorm.DB, showingRepo repository.ShowingRepo, movieRepo repository.MovieRepo, reservationRepo repository.ReservationRepo, now Clock) *showingService {
	return &showingService{
		db:              db,
		repo:            showingRepo,
		movieRepo:       movieRepo,
		reservationRepo: reservationRepo,
		now:             now,
	}
}

func (s *showingService) CreateShowing(ctx context.Context, input ShowingInput) (*model.Showing, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}
	if _, err := s.movieRepo.GetByID(ctx, input.MovieID); err != nil {
		return nil, storeErr("get movie", err)
	}
	showing := &model.Showing{
		MovieID:           input.MovieID,
		Date:              input.Date,
		Time:              input.Time,
		Room:              input.Room,
		TotalCapacity:     input.TotalCapacity,
		RemainingCapacity: input.TotalCapacity,
	}
	if err := s.repo.Create(ctx, showing); err != nil {
		return nil, storeErr("create showing", err)
	}
	return s.GetShowingByID(ctx, showing.ID)
}

// UpdateShowing reschedules a showing and, when the capacity changes, shifts
// the remaining seats by the same delta. A capacity below the seats already
// reserved is rejected. The movie of a showing is fixed.
func (s *showingService) UpdateShowing(ctx context.Context, id uint, input ShowingInput) (*model.Showing, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.GetByID(ctx, id)
		if err != nil {
			return storeErr("get showing", err)
		}
		if err := repo.UpdateSchedule(ctx, id, input.Date, input.Time, input.Room); err != nil {
			return storeErr("update showing", err)
		}
		if input.TotalCapacity == current.TotalCapacity {
			return nil
		}
		ok, err := repo.Resize(ctx, id, input.TotalCapacity)
		if err != nil {
			return storeErr("resize showing", err)
		}
		if !ok {
			reserved := current.TotalCapacity - current.RemainingCapacity
			return service.Validationf("total_capacity %d is below the %d seats already reserved", input.TotalCapacity, reserved)
		}
		return nil
	})
	if err != nil {
		if isBusinessErr(err) {
			return nil, err
		}
		return nil, service.StoreError("update showing", err)
	}
	return s.GetShowingByID(ctx, id)
}

// DeleteShowing refuses to remove a showing that has reservations.
func (s *showingService) DeleteShowing(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).GetByID(ctx, id); err != nil {
			return storeErr("get showing", err)
		}
		n, err := s.reservationRepo.WithTx(tx).CountByShowing(ctx, id)
		if err != nil {
			return storeErr("count reservations", err)
		}
		if n > 0 {
			return fmt.Errorf("%w: showing %d has %d reservations", service.ErrConflict, id, n)
		}
		if err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
			return storeErr("delete showing", err)
		}
		return nil
	})
	if err != nil && !isBusinessErr(err) {
		return service.StoreError("delete showing", err)
	}
	return err
}

func (s *showingService) GetShowingByID(ctx context.Context, id uint) (*model.Showing, error) {
	showing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get showing", err)
	}
	return showing, nil
}

// GetShowingsForMovie lists the showings of a movie that are on or after
// fromDate, not yet started and not sold out. An empty fromDate means today.
func (s *showingService) GetShowingsForMovie(ctx context.Context, movieID uint, fromDate string) ([]model.Showing, error) {
	now := s.now()
	if fromDate == "" {
		fromDate = now.Format(model.DateLayout)
	} else if _, err := model.StartsAt(fromDate, "00:00", nil); err != nil {
		return nil, service.Validationf("from: %v", err)
	}
	if _, err := s.movieRepo.GetByID(ctx, movieID); err != nil {
		return nil, storeErr("get movie", err)
	}
	showings, err := s.repo.ListAvailableByMovie(ctx, movieID, fromDate)
	if err != nil {
		return nil, storeErr("list showings", err)
	}
	upcoming := make([]model.Showing, 0, len(showings))
	for _, sh := range showings {
		if !sh.IsPast(now) {
			upcoming = append(upcoming, sh)
		}
	}
	return upcoming, nil
}

func (s *showingService) GetAllShowings(ctx context.Context) ([]model.Showing, error) {
	showings, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, storeErr("list showings", err)
	}
	return showings, nil
}
