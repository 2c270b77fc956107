package domain

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/qs-lzh/campus-cinema/internal/cache"
	"github.com/qs-lzh/campus-cinema/internal/database/dbtest"
	"github.com/qs-lzh/campus-cinema/internal/model"
	"github.com/qs-lzh/campus-cinema/internal/repository"
)

// 18:00 on a Friday; showings on 2025-03-14 before 18:00 are past
var testNow = time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)

type fixture struct {
	db           *gorm.DB
	mr           *miniredis.Miniredis
	cache        *cache.RedisCache
	movies       repository.MovieRepo
	showings     repository.ShowingRepo
	reservations repository.ReservationRepo
	now          time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	mr := miniredis.RunT(t)
	c, err := cache.NewRedisCache(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return &fixture{
		db:           db,
		mr:           mr,
		cache:        c,
		movies:       repository.NewMovieRepoGorm(db),
		showings:     repository.NewShowingRepoGorm(db),
		reservations: repository.NewReservationRepoGorm(db),
		now:          testNow,
	}
}

func (f *fixture) clock() Clock {
	return func() time.Time { return f.now }
}

func (f *fixture) seedMovie(t *testing.T, title string) *model.Movie {
	t.Helper()
	movie := &model.Movie{Title: title, DurationMin: 110}
	require.NoError(t, f.movies.Create(context.Background(), movie))
	return movie
}

func (f *fixture) seedShowing(t *testing.T, movie *model.Movie, date, clock string, capacity int) *model.Showing {
	t.Helper()
	showing := &model.Showing{
		MovieID:           movie.ID,
		Date:              date,
		Time:              clock,
		Room:              "Sala 1",
		TotalCapacity:     capacity,
		RemainingCapacity: capacity,
	}
	require.NoError(t, f.showings.Create(context.Background(), showing))
	return showing
}

func (f *fixture) seedReservation(t *testing.T, showing *model.Showing, tickets int, consumed bool) *model.Reservation {
	t.Helper()
	ctx := context.Background()
	ok, err := f.showings.DecrementRemaining(ctx, showing.ID, tickets)
	require.NoError(t, err)
	require.True(t, ok)

	reservation := &model.Reservation{
		ShowingID:   showing.ID,
		HolderName:  "Seed",
		HolderEmail: "seed@uni.edu",
		TicketCount: tickets,
		Token:       fmt.Sprintf("SEED-%d-%d", showing.ID, time.Now().UnixNano()),
	}
	require.NoError(t, f.reservations.Create(ctx, reservation))
	if consumed {
		ok, err := f.reservations.MarkConsumed(ctx, reservation.Token, f.now)
		require.NoError(t, err)
		require.True(t, ok)
	}
	return reservation
}

func (f *fixture) remaining(t *testing.T, showingID uint) int {
	t.Helper()
	showing, err := f.showings.GetByID(context.Background(), showingID)
	require.NoError(t, err)
	return showing.RemainingCapacity
}

func (f *fixture) reservationService(t *testing.T) *reservationService {
	return NewReservationService(f.db, NewInventoryLedger(f.showings), f.showings, f.reservations, NewTokenGenerator("CINE"), f.clock(), zaptest.NewLogger(t))
}

func (f *fixture) redemptionService(t *testing.T) *redemptionService {
	return NewRedemptionService(f.reservations, f.clock(), zaptest.NewLogger(t))
}
