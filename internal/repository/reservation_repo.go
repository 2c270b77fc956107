package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qs-lzh/campus-cinema/internal/model"
)

type ReservationFilter struct {
	Consumed *bool
	Limit    int
}

type ReservationRepo interface {
	WithTx(tx *gorm.DB) ReservationRepo
	Create(ctx context.Context, reservation *model.Reservation) error
	GetByID(ctx context.Context, id uint) (*model.Reservation, error)
	GetByToken(ctx context.Context, token string) (*model.Reservation, error)
	MarkConsumed(ctx context.Context, token string, at time.Time) (bool, error)
	List(ctx context.Context, filter ReservationFilter) ([]model.Reservation, error)
	CountByShowing(ctx context.Context, showingID uint) (int64, error)
}

type reservationRepoGorm struct {
	db *gorm.DB
}

var _ ReservationRepo = (*reservationRepoGorm)(nil)

func NewReservationRepoGorm(db *gorm.DB) *reservationRepoGorm {
	return &reservationRepoGorm{
		db: db,
	}
}

func (r *reservationRepoGorm) WithTx(tx *gorm.DB) ReservationRepo {
	return &reservationRepoGorm{
		db: tx,
	}
}

func (r *reservationRepoGorm) Create(ctx context.Context, reservation *model.Reservation) error {
	return gorm.G[model.Reservation](r.db).Create(ctx, reservation)
}

func (r *reservationRepoGorm) GetByID(ctx context.Context, id uint) (*model.Reservation, error) {
	var reservation model.Reservation
	if err := r.db.WithContext(ctx).Preload("Showing.Movie").Where("id = ?", id).First(&reservation).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepoGorm) GetByToken(ctx context.Context, token string) (*model.Reservation, error) {
	var reservation model.Reservation
	if err := r.db.WithContext(ctx).Preload("Showing.Movie").Where("token = ?", token).First(&reservation).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// MarkConsumed flips consumed from false to true. The pre-state is part of
// the WHERE clause, so of several concurrent calls for one token exactly one
// reports true.
func (r *reservationRepoGorm) MarkConsumed(ctx context.Context, token string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Reservation{}).
		Where("token = ? AND consumed = ?", token, false).
		UpdateColumns(map[string]any{
			"consumed":    true,
			"consumed_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// List returns reservations newest first with their showing and movie.
func (r *reservationRepoGorm) List(ctx context.Context, filter ReservationFilter) ([]model.Reservation, error) {
	q := r.db.WithContext(ctx).Preload("Showing.Movie").Order("created_at DESC").Order("id DESC")
	if filter.Consumed != nil {
		q = q.Where("consumed = ?", *filter.Consumed)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var reservations []model.Reservation
	err := q.Find(&reservations).Error
	return reservations, err
}

func (r *reservationRepoGorm) CountByShowing(ctx context.Context, showingID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Reservation{}).Where("showing_id = ?", showingID).Count(&n).Error
	return n, err
}
