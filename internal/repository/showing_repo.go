package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/qs-lzh/campus-cinema/internal/model"
)

type ShowingRepo interface {
	WithTx(tx *gorm.DB) ShowingRepo
	Create(ctx context.Context, showing *model.Showing) error
	GetByID(ctx context.Context, id uint) (*model.Showing, error)
	ListAvailableByMovie(ctx context.Context, movieID uint, fromDate string) ([]model.Showing, error)
	ListAll(ctx context.Context) ([]model.Showing, error)
	UpdateSchedule(ctx context.Context, id uint, date, clock, room string) error
	Resize(ctx context.Context, id uint, totalCapacity int) (bool, error)
	DecrementRemaining(ctx context.Context, id uint, count int) (bool, error)
	Delete(ctx context.Context, id uint) error
	CountByMovie(ctx context.Context, movieID uint) (int64, error)
}

type showingRepoGorm struct {
	db *gorm.DB
}

var _ ShowingRepo = (*showingRepoGorm)(nil)

func NewShowingRepoGorm(db *gorm.DB) *showingRepoGorm {
	return &showingRepoGorm{
		db: db,
	}
}

func (r *showingRepoGorm) WithTx(tx *gorm.DB) ShowingRepo {
	return &showingRepoGorm{
		db: tx,
	}
}

func (r *showingRepoGorm) Create(ctx context.Context, showing *model.Showing) error {
	return gorm.G[model.Showing](r.db).Create(ctx, showing)
}

func (r *showingRepoGorm) GetByID(ctx context.Context, id uint) (*model.Showing, error) {
	var showing model.Showing
	if err := r.db.WithContext(ctx).Preload("Movie").Where("id = ?", id).First(&showing).Error; err != nil {
		return nil, err
	}
	return &showing, nil
}

// ListAvailableByMovie returns showings on or after fromDate that still have
// seats. Callers drop the ones already started today.
func (r *showingRepoGorm) ListAvailableByMovie(ctx context.Context, movieID uint, fromDate string) ([]model.Showing, error) {
	var showings []model.Showing
	err := r.db.WithContext(ctx).
		Preload("Movie").
		Where("movie_id = ? AND show_date >= ? AND remaining_capacity > 0", movieID, fromDate).
		Order("show_date").Order("show_time").
		Find(&showings).Error
	return showings, err
}

func (r *showingRepoGorm) ListAll(ctx context.Context) ([]model.Showing, error) {
	var showings []model.Showing
	err := r.db.WithContext(ctx).Preload("Movie").Order("show_date").Order("show_time").Find(&showings).Error
	return showings, err
}

func (r *showingRepoGorm) UpdateSchedule(ctx context.Context, id uint, date, clock, room string) error {
	res := r.db.WithContext(ctx).Model(&model.Showing{}).Where("id = ?", id).Updates(map[string]any{
		"show_date": date,
		"show_time": clock,
		"room":      room,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Resize sets a new total capacity and shifts remaining capacity by the same
// delta, in one statement. It reports false when the showing is missing or
// the seats already handed out would exceed the new total.
func (r *showingRepoGorm) Resize(ctx context.Context, id uint, totalCapacity int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Showing{}).
		Where("id = ? AND remaining_capacity + (? - total_capacity) >= 0", id, totalCapacity).
		UpdateColumns(map[string]any{
			"remaining_capacity": gorm.Expr("remaining_capacity + (? - total_capacity)", totalCapacity),
			"total_capacity":     totalCapacity,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DecrementRemaining takes count seats in a single conditional update. It
// reports false, without touching the row, when fewer than count seats are
// left or the showing does not exist.
func (r *showingRepoGorm) DecrementRemaining(ctx context.Context, id uint, count int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Showing{}).
		Where("id = ? AND remaining_capacity >= ?", id, count).
		UpdateColumn("remaining_capacity", gorm.Expr("remaining_capacity - ?", count))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *showingRepoGorm) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Showing{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *showingRepoGorm) CountByMovie(ctx context.Context, movieID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Showing{}).Where("movie_id = ?", movieID).Count(&n).Error
	return n, err
}
