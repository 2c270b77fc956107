package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qs-lzh/campus-cinema/internal/model"
	"github.com/qs-lzh/campus-cinema/internal/repository"
	"github.com/qs-lzh/campus-cinema/internal/service"
)

const maxTokenAttempts = 3

type ReservationInput struct {
	ShowingID   uint   `json:"showing_id"`
	HolderName  string `json:"holder_name"`
	HolderEmail string `json:"holder_email"`
	TicketCount int    `json:"ticket_count"`
}

func (in *ReservationInput) normalize() error {
	in.HolderName = strings.TrimSpace(in.HolderName)
	in.HolderEmail = strings.ToLower(strings.TrimSpace(in.HolderEmail))
	if in.HolderName == "" {
		return service.Validationf("holder_name is required")
	}
	if utf8.RuneCountInString(in.HolderName) > model.MaxHolderNameLen {
		return service.Validationf("holder_name must be at most %d characters", model.MaxHolderNameLen)
	}
	if utf8.RuneCountInString(in.HolderEmail) > model.MaxEmailLen {
		return service.Validationf("holder_email must be at most %d characters", model.MaxEmailLen)
	}
	if !strings.Contains(in.HolderEmail, "@") {
		return service.Validationf("holder_email %q is not an email address", in.HolderEmail)
	}
	if in.TicketCount < model.MinTicketsPerReservation || in.TicketCount > model.MaxTicketsPerReservation {
		return service.Validationf("ticket_count must be between %d and %d", model.MinTicketsPerReservation, model.MaxTicketsPerReservation)
	}
	return nil
}

type ReservationService interface {
	CreateReservation(ctx context.Context, input ReservationInput) (*model.Reservation, error)
	GetReservation(ctx context.Context, id uint) (*model.Reservation, error)
	ListReservations(ctx context.Context, filter repository.ReservationFilter) ([]model.Reservation, error)
	ExportCSV(ctx context.Context, out io.Writer) error
}

type reservationService struct {
	db          *gorm.DB
	ledger      InventoryLedger
	showingRepo repository.ShowingRepo
	repo        repository.ReservationRepo
	newToken    TokenGenerator
	now         Clock
	logger      *zap.Logger
}

var _ ReservationService = (*reservationService)(nil)

func NewReservationService(db *gorm.DB, ledger InventoryLedger, showingRepo repository.ShowingRepo, reservationRepo repository.ReservationRepo, newToken TokenGenerator, now Clock, logger *zap.Logger) *reservationService {
	return &reservationService{
		db:          db,
		ledger:      ledger,
		showingRepo: showingRepo,
		repo:        reservationRepo,
		newToken:    newToken,
		now:         now,
		logger:      logger,
	}
}

// CreateReservation takes seats from the ledger and inserts the voucher in
// one transaction, so a reservation exists exactly when its seats were taken.
func (s *reservationService) CreateReservation(ctx context.Context, input ReservationInput) (*model.Reservation, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}

	showing, err := s.showingRepo.GetByID(ctx, input.ShowingID)
	if err != nil {
		return nil, storeErr("get showing", err)
	}
	if showing.IsPast(s.now()) {
		return nil, fmt.Errorf("%w: showing %d started at %s %s", service.ErrShowingClosed, showing.ID, showing.Date, showing.Time)
	}
	if input.TicketCount > showing.RemainingCapacity {
		return nil, fmt.Errorf("%w: %d requested, %d left", service.ErrInsufficientCapacity, input.TicketCount, showing.RemainingCapacity)
	}

	var (
		reservation *model.Reservation
		booked      *model.Showing
	)
	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		reservation = &model.Reservation{
			ShowingID:   showing.ID,
			HolderName:  input.HolderName,
			HolderEmail: input.HolderEmail,
			TicketCount: input.TicketCount,
			Token:       s.newToken(),
		}
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if _, err := s.ledger.WithTx(tx).Reserve(ctx, showing.ID, input.TicketCount); err != nil {
				return err
			}
			if err := s.repo.WithTx(tx).Create(ctx, reservation); err != nil {
				return service.StoreError("insert reservation", err)
			}
			current, err := s.showingRepo.WithTx(tx).GetByID(ctx, showing.ID)
			if err != nil {
				return service.StoreError("reload showing", err)
			}
			booked = current
			return nil
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		s.logger.Warn("redemption token collision, retrying",
			zap.Uint("showing_id", showing.ID),
			zap.Int("attempt", attempt),
		)
	}
	if err != nil {
		if isBusinessErr(err) {
			return nil, err
		}
		return nil, service.StoreError("create reservation", err)
	}

	reservation.Showing = booked
	s.logger.Info("reservation created",
		zap.Uint("reservation_id", reservation.ID),
		zap.Uint("showing_id", showing.ID),
		zap.Int("tickets", reservation.TicketCount),
	)
	return reservation, nil
}

func (s *reservationService) GetReservation(ctx context.Context, id uint) (*model.Reservation, error) {
	reservation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get reservation", err)
	}
	return reservation, nil
}

// ListReservations returns reservations newest first.
func (s *reservationService) ListReservations(ctx context.Context, filter repository.ReservationFilter) ([]model.Reservation, error) {
	if filter.Limit < 0 {
		return nil, service.Validationf("limit must not be negative")
	}
	reservations, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storeErr("list reservations", err)
	}
	return reservations, nil
}
