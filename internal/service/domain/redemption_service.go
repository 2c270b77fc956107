package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/qs-lzh/campus-cinema/internal/model"
	"github.com/qs-lzh/campus-cinema/internal/repository"
	"github.com/qs-lzh/campus-cinema/internal/service"
)

type RedemptionService interface {
	Lookup(ctx context.Context, token string) (*model.Reservation, error)
	Redeem(ctx context.Context, token string) (*model.Reservation, error)
}

type redemptionService struct {
	repo   repository.ReservationRepo
	now    Clock
	logger *zap.Logger
}

var _ RedemptionService = (*redemptionService)(nil)

func NewRedemptionService(reservationRepo repository.ReservationRepo, now Clock, logger *zap.Logger) *redemptionService {
	return &redemptionService{
		repo:   reservationRepo,
		now:    now,
		logger: logger,
	}
}

func (s *redemptionService) Lookup(ctx context.Context, token string) (*model.Reservation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("lookup voucher: %w", service.ErrNotFound)
	}
	reservation, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, storeErr("lookup voucher", err)
	}
	return reservation, nil
}

// Redeem admits the holder of token. The consumed flag is flipped by a
// conditional update, so of any number of concurrent calls exactly one
// succeeds and the rest get ErrAlreadyRedeemed.
func (s *redemptionService) Redeem(ctx context.Context, token string) (*model.Reservation, error) {
	reservation, err := s.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	if reservation.Consumed {
		return nil, alreadyRedeemed(reservation)
	}

	ok, err := s.repo.MarkConsumed(ctx, reservation.Token, s.now().UTC())
	if err != nil {
		return nil, storeErr("redeem voucher", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: voucher %d", service.ErrAlreadyRedeemed, reservation.ID)
	}

	redeemed, err := s.repo.GetByToken(ctx, reservation.Token)
	if err != nil {
		return nil, storeErr("reload voucher", err)
	}
	s.logger.Info("voucher redeemed",
		zap.Uint("reservation_id", redeemed.ID),
		zap.Uint("showing_id", redeemed.ShowingID),
		zap.Int("tickets", redeemed.TicketCount),
	)
	return redeemed, nil
}

func alreadyRedeemed(r *model.Reservation) error {
	if r.ConsumedAt == nil {
		return fmt.Errorf("%w: voucher %d", service.ErrAlreadyRedeemed, r.ID)
	}
	return fmt.Errorf("%w: voucher %d at %s", service.ErrAlreadyRedeemed, r.ID, r.ConsumedAt.Format(time.RFC3339))
}
