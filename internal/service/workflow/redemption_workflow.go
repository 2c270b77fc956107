package workflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/qs-lzh/campus-cinema/internal/model"
	"github.com/qs-lzh/campus-cinema/internal/mq"
	"github.com/qs-lzh/campus-cinema/internal/service/domain"
)

type RedemptionWorkflow struct {
	RedemptionService domain.RedemptionService
	Publisher         mq.Publisher
	Logger            *zap.Logger
}

func NewRedemptionWorkflow(redemptionService domain.RedemptionService, publisher mq.Publisher, logger *zap.Logger) *RedemptionWorkflow {
	return &RedemptionWorkflow{
		RedemptionService: redemptionService,
		Publisher:         publisher,
		Logger:            logger,
	}
}

func (w *RedemptionWorkflow) Redeem(ctx context.Context, token string) (*model.Reservation, error) {
	reservation, err := w.RedemptionService.Redeem(ctx, token)
	if err != nil {
		return nil, err
	}

	message := mq.ReservationRedeemedMessage{
		ReservationID: reservation.ID,
		ShowingID:     reservation.ShowingID,
	}
	if reservation.ConsumedAt != nil {
		message.ConsumedAt = *reservation.ConsumedAt
	}
	if err := w.Publisher.Publish(ctx, mq.ReservationRedeemedQueue, message); err != nil {
		w.Logger.Error("failed to publish reservation redeemed",
			zap.Uint("reservation_id", reservation.ID),
			zap.Error(err),
		)
	}

	return reservation, nil
}
