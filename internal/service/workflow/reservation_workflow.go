package workflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/qs-lzh/campus-cinema/internal/model"
	"github.com/qs-lzh/campus-cinema/internal/mq"
	"github.com/qs-lzh/campus-cinema/internal/service/domain"
)

// ReservationWorkflow books through the reservation service and announces
// the booking. The reservation is committed before publishing, so a publish
// failure is logged and never returned.
type ReservationWorkflow struct {
	ReservationService domain.ReservationService
	Publisher          mq.Publisher
	Logger             *zap.Logger
}

func NewReservationWorkflow(reservationService domain.ReservationService, publisher mq.Publisher, logger *zap.Logger) *ReservationWorkflow {
	return &ReservationWorkflow{
		ReservationService: reservationService,
		Publisher:          publisher,
		Logger:             logger,
	}
}

func (w *ReservationWorkflow) Reserve(ctx context.Context, input domain.ReservationInput) (*model.Reservation, error) {
	reservation, err := w.ReservationService.CreateReservation(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := w.Publisher.Publish(ctx, mq.ReservationCreatedQueue,
		mq.ReservationCreatedMessage{
			ReservationID: reservation.ID,
			ShowingID:     reservation.ShowingID,
			TicketCount:   reservation.TicketCount,
			CreatedAt:     reservation.CreatedAt,
		}); err != nil {
		w.Logger.Error("failed to publish reservation created",
			zap.Uint("reservation_id", reservation.ID),
			zap.Error(err),
		)
	}

	return reservation, nil
}
