package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/qs-lzh/campus-cinema/internal/mq"
	"github.com/qs-lzh/campus-cinema/internal/service/domain"
)

const invalidateTimeout = 5 * time.Second

// StatsWorkflow drops the cached dashboard summary whenever tickets are
// booked or redeemed.
type StatsWorkflow struct {
	statsService domain.StatsService
	logger       *zap.Logger
}

func NewStatsWorkflow(statsService domain.StatsService, logger *zap.Logger) *StatsWorkflow {
	return &StatsWorkflow{
		statsService: statsService,
		logger:       logger,
	}
}

func (w *StatsWorkflow) Start(mqConn *amqp.Connection) error {
	if err := w.consume(mqConn, mq.ReservationCreatedQueue, decodeCreated); err != nil {
		return err
	}
	if err := w.consume(mqConn, mq.ReservationRedeemedQueue, decodeRedeemed); err != nil {
		return err
	}
	return nil
}

func (w *StatsWorkflow) consume(conn *amqp.Connection, queueName string, decode func([]byte) (uint, error)) error {
	ch, err := mq.NewChannel(conn)
	if err != nil {
		return err
	}

	msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			if err := w.handleEvent(msg, decode); err != nil {
				w.logger.Warn("failed to handle reservation event",
					zap.String("queue", queueName),
					zap.Error(err),
				)
			}
		}
	}()

	return nil
}

func (w *StatsWorkflow) handleEvent(msg amqp.Delivery, decode func([]byte) (uint, error)) error {
	reservationID, err := decode(msg.Body)
	if err != nil {
		msg.Nack(false, false)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
	defer cancel()
	// a lost invalidation only leaves the summary stale until its TTL expires
	if err := w.statsService.InvalidateSummary(ctx); err != nil {
		msg.Nack(false, false)
		return fmt.Errorf("reservation %d: %w", reservationID, err)
	}

	msg.Ack(false)

	return nil
}

func decodeCreated(body []byte) (uint, error) {
	var message mq.ReservationCreatedMessage
	if err := json.Unmarshal(body, &message); err != nil {
		return 0, err
	}
	return message.ReservationID, nil
}

func decodeRedeemed(body []byte) (uint, error) {
	var message mq.ReservationRedeemedMessage
	if err := json.Unmarshal(body, &message); err != nil {
		return 0, err
	}
	return message.ReservationID, nil
}
