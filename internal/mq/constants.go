package mq

import "time"

// Queue names and message definitions

// immediate queue from the reservation service to the stats workflow
// deliver message to tell the dashboard that tickets were taken
const (
	ReservationCreatedQueue = "reservation.created.immediate"
)

type ReservationCreatedMessage struct {
	ReservationID uint      `json:"reservation_id"`
	ShowingID     uint      `json:"showing_id"`
	TicketCount   int       `json:"ticket_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// immediate queue from the redemption service to the stats workflow
// deliver message to tell the dashboard that a voucher was used at the door
const (
	ReservationRedeemedQueue = "reservation.redeemed.immediate"
)

type ReservationRedeemedMessage struct {
	ReservationID uint      `json:"reservation_id"`
	ShowingID     uint      `json:"showing_id"`
	ConsumedAt    time.Time `json:"consumed_at"`
}

// Queues lists every queue the service declares at startup.
var Queues = []string{
	ReservationCreatedQueue,
	ReservationRedeemedQueue,
}
