package model

import (
	"time"
)

type Movie struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:200;not null;uniqueIndex" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	DurationMin int       `gorm:"not null;check:chk_movies_duration,duration_min > 0" json:"duration_min"`
	PosterURL   string    `gorm:"size:500" json:"poster_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// Showing is a scheduled screening. Date and Time are kept as the
// "2006-01-02" / "15:04" strings the box office uses; whether a showing is
// past is always derived with IsPast, never stored.
type Showing struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	MovieID           uint      `gorm:"not null;index" json:"movie_id"`
	Date              string    `gorm:"column:show_date;type:varchar(10);not null;index" json:"date"`
	Time              string    `gorm:"column:show_time;type:varchar(8);not null" json:"time"`
	Room              string    `gorm:"size:64" json:"room"`
	TotalCapacity     int       `gorm:"not null;check:chk_showings_total,total_capacity > 0" json:"total_capacity"`
	RemainingCapacity int       `gorm:"not null;check:chk_showings_remaining,remaining_capacity >= 0 AND remaining_capacity <= total_capacity" json:"remaining_capacity"`
	CreatedAt         time.Time `json:"created_at"`

	Movie *Movie `gorm:"foreignKey:MovieID;constraint:OnDelete:RESTRICT" json:"movie,omitempty"`
}

// Reservation is a voucher for TicketCount seats of a showing. Consumed is
// flipped exactly once, by redemption.
type Reservation struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ShowingID   uint       `gorm:"not null;index" json:"showing_id"`
	HolderName  string     `gorm:"size:120;not null" json:"holder_name"`
	HolderEmail string     `gorm:"size:254;not null;index" json:"holder_email"`
	TicketCount int        `gorm:"not null;check:chk_reservations_tickets,ticket_count BETWEEN 1 AND 3" json:"ticket_count"`
	Token       string     `gorm:"size:64;not null;uniqueIndex" json:"token"`
	Consumed    bool       `gorm:"not null;default:false;index" json:"consumed"`
	ConsumedAt  *time.Time `json:"consumed_at"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`

	Showing *Showing `gorm:"foreignKey:ShowingID;constraint:OnDelete:RESTRICT" json:"showing,omitempty"`
}

const (
	MinTicketsPerReservation = 1
	MaxTicketsPerReservation = 3
)

// column sizes, in characters
const (
	MaxTitleLen      = 200
	MaxPosterURLLen  = 500
	MaxRoomLen       = 64
	MaxHolderNameLen = 120
	MaxEmailLen      = 254
	MaxTokenLen      = 64
)

// AllModels lists the tables in migration order.
func AllModels() []any {
	return []any{&Movie{}, &Showing{}, &Reservation{}}
}
