// Package stats derives the admin dashboard figures from a consistent
// snapshot of reservations and showings. Every function is pure; callers
// load the snapshot and supply the clock.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/qs-lzh/campus-cinema/internal/model"
)

const UntitledMovie = "Untitled"

type Attendance struct {
	TotalReservations int     `json:"total_reservations"`
	Attended          int     `json:"attended"`
	NoShow            int     `json:"no_show"`
	Pending           int     `json:"pending"`
	AttendanceRate    float64 `json:"attendance_rate"`
}

// ComputeAttendance classifies every reservation as attended (consumed),
// no-show (unconsumed and its showing is past) or pending (unconsumed and its
// showing has not started). AttendanceRate is attended/total*100, or 0 for an
// empty snapshot. Reservations whose showing is unknown or unparseable are
// counted in the total only.
func ComputeAttendance(reservations []model.Reservation, now time.Time) Attendance {
	a := Attendance{TotalReservations: len(reservations)}
	for i := range reservations {
		r := &reservations[i]
		switch {
		case r.Consumed:
			a.Attended++
		case r.Showing == nil:
		case model.IsPast(r.Showing.Date, r.Showing.Time, now):
			a.NoShow++
		case model.IsFuture(r.Showing.Date, r.Showing.Time, now):
			a.Pending++
		}
	}
	if a.TotalReservations > 0 {
		a.AttendanceRate = float64(a.Attended) / float64(a.TotalReservations) * 100
	}
	return a
}

type MoviePopularity struct {
	Title        string  `json:"title"`
	TotalTickets int     `json:"total_tickets"`
	SharePct     float64 `json:"share_pct"`
}

// PopularMovies groups ticket counts by movie title, sorted by tickets
// descending. Ties keep the order in which titles first appear. SharePct is
// the title's share of all tickets, rounded to one decimal.
func PopularMovies(reservations []model.Reservation) []MoviePopularity {
	index := make(map[string]int)
	out := make([]MoviePopularity, 0)
	total := 0
	for i := range reservations {
		r := &reservations[i]
		title := UntitledMovie
		if r.Showing != nil && r.Showing.Movie != nil && r.Showing.Movie.Title != "" {
			title = r.Showing.Movie.Title
		}
		pos, ok := index[title]
		if !ok {
			pos = len(out)
			index[title] = pos
			out = append(out, MoviePopularity{Title: title})
		}
		out[pos].TotalTickets += r.TicketCount
		total += r.TicketCount
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalTickets > out[j].TotalTickets
	})
	if total > 0 {
		for i := range out {
			out[i].SharePct = round1(float64(out[i].TotalTickets) / float64(total) * 100)
		}
	}
	return out
}

// Occupancy is reserved tickets over total capacity of all showings, as a
// percentage. It is 0 when there is no capacity at all.
func Occupancy(reservations []model.Reservation, showings []model.Showing) float64 {
	capacity := 0
	for _, s := range showings {
		capacity += s.TotalCapacity
	}
	if capacity == 0 {
		return 0
	}
	return float64(TotalTickets(reservations)) / float64(capacity) * 100
}

func TotalTickets(reservations []model.Reservation) int {
	n := 0
	for _, r := range reservations {
		n += r.TicketCount
	}
	return n
}

type DailyTickets struct {
	Date         string `json:"date"`
	Reservations int    `json:"reservations"`
	Tickets      int    `json:"tickets"`
}

// TicketsPerDay buckets reservations by the calendar day they were made in
// loc, oldest day first.
func TicketsPerDay(reservations []model.Reservation, loc *time.Location) []DailyTickets {
	if loc == nil {
		loc = time.UTC
	}
	byDay := make(map[string]*DailyTickets)
	for _, r := range reservations {
		day := r.CreatedAt.In(loc).Format(model.DateLayout)
		d, ok := byDay[day]
		if !ok {
			d = &DailyTickets{Date: day}
			byDay[day] = d
		}
		d.Reservations++
		d.Tickets += r.TicketCount
	}
	out := make([]DailyTickets, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

type Summary struct {
	Attendance
	TotalMovies   int64     `json:"total_movies"`
	TotalShowings int       `json:"total_showings"`
	TotalTickets  int       `json:"total_tickets"`
	Occupancy     float64   `json:"occupancy"`
	GeneratedAt   time.Time `json:"generated_at"`
}

func Summarize(reservations []model.Reservation, showings []model.Showing, movies int64, now time.Time) Summary {
	return Summary{
		Attendance:    ComputeAttendance(reservations, now),
		TotalMovies:   movies,
		TotalShowings: len(showings),
		TotalTickets:  TotalTickets(reservations),
		Occupancy:     Occupancy(reservations, showings),
		GeneratedAt:   now,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
