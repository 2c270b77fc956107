package domain

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/qs-lzh/campus-cinema/internal/repository"
)

var exportHeader = []string{"ID", "Name", "Email", "Movie", "Date", "Time", "Room", "Tickets", "Status", "Reserved At"}

const (
	statusRedeemed = "Redeemed"
	statusPending  = "Pending"
)

// ExportCSV writes every reservation, newest first, as CSV with a header
// row. Reservation times are rendered in the cinema's location.
func (s *reservationService) ExportCSV(ctx context.Context, out io.Writer) error {
	reservations, err := s.repo.List(ctx, repository.ReservationFilter{})
	if err != nil {
		return storeErr("list reservations", err)
	}

	loc := s.now().Location()
	w := csv.NewWriter(out)
	if err := w.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	for _, r := range reservations {
		var movie, date, clock, room string
		if r.Showing != nil {
			date, clock, room = r.Showing.Date, r.Showing.Time, r.Showing.Room
			if r.Showing.Movie != nil {
				movie = r.Showing.Movie.Title
			}
		}
		status := statusPending
		if r.Consumed {
			status = statusRedeemed
		}
		record := []string{
			strconv.FormatUint(uint64(r.ID), 10),
			r.HolderName,
			r.HolderEmail,
			movie,
			date,
			clock,
			room,
			strconv.Itoa(r.TicketCount),
			status,
			r.CreatedAt.In(loc).Format("2006-01-02 15:04"),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
