package domain

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/qs-lzh/campus-cinema/internal/model"
	"github.com/qs-lzh/campus-cinema/internal/repository"
	"github.com/qs-lzh/campus-cinema/internal/service"
)

// LedgerCommit records seats taken from a showing by a successful Reserve.
type LedgerCommit struct {
	ShowingID uint
	Count     int
}

// InventoryLedger owns the remaining capacity of every showing. Seats are
// only ever taken through a single conditional decrement, so concurrent
// callers can never drive a showing below zero.
type InventoryLedger interface {
	WithTx(tx *gorm.DB) InventoryLedger
	Reserve(ctx context.Context, showingID uint, count int) (*LedgerCommit, error)
}

type inventoryLedger struct {
	repo repository.ShowingRepo
}

var _ InventoryLedger = (*inventoryLedger)(nil)

func NewInventoryLedger(showingRepo repository.ShowingRepo) *inventoryLedger {
	return &inventoryLedger{
		repo: showingRepo,
	}
}

func (l *inventoryLedger) WithTx(tx *gorm.DB) InventoryLedger {
	return &inventoryLedger{
		repo: l.repo.WithTx(tx),
	}
}

func (l *inventoryLedger) Reserve(ctx context.Context, showingID uint, count int) (*LedgerCommit, error) {
	if count < model.MinTicketsPerReservation || count > model.MaxTicketsPerReservation {
		return nil, service.Validationf("ticket_count must be between %d and %d", model.MinTicketsPerReservation, model.MaxTicketsPerReservation)
	}
	ok, err := l.repo.DecrementRemaining(ctx, showingID, count)
	if err != nil {
		return nil, storeErr("reserve seats", err)
	}
	if ok {
		return &LedgerCommit{ShowingID: showingID, Count: count}, nil
	}

	// nothing changed; tell a missing showing apart from a full one
	showing, err := l.repo.GetByID(ctx, showingID)
	if err != nil {
		return nil, storeErr("get showing", err)
	}
	return nil, fmt.Errorf("%w: %d requested, %d left", service.ErrInsufficientCapacity, count, showing.RemainingCapacity)
}
