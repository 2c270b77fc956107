package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/qs-lzh/campus-cinema/internal/service"
)

// Cache is the JSON read-through cache the services consult before the
// database. A miss is reported as cache.ErrCacheMiss.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Clock returns the current wall time in the cinema's location.
type Clock func() time.Time

func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return func() time.Time {
		return time.Now().In(loc)
	}
}

func storeErr(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, service.ErrNotFound)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", op, service.ErrConflict)
	}
	return service.StoreError(op, err)
}

// isBusinessErr reports whether err already carries one of the service
// sentinels and can be returned as is.
func isBusinessErr(err error) bool {
	for _, target := range []error{
		service.ErrValidation,
		service.ErrNotFound,
		service.ErrConflict,
		service.ErrInsufficientCapacity,
		service.ErrShowingClosed,
		service.ErrAlreadyRedeemed,
		service.ErrStoreUnavailable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
