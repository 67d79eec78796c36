package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("repositories: record not found")
	ErrDuplicateKey = errors.New("repositories: duplicate key")
	// ErrTimeout means the store did not answer within the configured
	// deadline. Callers may retry.
	ErrTimeout = errors.New("repositories: store timeout")
	// ErrCanceled means the caller gave up before the store answered.
	ErrCanceled = errors.New("repositories: canceled")
)

// store bounds every call with a deadline and translates driver errors
// into the package sentinels.
type store struct {
	db      *gorm.DB
	timeout time.Duration
}

func (s store) session(ctx context.Context) (*gorm.DB, context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		ctx, cancel := context.WithCancel(ctx)
		return s.db.WithContext(ctx), ctx, cancel
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(ctx), ctx, cancel
}

func translate(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, context.Canceled), errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("%w: %v", ErrCanceled, err)
	default:
		return fmt.Errorf("repositories: %w", err)
	}
}
