package service

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"

	"classifieds-service/internal/entity"
	"classifieds-service/internal/events"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

var (
	ErrUserExists   = errors.New("user already exists")
	ErrAdExists     = errors.New("ad already exists")
	ErrAdNotFound   = errors.New("ad not found")
	ErrInvalidInput = errors.New("invalid input")
)

// AdCache is a read-through cache for single ads. Get reports a miss with any error.
//
// A fill must read Version before loading the ad from storage and hand it to
// SetIfVersion, which drops the fill when Invalidate ran in between.
type AdCache interface {
	Get(ctx context.Context, id int64) (*entity.Ad, error)
	Version(ctx context.Context, id int64) (int64, error)
	SetIfVersion(ctx context.Context, ad *entity.Ad, version int64) error
	Invalidate(ctx context.Context, id int64) error
}

// publishTimeout bounds how long a write request waits on the broker.
var publishTimeout = 2 * time.Second

// publish sends an event after the owning transaction committed. A failed
// publish is logged and never reported to the caller.
func publish(ctx context.Context, p events.Publisher, entityName, event string, id int64, payload any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.Publish(ctx, entityName, event, id, payload); err != nil {
		logger.Error().Err(err).Msgf("Error publishing %s.%s event for id %d", entityName, event, id)
	}
}
