package repository

import (
	"context"
	"sync/atomic"
	"time"

	"turnero/internal/domain"
	"turnero/internal/models"

	"github.com/rs/zerolog"
)

// FailoverSessionRepository serves from the primary store and degrades
// to the fallback when the primary errors, retrying the primary after a
// cool-down.
type FailoverSessionRepository struct {
	primary   domain.SessionRepository
	fallback  domain.SessionRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64 // unix nanos of the last failed primary call
}

const failoverRecoveryWindow = time.Minute

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverSessionRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("primary session repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverSessionRepository) shouldRetryPrimary() bool {
	return time.Since(time.Unix(0, r.lastCheck.Load())) > failoverRecoveryWindow
}

func (r *FailoverSessionRepository) GetSession(ctx context.Context, id string) (*models.BookingSession, error) {
	if !r.isDown.Load() {
		session, err := r.primary.GetSession(ctx, id)
		if err == nil {
			return session, nil
		}
		r.markDown(err)
	} else if r.shouldRetryPrimary() {
		session, err := r.primary.GetSession(ctx, id)
		if err == nil {
			r.isDown.Store(false)
			return session, nil
		}
		r.lastCheck.Store(time.Now().UnixNano())
	}

	return r.fallback.GetSession(ctx, id)
}

func (r *FailoverSessionRepository) SetSession(ctx context.Context, session *models.BookingSession) error {
	if !r.isDown.Load() {
		err := r.primary.SetSession(ctx, session)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.SetSession(ctx, session)
}

func (r *FailoverSessionRepository) DeleteSession(ctx context.Context, id string) error {
	if !r.isDown.Load() {
		err := r.primary.DeleteSession(ctx, id)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.DeleteSession(ctx, id)
}
