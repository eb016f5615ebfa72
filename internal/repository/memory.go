package repository

import (
	"context"
	"sync"
	"time"

	"turnero/internal/models"
)

type memoryEntry struct {
	session   *models.BookingSession
	expiresAt time.Time
}

// MemorySessionRepository is the in-process fallback session store.
type MemorySessionRepository struct {
	sessions sync.Map
	ttl      time.Duration
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{ttl: ttl}
}

func (r *MemorySessionRepository) GetSession(ctx context.Context, id string) (*models.BookingSession, error) {
	val, ok := r.sessions.Load(id)
	if !ok {
		return nil, nil
	}
	entry := val.(memoryEntry)
	if r.ttl > 0 && time.Now().After(entry.expiresAt) {
		r.sessions.Delete(id)
		return nil, nil
	}
	return entry.session, nil
}

func (r *MemorySessionRepository) SetSession(ctx context.Context, session *models.BookingSession) error {
	r.sessions.Store(session.ID, memoryEntry{
		session:   session,
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}

func (r *MemorySessionRepository) DeleteSession(ctx context.Context, id string) error {
	r.sessions.Delete(id)
	return nil
}
