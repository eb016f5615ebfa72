package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"turnero/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakySessionRepo struct {
	inner *MemorySessionRepository
	fail  bool
	calls int
}

func (f *flakySessionRepo) GetSession(ctx context.Context, id string) (*models.BookingSession, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("connection refused")
	}
	return f.inner.GetSession(ctx, id)
}

func (f *flakySessionRepo) SetSession(ctx context.Context, session *models.BookingSession) error {
	f.calls++
	if f.fail {
		return errors.New("connection refused")
	}
	return f.inner.SetSession(ctx, session)
}

func (f *flakySessionRepo) DeleteSession(ctx context.Context, id string) error {
	f.calls++
	if f.fail {
		return errors.New("connection refused")
	}
	return f.inner.DeleteSession(ctx, id)
}

func newFailoverEnv(t *testing.T) (*flakySessionRepo, *MemorySessionRepository, *FailoverSessionRepository) {
	t.Helper()
	logger := zerolog.New(zerolog.NewConsoleWriter())
	primary := &flakySessionRepo{inner: NewMemorySessionRepository(time.Minute)}
	fallback := NewMemorySessionRepository(time.Minute)
	return primary, fallback, NewFailoverSessionRepository(primary, fallback, &logger)
}

func TestFailoverUsesPrimaryWhenHealthy(t *testing.T) {
	primary, fallback, repo := newFailoverEnv(t)
	ctx := context.Background()

	session := &models.BookingSession{ID: "s1", Step: models.StepSelectingDate}
	require.NoError(t, repo.SetSession(ctx, session))

	got, err := primary.inner.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.NotNil(t, got, "healthy primary receives the write")

	got, err = fallback.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got, "fallback stays untouched")
}

func TestFailoverFallsBackOnError(t *testing.T) {
	primary, fallback, repo := newFailoverEnv(t)
	ctx := context.Background()
	primary.fail = true

	session := &models.BookingSession{ID: "s1", Step: models.StepSelectingDate}
	require.NoError(t, repo.SetSession(ctx, session))

	got, err := fallback.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.NotNil(t, got, "write lands in the fallback")

	// The primary is marked down; subsequent operations skip it.
	callsBefore := primary.calls
	loaded, err := repo.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.NotNil(t, loaded)
	assert.Equal(t, callsBefore, primary.calls, "downed primary is not retried inside the cool-down window")
}

func TestFailoverDeleteDegradesToo(t *testing.T) {
	primary, fallback, repo := newFailoverEnv(t)
	ctx := context.Background()

	primary.fail = true
	require.NoError(t, repo.SetSession(ctx, &models.BookingSession{ID: "s1"}))
	require.NoError(t, repo.DeleteSession(ctx, "s1"))

	got, err := fallback.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
