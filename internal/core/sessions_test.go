package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hyperwatch/internal/clients/embed"
)

func TestSessions_ClaimOnce(t *testing.T) {
	s := NewSessions()
	session := newSession(seriesCatalog())
	id := s.Register(session)
	assert.Len(t, id, 36)

	got, err := s.Claim(id)
	require.NoError(t, err)
	assert.Same(t, session, got)

	_, err = s.Claim(id)
	assert.ErrorIs(t, err, ErrSessionClaimed)

	s.Release(id)
	_, err = s.Claim(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessions_SweepOnlyUnclaimedAndExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessions()
	s.now = func() time.Time { return now }

	old := s.Register(newSession(seriesCatalog()))
	claimed := s.Register(newSession(seriesCatalog()))
	_, err := s.Claim(claimed)
	require.NoError(t, err)

	now = now.Add(5 * time.Minute)
	fresh := s.Register(newSession(seriesCatalog()))

	now = now.Add(6 * time.Minute)
	assert.Equal(t, 1, s.Sweep(10*time.Minute))
	assert.Equal(t, 2, s.Len())

	_, err = s.Claim(old)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.Claim(fresh)
	assert.NoError(t, err)
}

func TestManager_OpenWatchRegistersSession(t *testing.T) {
	m := newTestManager(t, seriesCatalog())

	id, view := m.OpenWatch(context.Background(), "tt0903747")
	require.NotEmpty(t, id)
	assert.Equal(t, playerBase+"/tv/tt0903747/1/1", view.PlayerURL)

	session, err := m.ClaimWatch(id)
	require.NoError(t, err)
	assert.Equal(t, view.PlayerURL, session.Snapshot().PlayerURL)

	m.ReleaseWatch(id)
	assert.Zero(t, m.GetSystemStatus().Sessions)
}

func TestManager_OpenWatchFailureRegistersNothing(t *testing.T) {
	m := newTestManager(t, seriesCatalog())

	id, view := m.OpenWatch(context.Background(), "tt404")
	assert.Empty(t, id)
	assert.Equal(t, StateFailed, view.State)
	assert.Zero(t, m.sessions.Len())
}

func TestManager_PlayerURL(t *testing.T) {
	m := newTestManager(t, seriesCatalog())
	assert.Equal(t, playerBase+"/tv/tt1/2/3", m.PlayerURL(embed.EpisodeTarget("tt1", 2, 3)))
}

func TestManager_SweepAndStatus(t *testing.T) {
	m := newTestManager(t, seriesCatalog())
	m.config.Sessions.TTL = "1ns"

	m.OpenWatch(context.Background(), "tt0133093")
	time.Sleep(time.Millisecond)
	m.sweepSessions()

	status := m.GetSystemStatus()
	assert.Zero(t, status.Sessions)
	assert.True(t, status.Metadata)
	assert.Equal(t, 1, status.EpisodeSources)
}

func TestManager_ProbeRecordsFailures(t *testing.T) {
	m := newTestManager(t, seriesCatalog())
	m.pingers = map[string]pinger{
		"ok":   pingFunc(func(ctx context.Context) error { return nil }),
		"down": pingFunc(func(ctx context.Context) error { return assert.AnError }),
	}

	m.probeUpstreams()

	status := m.GetSystemStatus()
	assert.True(t, status.Upstreams["ok"].OK)
	assert.False(t, status.Upstreams["down"].OK)
	assert.Equal(t, assert.AnError.Error(), status.Upstreams["down"].Error)
}
