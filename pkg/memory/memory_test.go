package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/levelsync"
)

func TestSource_ReadRequiresConnect(t *testing.T) {
	ctx := context.Background()
	s := NewVolume("speakers", 40)

	_, err := s.Read(ctx)
	assert.ErrorIs(t, err, levelsync.ErrNotConnected)
	assert.False(t, s.Healthy(ctx))

	require.NoError(t, s.Connect(ctx))
	l, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, levelsync.Percent(40), l)
	assert.True(t, s.Healthy(ctx))
}

func TestSource_FailConnects(t *testing.T) {
	ctx := context.Background()
	s := NewGain("bus", -10).FailConnects(2)

	assert.ErrorIs(t, s.Connect(ctx), levelsync.ErrConnect)
	assert.ErrorIs(t, s.Connect(ctx), levelsync.ErrConnect)
	assert.NoError(t, s.Connect(ctx))
	assert.Equal(t, 3, s.ConnectAttempts())
}

func TestSource_FailReadsAndWrites(t *testing.T) {
	ctx := context.Background()
	s := NewGain("bus", -10)
	require.NoError(t, s.Connect(ctx))

	s.FailReads(1).FailWrites(1)

	_, err := s.Read(ctx)
	assert.ErrorIs(t, err, levelsync.ErrTransientRead)
	_, err = s.Read(ctx)
	assert.NoError(t, err)

	assert.ErrorIs(t, s.Write(ctx, levelsync.Decibels(-3)), levelsync.ErrWrite)
	assert.NoError(t, s.Write(ctx, levelsync.Decibels(-3)))
	assert.Equal(t, []levelsync.Level{levelsync.Decibels(-3)}, s.Writes())
}

func TestSource_WriteKindMismatch(t *testing.T) {
	ctx := context.Background()
	s := NewVolume("speakers", 10)
	require.NoError(t, s.Connect(ctx))

	err := s.Write(ctx, levelsync.Decibels(0))
	assert.True(t, errors.Is(err, levelsync.ErrKindMismatch))
	assert.Empty(t, s.Writes())
}

func TestSource_SetIsNotAWrite(t *testing.T) {
	s := NewVolume("speakers", 10)
	s.Set(levelsync.Percent(70))

	assert.Equal(t, levelsync.Percent(70), s.Value())
	assert.Empty(t, s.Writes())
}

func TestSource_PanicReads(t *testing.T) {
	ctx := context.Background()
	s := NewVolume("speakers", 10).PanicReads(1)
	require.NoError(t, s.Connect(ctx))

	assert.Panics(t, func() { _, _ = s.Read(ctx) })
	_, err := s.Read(ctx)
	assert.NoError(t, err)
}

func TestSource_HealthAndReadiness(t *testing.T) {
	ctx := context.Background()
	s := NewGain("bus", 0)
	require.NoError(t, s.Connect(ctx))

	s.SetHealthy(false)
	assert.False(t, s.Healthy(ctx))
	s.SetHealthy(true)
	assert.True(t, s.Healthy(ctx))

	s.SetReady(false)
	assert.False(t, s.Probe(ctx))

	require.NoError(t, s.Disconnect())
	assert.False(t, s.Connected())
	assert.False(t, s.Healthy(ctx))
}
