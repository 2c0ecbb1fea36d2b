package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/hyacinth-monitor/internal/telemetry"
)

func fixedStore(maxHistory int, maxAge time.Duration, now time.Time) *MemoryStore {
	s := NewMemoryStore(maxHistory, maxAge)
	s.now = func() time.Time { return now }
	return s
}

func TestMemoryStoreRetentionByCount(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := fixedStore(2, 0, now)

	s.Replace([]telemetry.Reading{
		{Temperature: 1, Timestamp: now.Add(-3 * time.Minute)},
		{Temperature: 3, Timestamp: now.Add(-1 * time.Minute)},
		{Temperature: 2, Timestamp: now.Add(-2 * time.Minute)},
	})

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, 3.0, all[0].Temperature)
	assert.Equal(t, 2.0, all[1].Temperature)
}

func TestMemoryStoreRetentionByAge(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := fixedStore(0, time.Hour, now)

	s.Replace([]telemetry.Reading{
		{Temperature: 1, Timestamp: now.Add(-2 * time.Hour)},
		{Temperature: 2, Timestamp: now.Add(-30 * time.Minute)},
		{Temperature: 3},
	})

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, 2.0, all[0].Temperature)
	assert.True(t, all[1].Timestamp.IsZero())
}

func TestMemoryStoreSinceIsInclusive(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := fixedStore(0, 0, now)
	s.Replace([]telemetry.Reading{
		{Temperature: 1, Timestamp: now.Add(-time.Hour)},
		{Temperature: 2, Timestamp: now},
	})

	got := s.Since(now.Add(-time.Hour))
	assert.Len(t, got, 2)
	assert.Len(t, s.Since(now.Add(time.Second)), 0)
}

func TestMemoryStoreCopies(t *testing.T) {
	s := NewMemoryStore(0, 0)
	in := []telemetry.Reading{{Temperature: 1, Timestamp: time.Now()}}
	s.Replace(in)
	in[0].Temperature = 99

	out := s.All()
	assert.Equal(t, 1.0, out[0].Temperature)
	out[0].Temperature = 42
	assert.Equal(t, 1.0, s.All()[0].Temperature)

	s.Replace(nil)
	assert.Empty(t, s.All())
}
