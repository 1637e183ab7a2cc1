package tally

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/sushi-bot/internal/models"
)

func TestStore_Lifecycle(t *testing.T) {
	t.Parallel()

	st := NewStore(time.Hour)
	require.False(t, st.Update(1, func(*Session) {}))

	st.Start(1, New(testBrand(), models.RegionHK))
	require.True(t, st.Update(1, func(s *Session) { s.Increment(models.PlateKey("p1")) }))

	s, ok := st.Remove(1)
	require.True(t, ok)
	require.Equal(t, 1, s.Count(models.PlateKey("p1")))

	_, ok = st.Remove(1)
	require.False(t, ok)
}

func TestStore_Expiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	st := NewStore(time.Minute)
	st.now = func() time.Time { return now }

	st.Start(1, New(testBrand(), models.RegionHK))
	st.Start(2, New(testBrand(), models.RegionHK))

	now = now.Add(30 * time.Second)
	require.True(t, st.Update(2, func(*Session) {}))

	now = now.Add(45 * time.Second)
	require.False(t, st.Update(1, func(*Session) {}))
	require.Equal(t, 1, st.Len())

	now = now.Add(2 * time.Minute)
	require.Equal(t, 1, st.Sweep())
	require.Equal(t, 0, st.Len())
}

func TestStore_DefaultTTL(t *testing.T) {
	t.Parallel()
	require.Equal(t, 6*time.Hour, DefaultTTL)
	require.Equal(t, DefaultTTL, NewStore(0).ttl)
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	t.Parallel()

	st := NewStore(time.Hour)
	st.Start(7, New(testBrand(), models.RegionHK))

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			st.Update(7, func(s *Session) { s.Increment(models.PlateKey("p1")) })
		})
	}
	wg.Wait()

	st.Update(7, func(s *Session) {
		require.Equal(t, 50, s.Count(models.PlateKey("p1")))
	})
}
