package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDateCache_RememberAndKnown(t *testing.T) {
	c, err := NewDateCache(128)
	require.NoError(t, err)
	defer c.Close()

	date := time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC)
	c.Remember(date)
	c.cache.Wait()

	require.True(t, c.Known(date))
	// any time of day maps to the same calendar date
	require.True(t, c.Known(date.Add(13*time.Hour)))
}

func TestDateCache_UnknownWhenEmpty(t *testing.T) {
	c, err := NewDateCache(64)
	require.NoError(t, err)
	defer c.Close()

	require.False(t, c.Known(time.Date(2000, 1, 3, 0, 0, 0, 0, time.UTC)))
}

func TestDateCache_DistinguishesDates(t *testing.T) {
	c, err := NewDateCache(256)
	require.NoError(t, err)
	defer c.Close()

	c.Remember(time.Date(2015, 6, 24, 0, 0, 0, 0, time.UTC))
	c.cache.Wait()

	require.True(t, c.Known(time.Date(2015, 6, 24, 0, 0, 0, 0, time.UTC)))
	require.False(t, c.Known(time.Date(2015, 6, 23, 0, 0, 0, 0, time.UTC)))
}
