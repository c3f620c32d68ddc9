package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetCachesLoaderResultAndSkipsSecondLoad(t *testing.T) {
	c, err := New[string]("products", 2)
	require.NoError(t, err)

	calls := 0
	loader := func() (string, error) {
		calls++
		return "loaded", nil
	}

	v, err := c.Get("a", loader)
	require.NoError(t, err)
	require.Equal(t, "loaded", v)

	v, err = c.Get("a", loader)
	require.NoError(t, err)
	require.Equal(t, "loaded", v)
	require.Equal(t, 1, calls)

	stats := c.Stats()
	require.Equal(t, 1, stats.Entries)
	require.Equal(t, int64(1), stats.Hits)
	require.Equal(t, int64(1), stats.Misses)
}

func TestGetPropagatesLoaderErrorWithoutCaching(t *testing.T) {
	c, err := New[string]("products", 2)
	require.NoError(t, err)

	wantErr := errors.New("load failed")
	_, err = c.Get("a", func() (string, error) { return "", wantErr })
	require.ErrorIs(t, err, wantErr)
	require.Equal(t, 0, c.Stats().Entries)
}

func TestEvictsLeastRecentlyUsedBeyondCapacity(t *testing.T) {
	c, err := New[int]("small", 2)
	require.NoError(t, err)

	load := func(v int) func() (int, error) {
		return func() (int, error) { return v, nil }
	}
	_, err = c.Get("a", load(1))
	require.NoError(t, err)
	_, err = c.Get("b", load(2))
	require.NoError(t, err)
	_, err = c.Get("c", load(3))
	require.NoError(t, err)

	require.Equal(t, 2, c.Stats().Entries)
}

func TestKeyDistinguishesOptionSets(t *testing.T) {
	k1 := Key("granule.nc", map[string]string{"level": "l1"})
	k2 := Key("granule.nc", map[string]string{"level": "l2"})
	k3 := Key("granule.nc", map[string]string{"level": "l1"})
	require.NotEqual(t, k1, k2)
	require.Equal(t, k1, k3)
}
