package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestIngestDispatchTotalIncrementsByModuleAndOutcome(t *testing.T) {
	IngestDispatchTotal.Reset()
	IngestDispatchTotal.WithLabelValues("fake", "ok").Inc()
	IngestDispatchTotal.WithLabelValues("fake", "ok").Inc()
	IngestDispatchTotal.WithLabelValues("fake", "error").Inc()

	require.Equal(t, float64(2), testutil.ToFloat64(IngestDispatchTotal.WithLabelValues("fake", "ok")))
	require.Equal(t, float64(1), testutil.ToFloat64(IngestDispatchTotal.WithLabelValues("fake", "error")))
}

func TestCacheEntriesGaugeSetsPerCacheName(t *testing.T) {
	CacheEntries.Reset()
	CacheEntries.WithLabelValues("products").Set(42)
	require.Equal(t, float64(42), testutil.ToFloat64(CacheEntries.WithLabelValues("products")))
}
