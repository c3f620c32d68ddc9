package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatchParallelPreservesPathOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(newFakeModule())

	paths := []string{"a.fake", "b.fake", "c.fake"}
	products, errs := DispatchParallel(context.Background(), r, paths, map[string]string{"level": "l2"}, DefaultLoadOptions())
	require.Empty(t, errs)
	require.Len(t, products, 3)
	for i, p := range products {
		require.NotNil(t, p, "path %d", i)
		require.Equal(t, paths[i], p.SourceProduct(), "path %d", i)
	}
}

func TestDispatchParallelCollectsErrorsWhenSkipErrors(t *testing.T) {
	r := NewRegistry()
	r.Register(newFakeModule())

	paths := []string{"a.fake", "b.other"}
	opts := DefaultLoadOptions()
	products, errs := DispatchParallel(context.Background(), r, paths, map[string]string{"level": "l2"}, opts)
	require.Len(t, errs, 1)
	require.NotNil(t, products[0])
	require.Nil(t, products[1])
}

func TestDispatchParallelStopsOnFirstErrorWithoutSkipErrors(t *testing.T) {
	r := NewRegistry()
	r.Register(newFakeModule())

	paths := []string{"a.other"}
	opts := LoadOptions{Parallel: false, SkipErrors: false}
	_, errs := DispatchParallel(context.Background(), r, paths, nil, opts)
	require.Len(t, errs, 1)
}
