package ingest

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/harpgo/harp/internal/array"
	"github.com/harpgo/harp/internal/harperr"
	"github.com/harpgo/harp/internal/metrics"
	"github.com/harpgo/harp/internal/model"
	"github.com/harpgo/harp/internal/scalar"
)

// fakeModule is a minimal in-memory ingestion module used to exercise
// Registry.Dispatch without a real file format backend.
type fakeModule struct {
	detectSuffix string
	defs         []*ProductDefinition
	scanlines    int
	doneCalled   atomic.Bool
}

func (m *fakeModule) Name() string    { return "fake" }
func (m *fakeModule) Version() string { return "1.0" }

func (m *fakeModule) Declarations() ([]Option, []*ProductDefinition) {
	return []Option{{Name: "level", Values: []string{"l1", "l2"}}}, m.defs
}

func (m *fakeModule) Detect(path string) (bool, error) {
	return strings.HasSuffix(path, m.detectSuffix), nil
}

func (m *fakeModule) Init(ctx context.Context, path string, def *ProductDefinition) (any, error) {
	return "userdata:" + path, nil
}

func (m *fakeModule) Dimensions(userData any) (map[model.DimensionKind]int, error) {
	return map[model.DimensionKind]int{model.Time: m.scanlines}, nil
}

func (m *fakeModule) ReadVariable(ctx context.Context, userData any, spec VariableSpec, out *array.Array) error {
	for i := 0; i < out.Len(); i++ {
		out.Set(i, scalar.Float64Value(float64(i)))
	}
	return nil
}

func (m *fakeModule) Done(userData any) error {
	m.doneCalled.Store(true)
	return nil
}

func newFakeModule() *fakeModule {
	return &fakeModule{
		detectSuffix: ".fake",
		scanlines:    3,
		defs: []*ProductDefinition{
			{
				Name:    "l1-product",
				Options: map[string]string{"level": "l1"},
				Variables: []VariableSpec{
					{Name: "radiance", Type: scalar.Float64, DimensionKinds: []model.DimensionKind{model.Time}, Lengths: []int{-1}, Unit: "W.m-2"},
				},
			},
			{
				Name:    "l2-product",
				Options: map[string]string{"level": "l2"},
				Variables: []VariableSpec{
					{Name: "retrieval", Type: scalar.Float64, DimensionKinds: []model.DimensionKind{model.Time}, Lengths: []int{-1}},
				},
			},
		},
	}
}

func TestDispatchResolvesProductDefinitionByOptions(t *testing.T) {
	m := newFakeModule()
	r := NewRegistry()
	r.Register(m)

	p, err := r.Dispatch(context.Background(), "granule.fake", map[string]string{"level": "l2"})
	require.NoError(t, err)
	v, ok := p.Variable("retrieval")
	require.True(t, ok)
	require.Equal(t, 3, v.DimensionLengths()[0])
	require.True(t, m.doneCalled.Load())
	require.Len(t, p.History(), 1)
}

func TestDispatchAppliesDeclaredUnit(t *testing.T) {
	m := newFakeModule()
	r := NewRegistry()
	r.Register(m)

	p, err := r.Dispatch(context.Background(), "granule.fake", map[string]string{"level": "l1"})
	require.NoError(t, err)
	v, ok := p.Variable("radiance")
	require.True(t, ok)
	require.Equal(t, "W.m-2", v.Unit())
}

func TestDispatchNoModuleMatchesIsUnsupportedProduct(t *testing.T) {
	r := NewRegistry()
	r.Register(newFakeModule())

	_, err := r.Dispatch(context.Background(), "granule.other", nil)
	require.Error(t, err)
	var herr *harperr.Error
	require.ErrorAs(t, err, &herr)
	require.Equal(t, harperr.UnsupportedProduct, herr.Kind)
}

func TestDispatchUnknownOptionCombinationFails(t *testing.T) {
	r := NewRegistry()
	r.Register(newFakeModule())

	_, err := r.Dispatch(context.Background(), "granule.fake", map[string]string{"level": "l3"})
	require.Error(t, err)
}

func TestDispatchIncrementsIngestDispatchTotal(t *testing.T) {
	metrics.IngestDispatchTotal.Reset()
	m := newFakeModule()
	r := NewRegistry()
	r.Register(m)

	_, err := r.Dispatch(context.Background(), "granule.fake", map[string]string{"level": "l1"})
	require.NoError(t, err)
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.IngestDispatchTotal.WithLabelValues(m.Name(), "ok")))

	_, err = r.Dispatch(context.Background(), "granule.fake", map[string]string{"level": "l3"})
	require.Error(t, err)
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.IngestDispatchTotal.WithLabelValues(m.Name(), "error")))
}

func TestDispatchProbesModulesInRegistrationOrder(t *testing.T) {
	first := newFakeModule()
	first.detectSuffix = ".fake"
	second := newFakeModule()
	second.detectSuffix = ".fake"
	second.scanlines = 99

	r := NewRegistry()
	r.Register(first)
	r.Register(second)

	p, err := r.Dispatch(context.Background(), "granule.fake", map[string]string{"level": "l2"})
	require.NoError(t, err)
	v, _ := p.Variable("retrieval")
	require.Equal(t, 3, v.DimensionLengths()[0])
	require.True(t, first.doneCalled.Load())
	require.False(t, second.doneCalled.Load())
}
