package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/harpgo/harp/internal/config"
	"github.com/harpgo/harp/internal/scalar"
	"github.com/harpgo/harp/internal/units/ucum"
)

func TestNewVariableRejectsDuplicateNonIndependentKind(t *testing.T) {
	_, err := NewVariable("x", scalar.Float64, []DimensionKind{Time, Time}, []int{3, 3})
	require.Error(t, err)
}

func TestAddVariableEstablishesAndChecksDimensionLength(t *testing.T) {
	p := NewProduct("test.nc", nil)
	sza, err := NewVariable("sza", scalar.Float64, []DimensionKind{Time}, []int{5})
	require.NoError(t, err)
	require.NoError(t, p.AddVariable(sza))

	n, err := p.DimensionLength(Time)
	require.NoError(t, err)
	require.Equal(t, 5, n)

	bad, err := NewVariable("other", scalar.Float64, []DimensionKind{Time}, []int{6})
	require.NoError(t, err)
	require.Error(t, p.AddVariable(bad))
}

func TestAddVariableRejectsDuplicateName(t *testing.T) {
	p := NewProduct("test.nc", nil)
	v1, _ := NewVariable("x", scalar.Float64, []DimensionKind{Time}, []int{2})
	v2, _ := NewVariable("x", scalar.Float64, []DimensionKind{Time}, []int{2})
	require.NoError(t, p.AddVariable(v1))
	require.Error(t, p.AddVariable(v2))
}

func TestRemoveVariablePreservesOrder(t *testing.T) {
	p := NewProduct("test.nc", nil)
	a, _ := NewVariable("a", scalar.Float64, []DimensionKind{Time}, []int{2})
	b, _ := NewVariable("b", scalar.Float64, []DimensionKind{Time}, []int{2})
	c, _ := NewVariable("c", scalar.Float64, []DimensionKind{Time}, []int{2})
	require.NoError(t, p.AddVariable(a))
	require.NoError(t, p.AddVariable(b))
	require.NoError(t, p.AddVariable(c))

	require.NoError(t, p.RemoveVariable("b"))
	names := []string{}
	for _, v := range p.Variables() {
		names = append(names, v.Name())
	}
	require.Equal(t, []string{"a", "c"}, names)
}

func TestRemoveVariablePrunesUnusedDimensionKind(t *testing.T) {
	p := NewProduct("test.nc", nil)
	sza, _ := NewVariable("sza", scalar.Float64, []DimensionKind{Time}, []int{4})
	require.NoError(t, p.AddVariable(sza))

	require.NoError(t, p.RemoveVariable("sza"))
	_, err := p.DimensionLength(Time)
	require.Error(t, err)
}

func TestDetachAttachVariableMovesBetweenProducts(t *testing.T) {
	src := NewProduct("a.nc", nil)
	dst := NewProduct("b.nc", nil)
	sza, _ := NewVariable("sza", scalar.Float64, []DimensionKind{Time}, []int{4})
	require.NoError(t, src.AddVariable(sza))

	moved, err := src.DetachVariable("sza")
	require.NoError(t, err)
	_, ok := src.Variable("sza")
	require.False(t, ok)
	_, err = src.DimensionLength(Time)
	require.Error(t, err, "detaching the last user of a dimension kind must prune it")

	require.NoError(t, dst.AttachVariable(moved))
	_, ok = dst.Variable("sza")
	require.True(t, ok)
	n, err := dst.DimensionLength(Time)
	require.NoError(t, err)
	require.Equal(t, 4, n)
}

func TestProductIDStableAcrossClone(t *testing.T) {
	p := NewProduct("test.nc", nil)
	clone := p.Clone()
	require.Equal(t, p.ID(), clone.ID())
	require.NotEqual(t, uuid.Nil, p.ID())
}

func TestRenameVariableFailsIfTargetExists(t *testing.T) {
	p := NewProduct("test.nc", nil)
	a, _ := NewVariable("a", scalar.Float64, []DimensionKind{Time}, []int{2})
	b, _ := NewVariable("b", scalar.Float64, []DimensionKind{Time}, []int{2})
	require.NoError(t, p.AddVariable(a))
	require.NoError(t, p.AddVariable(b))

	require.Error(t, p.RenameVariable("a", "b"))
	require.NoError(t, p.RenameVariable("a", "c"))
	_, ok := p.Variable("c")
	require.True(t, ok)
}

func TestHistoryAppendUsesInjectedClock(t *testing.T) {
	at := time.Date(2024, 3, 2, 1, 0, 0, 0, time.UTC)
	p := NewProduct("test.nc", config.FixedClock{At: at})
	p.HistoryAppend("keep(sza < 35[degree])")
	require.Len(t, p.History(), 1)
	require.Contains(t, p.History()[0], "2024-03-02T01:00:00Z")
}

func TestConvertUnitHectoPascalToPascal(t *testing.T) {
	v, err := NewVariable("p", scalar.Float64, []DimensionKind{Time}, []int{1})
	require.NoError(t, err)

	sys := ucum.New()
	require.NoError(t, v.SetUnit("hPa", sys))
	v.Data().Set(0, scalar.Float64Value(1013.25))

	require.NoError(t, v.ConvertUnit("Pa", sys))
	require.InDelta(t, 101325.0, v.Data().At(0).Float(), 1e-6)
	require.Equal(t, "Pa", v.Unit())
}

func TestConvertElementTypeNaNBecomesFill(t *testing.T) {
	v, err := NewVariable("x", scalar.Float64, []DimensionKind{Time}, []int{1})
	require.NoError(t, err)
	require.True(t, scalar.IsFill(v.Data().At(0)))

	require.NoError(t, v.ConvertElementType(scalar.Int32))
	require.True(t, scalar.IsFill(v.Data().At(0)))
}

func TestSetValidRangeRejectsMinGreaterThanMax(t *testing.T) {
	v, err := NewVariable("x", scalar.Float64, []DimensionKind{Time}, []int{1})
	require.NoError(t, err)
	err = v.SetValidRange(scalar.Float64Value(10), scalar.Float64Value(5))
	require.Error(t, err)
}

func TestRebroadcastReplicatesAlongMissingDimension(t *testing.T) {
	v, err := NewVariable("sceneid", scalar.Int32, []DimensionKind{Time}, []int{2})
	require.NoError(t, err)
	v.Data().Set(0, scalar.Int32Value(7))
	v.Data().Set(1, scalar.Int32Value(9))

	out, err := v.Rebroadcast([]DimensionKind{Time, Independent}, []int{2, 3})
	require.NoError(t, err)
	require.Equal(t, 6, out.Data().Len())
	require.Equal(t, int64(7), out.Data().At(0).Int())
	require.Equal(t, int64(7), out.Data().At(2).Int())
	require.Equal(t, int64(9), out.Data().At(3).Int())
}

func TestHasDimensionKinds(t *testing.T) {
	v, _ := NewVariable("lat", scalar.Float64, []DimensionKind{Time}, []int{3})
	require.True(t, v.HasDimensionKinds([]DimensionKind{Time}))
	require.False(t, v.HasDimensionKinds([]DimensionKind{Time, Vertical}))
}

func TestSetEnumRejectsNonIntegerType(t *testing.T) {
	v, _ := NewVariable("x", scalar.Float64, []DimensionKind{Time}, []int{1})
	require.Error(t, v.SetEnum([]string{"a", "b"}))
}
