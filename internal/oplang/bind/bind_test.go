package bind

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harpgo/harp/internal/geo"
	"github.com/harpgo/harp/internal/model"
	"github.com/harpgo/harp/internal/oplang"
	"github.com/harpgo/harp/internal/scalar"
	"github.com/harpgo/harp/internal/units/ucum"
)

func mustVariable(t *testing.T, p *model.Product, name string, typ scalar.Type, kinds []model.DimensionKind, lengths []int, values []float64) *model.Variable {
	t.Helper()
	v, err := model.NewVariable(name, typ, kinds, lengths)
	require.NoError(t, err)
	for i, f := range values {
		val, err := scalar.ConvertNumeric(scalar.Float64Value(f), typ)
		require.NoError(t, err)
		v.Data().Set(i, val)
	}
	require.NoError(t, p.AddVariable(v))
	return v
}

func TestBindScalarComparisonFiltersRows(t *testing.T) {
	p := model.NewProduct("test.nc", nil)
	mustVariable(t, p, "sza", scalar.Float64, []model.DimensionKind{model.Time}, []int{3}, []float64{10, 40, 20})

	ast, err := oplang.NewParser("sza < 35").Parse()
	require.NoError(t, err)
	pl, err := Bind("sza < 35", ast, p, nil)
	require.NoError(t, err)
	require.Len(t, pl.Operations, 1)

	out, err := pl.Run(p)
	require.NoError(t, err)
	n, err := out.DimensionLength(model.Time)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Len(t, out.History(), 1)
}

func TestBindQuantityLiteralConvertsUnits(t *testing.T) {
	p := model.NewProduct("test.nc", nil)
	v := mustVariable(t, p, "pressure", scalar.Float64, []model.DimensionKind{model.Time}, []int{2}, []float64{100000, 50000})
	require.NoError(t, v.SetUnit("Pa", ucum.New()))

	ast, err := oplang.NewParser(`pressure > 900[hPa]`).Parse()
	require.NoError(t, err)
	pl, err := Bind(`pressure > 900[hPa]`, ast, p, nil)
	require.NoError(t, err)

	out, err := pl.Run(p)
	require.NoError(t, err)
	n, err := out.DimensionLength(model.Time)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestBindUnknownFunctionIsBindTimeError(t *testing.T) {
	p := model.NewProduct("test.nc", nil)
	ast, err := oplang.NewParser("nonsense(1)").Parse()
	require.NoError(t, err)
	_, err = Bind("nonsense(1)", ast, p, nil)
	require.Error(t, err)
}

func TestBindKeepAndSet(t *testing.T) {
	p := model.NewProduct("test.nc", nil)
	mustVariable(t, p, "a", scalar.Float64, []model.DimensionKind{model.Time}, []int{2}, []float64{1, 2})
	mustVariable(t, p, "b", scalar.Float64, []model.DimensionKind{model.Time}, []int{2}, []float64{3, 4})

	ast, err := oplang.NewParser(`set(a, 9); keep(a)`).Parse()
	require.NoError(t, err)
	pl, err := Bind(`set(a, 9); keep(a)`, ast, p, nil)
	require.NoError(t, err)
	require.Len(t, pl.Operations, 2)

	out, err := pl.Run(p)
	require.NoError(t, err)
	_, ok := out.Variable("b")
	require.False(t, ok)
	a, ok := out.Variable("a")
	require.True(t, ok)
	require.Equal(t, float64(9), a.Data().At(0).Float())
}

func TestBindSortAndRename(t *testing.T) {
	p := model.NewProduct("test.nc", nil)
	mustVariable(t, p, "time", scalar.Float64, []model.DimensionKind{model.Time}, []int{3}, []float64{3, 1, 2})

	ast, err := oplang.NewParser(`sort(time, time); rename(time, t)`).Parse()
	require.NoError(t, err)
	pl, err := Bind(`sort(time, time); rename(time, t)`, ast, p, nil)
	require.NoError(t, err)

	out, err := pl.Run(p)
	require.NoError(t, err)
	tvar, ok := out.Variable("t")
	require.True(t, ok)
	require.Equal(t, float64(1), tvar.Data().At(0).Float())
	require.Equal(t, float64(3), tvar.Data().At(2).Float())
}

func TestBindCollocateLeftResolvesReferenceByName(t *testing.T) {
	ref := model.NewProduct("ref.nc", nil)
	mustVariable(t, ref, "latitude", scalar.Float64, []model.DimensionKind{model.Time}, []int{1}, []float64{0})
	mustVariable(t, ref, "longitude", scalar.Float64, []model.DimensionKind{model.Time}, []int{1}, []float64{0})

	p := model.NewProduct("left.nc", nil)
	mustVariable(t, p, "latitude", scalar.Float64, []model.DimensionKind{model.Time}, []int{2}, []float64{0, 1.0})
	mustVariable(t, p, "longitude", scalar.Float64, []model.DimensionKind{model.Time}, []int{2}, []float64{0, 1.0})

	ctx := &Context{References: map[string]*model.Product{"A-product": ref}}
	src := `collocate_left("A-product", latitude, longitude, latitude, longitude, time, 0.01)`
	ast, err := oplang.NewParser(src).Parse()
	require.NoError(t, err)
	pl, err := Bind(src, ast, p, ctx)
	require.NoError(t, err)

	out, err := pl.Run(p)
	require.NoError(t, err)
	n, err := out.DimensionLength(model.Time)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestBindSquash(t *testing.T) {
	p := model.NewProduct("test.nc", nil)
	mustVariable(t, p, "vertical", scalar.Float64, []model.DimensionKind{model.Vertical}, []int{1}, []float64{5})

	ast, err := oplang.NewParser(`squash(vertical)`).Parse()
	require.NoError(t, err)
	pl, err := Bind(`squash(vertical)`, ast, p, nil)
	require.NoError(t, err)

	out, err := pl.Run(p)
	require.NoError(t, err)
	v, ok := out.Variable("vertical")
	require.True(t, ok)
	require.Empty(t, v.DimensionKinds())
}

func TestBindPointInAreaUsesCustomMaskLoader(t *testing.T) {
	p := model.NewProduct("test.nc", nil)
	mustVariable(t, p, "latitude", scalar.Float64, []model.DimensionKind{model.Time}, []int{2}, []float64{0, 1.5})
	mustVariable(t, p, "longitude", scalar.Float64, []model.DimensionKind{model.Time}, []int{2}, []float64{0, 1.5})

	maskText := "header\n-10,-10,-10,10,10,10,10,-10\n"
	ctx := &Context{LoadAreaMask: func(name string) (*geo.AreaMask, error) {
		return geo.LoadAreaMask(strings.NewReader(maskText))
	}}
	src := `point_in_area(latitude, longitude, time, "square")`
	ast, err := oplang.NewParser(src).Parse()
	require.NoError(t, err)
	pl, err := Bind(src, ast, p, ctx)
	require.NoError(t, err)

	out, err := pl.Run(p)
	require.NoError(t, err)
	n, err := out.DimensionLength(model.Time)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestBindArityMismatchIsBindTimeError(t *testing.T) {
	p := model.NewProduct("test.nc", nil)
	ast, err := oplang.NewParser(`valid(a, b)`).Parse()
	require.NoError(t, err)
	_, err = Bind(`valid(a, b)`, ast, p, nil)
	require.Error(t, err)
}
