package pipeline

import (
	"github.com/harpgo/harp/internal/geo"
	"github.com/harpgo/harp/internal/harperr"
	"github.com/harpgo/harp/internal/model"
	"github.com/harpgo/harp/internal/scalar"
)

// rowPolygon builds the spherical polygon for row i of a latitude/
// longitude bounds variable pair: the pair is either rank 1
// (`{independent>=3}`, one polygon applied uniformly to every row) or
// rank 2 (`{time, independent>=3}`, one polygon per row).
// Values are read as radians, matching the convention that unit
// conversion to radians has already happened upstream of the pipeline.
func rowPolygon(latBounds, lonBounds *model.Variable, row int) (*geo.Polygon, error) {
	latDims := latBounds.Data().Dims()
	lonDims := lonBounds.Data().Dims()
	if len(latDims) != len(lonDims) {
		return nil, harperr.New(harperr.InvalidArgument, "latitude_bounds/longitude_bounds: rank mismatch")
	}

	var vertexCount, offset int
	switch len(latDims) {
	case 1:
		vertexCount = latDims[0]
		offset = 0
	case 2:
		vertexCount = latDims[1]
		offset = row * vertexCount
	default:
		return nil, harperr.New(harperr.InvalidArgument, "latitude_bounds: unsupported rank %d", len(latDims))
	}

	points := make([]geo.Point, vertexCount)
	for k := 0; k < vertexCount; k++ {
		lat, err := scalar.AsFloat64(latBounds.Data().At(offset + k))
		if err != nil {
			return nil, err
		}
		lon, err := scalar.AsFloat64(lonBounds.Data().At(offset + k))
		if err != nil {
			return nil, err
		}
		p, err := geo.NewPoint(lat, lon)
		if err != nil {
			return nil, err
		}
		points[k] = p
	}
	return geo.NewPolygon(points)
}

// rowPoint reads row i of a latitude/longitude point variable pair (each
// rank 0 or rank 1 along DimKind).
func rowPoint(lat, lon *model.Variable, row int) (geo.Point, error) {
	latVal := lat.Data().At(row)
	lonVal := lon.Data().At(row)
	latF, err := scalar.AsFloat64(latVal)
	if err != nil {
		return geo.Point{}, err
	}
	lonF, err := scalar.AsFloat64(lonVal)
	if err != nil {
		return geo.Point{}, err
	}
	return geo.NewPoint(latF, lonF)
}

// AreaMaskTest is the closed set of AreaMask predicates a row's area (or
// point) geometry can be tested against, 's AreaMask
// predicate set.
type AreaMaskTest int

const (
	TestCoversPoint AreaMaskTest = iota
	TestCoversArea
	TestInsideArea
	TestIntersectsArea
	TestIntersectsAreaMinFraction
)

// AreaMaskFilter implements the `area_*` family of built-in functions:
// every row's geometry (a point for point_in_area, a bounds polygon for
// the rest) is tested against a pre-loaded AreaMask,
// and rows that fail are dropped from the product's DimKind dimension.
// Spatial filters consume variables named latitude_bounds and
// longitude_bounds for the polygon-test forms.
//
// area_covers_area and area_mask_covers_area bind to the same Test
// (TestCoversArea): the two names don't carry a difference in predicate
// semantics beyond naming, so both are wired to AreaMask.CoversArea
// rather than inventing one (see DESIGN.md).
type AreaMaskFilter struct {
	Src         string
	LatVar      string
	LonVar      string // bounds variable for area tests, plain point variable for point tests
	DimKind     model.DimensionKind
	Mask        *geo.AreaMask
	Test        AreaMaskTest
	MinFraction float64
}

func (f *AreaMaskFilter) Fragment() string { return f.Src }

func (f *AreaMaskFilter) Apply(p *model.Product) (*model.Product, error) {
	latVar, ok := p.Variable(f.LatVar)
	if !ok {
		return nil, harperr.New(harperr.VariableNotFound, "no variable named %q", f.LatVar)
	}
	lonVar, ok := p.Variable(f.LonVar)
	if !ok {
		return nil, harperr.New(harperr.VariableNotFound, "no variable named %q", f.LonVar)
	}

	n, err := p.DimensionLength(f.DimKind)
	if err != nil {
		return nil, err
	}
	mask := make([]bool, n)
	for row := 0; row < n; row++ {
		ok, err := f.testRow(latVar, lonVar, row)
		if err != nil {
			if f.Test == TestIntersectsArea || f.Test == TestIntersectsAreaMinFraction {
				// The spatial-overlap predicate is the one documented
				// exception to the normal error-propagation rule:
				// malformed per-row geometry counts as "no overlap"
				// rather than aborting the pipeline.
				mask[row] = false
				continue
			}
			return nil, err
		}
		mask[row] = ok
	}
	if err := applyMask(p, f.DimKind, mask); err != nil {
		return nil, err
	}
	return p, nil
}

func (f *AreaMaskFilter) testRow(latVar, lonVar *model.Variable, row int) (bool, error) {
	if f.Test == TestCoversPoint {
		pt, err := rowPoint(latVar, lonVar, row)
		if err != nil {
			return false, err
		}
		return f.Mask.CoversPoint(pt), nil
	}

	poly, err := rowPolygon(latVar, lonVar, row)
	if err != nil {
		return false, err
	}
	switch f.Test {
	case TestCoversArea:
		return f.Mask.CoversArea(poly), nil
	case TestInsideArea:
		return f.Mask.InsideArea(poly), nil
	case TestIntersectsArea:
		return f.Mask.IntersectsArea(poly), nil
	case TestIntersectsAreaMinFraction:
		return f.Mask.IntersectsAreaWithMinFraction(poly, f.MinFraction)
	default:
		return false, harperr.New(harperr.InvalidArgument, "unknown area mask test")
	}
}

// AreaCoversPoint implements `area_covers_point`: the row's own bounds
// polygon must contain a fixed reference point (given directly, not
// via an area mask file) -- the one area_* function that tests against
// a single literal point rather than a loaded mask.
type AreaCoversPoint struct {
	Src            string
	LatBoundsVar   string
	LonBoundsVar   string
	DimKind        model.DimensionKind
	RefLat, RefLon float64 // radians
}

func (f *AreaCoversPoint) Fragment() string { return f.Src }

func (f *AreaCoversPoint) Apply(p *model.Product) (*model.Product, error) {
	latVar, ok := p.Variable(f.LatBoundsVar)
	if !ok {
		return nil, harperr.New(harperr.VariableNotFound, "no variable named %q", f.LatBoundsVar)
	}
	lonVar, ok := p.Variable(f.LonBoundsVar)
	if !ok {
		return nil, harperr.New(harperr.VariableNotFound, "no variable named %q", f.LonBoundsVar)
	}
	ref, err := geo.NewPoint(f.RefLat, f.RefLon)
	if err != nil {
		return nil, err
	}

	n, err := p.DimensionLength(f.DimKind)
	if err != nil {
		return nil, err
	}
	mask := make([]bool, n)
	for row := 0; row < n; row++ {
		poly, err := rowPolygon(latVar, lonVar, row)
		if err != nil {
			return nil, err
		}
		mask[row] = poly.ContainsPoint(ref)
	}
	if err := applyMask(p, f.DimKind, mask); err != nil {
		return nil, err
	}
	return p, nil
}

// PointDistance appends a derived variable holding the great-circle
// angular distance (radians) between two point variable pairs, one row
// at a time.
type PointDistance struct {
	Src              string
	OutName          string
	Lat1Var, Lon1Var string
	Lat2Var, Lon2Var string
	DimKind          model.DimensionKind
}

func (f *PointDistance) Fragment() string { return f.Src }

func (f *PointDistance) Apply(p *model.Product) (*model.Product, error) {
	lat1, ok := p.Variable(f.Lat1Var)
	if !ok {
		return nil, harperr.New(harperr.VariableNotFound, "no variable named %q", f.Lat1Var)
	}
	lon1, ok := p.Variable(f.Lon1Var)
	if !ok {
		return nil, harperr.New(harperr.VariableNotFound, "no variable named %q", f.Lon1Var)
	}
	lat2, ok := p.Variable(f.Lat2Var)
	if !ok {
		return nil, harperr.New(harperr.VariableNotFound, "no variable named %q", f.Lat2Var)
	}
	lon2, ok := p.Variable(f.Lon2Var)
	if !ok {
		return nil, harperr.New(harperr.VariableNotFound, "no variable named %q", f.Lon2Var)
	}

	n, err := p.DimensionLength(f.DimKind)
	if err != nil {
		return nil, err
	}

	out, err := model.NewVariable(f.OutName, scalar.Float64, []model.DimensionKind{f.DimKind}, []int{n})
	if err != nil {
		return nil, err
	}
	out.SetDescription("great-circle angular distance between two point pairs, radians")

	for row := 0; row < n; row++ {
		p1, err := rowPoint(lat1, lon1, row)
		if err != nil {
			return nil, err
		}
		p2, err := rowPoint(lat2, lon2, row)
		if err != nil {
			return nil, err
		}
		out.Data().Set(row, scalar.Float64Value(geo.AngularDistance(p1, p2)))
	}

	if existing, ok := p.Variable(f.OutName); ok {
		if err := p.RemoveVariable(existing.Name()); err != nil {
			return nil, err
		}
	}
	if err := p.AddVariable(out); err != nil {
		return nil, err
	}
	return p, nil
}
