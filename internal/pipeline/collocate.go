// CollocateLeft and CollocateRight implement the
// `collocate_left`/`collocate_right` built-ins. A full collocation
// result (a paired index table covering both datasets, with reciprocal
// nearest-neighbor matching) needs two products evolving in lockstep,
// which the single-product `Operation.Apply(p) -> p` executor does not
// express. The simplification recorded in DESIGN.md: both operations
// take a pre-loaded reference product and
// compare each row's point, by great-circle distance, against every
// reference row (nearest-neighbor, no spatial index -- acceptable at
// typical collocation reference sizes). collocate_left keeps only rows
// with a match; collocate_right keeps the same rows and additionally
// records the matched distance, standing in for the paired output a
// two-sided collocation would otherwise produce.
package pipeline

import (
	"github.com/harpgo/harp/internal/geo"
	"github.com/harpgo/harp/internal/harperr"
	"github.com/harpgo/harp/internal/model"
	"github.com/harpgo/harp/internal/scalar"
)

func nearestDistance(lat, lon *model.Variable, row int, refLat, refLon *model.Variable, refN int) (float64, error) {
	pt, err := rowPoint(lat, lon, row)
	if err != nil {
		return 0, err
	}
	best := -1.0
	for r := 0; r < refN; r++ {
		refPt, err := rowPoint(refLat, refLon, r)
		if err != nil {
			continue
		}
		d := geo.AngularDistance(pt, refPt)
		if best < 0 || d < best {
			best = d
		}
	}
	if best < 0 {
		return 0, harperr.New(harperr.NoData, "collocate: reference product has no usable points")
	}
	return best, nil
}

// CollocateLeft keeps rows of p whose point (LatVar, LonVar) has a
// reference-product match within MaxDistance radians.
type CollocateLeft struct {
	Src                  string
	LatVar, LonVar       string
	Reference            *model.Product
	RefLatVar, RefLonVar string
	DimKind              model.DimensionKind
	MaxDistance          float64 // radians
}

func (c *CollocateLeft) Fragment() string { return c.Src }

func (c *CollocateLeft) Apply(p *model.Product) (*model.Product, error) {
	lat, ok := p.Variable(c.LatVar)
	if !ok {
		return nil, harperr.New(harperr.VariableNotFound, "no variable named %q", c.LatVar)
	}
	lon, ok := p.Variable(c.LonVar)
	if !ok {
		return nil, harperr.New(harperr.VariableNotFound, "no variable named %q", c.LonVar)
	}
	refLat, ok := c.Reference.Variable(c.RefLatVar)
	if !ok {
		return nil, harperr.New(harperr.VariableNotFound, "reference product has no variable named %q", c.RefLatVar)
	}
	refLon, ok := c.Reference.Variable(c.RefLonVar)
	if !ok {
		return nil, harperr.New(harperr.VariableNotFound, "reference product has no variable named %q", c.RefLonVar)
	}
	refN, err := c.Reference.DimensionLength(c.DimKind)
	if err != nil {
		return nil, err
	}

	n, err := p.DimensionLength(c.DimKind)
	if err != nil {
		return nil, err
	}
	mask := make([]bool, n)
	for row := 0; row < n; row++ {
		d, err := nearestDistance(lat, lon, row, refLat, refLon, refN)
		if err != nil {
			mask[row] = false
			continue
		}
		mask[row] = d <= c.MaxDistance
	}
	if err := applyMask(p, c.DimKind, mask); err != nil {
		return nil, err
	}
	return p, nil
}

// CollocateRight performs the same nearest-neighbor row filter as
// CollocateLeft, additionally attaching a `collocation_distance`
// variable recording each surviving row's matched distance in radians.
type CollocateRight struct {
	Src                  string
	LatVar, LonVar       string
	Reference            *model.Product
	RefLatVar, RefLonVar string
	DimKind              model.DimensionKind
	MaxDistance          float64
}

func (c *CollocateRight) Fragment() string { return c.Src }

func (c *CollocateRight) Apply(p *model.Product) (*model.Product, error) {
	lat, ok := p.Variable(c.LatVar)
	if !ok {
		return nil, harperr.New(harperr.VariableNotFound, "no variable named %q", c.LatVar)
	}
	lon, ok := p.Variable(c.LonVar)
	if !ok {
		return nil, harperr.New(harperr.VariableNotFound, "no variable named %q", c.LonVar)
	}
	refLat, ok := c.Reference.Variable(c.RefLatVar)
	if !ok {
		return nil, harperr.New(harperr.VariableNotFound, "reference product has no variable named %q", c.RefLatVar)
	}
	refLon, ok := c.Reference.Variable(c.RefLonVar)
	if !ok {
		return nil, harperr.New(harperr.VariableNotFound, "reference product has no variable named %q", c.RefLonVar)
	}
	refN, err := c.Reference.DimensionLength(c.DimKind)
	if err != nil {
		return nil, err
	}

	n, err := p.DimensionLength(c.DimKind)
	if err != nil {
		return nil, err
	}
	mask := make([]bool, n)
	distances := make([]float64, n)
	for row := 0; row < n; row++ {
		d, err := nearestDistance(lat, lon, row, refLat, refLon, refN)
		if err != nil {
			mask[row] = false
			continue
		}
		mask[row] = d <= c.MaxDistance
		distances[row] = d
	}

	kept := make([]float64, 0, n)
	for row, ok := range mask {
		if ok {
			kept = append(kept, distances[row])
		}
	}

	if err := applyMask(p, c.DimKind, mask); err != nil {
		return nil, err
	}

	dist, err := model.NewVariable("collocation_distance", scalar.Float64, []model.DimensionKind{c.DimKind}, []int{len(kept)})
	if err != nil {
		return nil, err
	}
	dist.SetDescription("great-circle angular distance to matched reference row, radians")
	for i, d := range kept {
		dist.Data().Set(i, scalar.Float64Value(d))
	}
	if existing, ok := p.Variable("collocation_distance"); ok {
		if err := p.RemoveVariable(existing.Name()); err != nil {
			return nil, err
		}
	}
	if err := p.AddVariable(dist); err != nil {
		return nil, err
	}
	return p, nil
}
