package pipeline

import (
	"sort"

	"github.com/harpgo/harp/internal/harperr"
	"github.com/harpgo/harp/internal/model"
	"github.com/harpgo/harp/internal/scalar"
)

// Keep retains only the named variables, in their original relative
// order, dropping everything else.
type Keep struct {
	Src   string
	Names []string
}

func (k *Keep) Fragment() string { return k.Src }

func (k *Keep) Apply(p *model.Product) (*model.Product, error) {
	want := map[string]bool{}
	for _, n := range k.Names {
		want[n] = true
		if _, ok := p.Variable(n); !ok {
			return nil, harperr.New(harperr.VariableNotFound, "no variable named %q", n)
		}
	}
	for _, v := range append([]*model.Variable(nil), p.Variables()...) {
		if !want[v.Name()] {
			if err := p.RemoveVariable(v.Name()); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

// Exclude removes the named variables.
type Exclude struct {
	Src   string
	Names []string
}

func (e *Exclude) Fragment() string { return e.Src }

func (e *Exclude) Apply(p *model.Product) (*model.Product, error) {
	for _, n := range e.Names {
		if err := p.RemoveVariable(n); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Rename renames one variable.
type Rename struct {
	Src      string
	Old, New string
}

func (r *Rename) Fragment() string { return r.Src }

func (r *Rename) Apply(p *model.Product) (*model.Product, error) {
	if err := p.RenameVariable(r.Old, r.New); err != nil {
		return nil, err
	}
	return p, nil
}

// Set overwrites every element of a variable with a constant value.
type Set struct {
	Src     string
	VarName string
	Value   scalar.Value
}

func (s *Set) Fragment() string { return s.Src }

func (s *Set) Apply(p *model.Product) (*model.Product, error) {
	v, ok := p.Variable(s.VarName)
	if !ok {
		return nil, harperr.New(harperr.VariableNotFound, "no variable named %q", s.VarName)
	}
	n := v.Data().Len()
	for i := 0; i < n; i++ {
		v.Data().Set(i, s.Value)
	}
	return p, nil
}

// Valid drops rows of the variable's outermost dimension where the
// value falls outside the variable's own valid_min/valid_max or equals
// its fill value.
type Valid struct {
	Src     string
	VarName string
}

func (vl *Valid) Fragment() string { return vl.Src }

func (vl *Valid) Apply(p *model.Product) (*model.Product, error) {
	v, ok := p.Variable(vl.VarName)
	if !ok {
		return nil, harperr.New(harperr.VariableNotFound, "no variable named %q", vl.VarName)
	}
	min, max, hasRange := v.ValidRange()
	test := func(val scalar.Value) (bool, error) {
		if scalar.IsFill(val) {
			return false, nil
		}
		if hasRange && scalar.Compare(val, min) < 0 {
			return false, nil
		}
		if hasRange && scalar.Compare(val, max) > 0 {
			return false, nil
		}
		return true, nil
	}
	kinds := v.DimensionKinds()
	dimKind := model.Time
	if len(kinds) > 0 {
		dimKind = kinds[0]
	}
	mask, dropped, err := rowMask(v, test)
	if err != nil {
		return nil, err
	}
	if dropped {
		return emptyLike(p), nil
	}
	if err := applyMask(p, dimKind, mask); err != nil {
		return nil, err
	}
	return p, nil
}

// LongitudeRange rewraps every value of the named longitude variable
// (radians) into [min, max), adding or subtracting 2*pi as needed.
type LongitudeRange struct {
	Src      string
	VarName  string
	Min, Max float64 // radians
}

func (lr *LongitudeRange) Fragment() string { return lr.Src }

func (lr *LongitudeRange) Apply(p *model.Product) (*model.Product, error) {
	v, ok := p.Variable(lr.VarName)
	if !ok {
		return nil, harperr.New(harperr.VariableNotFound, "no variable named %q", lr.VarName)
	}
	span := lr.Max - lr.Min
	if span <= 0 {
		return nil, harperr.New(harperr.InvalidArgument, "longitude_range: max must exceed min")
	}
	n := v.Data().Len()
	for i := 0; i < n; i++ {
		val := v.Data().At(i)
		if scalar.IsFill(val) {
			continue
		}
		f, err := scalar.AsFloat64(val)
		if err != nil {
			return nil, err
		}
		for f < lr.Min {
			f += span
		}
		for f >= lr.Max {
			f -= span
		}
		nv, err := scalar.ConvertNumeric(scalar.Float64Value(f), v.ElementType())
		if err != nil {
			return nil, err
		}
		v.Data().Set(i, nv)
	}
	return p, nil
}

// Sort reorders every variable whose outermost dimension kind is
// dimKind so that the named key variable's values along that dimension
// are non-decreasing.
type Sort struct {
	Src     string
	DimKind model.DimensionKind
	KeyName string
}

func (s *Sort) Fragment() string { return s.Src }

func (s *Sort) Apply(p *model.Product) (*model.Product, error) {
	key, ok := p.Variable(s.KeyName)
	if !ok {
		return nil, harperr.New(harperr.VariableNotFound, "no variable named %q", s.KeyName)
	}
	kinds := key.DimensionKinds()
	if len(kinds) == 0 || kinds[0] != s.DimKind {
		return nil, harperr.New(harperr.InvalidArgument, "sort key %q does not vary along %s", s.KeyName, s.DimKind)
	}
	n, err := p.DimensionLength(s.DimKind)
	if err != nil {
		return nil, err
	}
	rowLen := key.Data().Len() / n
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		va := key.Data().At(order[a] * rowLen)
		vb := key.Data().At(order[b] * rowLen)
		return scalar.Compare(va, vb) < 0
	})
	for _, v := range p.Variables() {
		vk := v.DimensionKinds()
		if len(vk) == 0 || vk[0] != s.DimKind {
			continue
		}
		sliced, err := v.Data().Slice(order)
		if err != nil {
			return nil, err
		}
		model.ReplaceData(v, sliced)
	}
	return p, nil
}
