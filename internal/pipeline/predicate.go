package pipeline

import (
	"github.com/harpgo/harp/internal/harperr"
	"github.com/harpgo/harp/internal/model"
	"github.com/harpgo/harp/internal/scalar"
)

// rowMask evaluates test against every element of the named variable
// along its outermost dimension and returns which rows pass. Predicate
// filters work on the product's time dimension by default; a rank-0
// variable is a whole-product predicate: if it evaluates false the
// whole product is dropped (mask has length 0 and wholeProductDropped
// is true).
func rowMask(v *model.Variable, test func(scalar.Value) (bool, error)) (mask []bool, wholeProductDropped bool, err error) {
	data := v.Data()
	if data.Rank() == 0 {
		ok, err := test(data.At(0))
		if err != nil {
			return nil, false, err
		}
		return nil, !ok, nil
	}

	rowLen := 1
	dims := data.Dims()
	for _, d := range dims[1:] {
		rowLen *= d
	}
	n := dims[0]
	mask = make([]bool, n)
	for i := 0; i < n; i++ {
		rowOK := true
		for k := 0; k < rowLen; k++ {
			ok, err := test(data.At(i*rowLen + k))
			if err != nil {
				return nil, false, err
			}
			if !ok {
				rowOK = false
				break
			}
		}
		mask[i] = rowOK
	}
	return mask, false, nil
}

// applyMask slices every variable whose outermost dimension kind
// matches dimKind down to the rows where mask is true, and updates the
// product's length for that kind. Variables without that outermost
// dimension kind are left untouched,.
func applyMask(p *model.Product, dimKind model.DimensionKind, mask []bool) error {
	kept := make([]int, 0, len(mask))
	for i, ok := range mask {
		if ok {
			kept = append(kept, i)
		}
	}
	for _, v := range p.Variables() {
		kinds := v.DimensionKinds()
		if len(kinds) == 0 || kinds[0] != dimKind {
			continue
		}
		sliced, err := v.Data().Slice(kept)
		if err != nil {
			return err
		}
		model.ReplaceData(v, sliced)
	}
	p.SetDimensionLength(dimKind, len(kept))
	return nil
}

// PredicateFilter implements the comparator form 's
// grammar: `variable_ref comparator literal`.
type PredicateFilter struct {
	Src     string
	VarName string
	DimKind model.DimensionKind
	Op      func(scalar.Value) (bool, error)
}

func (f *PredicateFilter) Fragment() string { return f.Src }

func (f *PredicateFilter) Apply(p *model.Product) (*model.Product, error) {
	v, ok := p.Variable(f.VarName)
	if !ok {
		return nil, harperr.New(harperr.VariableNotFound, "no variable named %q", f.VarName)
	}
	mask, dropped, err := rowMask(v, f.Op)
	if err != nil {
		return nil, err
	}
	if dropped {
		return emptyLike(p), nil
	}
	if err := applyMask(p, f.DimKind, mask); err != nil {
		return nil, err
	}
	return p, nil
}

// BitMaskFilter implements `variable_ref ('=&'|'=|') integer_literal`.
type BitMaskFilter struct {
	Src     string
	VarName string
	DimKind model.DimensionKind
	Mask    int64
	Any     bool // true for '=&' (any bit set), false for '=|' (no bit set)
}

func (f *BitMaskFilter) Fragment() string { return f.Src }

func (f *BitMaskFilter) Apply(p *model.Product) (*model.Product, error) {
	v, ok := p.Variable(f.VarName)
	if !ok {
		return nil, harperr.New(harperr.VariableNotFound, "no variable named %q", f.VarName)
	}
	test := func(val scalar.Value) (bool, error) {
		if !val.Type().IsInteger() {
			return false, harperr.New(harperr.InvalidArgument, "variable %q: bitmask predicate requires an integer type", f.VarName)
		}
		bits := val.Int() & f.Mask
		if f.Any {
			return bits != 0, nil
		}
		return bits == 0, nil
	}
	mask, dropped, err := rowMask(v, test)
	if err != nil {
		return nil, err
	}
	if dropped {
		return emptyLike(p), nil
	}
	if err := applyMask(p, f.DimKind, mask); err != nil {
		return nil, err
	}
	return p, nil
}

// ListFilter implements `variable_ref ('in'|'!' 'in') '{' literal,... '}'`.
type ListFilter struct {
	Src     string
	VarName string
	DimKind model.DimensionKind
	Values  []scalar.Value
	Negate  bool
}

func (f *ListFilter) Fragment() string { return f.Src }

func (f *ListFilter) Apply(p *model.Product) (*model.Product, error) {
	v, ok := p.Variable(f.VarName)
	if !ok {
		return nil, harperr.New(harperr.VariableNotFound, "no variable named %q", f.VarName)
	}
	test := func(val scalar.Value) (bool, error) {
		found := false
		for _, want := range f.Values {
			if valuesEqual(val, want) {
				found = true
				break
			}
		}
		if f.Negate {
			return !found, nil
		}
		return found, nil
	}
	mask, dropped, err := rowMask(v, test)
	if err != nil {
		return nil, err
	}
	if dropped {
		return emptyLike(p), nil
	}
	if err := applyMask(p, f.DimKind, mask); err != nil {
		return nil, err
	}
	return p, nil
}

func valuesEqual(a, b scalar.Value) bool {
	if a.Type() == scalar.String || b.Type() == scalar.String {
		as, bs := a.Str(), b.Str()
		if as == nil || bs == nil {
			return as == bs
		}
		return *as == *bs
	}
	return scalar.Compare(a, b) == 0
}

// emptyLike drops every row of every rank>=1 variable in p, and zeroes
// every dimension-kind length: the "0-D predicate evaluates false"
// case ("drops the whole product").
func emptyLike(p *model.Product) *model.Product {
	seen := map[model.DimensionKind]bool{}
	for _, v := range p.Variables() {
		kinds := v.DimensionKinds()
		if len(kinds) == 0 {
			continue
		}
		sliced, err := v.Data().Slice(nil)
		if err != nil {
			continue
		}
		model.ReplaceData(v, sliced)
		if kinds[0] != model.Independent {
			seen[kinds[0]] = true
		}
	}
	for kind := range seen {
		p.SetDimensionLength(kind, 0)
	}
	return p
}
