// Package model implements the product/variable data model: a Variable
// is a named, typed array tagged with semantic dimension kinds, unit,
// and validity metadata; a Product is an ordered, named collection of
// variables sharing a dimension-size map.
//
// Variable and Product keep private fields behind accessor methods, and
// back their name lookups with an insertion-ordered slice plus a
// name->index map for O(1) access, the same Chart/Feature split a
// navigational-chart catalog would use for its own feature list.
package model

import (
	"fmt"

	"github.com/harpgo/harp/internal/array"
	"github.com/harpgo/harp/internal/harperr"
	"github.com/harpgo/harp/internal/scalar"
	"github.com/harpgo/harp/internal/units"
)

// DimensionKind is the closed set of semantic dimension kinds a
// variable's axes can carry. Only Independent may repeat within a
// variable's dimension list.
type DimensionKind int

const (
	Independent DimensionKind = iota
	Time
	Latitude
	Longitude
	Vertical
	Spectral
)

// String renders the dimension kind the way operation strings and
// history entries reference it.
func (k DimensionKind) String() string {
	switch k {
	case Independent:
		return "independent"
	case Time:
		return "time"
	case Latitude:
		return "latitude"
	case Longitude:
		return "longitude"
	case Vertical:
		return "vertical"
	case Spectral:
		return "spectral"
	default:
		return "unknown"
	}
}

// Variable is a named, typed array with semantic dimension tags, an
// optional unit, description, validity range, and enumeration labels.
type Variable struct {
	name        string
	data        *array.Array
	dimKinds    []DimensionKind
	unit        string
	unitHandle  units.Unit
	description string
	validMin    *scalar.Value
	validMax    *scalar.Value
	enumLabels  []string
}

// NewVariable constructs a Variable of the given type and shape. kinds
// and lengths must have equal length (the variable's rank); a
// non-independent kind may appear at most once.
func NewVariable(name string, typ scalar.Type, kinds []DimensionKind, lengths []int) (*Variable, error) {
	if name == "" {
		return nil, harperr.New(harperr.InvalidArgument, "variable name must not be empty")
	}
	if len(kinds) != len(lengths) {
		return nil, harperr.New(harperr.InvalidArgument, "variable %q: %d dimension kinds but %d lengths", name, len(kinds), len(lengths))
	}
	seen := map[DimensionKind]bool{}
	for _, k := range kinds {
		if k == Independent {
			continue
		}
		if seen[k] {
			return nil, harperr.New(harperr.InvalidArgument, "variable %q: dimension kind %s repeated", name, k)
		}
		seen[k] = true
	}
	return &Variable{
		name:     name,
		data:     array.New(typ, lengths),
		dimKinds: append([]DimensionKind(nil), kinds...),
	}, nil
}

// Name returns the variable's identifier.
func (v *Variable) Name() string { return v.name }

// ElementType returns the variable's element type.
func (v *Variable) ElementType() scalar.Type { return v.data.Type() }

// DimensionKinds returns the variable's ordered dimension kinds.
func (v *Variable) DimensionKinds() []DimensionKind { return v.dimKinds }

// DimensionLengths returns the variable's dimension lengths, parallel
// to DimensionKinds.
func (v *Variable) DimensionLengths() []int { return v.data.Dims() }

// Data returns the variable's underlying typed array.
func (v *Variable) Data() *array.Array { return v.data }

// Unit returns the variable's unit string, or "" if unset.
func (v *Variable) Unit() string { return v.unit }

// Description returns the variable's free-text description.
func (v *Variable) Description() string { return v.description }

// SetDescription sets the variable's free-text description.
func (v *Variable) SetDescription(d string) { v.description = d }

// SetUnit parses unit against sys and stores it; later ConvertUnit
// calls use the same system to compute the conversion.
func (v *Variable) SetUnit(unit string, sys units.System) error {
	if unit == "" {
		v.unit = ""
		v.unitHandle = nil
		return nil
	}
	h, err := sys.Parse(unit)
	if err != nil {
		return err
	}
	v.unit = unit
	v.unitHandle = h
	return nil
}

// ConvertUnit converts the variable's numeric buffer from its current
// unit to target, in place, updating v.Unit(). String variables are
// rejected. Integer element types are promoted to Float64 first when
// the conversion factor/offset is non-integral,.
func (v *Variable) ConvertUnit(target string, sys units.System) error {
	if v.data.Type() == scalar.String {
		return harperr.New(harperr.InvalidArgument, "variable %q: string variables have no unit", v.name)
	}
	if v.unitHandle == nil {
		return harperr.New(harperr.UnitConversion, "variable %q: no unit set", v.name)
	}
	targetHandle, err := sys.Parse(target)
	if err != nil {
		return err
	}
	factor, offset, err := sys.Conversion(v.unitHandle, targetHandle)
	if err != nil {
		return err
	}

	if !isIntegralTransform(factor, offset) && v.data.Type().IsInteger() {
		if err := v.ConvertElementType(scalar.Float64); err != nil {
			return err
		}
	}

	n := v.data.Len()
	for i := 0; i < n; i++ {
		val := v.data.At(i)
		if scalar.IsFill(val) {
			continue
		}
		f, err := scalar.AsFloat64(val)
		if err != nil {
			return err
		}
		converted := f*factor + offset
		nv, err := scalar.ConvertNumeric(scalar.Float64Value(converted), v.data.Type())
		if err != nil {
			return err
		}
		v.data.Set(i, nv)
	}

	v.unit = target
	v.unitHandle = targetHandle
	return nil
}

func isIntegralTransform(factor, offset float64) bool {
	return factor == float64(int64(factor)) && offset == float64(int64(offset))
}

// ConvertElementType replaces the variable's buffer with a range-checked
// cast to target. NaN in a float source produces target's fill value
// (handled by scalar.ConvertNumeric).
func (v *Variable) ConvertElementType(target scalar.Type) error {
	if v.data.Type() == target {
		return nil
	}
	n := v.data.Len()
	converted := array.New(target, v.data.Dims())
	for i := 0; i < n; i++ {
		nv, err := scalar.ConvertNumeric(v.data.At(i), target)
		if err != nil {
			return harperr.New(harperr.InvalidArgument, "variable %q: %v", v.name, err)
		}
		converted.Set(i, nv)
	}
	v.data = converted
	v.validMin = nil
	v.validMax = nil
	return nil
}

// HasDimensionKinds reports whether v's dimension kinds equal kinds,
// in order. Used by operations to validate shape prerequisites before
// binding.
func (v *Variable) HasDimensionKinds(kinds []DimensionKind) bool {
	if len(kinds) != len(v.dimKinds) {
		return false
	}
	for i, k := range kinds {
		if v.dimKinds[i] != k {
			return false
		}
	}
	return true
}

// Rebroadcast replicates v's values along dimensions present in kinds
// but absent from v, producing a new variable whose dimension kinds
// are exactly kinds (in the given order) and whose lengths come from
// lengths (parallel to kinds). v's existing dimensions must appear, in
// their existing relative order, as a subsequence of kinds.
func (v *Variable) Rebroadcast(kinds []DimensionKind, lengths []int) (*Variable, error) {
	if len(kinds) != len(lengths) {
		return nil, harperr.New(harperr.InvalidArgument, "rebroadcast: %d kinds but %d lengths", len(kinds), len(lengths))
	}

	srcPos := make([]int, 0, len(v.dimKinds))
	j := 0
	for _, k := range v.dimKinds {
		for j < len(kinds) && kinds[j] != k {
			j++
		}
		if j == len(kinds) {
			return nil, harperr.New(harperr.InvalidArgument, "variable %q: dimension kind %s not present in rebroadcast target", v.name, k)
		}
		srcPos = append(srcPos, j)
		j++
	}

	out := &Variable{
		name:        v.name,
		data:        array.New(v.data.Type(), lengths),
		dimKinds:    append([]DimensionKind(nil), kinds...),
		unit:        v.unit,
		unitHandle:  v.unitHandle,
		description: v.description,
		validMin:    v.validMin,
		validMax:    v.validMax,
		enumLabels:  append([]string(nil), v.enumLabels...),
	}

	outDims := out.data.Dims()
	total := array.NumElements(outDims)
	outStrides := stridesOf(outDims)
	srcStrides := stridesOf(v.data.Dims())

	for flat := 0; flat < total; flat++ {
		srcIndex := 0
		for d, stride := range outStrides {
			coord := (flat / stride) % outDims[d]
			for si, sd := range srcPos {
				if sd == d {
					srcIndex += coord * srcStrides[si]
				}
			}
		}
		out.data.Set(flat, v.data.At(srcIndex))
	}
	return out, nil
}

func stridesOf(dims []int) []int {
	s := make([]int, len(dims))
	acc := 1
	for i := len(dims) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= dims[i]
	}
	return s
}

// SetValidRange sets the variable's valid min/max, validated against
// its element type; min must not exceed max.
func (v *Variable) SetValidRange(min, max scalar.Value) error {
	if min.Type() != v.data.Type() || max.Type() != v.data.Type() {
		return harperr.New(harperr.InvalidArgument, "variable %q: valid range type mismatch", v.name)
	}
	if scalar.Compare(min, max) > 0 {
		return harperr.New(harperr.InvalidArgument, "variable %q: valid_min > valid_max", v.name)
	}
	v.validMin = &min
	v.validMax = &max
	return nil
}

// ValidRange returns the variable's valid min/max, if set.
func (v *Variable) ValidRange() (min, max scalar.Value, ok bool) {
	if v.validMin == nil || v.validMax == nil {
		return scalar.Value{}, scalar.Value{}, false
	}
	return *v.validMin, *v.validMax, true
}

// SetEnum attaches enumeration labels, valid only for integer element
// types: labels[i] names the integer code i; codes outside [0,len)
// are "unknown".
func (v *Variable) SetEnum(labels []string) error {
	if !v.data.Type().IsInteger() {
		return harperr.New(harperr.InvalidArgument, "variable %q: enum labels require an integer element type", v.name)
	}
	v.enumLabels = append([]string(nil), labels...)
	return nil
}

// EnumLabel returns the label for code, or "unknown" if code is out of
// range or no labels were set.
func (v *Variable) EnumLabel(code int64) string {
	if code < 0 || int(code) >= len(v.enumLabels) {
		return "unknown"
	}
	return v.enumLabels[code]
}

// Clone returns a deep copy of v, used by the pipeline executor's
// copy-on-write commit protocol.
func (v *Variable) Clone() *Variable {
	c := *v
	c.data = v.data.Clone()
	c.dimKinds = append([]DimensionKind(nil), v.dimKinds...)
	c.enumLabels = append([]string(nil), v.enumLabels...)
	if v.validMin != nil {
		m := *v.validMin
		c.validMin = &m
	}
	if v.validMax != nil {
		m := *v.validMax
		c.validMax = &m
	}
	return &c
}

func (v *Variable) String() string {
	return fmt.Sprintf("%s(%s)", v.name, v.data.Type())
}

// RelabelDimensionKind rewrites every occurrence of from in v's
// dimension kinds to to, without touching the underlying buffer. Used
// by the pipeline's `flatten` operation to strip a dimension's semantic
// meaning (folding it into `independent`) while preserving its data and
// length.
func (v *Variable) RelabelDimensionKind(from, to DimensionKind) {
	for i, k := range v.dimKinds {
		if k == from {
			v.dimKinds[i] = to
		}
	}
}

// SqueezeDimensionKind removes the first dimension kind matching kind
// from v, provided its length is exactly 1; the variable's rank drops
// by one and its data is unchanged (a length-1 axis never reorders the
// underlying flat buffer). Used by the pipeline's `squash` operation.
func (v *Variable) SqueezeDimensionKind(kind DimensionKind) error {
	axis := -1
	for i, k := range v.dimKinds {
		if k == kind {
			axis = i
			break
		}
	}
	if axis == -1 {
		return nil
	}
	dims := v.data.Dims()
	if dims[axis] != 1 {
		return harperr.New(harperr.InvalidArgument, "variable %q: cannot squash dimension %s of length %d", v.name, kind, dims[axis])
	}
	newDims := append(append([]int(nil), dims[:axis]...), dims[axis+1:]...)
	out := array.New(v.data.Type(), newDims)
	n := v.data.Len()
	for i := 0; i < n; i++ {
		out.Set(i, v.data.At(i))
	}
	v.data = out
	v.dimKinds = append(append([]DimensionKind(nil), v.dimKinds[:axis]...), v.dimKinds[axis+1:]...)
	return nil
}

// ReplaceData swaps v's underlying buffer for data, keeping every other
// field of v unchanged. Used by internal/pipeline to commit the result
// of a row-slicing operation (filter, sort, bin, ...) without needing
// access to Variable's private fields.
func ReplaceData(v *Variable, data *array.Array) *Variable {
	v.data = data
	return v
}
