// Package array implements the N-dimensional typed buffer core:
// construction, in-place transpose, axis inversion, and fill-value
// remapping over a contiguous typed buffer.
package array

import (
	"fmt"
	"math"

	"github.com/harpgo/harp/internal/harperr"
	"github.com/harpgo/harp/internal/scalar"
)

// Array is a contiguous, typed, N-dimensional buffer. Rank 0 (Dims ==
// nil or empty) represents a single scalar element, not an empty array.
type Array struct {
	typ  scalar.Type
	dims []int

	// Exactly one of the following backs the element type in typ.
	i8  []int8
	i16 []int16
	i32 []int32
	f32 []float32
	f64 []float64
	str []*string
}

// NumElements returns the product of dims, with an empty dims slice
// (rank 0) treated as a single element.
func NumElements(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

// New allocates an Array of the given type and shape, initialized to the
// type's canonical fill value.
func New(t scalar.Type, dims []int) *Array {
	n := NumElements(dims)
	a := &Array{typ: t, dims: append([]int(nil), dims...)}
	switch t {
	case scalar.Int8:
		a.i8 = make([]int8, n)
	case scalar.Int16:
		a.i16 = make([]int16, n)
	case scalar.Int32:
		a.i32 = make([]int32, n)
	case scalar.Float32:
		a.f32 = make([]float32, n)
		for i := range a.f32 {
			a.f32[i] = float32(math.NaN())
		}
	case scalar.Float64:
		a.f64 = make([]float64, n)
		for i := range a.f64 {
			a.f64[i] = math.NaN()
		}
	case scalar.String:
		a.str = make([]*string, n)
	}
	return a
}

// Type returns the array's element type.
func (a *Array) Type() scalar.Type { return a.typ }

// Dims returns the array's shape. Callers must not mutate the result.
func (a *Array) Dims() []int { return a.dims }

// Rank returns the number of dimensions (0 for a scalar).
func (a *Array) Rank() int { return len(a.dims) }

// Len returns the total element count.
func (a *Array) Len() int { return NumElements(a.dims) }

// At returns the element at flat index i as a tagged scalar.Value.
func (a *Array) At(i int) scalar.Value {
	switch a.typ {
	case scalar.Int8:
		return scalar.Int8Value(a.i8[i])
	case scalar.Int16:
		return scalar.Int16Value(a.i16[i])
	case scalar.Int32:
		return scalar.Int32Value(a.i32[i])
	case scalar.Float32:
		return scalar.Float32Value(a.f32[i])
	case scalar.Float64:
		return scalar.Float64Value(a.f64[i])
	case scalar.String:
		return scalar.StringValue(a.str[i])
	default:
		panic("array: unknown element type")
	}
}

// Set stores v at flat index i. It panics if v's type does not match
// the array's element type.
func (a *Array) Set(i int, v scalar.Value) {
	if v.Type() != a.typ {
		panic(fmt.Sprintf("array: type mismatch storing %s into %s array", v.Type(), a.typ))
	}
	switch a.typ {
	case scalar.Int8:
		a.i8[i] = int8(v.Int())
	case scalar.Int16:
		a.i16[i] = int16(v.Int())
	case scalar.Int32:
		a.i32[i] = int32(v.Int())
	case scalar.Float32:
		a.f32[i] = float32(v.Float())
	case scalar.Float64:
		a.f64[i] = v.Float()
	case scalar.String:
		a.str[i] = v.Str()
	}
}

// strides returns the row-major strides for dims.
func strides(dims []int) []int {
	s := make([]int, len(dims))
	acc := 1
	for i := len(dims) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= dims[i]
	}
	return s
}

// Transpose permutes the array's axes according to order, a permutation
// of [0, rank). A nil order reverses all axes. Transpose allocates one
// scratch buffer and walks the old layout by stride, writing into the
// new layout; element sizes of 1/2/4/8 bytes take a typed fast path
// (the underlying slice's native element copy) rather than going
// through the tagged scalar.Value accessors.
func (a *Array) Transpose(order []int) error {
	rank := a.Rank()
	if order == nil {
		order = make([]int, rank)
		for i := range order {
			order[i] = rank - 1 - i
		}
	}
	if len(order) != rank {
		return harperr.New(harperr.InvalidArgument, "transpose: order length %d does not match rank %d", len(order), rank)
	}
	seen := make([]bool, rank)
	for _, o := range order {
		if o < 0 || o >= rank || seen[o] {
			return harperr.New(harperr.InvalidArgument, "transpose: order is not a permutation of [0,%d)", rank)
		}
		seen[o] = true
	}

	newDims := make([]int, rank)
	for i, o := range order {
		newDims[i] = a.dims[o]
	}
	oldStrides := strides(a.dims)
	newStrides := strides(newDims)
	n := a.Len()

	reindex := func(flat int) int {
		// Decompose flat index in new layout, map each coordinate back
		// to its old axis, recompose the old flat index.
		old := 0
		rem := flat
		for i := 0; i < rank; i++ {
			coord := rem / newStrides[i]
			rem -= coord * newStrides[i]
			old += coord * oldStrides[order[i]]
		}
		return old
	}

	switch a.typ {
	case scalar.Int8:
		dst := make([]int8, n)
		for i := 0; i < n; i++ {
			dst[i] = a.i8[reindex(i)]
		}
		a.i8 = dst
	case scalar.Int16:
		dst := make([]int16, n)
		for i := 0; i < n; i++ {
			dst[i] = a.i16[reindex(i)]
		}
		a.i16 = dst
	case scalar.Int32:
		dst := make([]int32, n)
		for i := 0; i < n; i++ {
			dst[i] = a.i32[reindex(i)]
		}
		a.i32 = dst
	case scalar.Float32:
		dst := make([]float32, n)
		for i := 0; i < n; i++ {
			dst[i] = a.f32[reindex(i)]
		}
		a.f32 = dst
	case scalar.Float64:
		dst := make([]float64, n)
		for i := 0; i < n; i++ {
			dst[i] = a.f64[reindex(i)]
		}
		a.f64 = dst
	case scalar.String:
		dst := make([]*string, n)
		for i := 0; i < n; i++ {
			dst[i] = a.str[reindex(i)]
		}
		a.str = dst
	}
	a.dims = newDims
	return nil
}

// InvertAxis reverses the array's slices along axis, in place.
func (a *Array) InvertAxis(axis int) error {
	if axis < 0 || axis >= a.Rank() {
		return harperr.New(harperr.InvalidArgument, "invert_axis: axis %d out of range for rank %d", axis, a.Rank())
	}
	s := strides(a.dims)
	axisLen := a.dims[axis]
	if axisLen < 2 {
		return nil
	}
	n := a.Len()
	outer := n / (axisLen * s[axis])
	for o := 0; o < outer; o++ {
		base := o * axisLen * s[axis]
		for inner := 0; inner < s[axis]; inner++ {
			lo, hi := 0, axisLen-1
			for lo < hi {
				li := base + lo*s[axis] + inner
				hiI := base + hi*s[axis] + inner
				a.swap(li, hiI)
				lo++
				hi--
			}
		}
	}
	return nil
}

func (a *Array) swap(i, j int) {
	switch a.typ {
	case scalar.Int8:
		a.i8[i], a.i8[j] = a.i8[j], a.i8[i]
	case scalar.Int16:
		a.i16[i], a.i16[j] = a.i16[j], a.i16[i]
	case scalar.Int32:
		a.i32[i], a.i32[j] = a.i32[j], a.i32[i]
	case scalar.Float32:
		a.f32[i], a.f32[j] = a.f32[j], a.f32[i]
	case scalar.Float64:
		a.f64[i], a.f64[j] = a.f64[j], a.f64[i]
	case scalar.String:
		a.str[i], a.str[j] = a.str[j], a.str[i]
	}
}

// ReplaceFill rewrites every element equal to old with the type's
// canonical fill value. It is a no-op if old is already the canonical
// fill value, for every element type. Otherwise it is undefined (returns
// an error) for String arrays: string fill remapping is done by
// assigning nil entries directly.
func (a *Array) ReplaceFill(old scalar.Value) error {
	if scalar.IsFill(old) {
		return nil
	}
	if a.typ == scalar.String {
		return harperr.New(harperr.InvalidArgument, "replace_fill is undefined for string arrays; assign nil entries directly")
	}
	fill := scalar.FillValue(a.typ)
	switch a.typ {
	case scalar.Int8:
		ov := int8(old.Int())
		fv := int8(fill.Int())
		for i, v := range a.i8 {
			if v == ov {
				a.i8[i] = fv
			}
		}
	case scalar.Int16:
		ov := int16(old.Int())
		fv := int16(fill.Int())
		for i, v := range a.i16 {
			if v == ov {
				a.i16[i] = fv
			}
		}
	case scalar.Int32:
		ov := int32(old.Int())
		fv := int32(fill.Int())
		for i, v := range a.i32 {
			if v == ov {
				a.i32[i] = fv
			}
		}
	case scalar.Float32:
		ov := float32(old.Float())
		fv := float32(fill.Float())
		for i, v := range a.f32 {
			if v == ov {
				a.f32[i] = fv
			}
		}
	case scalar.Float64:
		ov := old.Float()
		fv := fill.Float()
		for i, v := range a.f64 {
			if v == ov {
				a.f64[i] = fv
			}
		}
	}
	return nil
}

// Clone returns a deep copy of a.
func (a *Array) Clone() *Array {
	b := &Array{typ: a.typ, dims: append([]int(nil), a.dims...)}
	b.i8 = append([]int8(nil), a.i8...)
	b.i16 = append([]int16(nil), a.i16...)
	b.i32 = append([]int32(nil), a.i32...)
	b.f32 = append([]float32(nil), a.f32...)
	b.f64 = append([]float64(nil), a.f64...)
	b.str = append([]*string(nil), a.str...)
	return b
}

// Slice returns a new Array containing only the rows [indices] along
// axis 0 of a, preserving the remaining dimensions. Used by the
// pipeline executor to apply a time-dimension boolean mask.
func (a *Array) Slice(indices []int) (*Array, error) {
	if a.Rank() == 0 {
		return nil, harperr.New(harperr.InvalidArgument, "cannot slice a rank-0 array")
	}
	rowLen := 1
	for _, d := range a.dims[1:] {
		rowLen *= d
	}
	newDims := append([]int(nil), a.dims...)
	newDims[0] = len(indices)
	out := New(a.typ, newDims)
	for dst, src := range indices {
		if src < 0 || src >= a.dims[0] {
			return nil, harperr.New(harperr.InvalidArgument, "slice index %d out of range for axis length %d", src, a.dims[0])
		}
		for k := 0; k < rowLen; k++ {
			out.Set(dst*rowLen+k, a.At(src*rowLen+k))
		}
	}
	return out, nil
}
