package array

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harpgo/harp/internal/scalar"
)

func TestNumElementsScalarIsOne(t *testing.T) {
	assert.Equal(t, 1, NumElements(nil))
	assert.Equal(t, 1, NumElements([]int{}))
	assert.Equal(t, 24, NumElements([]int{2, 3, 4}))
}

func TestNewFillsCanonicalFill(t *testing.T) {
	a := New(scalar.Int32, []int{3})
	for i := 0; i < a.Len(); i++ {
		assert.True(t, scalar.IsFill(a.At(i)))
	}

	f := New(scalar.Float64, []int{2})
	for i := 0; i < f.Len(); i++ {
		assert.True(t, scalar.IsFill(f.At(i)))
	}
}

func TestTransposeThenInverseIsIdentity(t *testing.T) {
	a := New(scalar.Int32, []int{2, 3})
	n := 0
	for i := 0; i < a.Len(); i++ {
		a.Set(i, scalar.Int32Value(int32(n)))
		n++
	}
	clone := a.Clone()

	require.NoError(t, a.Transpose([]int{1, 0}))
	require.NoError(t, a.Transpose([]int{1, 0}))

	assert.Equal(t, clone.Dims(), a.Dims())
	for i := 0; i < a.Len(); i++ {
		assert.Equal(t, clone.At(i).Int(), a.At(i).Int())
	}
}

func TestInvertAxisTwiceIsIdentity(t *testing.T) {
	a := New(scalar.Int32, []int{4})
	for i := 0; i < a.Len(); i++ {
		a.Set(i, scalar.Int32Value(int32(i)))
	}
	clone := a.Clone()

	require.NoError(t, a.InvertAxis(0))
	require.NoError(t, a.InvertAxis(0))

	for i := 0; i < a.Len(); i++ {
		assert.Equal(t, clone.At(i).Int(), a.At(i).Int())
	}
}

func TestInvertAxisReversesOrder(t *testing.T) {
	a := New(scalar.Int32, []int{3})
	for i := 0; i < 3; i++ {
		a.Set(i, scalar.Int32Value(int32(i)))
	}
	require.NoError(t, a.InvertAxis(0))
	assert.Equal(t, int64(2), a.At(0).Int())
	assert.Equal(t, int64(1), a.At(1).Int())
	assert.Equal(t, int64(0), a.At(2).Int())
}

func TestReplaceFillOnlyTouchesMatchingElements(t *testing.T) {
	a := New(scalar.Int32, []int{4})
	vals := []int32{5, 0, 5, 7}
	for i, v := range vals {
		a.Set(i, scalar.Int32Value(v))
	}

	require.NoError(t, a.ReplaceFill(scalar.Int32Value(5)))

	assert.Equal(t, int64(0), a.At(0).Int())
	assert.Equal(t, int64(0), a.At(1).Int())
	assert.Equal(t, int64(0), a.At(2).Int())
	assert.Equal(t, int64(7), a.At(3).Int())
}

func TestReplaceFillNoOpWhenAlreadyCanonical(t *testing.T) {
	a := New(scalar.Int32, []int{2})
	a.Set(0, scalar.Int32Value(0))
	a.Set(1, scalar.Int32Value(9))

	require.NoError(t, a.ReplaceFill(scalar.Int32Value(0)))

	assert.Equal(t, int64(0), a.At(0).Int())
	assert.Equal(t, int64(9), a.At(1).Int())
}

func TestReplaceFillUndefinedForStrings(t *testing.T) {
	a := New(scalar.String, []int{1})
	err := a.ReplaceFill(scalar.StringValue(nil))
	// nil is already canonical fill, so this is a no-op regardless of type.
	require.NoError(t, err)

	s := "x"
	a.Set(0, scalar.StringValue(&s))
	err = a.ReplaceFill(scalar.StringValue(&s))
	require.Error(t, err)
}

func TestSliceSelectsRowsAlongAxisZero(t *testing.T) {
	a := New(scalar.Int32, []int{3, 2})
	n := 0
	for i := 0; i < a.Len(); i++ {
		a.Set(i, scalar.Int32Value(int32(n)))
		n++
	}

	sliced, err := a.Slice([]int{0, 2})
	require.NoError(t, err)
	require.Equal(t, []int{2, 2}, sliced.Dims())
	assert.Equal(t, int64(0), sliced.At(0).Int())
	assert.Equal(t, int64(1), sliced.At(1).Int())
	assert.Equal(t, int64(4), sliced.At(2).Int())
	assert.Equal(t, int64(5), sliced.At(3).Int())
}

func TestRankZeroIsSingleElement(t *testing.T) {
	a := New(scalar.Float64, nil)
	assert.Equal(t, 0, a.Rank())
	assert.Equal(t, 1, a.Len())
}
