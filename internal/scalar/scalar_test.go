package scalar

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFillValueIsFillForEveryType(t *testing.T) {
	for _, typ := range []Type{Int8, Int16, Int32, Float32, Float64, String} {
		require.True(t, IsFill(FillValue(typ)), "type %s", typ)
	}
}

func TestIsFillNonFillValues(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		fill bool
	}{
		{"int32 zero is fill", Int32Value(0), true},
		{"int32 nonzero is not fill", Int32Value(7), false},
		{"float64 NaN is fill", Float64Value(math.NaN()), true},
		{"float64 zero is not fill", Float64Value(0), false},
		{"string nil is fill", StringValue(nil), true},
		{"string non-nil is not fill", func() Value { s := "x"; return StringValue(&s) }(), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.fill, IsFill(tc.v))
		})
	}
}

func TestConvertNumericRangeChecksTargetType(t *testing.T) {
	cases := []struct {
		name    string
		v       Value
		target  Type
		wantErr bool
	}{
		{"float64 to int8 in range", Float64Value(100), Int8, false},
		{"float64 to int8 out of range", Float64Value(200), Int8, true},
		{"float64 to int16 in range", Float64Value(30000), Int16, false},
		{"float64 to int16 out of range", Float64Value(40000), Int16, true},
		{"float64 to int32 out of range", Float64Value(1e12), Int32, true},
		{"float64 to float32 in range", Float64Value(1e30), Float32, false},
		{"int32 to float64 widens", Int32Value(5), Float64, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ConvertNumeric(tc.v, tc.target)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConvertNumericNaNBecomesTargetFill(t *testing.T) {
	out, err := ConvertNumeric(Float64Value(math.NaN()), Int32)
	require.NoError(t, err)
	require.True(t, IsFill(out))
}

func TestConvertNumericRejectsString(t *testing.T) {
	_, err := ConvertNumeric(StringValue(nil), Int32)
	require.Error(t, err)
	_, err = ConvertNumeric(Int32Value(1), String)
	require.Error(t, err)
}

func TestConvertNumericTruncatesTowardZero(t *testing.T) {
	out, err := ConvertNumeric(Float64Value(3.9), Int32)
	require.NoError(t, err)
	require.Equal(t, int64(3), out.Int())

	out, err = ConvertNumeric(Float64Value(-3.9), Int32)
	require.NoError(t, err)
	require.Equal(t, int64(-3), out.Int())
}

func TestCompareOrdersNumericValues(t *testing.T) {
	require.Equal(t, -1, Compare(Int32Value(1), Int32Value(2)))
	require.Equal(t, 1, Compare(Float64Value(2), Float64Value(1)))
	require.Equal(t, 0, Compare(Float64Value(1), Int32Value(1)))
}

func TestComparePanicsOnString(t *testing.T) {
	require.Panics(t, func() { Compare(StringValue(nil), StringValue(nil)) })
}

func TestAccessorsPanicOnTypeMismatch(t *testing.T) {
	require.Panics(t, func() { Int32Value(1).Float() })
	require.Panics(t, func() { Float64Value(1).Int() })
	require.Panics(t, func() { Int32Value(1).Str() })
}

func TestAsFloat64RejectsString(t *testing.T) {
	_, err := AsFloat64(StringValue(nil))
	require.Error(t, err)
}

func TestValidMinMaxBoundTypeExtrema(t *testing.T) {
	require.Equal(t, int64(math.MinInt8), ValidMin(Int8).Int())
	require.Equal(t, int64(math.MaxInt8), ValidMax(Int8).Int())
	require.True(t, math.IsInf(ValidMin(Float64).Float(), -1))
	require.True(t, math.IsInf(ValidMax(Float64).Float(), 1))
}
