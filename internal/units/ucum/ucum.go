// Package ucum is the builtin implementation of units.System. It covers
// the UCUM-style unit strings that appear throughout the atmospheric
// products this toolkit harmonizes: angle, pressure, length, and a
// handful of derived units.
//
// No general-purpose unit-conversion library fits here (alecthomas/units
// parses byte/duration quantities and has no notion of physical
// dimension), so this table is hand-written against the stdlib, behind
// the units.System interface so a richer implementation can replace it
// later without touching callers.
package ucum

import (
	"fmt"
	"strings"

	"github.com/harpgo/harp/internal/harperr"
	"github.com/harpgo/harp/internal/units"
)

// dimension identifies a physical quantity kind; units only convert
// within the same dimension.
type dimension int

const (
	dimensionless dimension = iota
	dimAngle
	dimPressure
	dimLength
	dimTemperature
	dimTime
)

type entry struct {
	dim    dimension
	factor float64 // multiply by factor to reach the dimension's SI base unit
	offset float64 // add after scaling by factor (used for temperature)
}

// table maps every recognized unit string to its SI-base conversion.
// Base units: angle -> radian, pressure -> pascal, length -> metre,
// temperature -> kelvin, time -> second.
var table = map[string]entry{
	"":          {dim: dimensionless, factor: 1},
	"1":         {dim: dimensionless, factor: 1},
	"rad":       {dim: dimAngle, factor: 1},
	"degree":    {dim: dimAngle, factor: 3.141592653589793 / 180},
	"deg":       {dim: dimAngle, factor: 3.141592653589793 / 180},
	"Pa":        {dim: dimPressure, factor: 1},
	"hPa":       {dim: dimPressure, factor: 100},
	"mbar":      {dim: dimPressure, factor: 100},
	"bar":       {dim: dimPressure, factor: 100000},
	"atm":       {dim: dimPressure, factor: 101325},
	"m":         {dim: dimLength, factor: 1},
	"km":        {dim: dimLength, factor: 1000},
	"cm":        {dim: dimLength, factor: 0.01},
	"mm":        {dim: dimLength, factor: 0.001},
	"K":         {dim: dimTemperature, factor: 1, offset: 0},
	"degC":      {dim: dimTemperature, factor: 1, offset: 273.15},
	"s":         {dim: dimTime, factor: 1},
	"min":       {dim: dimTime, factor: 60},
	"h":         {dim: dimTime, factor: 3600},
	"d":         {dim: dimTime, factor: 86400},
	"ppv":       {dim: dimensionless, factor: 1},
	"ppmv":      {dim: dimensionless, factor: 1e-6},
	"ppbv":      {dim: dimensionless, factor: 1e-9},
	"molec/cm3": {dim: dimensionless, factor: 1},
	"DU":        {dim: dimensionless, factor: 1},
}

// unit is the concrete units.Unit handle produced by Parse.
type unit struct {
	raw string
	e   entry
}

func (u unit) String() string { return u.raw }

// System is the builtin units.System implementation.
type System struct{}

// New returns the builtin unit system.
func New() *System { return &System{} }

var _ units.System = (*System)(nil)

// Parse validates unit against the builtin table. Unit strings are
// matched verbatim (case-sensitive), matching UCUM's own case
// sensitivity (K and k, Pa and pa are distinct units).
func (s *System) Parse(u string) (units.Unit, error) {
	trimmed := strings.TrimSpace(u)
	e, ok := table[trimmed]
	if !ok {
		return nil, harperr.New(harperr.UnitConversion, "unrecognized unit %q", u)
	}
	return unit{raw: trimmed, e: e}, nil
}

// Conversion returns the linear (factor, offset) transform from source
// to target: value_target = value_source*factor + offset.
func (s *System) Conversion(source, target units.Unit) (float64, float64, error) {
	su, ok1 := source.(unit)
	tu, ok2 := target.(unit)
	if !ok1 || !ok2 {
		return 0, 0, harperr.New(harperr.UnitConversion, "unit handle not produced by ucum.System")
	}
	if su.e.dim != tu.e.dim {
		return 0, 0, units.Incommensurable(su.raw, tu.raw)
	}

	// Convert source -> SI base -> target.
	// value_si = value_source*su.factor + su.offset
	// value_target = (value_si - tu.offset) / tu.factor
	// => value_target = value_source*(su.factor/tu.factor) + (su.offset-tu.offset)/tu.factor
	if tu.e.factor == 0 {
		return 0, 0, harperr.New(harperr.UnitConversion, "target unit %q has zero scale factor", tu.raw)
	}
	factor := su.e.factor / tu.e.factor
	offset := (su.e.offset - tu.e.offset) / tu.e.factor
	return factor, offset, nil
}

// IsIntegral reports whether applying (factor, offset) to any integer
// input always yields an integer result. model.Variable.ConvertUnit
// does not call it; it uses its own isIntegralTransform check.
func IsIntegral(factor, offset float64) bool {
	return factor == float64(int64(factor)) && offset == float64(int64(offset))
}

// Describe returns a human-readable summary of a unit's dimension.
func Describe(u units.Unit) string {
	uu, ok := u.(unit)
	if !ok {
		return fmt.Sprintf("%v", u)
	}
	switch uu.e.dim {
	case dimAngle:
		return "angle"
	case dimPressure:
		return "pressure"
	case dimLength:
		return "length"
	case dimTemperature:
		return "temperature"
	case dimTime:
		return "time"
	default:
		return "dimensionless"
	}
}
