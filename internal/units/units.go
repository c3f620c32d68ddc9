// Package units fixes the interface delegates to an external
// units library: parsing a unit string and computing the linear
// (factor, offset) transform between two units. internal/units/ucum
// provides the default, conformant implementation used when no richer
// library is configured.
package units

import "github.com/harpgo/harp/internal/harperr"

// Unit is an opaque, parsed unit handle. Its only uses are as an
// argument to System.Conversion and its own String form.
type Unit interface {
	String() string
}

// System parses unit strings and computes conversions between them. A
// Variable holds a *string and calls System.Conversion
// lazily when ConvertUnit is invoked.
type System interface {
	// Parse validates and returns a handle for a unit string.
	Parse(unit string) (Unit, error)

	// Conversion returns (factor, offset) such that
	// value_in_target = value_in_source*factor + offset.
	// Returns harperr.UnitConversion if the two units are not
	// commensurable.
	Conversion(source, target Unit) (factor, offset float64, err error)
}

// Incommensurable builds the harperr.UnitConversion error returned when
// two units do not share a dimension.
func Incommensurable(a, b string) error {
	return harperr.New(harperr.UnitConversion, "units %q and %q are not commensurable", a, b)
}
