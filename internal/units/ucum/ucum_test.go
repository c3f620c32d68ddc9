package ucum

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConversionHectoPascalToPascal(t *testing.T) {
	s := New()
	hpa, err := s.Parse("hPa")
	require.NoError(t, err)
	pa, err := s.Parse("Pa")
	require.NoError(t, err)

	factor, offset, err := s.Conversion(hpa, pa)
	require.NoError(t, err)

	value := 1013.25*factor + offset
	require.InDelta(t, 101325.0, value, 1e-6)
}

func TestConversionRejectsIncommensurableUnits(t *testing.T) {
	s := New()
	pa, _ := s.Parse("Pa")
	deg, _ := s.Parse("degree")

	_, _, err := s.Conversion(pa, deg)
	require.Error(t, err)
}

func TestConversionDegreeToRadian(t *testing.T) {
	s := New()
	deg, _ := s.Parse("degree")
	rad, _ := s.Parse("rad")

	factor, offset, err := s.Conversion(deg, rad)
	require.NoError(t, err)
	require.InDelta(t, 3.141592653589793, 180*factor+offset, 1e-9)
}

func TestParseUnknownUnit(t *testing.T) {
	s := New()
	_, err := s.Parse("furlong")
	require.Error(t, err)
}
