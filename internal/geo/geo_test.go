package geo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func squareDeg(t *testing.T, corners [][2]float64) *Polygon {
	t.Helper()
	pts := make([]Point, len(corners))
	for i, c := range corners {
		p, err := NewPointDeg(c[0], c[1])
		require.NoError(t, err)
		pts[i] = p
	}
	poly, err := NewPolygon(pts)
	require.NoError(t, err)
	return poly
}

func TestContainsPointRotationInvariant(t *testing.T) {
	corners := [][2]float64{{0, 0}, {0, 10}, {10, 10}, {10, 0}}
	inside, err := NewPointDeg(5, 5)
	require.NoError(t, err)

	for k := 0; k < len(corners); k++ {
		rotated := append(append([][2]float64{}, corners[k:]...), corners[:k]...)
		poly := squareDeg(t, rotated)
		require.True(t, poly.ContainsPoint(inside), "rotation offset %d", k)
	}
}

func TestRelationshipReverseSymmetry(t *testing.T) {
	outer := squareDeg(t, [][2]float64{{0, 0}, {0, 20}, {20, 20}, {20, 0}})
	inner := squareDeg(t, [][2]float64{{5, 5}, {5, 10}, {10, 10}, {10, 5}})

	require.Equal(t, AContainsB, Relationship(outer, inner))
	require.Equal(t, AContainedInB, Relationship(inner, outer))

	same := squareDeg(t, [][2]float64{{0, 0}, {0, 20}, {20, 20}, {20, 0}})
	require.Equal(t, Equal, Relationship(outer, same))
}

func TestRelationshipDisjoint(t *testing.T) {
	a := squareDeg(t, [][2]float64{{0, 0}, {0, 10}, {10, 10}, {10, 0}})
	b := squareDeg(t, [][2]float64{{50, 50}, {50, 60}, {60, 60}, {60, 50}})
	require.Equal(t, Disjoint, Relationship(a, b))
	require.False(t, Overlapping(a, b))
}

func TestOverlapFractionBounds(t *testing.T) {
	a := squareDeg(t, [][2]float64{{0, 0}, {0, 10}, {10, 10}, {10, 0}})
	b := squareDeg(t, [][2]float64{{5, 5}, {5, 15}, {15, 15}, {15, 5}})

	frac, err := OverlapFraction(a, b)
	require.NoError(t, err)
	require.GreaterOrEqual(t, frac, 0.0)
	require.LessOrEqual(t, frac, 1.0)
	require.InDelta(t, 0.25, frac, 0.02)
}

func TestLoadAreaMaskCoversPoint(t *testing.T) {
	src := "hdr\n0,0, 0,10, 10,10, 10,0\n"
	mask, err := LoadAreaMask(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 1, mask.Len())

	inside, err := NewPointDeg(5, 5)
	require.NoError(t, err)
	outside, err := NewPointDeg(20, 20)
	require.NoError(t, err)

	require.True(t, mask.CoversPoint(inside))
	require.False(t, mask.CoversPoint(outside))
}

func TestAreaMaskSkipsBlankLinesAndHeader(t *testing.T) {
	src := "header line is discarded\n\n0,0,0,10,10,10,10,0\n\n"
	mask, err := LoadAreaMask(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 1, mask.Len())
}

func TestIntersectsAreaWithMinFraction(t *testing.T) {
	src := "hdr\n0,0, 0,10, 10,10, 10,0\n"
	mask, err := LoadAreaMask(strings.NewReader(src))
	require.NoError(t, err)

	sample := squareDeg(t, [][2]float64{{5, 5}, {5, 15}, {15, 15}, {15, 5}})

	dropped, err := mask.IntersectsAreaWithMinFraction(sample, 0.3)
	require.NoError(t, err)
	require.False(t, dropped)

	kept, err := mask.IntersectsAreaWithMinFraction(sample, 0.2)
	require.NoError(t, err)
	require.True(t, kept)
}

func TestNewPolygonRejectsTooFewPoints(t *testing.T) {
	p1, _ := NewPointDeg(0, 0)
	p2, _ := NewPointDeg(0, 1)
	_, err := NewPolygon([]Point{p1, p2})
	require.Error(t, err)
}

func TestNewPolygonStripsClosingDuplicate(t *testing.T) {
	corners := [][2]float64{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}}
	poly := squareDeg(t, corners)
	require.Len(t, poly.Points(), 4)
}
