// Package geo implements a spherical-geometry predicate engine: points
// and polygons on the unit sphere, containment and overlap tests, and
// area-mask loading/querying. All internal computation uses radians;
// degree inputs are converted at the construction and I/O boundary. No
// ellipsoid correction is applied anywhere in this package.
//
// Coordinate/ring construction and closure follows the same shape as
// planar GeoJSON ring parsing, generalized to validated spherical
// polygons instead of planar ones.
package geo

import (
	"math"

	"github.com/harpgo/harp/internal/harperr"
)

// Point is a canonical spherical point: lat in [-pi/2, pi/2], lon in
// [-pi, pi], both finite.
type Point struct {
	Lat float64
	Lon float64
}

// NewPoint builds a canonical Point from radians, rejecting values
// outside the canonical ranges or non-finite inputs.
func NewPoint(latRad, lonRad float64) (Point, error) {
	if math.IsNaN(latRad) || math.IsInf(latRad, 0) || math.IsNaN(lonRad) || math.IsInf(lonRad, 0) {
		return Point{}, harperr.New(harperr.InvalidArgument, "point coordinates must be finite")
	}
	if latRad < -math.Pi/2 || latRad > math.Pi/2 {
		return Point{}, harperr.New(harperr.InvalidArgument, "latitude %v radians out of canonical range [-pi/2, pi/2]", latRad)
	}
	if lonRad < -math.Pi || lonRad > math.Pi {
		return Point{}, harperr.New(harperr.InvalidArgument, "longitude %v radians out of canonical range [-pi, pi]", lonRad)
	}
	return Point{Lat: latRad, Lon: lonRad}, nil
}

// NewPointDeg builds a canonical Point from degrees.
func NewPointDeg(latDeg, lonDeg float64) (Point, error) {
	return NewPoint(latDeg*math.Pi/180, lonDeg*math.Pi/180)
}

// DegLat returns the point's latitude in degrees.
func (p Point) DegLat() float64 { return p.Lat * 180 / math.Pi }

// DegLon returns the point's longitude in degrees.
func (p Point) DegLon() float64 { return p.Lon * 180 / math.Pi }

// AngularDistance returns the great-circle angle in radians between a
// and b, usable as a unitless surface distance (multiply by a sphere's
// radius to get arc length).
func AngularDistance(a, b Point) float64 {
	return angleBetween(a.vec3(), b.vec3())
}

// vec3 converts p to a unit vector on the sphere (x,y,z), the
// representation used by all the great-circle arithmetic in this
// package.
func (p Point) vec3() [3]float64 {
	cosLat := math.Cos(p.Lat)
	return [3]float64{
		cosLat * math.Cos(p.Lon),
		cosLat * math.Sin(p.Lon),
		math.Sin(p.Lat),
	}
}

func vecFromPoint(p Point) [3]float64 { return p.vec3() }

func pointFromVec(v [3]float64) Point {
	lat := math.Asin(clamp(v[2], -1, 1))
	lon := math.Atan2(v[1], v[0])
	return Point{Lat: lat, Lon: lon}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func norm(v [3]float64) float64 {
	return math.Sqrt(dot(v, v))
}

func normalize(v [3]float64) [3]float64 {
	n := norm(v)
	if n == 0 {
		return v
	}
	return [3]float64{v[0] / n, v[1] / n, v[2] / n}
}

func sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func add(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func scale(a [3]float64, s float64) [3]float64 {
	return [3]float64{a[0] * s, a[1] * s, a[2] * s}
}

// angleBetween returns the great-circle angle in radians between two
// unit vectors.
func angleBetween(a, b [3]float64) float64 {
	return math.Atan2(norm(cross(a, b)), dot(a, b))
}

// edgeEpsilon is the tolerance, in radians of great-circle distance,
// used to decide whether a point lies "on" an edge. It also governs
// OverlapFraction's treatment of shared edges between two polygons
// (DESIGN.md Open Question decision): edges closer than this are
// treated as coincident rather than producing spurious slivers.
const edgeEpsilon = 1e-9
