package geo

import (
	"math"

	"github.com/harpgo/harp/internal/harperr"
)

// Polygon is an immutable, validated simple spherical polygon: an
// ordered loop of >=3 canonical points, implicitly closed. Following a
// builder -> validated-value split, construction is the only place
// invariants are checked; once built, a Polygon is read-only.
type Polygon struct {
	points []Point
	verts  [][3]float64 // cached unit vectors, one per point
}

// NewPolygon validates points and returns an immutable Polygon. If the
// first and last points are equal, the duplicate closing vertex is
// stripped before validation.
func NewPolygon(points []Point) (*Polygon, error) {
	pts := append([]Point(nil), points...)
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	if len(pts) < 3 {
		return nil, harperr.New(harperr.InvalidArgument, "a spherical polygon needs at least 3 distinct vertices, got %d", len(pts))
	}

	verts := make([][3]float64, len(pts))
	for i, p := range pts {
		verts[i] = vecFromPoint(p)
	}

	if err := checkNoConsecutiveCollinear(verts); err != nil {
		return nil, err
	}
	if err := checkNoSelfIntersection(verts); err != nil {
		return nil, err
	}

	return &Polygon{points: pts, verts: verts}, nil
}

// Points returns the polygon's vertex loop (open form, no closing
// duplicate). Callers must not mutate the result.
func (p *Polygon) Points() []Point { return p.points }

func checkNoConsecutiveCollinear(verts [][3]float64) error {
	n := len(verts)
	for i := 0; i < n; i++ {
		a := verts[i]
		b := verts[(i+1)%n]
		c := verts[(i+2)%n]
		// a, b, c are collinear on the sphere (all on one great circle)
		// iff the normal of edge (a,b) is (anti)parallel to the normal
		// of edge (b,c) -- equivalently a,b,c lie in a common plane
		// through the origin, which the scalar triple product detects.
		n1 := cross(a, b)
		triple := dot(n1, c)
		if math.Abs(triple) < edgeEpsilon && angleBetween(a, b) > edgeEpsilon && angleBetween(b, c) > edgeEpsilon {
			return harperr.New(harperr.InvalidArgument, "polygon has three consecutive collinear points at vertex %d", (i+1)%n)
		}
	}
	return nil
}

func checkNoSelfIntersection(verts [][3]float64) error {
	n := len(verts)
	for i := 0; i < n; i++ {
		a1, a2 := verts[i], verts[(i+1)%n]
		for j := i + 1; j < n; j++ {
			// Skip adjacent edges (they share an endpoint by construction).
			if j == i || (j+1)%n == i || j == (i+1)%n {
				continue
			}
			b1, b2 := verts[j], verts[(j+1)%n]
			if greatCircleSegmentsCross(a1, a2, b1, b2) {
				return harperr.New(harperr.InvalidArgument, "polygon edges %d and %d self-intersect", i, j)
			}
		}
	}
	return nil
}

// greatCircleSegmentsCross reports whether great-circle segments (a1,a2)
// and (b1,b2) cross at an interior point of both.
func greatCircleSegmentsCross(a1, a2, b1, b2 [3]float64) bool {
	na := cross(a1, a2)
	nb := cross(b1, b2)
	if norm(na) < edgeEpsilon || norm(nb) < edgeEpsilon {
		return false
	}
	line := cross(na, nb)
	if norm(line) < edgeEpsilon {
		return false // parallel great circles (or identical)
	}
	line = normalize(line)
	for _, cand := range [][3]float64{line, scale(line, -1)} {
		if segmentContainsPoint(a1, a2, cand) && segmentContainsPoint(b1, b2, cand) {
			return true
		}
	}
	return false
}

// segmentContainsPoint reports whether unit vector p lies on the
// shorter great-circle arc between a and b (both unit vectors).
func segmentContainsPoint(a, b, p [3]float64) bool {
	total := angleBetween(a, b)
	da := angleBetween(a, p)
	db := angleBetween(b, p)
	return math.Abs(da+db-total) < 1e-7
}

// ContainsPoint reports whether pt lies inside the polygon (including
// its boundary, which is closed ) using a great-circle
// winding count: the point is inside iff the winding parity is odd.
//
// A point exactly on an edge is explicitly detected first and treated as
// inside, resolving its open "edge tie-break" question in favor
// of the documented closed-polygon rule rather than leaving it to
// incidental floating point behavior in the winding sum.
func (p *Polygon) ContainsPoint(pt Point) bool {
	v := vecFromPoint(pt)
	n := len(p.verts)
	for i := 0; i < n; i++ {
		a := p.verts[i]
		b := p.verts[(i+1)%n]
		if pointOnEdge(a, b, v) {
			return true
		}
	}
	return windingParityOdd(p.verts, v)
}

func pointOnEdge(a, b, v [3]float64) bool {
	na := cross(a, b)
	if norm(na) < edgeEpsilon {
		return false
	}
	na = normalize(na)
	if math.Abs(dot(na, v)) > edgeEpsilon {
		return false
	}
	return segmentContainsPoint(a, b, v)
}

// windingParityOdd implements the great-circle analogue of the planar
// even-odd ray-casting rule: count how many polygon edges the arc from v
// to a reference point outside the polygon crosses.
func windingParityOdd(verts [][3]float64, v [3]float64) bool {
	// The ray's far endpoint is a coordinate-axis direction lying outside
	// the polygon's bounding cap (see pickReferenceDirection).
	ref := pickReferenceDirection(verts, v)

	crossings := 0
	n := len(verts)
	for i := 0; i < n; i++ {
		a := verts[i]
		b := verts[(i+1)%n]
		if greatCircleSegmentsCross(v, ref, a, b) {
			crossings++
		}
	}
	return crossings%2 == 1
}

// pickReferenceDirection returns the first coordinate-axis direction that
// lies outside the polygon's bounding cap (and so outside the polygon),
// is not v or its antipode, and is not a polygon vertex or the antipode
// of one; it is used as the far endpoint of the ray-casting arc. If no
// axis qualifies, it returns (1,0,0).
func pickReferenceDirection(verts [][3]float64, v [3]float64) [3]float64 {
	var sum [3]float64
	for _, vert := range verts {
		sum = add(sum, vert)
	}
	center := normalize(sum)
	var halfAngle float64
	for _, vert := range verts {
		if a := angleBetween(center, vert); a > halfAngle {
			halfAngle = a
		}
	}
	candidates := [][3]float64{
		{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {-1, 0, 0}, {0, -1, 0}, {0, 0, -1},
	}
	for _, c := range candidates {
		if angleBetween(center, c) <= halfAngle+edgeEpsilon {
			continue
		}
		if norm(cross(v, c)) < edgeEpsilon {
			continue
		}
		ok := true
		for _, vert := range verts {
			if norm(sub(vert, c)) < edgeEpsilon || norm(sub(vert, scale(c, -1))) < edgeEpsilon {
				ok = false
				break
			}
		}
		if ok {
			return c
		}
	}
	return [3]float64{1, 0, 0}
}

// Relation is the closed set of polygon-polygon relations a pair of
// polygons can hold.
type Relation int

const (
	Disjoint Relation = iota
	AContainsB
	AContainedInB
	Equal
	Overlap
)

func (r Relation) String() string {
	switch r {
	case Disjoint:
		return "disjoint"
	case AContainsB:
		return "A_contains_B"
	case AContainedInB:
		return "A_contained_in_B"
	case Equal:
		return "equal"
	case Overlap:
		return "overlap"
	default:
		return "unknown"
	}
}

// boundingCap returns the center direction and half-angle of a's
// minimal bounding spherical cap, used to cheaply reject disjoint pairs
// before running exact edge tests.
func (p *Polygon) boundingCap() (center [3]float64, halfAngle float64) {
	var sum [3]float64
	for _, v := range p.verts {
		sum = add(sum, v)
	}
	center = normalize(sum)
	for _, v := range p.verts {
		a := angleBetween(center, v)
		if a > halfAngle {
			halfAngle = a
		}
	}
	return center, halfAngle
}

// Relationship classifies the relation of polygon a to polygon b:
// disjoint (bounding-cap rejection), containment (every vertex of one
// lies inside the other and no edges cross), equal, or else overlap.
func Relationship(a, b *Polygon) Relation { return relationshipImpl(a, b) }

func relationshipImpl(a, b *Polygon) Relation {
	ca, ra := a.boundingCap()
	cb, rb := b.boundingCap()
	if angleBetween(ca, cb) > ra+rb+edgeEpsilon {
		return Disjoint
	}

	edgesCross := polygonsEdgesCross(a, b)

	aInB := allVerticesInside(a, b)
	bInA := allVerticesInside(b, a)

	switch {
	case aInB && bInA && !edgesCross:
		return Equal
	case bInA && !edgesCross:
		return AContainsB
	case aInB && !edgesCross:
		return AContainedInB
	}

	if !edgesCross && !aInB && !bInA {
		return Disjoint
	}
	return Overlap
}

func allVerticesInside(inner, outer *Polygon) bool {
	for _, p := range inner.points {
		if !outer.ContainsPoint(p) {
			return false
		}
	}
	return true
}

func polygonsEdgesCross(a, b *Polygon) bool {
	na, nb := len(a.verts), len(b.verts)
	for i := 0; i < na; i++ {
		a1, a2 := a.verts[i], a.verts[(i+1)%na]
		for j := 0; j < nb; j++ {
			b1, b2 := b.verts[j], b.verts[(j+1)%nb]
			if greatCircleSegmentsCross(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

// Overlapping reports whether a and b intersect at all: equivalent to
// Relationship(a,b) being one of {contains, contained, equal, overlap}.
func Overlapping(a, b *Polygon) bool {
	return relationshipImpl(a, b) != Disjoint
}
