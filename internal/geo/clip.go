// OverlapFraction and its supporting great-circle clipping live here,
// separate from polygon.go's containment/relationship predicates.
//
// The clipping generalizes planar polygon clipping (Sutherland-Hodgman)
// to great-circle arcs, computing
// overlapping_fraction(A,B) = area(A ∩ B) / area(A).
package geo

import (
	"math"

	"github.com/harpgo/harp/internal/harperr"
)

// OverlapFraction returns area(a ∩ b) / area(a), in [0,1]. Returns an
// error if a has zero area (degenerate polygon).
func OverlapFraction(a, b *Polygon) (float64, error) {
	areaA := sphericalArea(a.verts)
	if areaA < edgeEpsilon*edgeEpsilon {
		return 0, harperr.New(harperr.InvalidArgument, "polygon A has zero area")
	}

	rel := relationshipImpl(a, b)
	switch rel {
	case Disjoint:
		return 0, nil
	case Equal, AContainedInB:
		return 1, nil
	case AContainsB:
		return sphericalArea(b.verts) / areaA, nil
	}

	clipped := clipGreatCirclePolygon(a.verts, b.verts)
	if len(clipped) < 3 {
		return 0, nil
	}
	frac := sphericalArea(clipped) / areaA
	if frac > 1 {
		frac = 1
	}
	if frac < 0 {
		frac = 0
	}
	return frac, nil
}

// clipGreatCirclePolygon clips subject against clip using a
// Sutherland-Hodgman walk generalized to great circles: each edge of
// clip defines a hemisphere (the side containing clip's interior), and
// subject is successively intersected with each hemisphere.
func clipGreatCirclePolygon(subject, clip [][3]float64) [][3]float64 {
	interior := polygonInteriorPoint(clip)
	output := subject
	n := len(clip)
	for i := 0; i < n && len(output) > 0; i++ {
		edgeA := clip[i]
		edgeB := clip[(i+1)%n]
		normal := cross(edgeA, edgeB)
		if norm(normal) < edgeEpsilon {
			continue
		}
		normal = normalize(normal)
		// Orient normal so the clip polygon's interior point is on the
		// positive side, matching this edge's inside half-space.
		if dot(normal, interior) < 0 {
			normal = scale(normal, -1)
		}
		output = clipAgainstHemisphere(output, normal)
	}
	return output
}

// clipAgainstHemisphere intersects a great-circle polygon (as unit
// vectors) with the hemisphere {x : dot(normal,x) >= 0}.
func clipAgainstHemisphere(poly [][3]float64, normal [3]float64) [][3]float64 {
	if len(poly) == 0 {
		return nil
	}
	var out [][3]float64
	n := len(poly)
	for i := 0; i < n; i++ {
		curr := poly[i]
		next := poly[(i+1)%n]
		currIn := dot(normal, curr) >= -edgeEpsilon
		nextIn := dot(normal, next) >= -edgeEpsilon

		if currIn {
			out = append(out, curr)
		}
		if currIn != nextIn {
			if x, ok := greatCircleHemisphereCrossing(curr, next, normal); ok {
				out = append(out, x)
			}
		}
	}
	return out
}

// greatCircleHemisphereCrossing finds the point on the great-circle arc
// from a to b where dot(normal,x) == 0, if one exists between them.
func greatCircleHemisphereCrossing(a, b, normal [3]float64) ([3]float64, bool) {
	edgeNormal := cross(a, b)
	if norm(edgeNormal) < edgeEpsilon {
		return [3]float64{}, false
	}
	line := cross(edgeNormal, normal)
	if norm(line) < edgeEpsilon {
		return [3]float64{}, false
	}
	line = normalize(line)
	for _, cand := range [][3]float64{line, scale(line, -1)} {
		if segmentContainsPoint(a, b, cand) {
			return cand, true
		}
	}
	return [3]float64{}, false
}

// polygonInteriorPoint returns a point known to lie inside the polygon:
// the normalized centroid of its vertices, which is interior for any
// polygon small enough not to wrap a hemisphere (its
// "polygons do not span more than one hemisphere" assumption).
func polygonInteriorPoint(verts [][3]float64) [3]float64 {
	var sum [3]float64
	for _, v := range verts {
		sum = add(sum, v)
	}
	return normalize(sum)
}

// sphericalArea computes the area enclosed by a spherical polygon (unit
// sphere, so area is in steradians) via the Gauss-Bonnet / spherical
// excess sum: area = (sum of interior angles) - (n-2)*pi.
func sphericalArea(verts [][3]float64) float64 {
	n := len(verts)
	if n < 3 {
		return 0
	}
	var angleSum float64
	for i := 0; i < n; i++ {
		prev := verts[(i-1+n)%n]
		curr := verts[i]
		next := verts[(i+1)%n]
		angleSum += interiorAngle(prev, curr, next)
	}
	area := angleSum - float64(n-2)*math.Pi
	if area < 0 {
		area = 0
	}
	return area
}

// interiorAngle returns the interior angle at vertex b of the spherical
// triangle/polygon corner (a, b, c): the angle between great-circle
// edges (b,a) and (b,c), measured via their tangent vectors at b.
func interiorAngle(a, b, c [3]float64) float64 {
	ta := tangentAt(b, a)
	tc := tangentAt(b, c)
	cosAngle := clamp(dot(ta, tc), -1, 1)
	return math.Acos(cosAngle)
}

// tangentAt returns the unit tangent vector at point p pointing toward
// q along the great circle through them.
func tangentAt(p, q [3]float64) [3]float64 {
	proj := sub(q, scale(p, dot(p, q)))
	n := norm(proj)
	if n < edgeEpsilon {
		return [3]float64{}
	}
	return scale(proj, 1/n)
}
