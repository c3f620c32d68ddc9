package geo

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/dhconnelly/rtreego"
	"github.com/harpgo/harp/internal/harperr"
)

// AreaMask is an immutable collection of spherical polygons loaded from
// a text file, indexed by bounding-cap for fast rejection: the r-tree
// holds each polygon's bounding cap (as a degenerate lat/lon
// rectangle), and CoversPoint/etc. run an "index then verify" two-phase
// lookup against it.
type AreaMask struct {
	polygons []*Polygon
	tree     *rtreego.Rtree
}

// maskEntry adapts a *Polygon to rtreego.Spatial via its bounding cap,
// expressed as a planar lat/lon degree rectangle (a conservative, if
// occasionally loose, enclosure -- sufficient for reject-before-verify
// indexing since every hit is re-checked exactly).
type maskEntry struct {
	idx  int
	rect rtreego.Rect
}

func (m *maskEntry) Bounds() rtreego.Rect { return m.rect }

const rtreeMinChildren = 2
const rtreeMaxChildren = 8

// LoadAreaMask parses the text area-mask format: the
// first non-blank line is a discarded header; each subsequent
// non-blank line is one polygon of comma- and/or whitespace-separated
// "lat,lon,lat,lon,..." pairs in degrees, trailing comma allowed,
// repeated closing vertex stripped.
func LoadAreaMask(r io.Reader) (*AreaMask, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024), 1024)

	headerSeen := false
	var polygons []*Polygon
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !headerSeen {
			headerSeen = true
			continue
		}
		poly, err := parseAreaMaskLine(line)
		if err != nil {
			return nil, harperr.New(harperr.InvalidArgument, "area mask line %d: %v", lineNo, err)
		}
		polygons = append(polygons, poly)
	}
	if err := scanner.Err(); err != nil {
		return nil, harperr.New(harperr.FileRead, "reading area mask: %v", err)
	}

	tree := rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren)
	for i, poly := range polygons {
		rect, err := boundingCapRect(poly)
		if err != nil {
			continue
		}
		tree.Insert(&maskEntry{idx: i, rect: rect})
	}

	return &AreaMask{polygons: polygons, tree: tree}, nil
}

func parseAreaMaskLine(line string) (*Polygon, error) {
	line = strings.TrimSuffix(strings.TrimSpace(line), ",")
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields)%2 != 0 {
		return nil, harperr.New(harperr.InvalidArgument, "odd number of coordinate fields (%d)", len(fields))
	}
	n := len(fields) / 2
	points := make([]Point, n)
	for i := 0; i < n; i++ {
		lat, err := strconv.ParseFloat(fields[2*i], 64)
		if err != nil {
			return nil, harperr.New(harperr.InvalidArgument, "invalid latitude %q", fields[2*i])
		}
		lon, err := strconv.ParseFloat(fields[2*i+1], 64)
		if err != nil {
			return nil, harperr.New(harperr.InvalidArgument, "invalid longitude %q", fields[2*i+1])
		}
		p, err := NewPointDeg(lat, lon)
		if err != nil {
			return nil, err
		}
		points[i] = p
	}
	return NewPolygon(points)
}

// boundingCapRect converts a polygon's spherical bounding cap into a
// conservative lat/lon degree rectangle for r-tree indexing.
func boundingCapRect(p *Polygon) (rtreego.Rect, error) {
	minLat, maxLat := 90.0, -90.0
	minLon, maxLon := 180.0, -180.0
	for _, pt := range p.points {
		if d := pt.DegLat(); d < minLat {
			minLat = d
		}
		if d := pt.DegLat(); d > maxLat {
			maxLat = d
		}
		if d := pt.DegLon(); d < minLon {
			minLon = d
		}
		if d := pt.DegLon(); d > maxLon {
			maxLon = d
		}
	}
	const pad = 1e-6
	lengths := []float64{maxLat - minLat + pad, maxLon - minLon + pad}
	return rtreego.NewRect(rtreego.Point{minLat, minLon}, lengths)
}

// candidateIndices returns the index of every polygon in the mask: the
// full-scan fallback queryPoint and queryArea use when their query
// rectangle cannot be built.
func (m *AreaMask) candidateIndices() []int {
	idx := make([]int, len(m.polygons))
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func (m *AreaMask) queryPoint(pt Point) []int {
	rect, err := rtreego.NewRect(rtreego.Point{pt.DegLat(), pt.DegLon()}, []float64{1e-9, 1e-9})
	if err != nil {
		return m.candidateIndices()
	}
	results := m.tree.SearchIntersect(rect)
	idx := make([]int, 0, len(results))
	for _, r := range results {
		idx = append(idx, r.(*maskEntry).idx)
	}
	return idx
}

// queryArea returns indices of polygons whose bounding cap could
// contain, be contained by, or overlap query's bounding cap, via the
// same r-tree used by queryPoint. Any true containment or overlap
// relation implies the two bounding caps intersect, so this is a safe
// reject-before-verify filter for CoversArea/InsideArea/IntersectsArea.
func (m *AreaMask) queryArea(query *Polygon) []int {
	rect, err := boundingCapRect(query)
	if err != nil {
		return m.candidateIndices()
	}
	results := m.tree.SearchIntersect(rect)
	idx := make([]int, 0, len(results))
	for _, r := range results {
		idx = append(idx, r.(*maskEntry).idx)
	}
	return idx
}

// CoversPoint reports whether any polygon in the mask contains pt.
func (m *AreaMask) CoversPoint(pt Point) bool {
	for _, i := range m.queryPoint(pt) {
		if m.polygons[i].ContainsPoint(pt) {
			return true
		}
	}
	return false
}

// CoversArea reports whether some polygon in the mask contains query
// (first match wins).
func (m *AreaMask) CoversArea(query *Polygon) bool {
	for _, i := range m.queryArea(query) {
		poly := m.polygons[i]
		rel := relationshipImpl(poly, query)
		if rel == AContainsB || rel == Equal {
			return true
		}
	}
	return false
}

// InsideArea reports whether some polygon in the mask is contained in
// query.
func (m *AreaMask) InsideArea(query *Polygon) bool {
	for _, i := range m.queryArea(query) {
		poly := m.polygons[i]
		rel := relationshipImpl(poly, query)
		if rel == AContainedInB || rel == Equal {
			return true
		}
	}
	return false
}

// IntersectsArea reports whether some polygon in the mask overlaps
// query at all.
func (m *AreaMask) IntersectsArea(query *Polygon) bool {
	for _, i := range m.queryArea(query) {
		if Overlapping(m.polygons[i], query) {
			return true
		}
	}
	return false
}

// IntersectsAreaWithMinFraction reports whether some polygon in the
// mask overlaps query with overlapping_fraction(query, poly) >= minFraction,
// stopping at the first match.
func (m *AreaMask) IntersectsAreaWithMinFraction(query *Polygon, minFraction float64) (bool, error) {
	for _, i := range m.queryArea(query) {
		poly := m.polygons[i]
		if !Overlapping(poly, query) {
			continue
		}
		frac, err := OverlapFraction(query, poly)
		if err != nil {
			return false, err
		}
		if frac >= minFraction {
			return true, nil
		}
	}
	return false, nil
}

// Len returns the number of polygons loaded into the mask.
func (m *AreaMask) Len() int { return len(m.polygons) }
