package geo

const boundaryEpsilon = 1e-9

// Contains performs the exact containment test for a polygon with holes.
// A point inside the outer ring but inside any hole is not contained. The
// boundary convention is inclusive: a point lying exactly on any ring edge,
// hole edges included, counts as contained. Entry and exit event timing at
// zone boundaries depends on this convention staying consistent.
func (p Polygon) Contains(pt Point) bool {
	if len(p.Rings) == 0 {
		return false
	}
	for _, ring := range p.Rings {
		if ring.onBoundary(pt) {
			return true
		}
	}
	if !p.Rings[0].contains(pt) {
		return false
	}
	for i := 1; i < len(p.Rings); i++ {
		if p.Rings[i].contains(pt) {
			return false
		}
	}
	return true
}

// contains is the even-odd ray cast over the ring interior. Boundary points
// are resolved by onBoundary before this is consulted.
func (r Ring) contains(pt Point) bool {
	n := r.Vertices()
	if n < 3 {
		return false
	}
	inside := false
	x := pt.Lon
	y := pt.Lat
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := r[i].Lon, r[i].Lat
		xj, yj := r[j].Lon, r[j].Lat
		intersect := ((yi > y) != (yj > y)) && (x < (xj-xi)*(y-yi)/(yj-yi)+xi)
		if intersect {
			inside = !inside
		}
	}
	return inside
}

// onBoundary reports whether the point lies on any edge of the ring.
func (r Ring) onBoundary(pt Point) bool {
	n := r.Vertices()
	for i := 0; i < n; i++ {
		a, b := r.edge(i)
		if onSegment(pt, a, b) {
			return true
		}
	}
	return false
}

// onSegment reports whether pt lies on the segment a-b within a small
// tolerance for floating point noise.
func onSegment(pt, a, b Point) bool {
	cross := (b.Lon-a.Lon)*(pt.Lat-a.Lat) - (b.Lat-a.Lat)*(pt.Lon-a.Lon)
	if cross > boundaryEpsilon || cross < -boundaryEpsilon {
		return false
	}
	if pt.Lon < min(a.Lon, b.Lon)-boundaryEpsilon || pt.Lon > max(a.Lon, b.Lon)+boundaryEpsilon {
		return false
	}
	if pt.Lat < min(a.Lat, b.Lat)-boundaryEpsilon || pt.Lat > max(a.Lat, b.Lat)+boundaryEpsilon {
		return false
	}
	return true
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
