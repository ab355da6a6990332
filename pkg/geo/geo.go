/* Apache v2 license
*  Copyright (C) <2026> DeepSeaGuard Project
*
*  SPDX-License-Identifier: Apache-2.0
 */

// Package geo provides the planar geometry primitives used by the geofence
// evaluator: rings, polygons with holes, bounding boxes and an
// inclusive-boundary point-in-polygon test. Coordinates are WGS84 degrees
// treated as planar values; zones small enough for dwell-time monitoring do
// not need geodesic containment.
package geo

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Ring is an ordered loop of vertices. The closing vertex may be repeated or
// omitted; both forms describe the same loop.
type Ring []Point

// Polygon follows the GeoJSON ring convention: the first ring is the outer
// boundary, any further rings are interior holes.
type Polygon struct {
	Rings []Ring `json:"rings"`
}

// BBox is an axis-aligned bounding box.
type BBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// closed reports whether the ring repeats its first vertex at the end.
func (r Ring) closed() bool {
	n := len(r)
	return n > 1 && r[0] == r[n-1]
}

// Vertices returns the ring's vertex count excluding a repeated closing
// vertex.
func (r Ring) Vertices() int {
	if r.closed() {
		return len(r) - 1
	}
	return len(r)
}

// edge returns the i-th edge of the ring, wrapping back to the first vertex.
func (r Ring) edge(i int) (Point, Point) {
	n := r.Vertices()
	return r[i], r[(i+1)%n]
}

// BBox computes the ring's bounding box.
func (r Ring) BBox() BBox {
	box := BBox{MinLat: r[0].Lat, MaxLat: r[0].Lat, MinLon: r[0].Lon, MaxLon: r[0].Lon}
	for _, pt := range r {
		if pt.Lat < box.MinLat {
			box.MinLat = pt.Lat
		}
		if pt.Lat > box.MaxLat {
			box.MaxLat = pt.Lat
		}
		if pt.Lon < box.MinLon {
			box.MinLon = pt.Lon
		}
		if pt.Lon > box.MaxLon {
			box.MaxLon = pt.Lon
		}
	}
	return box
}

// BBox computes the polygon's bounding box from its outer ring.
func (p Polygon) BBox() BBox {
	return p.Rings[0].BBox()
}

// Extend grows the box to cover other.
func (b *BBox) Extend(other BBox) {
	if other.MinLat < b.MinLat {
		b.MinLat = other.MinLat
	}
	if other.MinLon < b.MinLon {
		b.MinLon = other.MinLon
	}
	if other.MaxLat > b.MaxLat {
		b.MaxLat = other.MaxLat
	}
	if other.MaxLon > b.MaxLon {
		b.MaxLon = other.MaxLon
	}
}

// Contains reports whether the point lies within the box, borders included.
func (b BBox) Contains(pt Point) bool {
	return pt.Lat >= b.MinLat && pt.Lat <= b.MaxLat &&
		pt.Lon >= b.MinLon && pt.Lon <= b.MaxLon
}
