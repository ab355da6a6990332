package geo

import (
	"github.com/pkg/errors"

	"github.com/deepseaguard/compliance-engine/pkg/fault"
)

// Validate checks that the ring describes a usable simple loop: at least
// three distinct vertices and no self-intersection.
func (r Ring) Validate() error {
	n := r.Vertices()
	if n < 3 {
		return errors.Wrapf(fault.ErrValidation, "ring has %d vertices, need at least 3", n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if r[i] == r[j] {
				return errors.Wrapf(fault.ErrValidation, "ring repeats vertex (%v, %v)", r[i].Lat, r[i].Lon)
			}
		}
	}
	if r.selfIntersects() {
		return errors.Wrap(fault.ErrValidation, "ring is self-intersecting")
	}
	return nil
}

// Validate checks every ring of the polygon.
func (p Polygon) Validate() error {
	if len(p.Rings) == 0 {
		return errors.Wrap(fault.ErrValidation, "polygon has no rings")
	}
	for i, ring := range p.Rings {
		if err := ring.Validate(); err != nil {
			return errors.Wrapf(err, "ring %d", i)
		}
	}
	return nil
}

// selfIntersects tests every non-adjacent edge pair. Quadratic, which is fine
// for the ring sizes regulatory zone definitions carry.
func (r Ring) selfIntersects() bool {
	n := r.Vertices()
	for i := 0; i < n; i++ {
		a1, a2 := r.edge(i)
		for j := i + 1; j < n; j++ {
			// skip the edge itself and the two edges sharing a vertex with it
			if j == i || (j+1)%n == i || (i+1)%n == j {
				continue
			}
			b1, b2 := r.edge(j)
			if segmentsCross(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

// segmentsCross reports a proper crossing of the two segments.
func segmentsCross(a1, a2, b1, b2 Point) bool {
	d1 := direction(b1, b2, a1)
	d2 := direction(b1, b2, a2)
	d3 := direction(a1, a2, b1)
	d4 := direction(a1, a2, b2)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func direction(a, b, c Point) float64 {
	return (b.Lon-a.Lon)*(c.Lat-a.Lat) - (b.Lat-a.Lat)*(c.Lon-a.Lon)
}
