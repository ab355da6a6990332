package zones

import (
	"github.com/deepseaguard/compliance-engine/pkg/geo"
)

// gridCells is the cell count per axis. 64x64 over the active set's extent
// keeps candidate lists short for realistic zone counts without tuning.
const gridCells = 64

// gridIndex maps a uniform grid over the active zone set's combined extent to
// the zones whose bounding box overlaps each cell. Built off to the side on
// every store mutation and published only via snapshot swap; it is immutable
// after construction, so concurrent readers need no locking.
type gridIndex struct {
	bounds     geo.BBox
	cellHeight float64
	cellWidth  float64
	cells      map[int][]*Zone
}

func buildIndex(zoneList []*Zone) *gridIndex {
	if len(zoneList) == 0 {
		return &gridIndex{}
	}

	bounds := zoneList[0].BBox
	for _, zone := range zoneList[1:] {
		bounds.Extend(zone.BBox)
	}

	idx := &gridIndex{
		bounds:     bounds,
		cellHeight: (bounds.MaxLat - bounds.MinLat) / gridCells,
		cellWidth:  (bounds.MaxLon - bounds.MinLon) / gridCells,
		cells:      make(map[int][]*Zone),
	}

	for _, zone := range zoneList {
		rowLo, colLo := idx.cell(zone.BBox.MinLat, zone.BBox.MinLon)
		rowHi, colHi := idx.cell(zone.BBox.MaxLat, zone.BBox.MaxLon)
		for row := rowLo; row <= rowHi; row++ {
			for col := colLo; col <= colHi; col++ {
				key := row*gridCells + col
				idx.cells[key] = append(idx.cells[key], zone)
			}
		}
	}

	return idx
}

// cell clamps a coordinate into grid indices. Degenerate extents (a single
// zone with zero-height bbox) collapse to cell zero on that axis.
func (idx *gridIndex) cell(lat, lon float64) (row, col int) {
	if idx.cellHeight > 0 {
		row = int((lat - idx.bounds.MinLat) / idx.cellHeight)
	}
	if idx.cellWidth > 0 {
		col = int((lon - idx.bounds.MinLon) / idx.cellWidth)
	}
	if row < 0 {
		row = 0
	}
	if row >= gridCells {
		row = gridCells - 1
	}
	if col < 0 {
		col = 0
	}
	if col >= gridCells {
		col = gridCells - 1
	}
	return row, col
}

// candidates returns the zones whose bounding box contains the point. Exact
// containment is the evaluator's job.
func (idx *gridIndex) candidates(pt geo.Point) []*Zone {
	if idx.cells == nil || !idx.bounds.Contains(pt) {
		return nil
	}

	row, col := idx.cell(pt.Lat, pt.Lon)

	var matched []*Zone
	for _, zone := range idx.cells[row*gridCells+col] {
		if zone.BBox.Contains(pt) {
			matched = append(matched, zone)
		}
	}
	return matched
}
