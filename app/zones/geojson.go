package zones

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/deepseaguard/compliance-engine/pkg/fault"
	"github.com/deepseaguard/compliance-engine/pkg/geo"
)

// zone geometry arrives as the GeoJSON subset the regulatory feeds use:
// Polygon or MultiPolygon, positions as [lon, lat] pairs, first ring outer,
// later rings holes.

type geoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

func decodeGeometry(raw json.RawMessage) ([]geo.Polygon, error) {
	if len(raw) == 0 {
		return nil, errors.Wrap(fault.ErrValidation, "geometry is missing")
	}

	var g geoJSONGeometry
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, errors.Wrapf(fault.ErrValidation, "malformed geometry: %s", err.Error())
	}

	switch g.Type {
	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil, errors.Wrapf(fault.ErrValidation, "malformed Polygon coordinates: %s", err.Error())
		}
		poly, err := toPolygon(rings)
		if err != nil {
			return nil, err
		}
		return []geo.Polygon{poly}, nil

	case "MultiPolygon":
		var parts [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &parts); err != nil {
			return nil, errors.Wrapf(fault.ErrValidation, "malformed MultiPolygon coordinates: %s", err.Error())
		}
		if len(parts) == 0 {
			return nil, errors.Wrap(fault.ErrValidation, "MultiPolygon has no parts")
		}
		polygons := make([]geo.Polygon, 0, len(parts))
		for i, rings := range parts {
			poly, err := toPolygon(rings)
			if err != nil {
				return nil, errors.Wrapf(err, "part %d", i)
			}
			polygons = append(polygons, poly)
		}
		return polygons, nil

	default:
		return nil, errors.Wrapf(fault.ErrValidation, "unsupported geometry type %q", g.Type)
	}
}

func toPolygon(rings [][][]float64) (geo.Polygon, error) {
	if len(rings) == 0 {
		return geo.Polygon{}, errors.Wrap(fault.ErrValidation, "polygon has no rings")
	}
	poly := geo.Polygon{Rings: make([]geo.Ring, 0, len(rings))}
	for _, coords := range rings {
		ring := make(geo.Ring, 0, len(coords))
		for _, position := range coords {
			if len(position) < 2 {
				return geo.Polygon{}, errors.Wrap(fault.ErrValidation, "position needs [lon, lat]")
			}
			ring = append(ring, geo.Point{Lat: position[1], Lon: position[0]})
		}
		poly.Rings = append(poly.Rings, ring)
	}
	return poly, nil
}

// encodeGeometry renders the parsed parts back into the same GeoJSON subset,
// preserving ring order and hole structure. Single-part zones round-trip as
// Polygon, multi-part as MultiPolygon.
func encodeGeometry(geometry []geo.Polygon) (json.RawMessage, error) {
	encodeRings := func(poly geo.Polygon) [][][]float64 {
		rings := make([][][]float64, 0, len(poly.Rings))
		for _, ring := range poly.Rings {
			coords := make([][]float64, 0, len(ring))
			for _, pt := range ring {
				coords = append(coords, []float64{pt.Lon, pt.Lat})
			}
			rings = append(rings, coords)
		}
		return rings
	}

	var doc geoJSONGeometry
	var err error
	if len(geometry) == 1 {
		doc.Type = "Polygon"
		doc.Coordinates, err = json.Marshal(encodeRings(geometry[0]))
	} else {
		doc.Type = "MultiPolygon"
		parts := make([][][][]float64, 0, len(geometry))
		for _, poly := range geometry {
			parts = append(parts, encodeRings(poly))
		}
		doc.Coordinates, err = json.Marshal(parts)
	}
	if err != nil {
		return nil, errors.Wrap(err, "problem marshalling geometry coordinates")
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "problem marshalling geometry")
	}
	return out, nil
}
