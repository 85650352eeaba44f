package sim

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Zone is a forbidden region of the ground plane. Polygon coordinates are
// (x, z) pairs; the vertical axis is ignored.
type Zone struct {
	Name    string
	Polygon orb.Polygon
}

// NewZone builds a single-ring zone, closing the ring when needed.
func NewZone(name string, points [][2]float64) (Zone, error) {
	if len(points) < 3 {
		return Zone{}, fmt.Errorf("zone %q: need at least 3 points, got %d", name, len(points))
	}
	ring := make(orb.Ring, 0, len(points)+1)
	for _, p := range points {
		ring = append(ring, orb.Point{p[0], p[1]})
	}
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return Zone{Name: name, Polygon: orb.Polygon{ring}}, nil
}

// Contains reports whether p lies inside the zone using the even-odd rule.
// Holes in the polygon are respected.
func (z Zone) Contains(p mgl64.Vec3) bool {
	return planar.PolygonContains(z.Polygon, orb.Point{p.X(), p.Z()})
}

// InAnyZone reports whether p lies inside one of zones.
func InAnyZone(zones []Zone, p mgl64.Vec3) bool {
	for _, z := range zones {
		if z.Contains(p) {
			return true
		}
	}
	return false
}

// LoadZonesGeoJSON reads Polygon and MultiPolygon features from a GeoJSON
// FeatureCollection. The "name" property labels each zone.
func LoadZonesGeoJSON(data []byte) ([]Zone, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode zones: %w", err)
	}

	var zones []Zone
	for i, f := range fc.Features {
		name := f.Properties.MustString("name", fmt.Sprintf("zone%d", i))
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			zones = append(zones, Zone{Name: name, Polygon: g})
		case orb.MultiPolygon:
			for j, p := range g {
				zones = append(zones, Zone{Name: fmt.Sprintf("%s.%d", name, j), Polygon: p})
			}
		default:
			return nil, fmt.Errorf("zone %q: unsupported geometry %s", name, f.Geometry.GeoJSONType())
		}
	}
	return zones, nil
}

// ReadZonesFile loads zones from a GeoJSON file.
func ReadZonesFile(path string) ([]Zone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read zones: %w", err)
	}
	return LoadZonesGeoJSON(data)
}

// LoadPathGeoJSON reads the first LineString feature of a FeatureCollection
// as path control points. Coordinates are (x, z); every point gets height y.
func LoadPathGeoJSON(data []byte, y float64) ([]mgl64.Vec3, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode path: %w", err)
	}
	for _, f := range fc.Features {
		line, ok := f.Geometry.(orb.LineString)
		if !ok {
			continue
		}
		points := make([]mgl64.Vec3, 0, len(line))
		for _, p := range line {
			points = append(points, mgl64.Vec3{p.X(), y, p.Y()})
		}
		return points, nil
	}
	return nil, fmt.Errorf("decode path: no LineString feature")
}
