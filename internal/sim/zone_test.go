package sim

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const zonesGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"name": "pond"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[0, 0], [10, 0], [10, 10], [0, 10], [0, 0]],
                        [[4, 4], [6, 4], [6, 6], [4, 6], [4, 4]]]
      }
    },
    {
      "type": "Feature",
      "properties": {},
      "geometry": {
        "type": "MultiPolygon",
        "coordinates": [
          [[[20, 20], [30, 20], [30, 30], [20, 20]]],
          [[[-30, -30], [-20, -30], [-20, -20], [-30, -30]]]
        ]
      }
    }
  ]
}`

func TestZoneContainsUsesXZPlane(t *testing.T) {
	zone, err := NewZone("block", [][2]float64{{0, 0}, {10, 0}, {10, 10}, {0, 10}})
	if err != nil {
		t.Fatalf("NewZone: %v", err)
	}

	if !zone.Contains(mgl64.Vec3{5, 100, 5}) {
		t.Fatal("expected point above the zone to be inside regardless of height")
	}
	if zone.Contains(mgl64.Vec3{5, 5, 15}) {
		t.Fatal("expected point beyond z=10 to be outside")
	}
}

func TestZoneConcavePolygon(t *testing.T) {
	// A U shape opening towards +z.
	zone, err := NewZone("u", [][2]float64{{0, 0}, {9, 0}, {9, 9}, {6, 9}, {6, 3}, {3, 3}, {3, 9}, {0, 9}})
	if err != nil {
		t.Fatalf("NewZone: %v", err)
	}

	if zone.Contains(mgl64.Vec3{4.5, 0, 6}) {
		t.Fatal("expected the notch of the U to be outside")
	}
	if !zone.Contains(mgl64.Vec3{1.5, 0, 6}) {
		t.Fatal("expected the arm of the U to be inside")
	}
}

func TestNewZoneNeedsThreePoints(t *testing.T) {
	if _, err := NewZone("line", [][2]float64{{0, 0}, {1, 1}}); err == nil {
		t.Fatal("expected error for a two-point zone")
	}
}

func TestLoadZonesGeoJSON(t *testing.T) {
	zones, err := LoadZonesGeoJSON([]byte(zonesGeoJSON))
	if err != nil {
		t.Fatalf("LoadZonesGeoJSON: %v", err)
	}
	if len(zones) != 3 {
		t.Fatalf("expected 3 zones, got %d", len(zones))
	}
	if zones[0].Name != "pond" {
		t.Fatalf("expected first zone named pond, got %q", zones[0].Name)
	}
	if zones[1].Name != "zone1.0" {
		t.Fatalf("expected generated name zone1.0, got %q", zones[1].Name)
	}

	if !InAnyZone(zones, mgl64.Vec3{2, 0, 2}) {
		t.Fatal("expected (2,2) inside the pond")
	}
	if InAnyZone(zones, mgl64.Vec3{5, 0, 5}) {
		t.Fatal("expected the hole of the pond to be outside")
	}
	if !InAnyZone(zones, mgl64.Vec3{-21, 0, -29}) {
		t.Fatal("expected point inside the second multipolygon part")
	}
}

func TestLoadPathGeoJSON(t *testing.T) {
	data := `{"type":"FeatureCollection","features":[
	  {"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[1,2]}},
	  {"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[10,10],[-10,10],[-10,-10],[10,10]]}}
	]}`

	points, err := LoadPathGeoJSON([]byte(data), 1)
	if err != nil {
		t.Fatalf("LoadPathGeoJSON: %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("expected 4 points, got %d", len(points))
	}
	if !near(points[1], mgl64.Vec3{-10, 1, 10}, 1e-9) {
		t.Fatalf("expected (-10, 1, 10), got %v", points[1])
	}

	if _, err := LoadPathGeoJSON([]byte(`{"type":"FeatureCollection","features":[]}`), 0); err == nil {
		t.Fatal("expected error without a LineString")
	}
}
