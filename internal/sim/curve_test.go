package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func squareLoop() []mgl64.Vec3 {
	return []mgl64.Vec3{
		{10, 0, 10},
		{-10, 0, 10},
		{-10, 0, -10},
		{10, 0, -10},
		{10, 0, 10},
	}
}

func TestCurveSeamIsContinuous(t *testing.T) {
	for _, kind := range []CurveKind{Polyline, CatmullRom} {
		curve, err := NewCurve(kind, squareLoop())
		if err != nil {
			t.Fatalf("%s: NewCurve: %v", kind, err)
		}

		start := curve.SampleAt(0)
		if end := curve.SampleAt(1); !near(start, end, 1e-9) {
			t.Fatalf("%s: expected SampleAt(1) == SampleAt(0), got %v and %v", kind, end, start)
		}
		if end := curve.SampleAt(1 - 1e-9); !near(start, end, 1e-3) {
			t.Fatalf("%s: expected curve to close at the seam, got %v near %v", kind, end, start)
		}
		if !near(start, mgl64.Vec3{10, 0, 10}, 1e-9) {
			t.Fatalf("%s: expected curve to start at the first control point, got %v", kind, start)
		}
	}
}

func TestPolylineSamplesByArcLength(t *testing.T) {
	curve, err := NewCurve(Polyline, squareLoop())
	if err != nil {
		t.Fatalf("NewCurve: %v", err)
	}

	if got := curve.Length(); math.Abs(got-80) > 1e-9 {
		t.Fatalf("expected length 80, got %v", got)
	}
	cases := map[float64]mgl64.Vec3{
		0.125: {0, 0, 10},
		0.25:  {-10, 0, 10},
		0.5:   {-10, 0, -10},
		0.75:  {10, 0, -10},
		-0.25: {10, 0, -10},
	}
	for tt, want := range cases {
		if got := curve.SampleAt(tt); !near(got, want, 1e-9) {
			t.Fatalf("SampleAt(%v): expected %v, got %v", tt, want, got)
		}
	}
}

func TestCatmullRomPassesThroughControlPoints(t *testing.T) {
	curve, err := NewCurve(CatmullRom, squareLoop())
	if err != nil {
		t.Fatalf("NewCurve: %v", err)
	}

	// By symmetry every corner sits a quarter of the length apart.
	corners := []mgl64.Vec3{{10, 0, 10}, {-10, 0, 10}, {-10, 0, -10}, {10, 0, -10}}
	for i, want := range corners {
		got := curve.SampleAt(float64(i) / 4)
		if !near(got, want, 0.05) {
			t.Fatalf("corner %d: expected %v, got %v", i, want, got)
		}
	}
	if curve.Length() <= 0 {
		t.Fatalf("expected positive length, got %v", curve.Length())
	}
}

func TestCurveRejectsShortPath(t *testing.T) {
	_, err := NewCurve(Polyline, []mgl64.Vec3{{1, 0, 1}, {1, 0, 1}})
	if !errors.Is(err, ErrShortPath) {
		t.Fatalf("expected ErrShortPath, got %v", err)
	}

	if _, err := NewCurve("bezier", squareLoop()); err == nil {
		t.Fatal("expected unknown curve kind to fail")
	}
}

func TestCurveClosesOpenPointList(t *testing.T) {
	open := squareLoop()[:4]
	curve, err := NewCurve(Polyline, open)
	if err != nil {
		t.Fatalf("NewCurve: %v", err)
	}
	if got := curve.Length(); math.Abs(got-80) > 1e-9 {
		t.Fatalf("expected the loop to be closed with length 80, got %v", got)
	}
}
