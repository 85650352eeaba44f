package sim

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// arcDivisions is the resolution of the arc-length table used by splines.
const arcDivisions = 200

// ErrShortPath is returned when a path has fewer than two distinct points.
var ErrShortPath = errors.New("path needs at least two distinct points")

// Curve is a closed loop parameterized by t in [0,1). Values outside that
// range wrap around, so SampleAt(0) and SampleAt(1) are the same point.
type Curve interface {
	SampleAt(t float64) mgl64.Vec3
	Length() float64
}

// CurveKind selects how control points are joined.
type CurveKind string

const (
	// Polyline joins control points with straight segments.
	Polyline CurveKind = "polyline"
	// CatmullRom passes a smooth spline through the control points. The
	// spline is closed so the seam at t=0 stays continuous while agents lap
	// the loop, and it uses uniform parameterization. For the evenly spaced
	// loops it is meant for, this matches the centripetal form closely.
	CatmullRom CurveKind = "catmullrom"
)

// NewCurve builds a closed curve of the given kind. The loop is closed
// whether or not the last point repeats the first.
func NewCurve(kind CurveKind, points []mgl64.Vec3) (Curve, error) {
	loop := loopPoints(points)
	if len(loop) < 2 {
		return nil, ErrShortPath
	}
	switch kind {
	case Polyline, "":
		return newPolylineCurve(loop), nil
	case CatmullRom:
		return newSplineCurve(loop), nil
	default:
		return nil, fmt.Errorf("unknown curve kind %q", kind)
	}
}

// loopPoints drops consecutive duplicates and the closing repeat of the
// first point.
func loopPoints(points []mgl64.Vec3) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, 0, len(points))
	for _, p := range points {
		if len(out) > 0 && out[len(out)-1].ApproxEqual(p) {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[len(out)-1].ApproxEqual(out[0]) {
		out = out[:len(out)-1]
	}
	return out
}

type polylineCurve struct {
	points []mgl64.Vec3 // closed: last == first
	cum    []float64
}

func newPolylineCurve(loop []mgl64.Vec3) *polylineCurve {
	points := append(append([]mgl64.Vec3{}, loop...), loop[0])
	cum := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		cum[i] = cum[i-1] + points[i].Sub(points[i-1]).Len()
	}
	return &polylineCurve{points: points, cum: cum}
}

func (c *polylineCurve) Length() float64 {
	return c.cum[len(c.cum)-1]
}

func (c *polylineCurve) SampleAt(t float64) mgl64.Vec3 {
	d := Wrap(t) * c.Length()
	i := sort.SearchFloat64s(c.cum, d)
	if i == 0 {
		return c.points[0]
	}
	if i >= len(c.points) {
		return c.points[len(c.points)-1]
	}
	a, b := c.points[i-1], c.points[i]
	frac := (d - c.cum[i-1]) / (c.cum[i] - c.cum[i-1])
	return a.Add(b.Sub(a).Mul(frac))
}

// splineCurve is a closed uniform Catmull-Rom spline sampled by arc length.
type splineCurve struct {
	points  []mgl64.Vec3
	lengths []float64 // cumulative length at u = k/arcDivisions
}

func newSplineCurve(loop []mgl64.Vec3) *splineCurve {
	c := &splineCurve{points: loop, lengths: make([]float64, arcDivisions+1)}
	prev := c.raw(0)
	for k := 1; k <= arcDivisions; k++ {
		p := c.raw(float64(k) / arcDivisions)
		c.lengths[k] = c.lengths[k-1] + p.Sub(prev).Len()
		prev = p
	}
	return c
}

func (c *splineCurve) Length() float64 {
	return c.lengths[arcDivisions]
}

func (c *splineCurve) SampleAt(t float64) mgl64.Vec3 {
	target := Wrap(t) * c.Length()
	k := sort.SearchFloat64s(c.lengths, target)
	if k == 0 {
		return c.raw(0)
	}
	if k > arcDivisions {
		k = arcDivisions
	}
	span := c.lengths[k] - c.lengths[k-1]
	frac := 0.0
	if span > 0 {
		frac = (target - c.lengths[k-1]) / span
	}
	return c.raw((float64(k-1) + frac) / arcDivisions)
}

// raw evaluates the spline at curve parameter u in [0,1], which is uniform
// per segment rather than per unit length.
func (c *splineCurve) raw(u float64) mgl64.Vec3 {
	n := len(c.points)
	pos := u * float64(n)
	seg := int(pos)
	if seg >= n {
		seg = n - 1
	}
	s := pos - float64(seg)

	p0 := c.points[(seg-1+n)%n]
	p1 := c.points[seg]
	p2 := c.points[(seg+1)%n]
	p3 := c.points[(seg+2)%n]

	s2 := s * s
	s3 := s2 * s
	out := p1.Mul(2).
		Add(p2.Sub(p0).Mul(s)).
		Add(p0.Mul(2).Sub(p1.Mul(5)).Add(p2.Mul(4)).Sub(p3).Mul(s2)).
		Add(p1.Mul(3).Sub(p0).Sub(p2.Mul(3)).Add(p3).Mul(s3))
	return out.Mul(0.5)
}
