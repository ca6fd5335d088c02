package railway

import (
	"math"

	"github.com/railwayfile/railway/utils"
)

// Flattening tolerances in pixels. Arc quadrants are approximated by
// cubics before flattening, so they get a tighter tolerance to keep the
// combined deviation under control.
const (
	curveTolerance = 0.6
	arcTolerance   = 0.4

	// maxSubdivisions bounds the recursion of the adaptive flattener.
	maxSubdivisions = 8
)

// halfPi is π/2 as a Float, the largest sweep a single cubic may cover.
const halfPi = Float(math.Pi / 2)

// flattenPath appends the polyline of the given step sequence to dst and
// closes it by repeating the first point, provided the path produced at
// least one point.
func flattenPath(p *Program, stack []Couple, steps []PathStep, dst []Couple) []Couple {
	at := func(a Address) Couple { return stack[a] }
	for _, step := range steps {
		switch step.Type {
		case StepArc:
			arc := p.Arcs[step.Index]
			dst = appendArc(dst, at(arc.StartPoint), at(arc.Center), at(arc.Deltas))
		case StepCubicCurve:
			c := p.CubicCurves[step.Index]
			dst = appendCubic(dst,
				at(c.Points[0]), at(c.Points[1]), at(c.Points[2]), at(c.Points[3]),
				curveTolerance)
		case StepQuadraticCurve:
			q := p.QuadraticCurves[step.Index]
			p0, p1, p2 := at(q.Points[0]), at(q.Points[1]), at(q.Points[2])
			c0, c1 := liftQuadratic(p0, p1, p2)
			dst = appendCubic(dst, p0, c0, c1, p2, curveTolerance)
		case StepLine:
			l := p.Lines[step.Index]
			dst = append(dst, at(l.Points[0]), at(l.Points[1]))
		}
	}
	if len(dst) > 0 {
		dst = append(dst, dst[0])
	}
	return dst
}

// liftQuadratic converts a quadratic curve to the equivalent cubic by the
// standard control point lift.
func liftQuadratic(p0, p1, p2 Couple) (Couple, Couple) {
	c0 := Couple{p0.X + 2.0/3.0*(p1.X-p0.X), p0.Y + 2.0/3.0*(p1.Y-p0.Y)}
	c1 := Couple{p2.X + 2.0/3.0*(p1.X-p2.X), p2.Y + 2.0/3.0*(p1.Y-p2.Y)}
	return c0, c1
}

// appendCubic flattens a cubic Bézier into dst, starting with p0.
func appendCubic(dst []Couple, p0, p1, p2, p3 Couple, tol Float) []Couple {
	dst = append(dst, p0)
	return subdivideCubic(dst, p0, p1, p2, p3, tol, maxSubdivisions)
}

func subdivideCubic(dst []Couple, p0, p1, p2, p3 Couple, tol Float, depth int) []Couple {
	if depth == 0 || cubicFlatEnough(p0, p1, p2, p3, tol) {
		return append(dst, p3)
	}
	mid := func(a, b Couple) Couple { return Couple{(a.X + b.X) / 2, (a.Y + b.Y) / 2} }
	q0 := mid(p0, p1)
	q1 := mid(p1, p2)
	q2 := mid(p2, p3)
	r0 := mid(q0, q1)
	r1 := mid(q1, q2)
	s := mid(r0, r1)
	dst = subdivideCubic(dst, p0, q0, r0, s, tol, depth-1)
	return subdivideCubic(dst, s, r1, q2, p3, tol, depth-1)
}

// cubicFlatEnough reports whether both control points deviate from the
// chord by at most tol.
func cubicFlatEnough(p0, p1, p2, p3 Couple, tol Float) bool {
	dx := p3.X - p0.X
	dy := p3.Y - p0.Y
	chordSq := dx*dx + dy*dy
	if chordSq == 0 {
		d1 := distSq(p1, p0)
		d2 := distSq(p2, p0)
		return utils.Max(d1, d2) <= tol*tol
	}
	c1 := cross(dx, dy, p1.X-p0.X, p1.Y-p0.Y)
	c2 := cross(dx, dy, p2.X-p0.X, p2.Y-p0.Y)
	return utils.Max(c1*c1, c2*c2) <= tol*tol*chordSq
}

func cross(ax, ay, bx, by Float) Float {
	return ax*by - ay*bx
}

func distSq(a, b Couple) Float {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// appendArc flattens a spiral-capable arc. The sweep is split into
// sub-arcs of at most π/2 with the radius delta distributed linearly;
// every sub-arc is fitted by a single cubic through the closed-form
// control handle length and flattened with the arc tolerance.
func appendArc(dst []Couple, start, center, deltas Couple) []Couple {
	dAngle := deltas.X
	dRadius := deltas.Y

	for utils.Abs(dAngle) > halfPi {
		step := halfPi
		if dAngle < 0 {
			step = -halfPi
		}
		factor := step / dAngle
		stepRadius := factor * dRadius

		dst, start = appendArcQuadrant(dst, start, center, step, stepRadius)
		dAngle -= step
		dRadius -= stepRadius
	}
	dst, _ = appendArcQuadrant(dst, start, center, dAngle, dRadius)
	return dst
}

// appendArcQuadrant flattens a sub-arc of sweep dAngle (at most π/2) and
// radius delta dRadius, returning the end point for the next sub-arc.
// Control handles follow https://stackoverflow.com/a/44829356.
func appendArcQuadrant(dst []Couple, start, center Couple, dAngle, dRadius Float) ([]Couple, Couple) {
	cs := Couple{start.X - center.X, start.Y - center.Y}
	csAngle := Float(math.Atan2(float64(-cs.Y), float64(cs.X)))
	sin, cos := math.Sincos(float64(csAngle + dAngle))
	radius := Float(math.Sqrt(float64(cs.X*cs.X+cs.Y*cs.Y))) + dRadius
	end := Couple{
		center.X + radius*Float(cos),
		center.Y - radius*Float(sin),
	}
	ce := Couple{end.X - center.X, end.Y - center.Y}

	q1 := cs.X*cs.X + cs.Y*cs.Y
	q2 := q1 + cs.X*ce.X + cs.Y*ce.Y
	k2 := (4.0 / 3.0) * (Float(math.Sqrt(float64(2*q1*q2))) - q2) /
		(cs.X*ce.Y - cs.Y*ce.X)

	ctrl0 := Couple{
		center.X + cs.X - k2*cs.Y,
		center.Y + cs.Y + k2*cs.X,
	}
	ctrl1 := Couple{
		center.X + ce.X + k2*ce.Y,
		center.Y + ce.Y - k2*ce.X,
	}
	return appendCubic(dst, start, ctrl0, ctrl1, end, arcTolerance), end
}
