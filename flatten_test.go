package railway

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlatten_LinesClosePath(t *testing.T) {
	assert := assert.New(t)

	b := NewBuilder()
	p0 := b.Constant(CZero)
	p1 := b.Constant(NewCouple(10, 0))
	p2 := b.Constant(NewCouple(10, 10))
	b.Path(b.Line(p0, p1), b.Line(p1, p2), b.Line(p2, p0))
	p, err := b.Program()
	assert.NoError(err)

	stack := p.NewStack()
	p.Compute(stack, nil)
	flat := flattenPath(p, stack, p.Path(0), nil)

	// two points per line step plus the closing point
	assert.Len(flat, 7)
	assert.Equal(flat[0], flat[len(flat)-1])
}

func TestFlatten_EmptyPathStaysOpen(t *testing.T) {
	assert := assert.New(t)

	p := NewProgram()
	flat := flattenPath(p, nil, nil, nil)
	assert.Empty(flat)
}

func TestFlatten_CubicWithinTolerance(t *testing.T) {
	assert := assert.New(t)

	p0 := CZero
	p1 := NewCouple(30, 60)
	p2 := NewCouple(70, 60)
	p3 := NewCouple(100, 0)
	flat := appendCubic(nil, p0, p1, p2, p3, curveTolerance)

	assert.Equal(p0, flat[0])
	assert.Equal(p3, flat[len(flat)-1])
	assert.Greater(len(flat), 4)

	// every polyline vertex must lie on the curve within the tolerance;
	// sample the curve densely and check the nearest sample
	curve := func(t Float) Couple {
		mt := 1 - t
		x := mt*mt*mt*p0.X + 3*mt*mt*t*p1.X + 3*mt*t*t*p2.X + t*t*t*p3.X
		y := mt*mt*mt*p0.Y + 3*mt*mt*t*p1.Y + 3*mt*t*t*p2.Y + t*t*t*p3.Y
		return Couple{x, y}
	}
	for _, pt := range flat {
		best := Float(math.Inf(1))
		for i := 0; i <= 1000; i++ {
			d := distSq(pt, curve(Float(i)/1000))
			if d < best {
				best = d
			}
		}
		assert.LessOrEqual(float64(best), float64(curveTolerance*curveTolerance)+1e-6)
	}
}

func TestFlatten_QuadraticLift(t *testing.T) {
	assert := assert.New(t)

	p0 := CZero
	p1 := NewCouple(50, 100)
	p2 := NewCouple(100, 0)
	c0, c1 := liftQuadratic(p0, p1, p2)

	assert.InDelta(100.0/3, float64(c0.X), 1e-4)
	assert.InDelta(200.0/3, float64(c0.Y), 1e-4)
	assert.InDelta(100-100.0/3, float64(c1.X), 1e-4)
	assert.InDelta(200.0/3, float64(c1.Y), 1e-4)
}

func TestFlatten_FullCircleArc(t *testing.T) {
	assert := assert.New(t)

	center := NewCouple(150, 150)
	start := NewCouple(150, 110) // radius 40 straight up
	deltas := NewCouple(2*math.Pi, 0)

	flat := appendArc(nil, start, center, deltas)
	assert.Greater(len(flat), 16)

	// every vertex stays on the radius-40 circle
	for _, pt := range flat {
		r := math.Sqrt(float64(distSq(pt, center)))
		assert.InDelta(40, r, 0.5)
	}

	// a full turn comes back to its start
	end := flat[len(flat)-1]
	assert.InDelta(float64(start.X), float64(end.X), 0.1)
	assert.InDelta(float64(start.Y), float64(end.Y), 0.1)
}

func TestFlatten_SpiralArc(t *testing.T) {
	assert := assert.New(t)

	center := CZero
	start := NewCouple(10, 0)
	// half a turn while growing the radius by 10
	flat := appendArc(nil, start, center, NewCouple(math.Pi, 10))

	end := flat[len(flat)-1]
	r := math.Sqrt(float64(distSq(end, center)))
	assert.InDelta(20, r, 0.5)

	// radii grow monotonically along the spiral, give or take the
	// cubic approximation error
	prev := 10.0
	for _, pt := range flat {
		r := math.Sqrt(float64(distSq(pt, center)))
		assert.Greater(r, prev-0.5)
		prev = r
	}
}

func TestFlatten_ArcDirection(t *testing.T) {
	assert := assert.New(t)

	center := CZero
	start := NewCouple(10, 0)

	// positive angles turn from +x towards -y, which is upwards on a
	// y-down screen
	quarter := appendArc(nil, start, center, NewCouple(math.Pi/2, 0))
	end := quarter[len(quarter)-1]
	assert.InDelta(0, float64(end.X), 0.01)
	assert.InDelta(-10, float64(end.Y), 0.01)

	back := appendArc(nil, start, center, NewCouple(-math.Pi/2, 0))
	end = back[len(back)-1]
	assert.InDelta(0, float64(end.X), 0.01)
	assert.InDelta(10, float64(end.Y), 0.01)
}
