package railway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilder_DeduplicatesPrimitives(t *testing.T) {
	assert := assert.New(t)

	b := NewBuilder()
	p0 := b.Constant(CZero)
	p1 := b.Constant(NewCouple(1, 1))
	p2 := b.Constant(NewCouple(2, 0))

	first := b.Line(p0, p1)
	second := b.Line(p0, p1)
	assert.Equal(first, second)

	other := b.Line(p1, p2)
	assert.NotEqual(first, other)

	q := b.Quadratic(p0, p1, p2)
	assert.Equal(q, b.Quadratic(p0, p1, p2))

	c := b.Cubic(p0, p1, p2, p0)
	assert.Equal(c, b.Cubic(p0, p1, p2, p0))

	a := b.Arc(p0, p1, p2)
	assert.Equal(a, b.Arc(p0, p1, p2))

	color := ColorAddress{p1, p2}
	tri := b.Triangle([3]Address{p0, p1, p2}, [3]ColorAddress{color, color, color})
	assert.Equal(tri, b.Triangle([3]Address{p0, p1, p2}, [3]ColorAddress{color, color, color}))

	s := b.Stroker(p0, p1, color)
	assert.Equal(s, b.Stroker(p0, p1, color))

	p, err := b.Program()
	assert.NoError(err)
	assert.Len(p.Lines, 2)
	assert.Len(p.QuadraticCurves, 1)
	assert.Len(p.CubicCurves, 1)
	assert.Len(p.Arcs, 1)
	assert.Len(p.Triangles, 1)
	assert.Len(p.Strokers, 1)
}

func TestBuilder_DeduplicatesRuns(t *testing.T) {
	assert := assert.New(t)

	b := NewBuilder()
	p0 := b.Constant(CZero)
	p1 := b.Constant(NewCouple(1, 1))
	p2 := b.Constant(NewCouple(2, 0))

	l0 := b.Line(p0, p1)
	l1 := b.Line(p1, p2)
	l2 := b.Line(p2, p0)

	first := b.Path(l0, l1, l2)
	second := b.Path(l0, l1, l2)
	assert.NotEqual(first, second)

	color := ColorAddress{p1, p2}
	t0 := b.Triangle([3]Address{p0, p1, p2}, [3]ColorAddress{color, color, color})
	bg0 := b.Background(t0)
	bg1 := b.Background(t0)
	assert.NotEqual(bg0, bg1)

	p, err := b.Program()
	assert.NoError(err)

	// both paths point at the same step run, both backgrounds at the
	// same index run
	assert.Len(p.Steps, 3)
	assert.Equal(p.Paths[0], p.Paths[1])
	assert.Len(p.TriangleIndexes, 1)
	assert.Equal(p.Backgrounds[0], p.Backgrounds[1])
}

func TestBuilder_CanonicalFixpoint(t *testing.T) {
	assert := assert.New(t)

	p := buildSample(t)
	bytes := p.Encode()

	parsed, err := Parse(bytes)
	assert.NoError(err)
	assert.Equal(bytes, parsed.Encode())

	// a canonical file never stores two identical primitive records
	seen := make(map[Line]bool)
	for _, l := range p.Lines {
		assert.False(seen[l])
		seen[l] = true
	}
}

func TestBuilder_RejectsInvalidProgram(t *testing.T) {
	assert := assert.New(t)

	b := NewBuilder()
	a := b.Constant(CZero)
	// a forward reference is invalid by construction
	b.p.Instructions = append(b.p.Instructions, NewInstruction(Add2, a, 5, 0))

	_, err := b.Program()
	assert.ErrorIs(err, ErrInvalidIndex)
}
