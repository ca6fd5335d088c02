package railway_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/railwayfile/railway"
	"github.com/railwayfile/railway/scan"
)

func pixel(dst []uint8, x, y, stride int) [4]uint8 {
	i := (y*stride + x) * 4
	return [4]uint8{dst[i], dst[i+1], dst[i+2], dst[i+3]}
}

// TestRender_RedSquare clips a unit square scaled by the size argument
// over a uniform opaque red background triangle.
func TestRender_RedSquare(t *testing.T) {
	assert := assert.New(t)

	b := railway.NewBuilder()
	couple := railway.NewCouple

	size := b.Argument("size", couple(200, 200), couple(1, 1), couple(4096, 4096))
	topLeftF := b.Constant(couple(0.05, 0.05))
	bottomRightF := b.Constant(couple(0.95, 0.95))
	redRG := b.Constant(couple(1, 0))
	redBA := b.Constant(couple(0, 1))
	// one big triangle covering the whole frame
	t0 := b.Constant(couple(-10, -10))
	t1 := b.Constant(couple(900, -10))
	t2 := b.Constant(couple(-10, 900))

	topLeft := b.Instruction(railway.Multiply2, size, topLeftF, 0)
	bottomRight := b.Instruction(railway.Multiply2, size, bottomRightF, 0)
	bottomLeft := b.Instruction(railway.Select2, topLeft, bottomRight, 0)
	topRight := b.Instruction(railway.Select2, bottomRight, topLeft, 0)

	red := railway.ColorAddress{redRG, redBA}
	bg := b.Background(b.Triangle(
		[3]railway.Address{t0, t1, t2},
		[3]railway.ColorAddress{red, red, red},
	))
	square := b.Path(
		b.Line(topLeft, topRight),
		b.Line(topRight, bottomRight),
		b.Line(bottomRight, bottomLeft),
		b.Line(bottomLeft, topLeft),
	)
	b.Clip(square, bg)

	p, err := b.Program()
	assert.NoError(err)

	const w, h = 300, 300
	r := railway.NewRenderer(p, scan.NewRasterizer(6))
	r.Compute()

	dst := make([]uint8, w*h*4)
	mask := make([]uint8, w*h)
	assert.NoError(r.Render(dst, mask, w, h, w, false))

	// the square spans (10,10)..(190,190); the interior is solid red
	assert.Equal([4]uint8{255, 0, 0, 255}, pixel(dst, 100, 100, w))
	assert.Equal([4]uint8{255, 0, 0, 255}, pixel(dst, 10, 10, w))
	assert.Equal([4]uint8{255, 0, 0, 255}, pixel(dst, 189, 189, w))

	// everything outside stays untouched
	assert.Equal([4]uint8{0, 0, 0, 0}, pixel(dst, 9, 100, w))
	assert.Equal([4]uint8{0, 0, 0, 0}, pixel(dst, 100, 9, w))
	assert.Equal([4]uint8{0, 0, 0, 0}, pixel(dst, 191, 100, w))
	assert.Equal([4]uint8{0, 0, 0, 0}, pixel(dst, 250, 250, w))
}

// TestRender_StrokedCircle strokes a full-turn arc: the result is an
// annulus leaving the disk center blank.
func TestRender_StrokedCircle(t *testing.T) {
	assert := assert.New(t)

	b := railway.NewBuilder()
	couple := railway.NewCouple

	center := b.Constant(couple(150, 150))
	radius := b.Constant(couple(0, -40))
	deltas := b.Constant(couple(2*math.Pi, 0))
	pattern := b.Constant(couple(100, 0))
	width := b.Constant(couple(4, 0))
	whiteRG := b.Constant(couple(1, 1))
	whiteBA := b.Constant(couple(1, 1))

	start := b.Instruction(railway.Add2, center, radius, 0)

	stroker := b.Stroker(pattern, width, railway.ColorAddress{whiteRG, whiteBA})
	disk := b.Path(b.Arc(start, center, deltas))
	b.Stroke(disk, stroker)

	p, err := b.Program()
	assert.NoError(err)

	const w, h = 300, 300
	r := railway.NewRenderer(p, scan.NewRasterizer(6))
	r.Compute()

	dst := make([]uint8, w*h*4)
	mask := make([]uint8, w*h)
	assert.NoError(r.Render(dst, mask, w, h, w, false))

	// the center of the disk is not covered
	assert.Equal([4]uint8{0, 0, 0, 0}, pixel(dst, 150, 150, w))
	assert.Equal([4]uint8{0, 0, 0, 0}, pixel(dst, 150, 120, w))

	// the stroke centerline is fully covered all around
	assert.Equal([4]uint8{255, 255, 255, 255}, pixel(dst, 150, 110, w))
	assert.Equal([4]uint8{255, 255, 255, 255}, pixel(dst, 150, 190, w))
	assert.Equal([4]uint8{255, 255, 255, 255}, pixel(dst, 110, 150, w))
	assert.Equal([4]uint8{255, 255, 255, 255}, pixel(dst, 190, 150, w))
}

// TestRender_Incremental re-renders after a no-op argument write and
// expects a byte-identical frame.
func TestRender_Incremental(t *testing.T) {
	assert := assert.New(t)

	b := railway.NewBuilder()
	couple := railway.NewCouple

	size := b.Argument("size", couple(64, 64), couple(1, 1), couple(4096, 4096))
	topLeftF := b.Constant(couple(0.25, 0.25))
	bottomRightF := b.Constant(couple(0.75, 0.75))
	rg := b.Constant(couple(0.2, 0.9))
	ba := b.Constant(couple(0.4, 1))
	t0 := b.Constant(couple(-10, -10))
	t1 := b.Constant(couple(900, -10))
	t2 := b.Constant(couple(-10, 900))

	topLeft := b.Instruction(railway.Multiply2, size, topLeftF, 0)
	bottomRight := b.Instruction(railway.Multiply2, size, bottomRightF, 0)
	bottomLeft := b.Instruction(railway.Select2, topLeft, bottomRight, 0)
	topRight := b.Instruction(railway.Select2, bottomRight, topLeft, 0)

	color := railway.ColorAddress{rg, ba}
	bg := b.Background(b.Triangle(
		[3]railway.Address{t0, t1, t2},
		[3]railway.ColorAddress{color, color, color},
	))
	square := b.Path(
		b.Line(topLeft, topRight),
		b.Line(topRight, bottomRight),
		b.Line(bottomRight, bottomLeft),
		b.Line(bottomLeft, topLeft),
	)
	b.Clip(square, bg)

	p, err := b.Program()
	assert.NoError(err)

	const w, h = 64, 64
	r := railway.NewRenderer(p, scan.NewRasterizer(4))
	r.Compute()

	first := make([]uint8, w*h*4)
	mask := make([]uint8, w*h)
	assert.NoError(r.Render(first, mask, w, h, w, true))

	// writing the value the argument already holds must not disturb
	// anything
	r.SetArgument("size", couple(64, 64))
	r.Compute()

	second := make([]uint8, w*h*4)
	assert.NoError(r.Render(second, mask, w, h, w, true))
	assert.Equal(first, second)

	// a real change produces a different frame
	r.SetArgument("size", couple(32, 32))
	r.Compute()
	assert.NoError(r.Render(second, mask, w, h, w, true))
	assert.NotEqual(first, second)
}
