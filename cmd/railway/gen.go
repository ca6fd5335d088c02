package main

import (
	"math"
	"os"

	"github.com/railwayfile/railway"
)

// writeDemo builds the demo scene and writes it to the destination: a
// gradient-shaded square with a quadratic slope cut into it, a stroked
// contour, and a full-turn arc disk, all derived from a single size
// argument.
func writeDemo(out string) error {
	b := railway.NewBuilder()
	couple := railway.NewCouple

	size := b.Argument("size", couple(200, 200), couple(10, 10), couple(4096, 4096))
	topLeftF := b.Constant(couple(0.05, 0.05))
	bottomRightF := b.Constant(couple(0.95, 0.95))
	contourRG := b.Constant(couple(0.5, 0.1))
	contourBA := b.Constant(couple(0.5, 1.0))
	pattern := b.Constant(couple(100, 0))
	width := b.Constant(couple(4, 0))
	invertedRG := b.Constant(couple(0.1, 0.5))
	deltas := b.Constant(couple(2*math.Pi, 0))
	radius := b.Constant(couple(0, -40))
	centerF := b.Constant(couple(0.75, 0.25))

	topLeft := b.Instruction(railway.Multiply2, size, topLeftF, 0)
	bottomRight := b.Instruction(railway.Multiply2, size, bottomRightF, 0)
	bottomLeft := b.Instruction(railway.Select2, topLeft, bottomRight, 0)
	topRight := b.Instruction(railway.Select2, bottomRight, topLeft, 0)
	center := b.Instruction(railway.Multiply2, size, centerF, 0)
	startPoint := b.Instruction(railway.Add2, center, radius, 0)

	b.Output("center", center)

	contour := railway.ColorAddress{contourRG, contourBA}
	inverted := railway.ColorAddress{invertedRG, contourBA}

	lineStyle := b.Stroker(pattern, width, contour)

	background := b.Background(
		b.Triangle([3]railway.Address{topLeft, bottomLeft, bottomRight},
			[3]railway.ColorAddress{contour, inverted, contour}),
		b.Triangle([3]railway.Address{topLeft, topRight, bottomRight},
			[3]railway.ColorAddress{contour, inverted, contour}),
	)

	slope := b.Path(
		b.Line(bottomLeft, topLeft),
		b.Quadratic(topLeft, bottomLeft, bottomRight),
		b.Line(bottomRight, bottomLeft),
	)
	disk := b.Path(b.Arc(startPoint, center, deltas))

	b.Clip(slope, background)
	b.Stroke(slope, lineStyle)
	b.Clip(disk, background)
	b.Stroke(disk, lineStyle)

	p, err := b.Program()
	if err != nil {
		return err
	}

	if out == pipeName {
		_, err = os.Stdout.Write(p.Encode())
		return err
	}
	return os.WriteFile(out, p.Encode(), 0644)
}
