package railway

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/railwayfile/railway/imop"
)

// ErrShortBuffer is returned by Render when the destination or mask
// buffer cannot hold the requested window.
var ErrShortBuffer = errors.New("buffer too small for the render window")

// Rasterizer is the mask rasterizer contract. Fill rasterizes the closed
// polyline with the non-zero rule, Stroke outlines it with the given
// width; both write per-pixel coverage 0..255 into mask (row-major,
// stride = width). The scan package provides the reference
// implementation.
type Rasterizer interface {
	Fill(polyline []Couple, mask []uint8, width, height int)
	Stroke(polyline []Couple, mask []uint8, width, height int, strokeWidth Float)
}

// Renderer is a render session over one program. It owns the value
// stack, the change bitset and the flattened path and triangle caches
// exclusively; the program itself is shared read-only, so any number of
// sessions over the same program may run in parallel.
type Renderer struct {
	program *Program
	rast    Rasterizer
	comp    *imop.Composite

	stack   []Couple
	changes []bool

	flatPaths [][]Couple
	triangles []shadedTriangle
	colors    []triangleColors
}

// NewRenderer creates a render session. Argument slots are seeded from
// the program defaults and every change bit starts set, so the first
// frame builds every cache.
func NewRenderer(p *Program, rast Rasterizer) *Renderer {
	changes := make([]bool, p.StackSize())
	for i := range changes {
		changes[i] = true
	}
	return &Renderer{
		program:   p,
		rast:      rast,
		comp:      imop.InitOp(),
		stack:     p.NewStack(),
		changes:   changes,
		flatPaths: make([][]Couple, len(p.Paths)),
		triangles: make([]shadedTriangle, len(p.Triangles)),
		colors:    make([]triangleColors, len(p.Triangles)),
	}
}

// Program returns the program this session renders.
func (r *Renderer) Program() *Program {
	return r.program
}

// GetArgument returns the current value of the named argument.
func (r *Renderer) GetArgument(name string) (Couple, bool) {
	addr, ok := r.program.ArgumentAddress(name)
	if !ok {
		return CZero, false
	}
	return r.stack[addr], true
}

// SetArgument updates the named argument. Writing the value the slot
// already holds is a no-op; otherwise the slot is flagged dirty so the
// next frame rebuilds whatever depends on it.
func (r *Renderer) SetArgument(name string, value Couple) bool {
	addr, ok := r.program.ArgumentAddress(name)
	if !ok {
		return false
	}
	if r.stack[addr] != value {
		r.stack[addr] = value
		r.changes[addr] = true
	}
	return true
}

// Output resolves the named output to its computed value.
func (r *Renderer) Output(name string) (Couple, bool) {
	addr, ok := r.program.OutputAddress(name)
	if !ok {
		return CZero, false
	}
	return r.stack[addr], true
}

// Compute re-evaluates the instruction list, flagging every slot whose
// value changed.
func (r *Renderer) Compute() {
	r.program.Compute(r.stack, r.changes)
}

// LogStack dumps the evaluated stack, one row per slot.
func (r *Renderer) LogStack() {
	glog.Info("| INDEX |   ORIGIN   |   X   |   Y   |")
	for i := range r.program.Arguments {
		v := r.stack[i]
		glog.Infof("| %5d | %10s | %5g | %5g |", i, "Argument", v.X, v.Y)
	}
	base := len(r.program.Arguments)
	for i, ins := range r.program.Instructions {
		v := r.stack[base+i]
		glog.Infof("| %5d | %10s | %5g | %5g |", base+i, ins.Operation, v.X, v.Y)
	}
}

// pathDirty reports whether any stack slot referenced by any step of the
// path has been flagged since the last frame.
func (r *Renderer) pathDirty(steps []PathStep) bool {
	p := r.program
	for _, step := range steps {
		switch step.Type {
		case StepArc:
			arc := p.Arcs[step.Index]
			if r.changes[arc.StartPoint] || r.changes[arc.Center] || r.changes[arc.Deltas] {
				return true
			}
		case StepCubicCurve:
			for _, pt := range p.CubicCurves[step.Index].Points {
				if r.changes[pt] {
					return true
				}
			}
		case StepQuadraticCurve:
			for _, pt := range p.QuadraticCurves[step.Index].Points {
				if r.changes[pt] {
					return true
				}
			}
		case StepLine:
			for _, pt := range p.Lines[step.Index].Points {
				if r.changes[pt] {
					return true
				}
			}
		}
	}
	return false
}

// Render draws one frame into the width×height window of dst. The
// destination is an RGBA8 buffer with the given row stride in pixels;
// mask is the caller-owned coverage buffer of at least width×height
// bytes. With alphaBlend false every rendering step overwrites the
// pixels it covers, with alphaBlend true it blends over them.
//
// Render does not evaluate the value program; call Compute first when an
// argument changed.
func (r *Renderer) Render(dst, mask []uint8, width, height, stride int, alphaBlend bool) error {
	if stride < width {
		return errors.Wrapf(ErrShortBuffer, "stride %d < width %d", stride, width)
	}
	if height > 0 && len(dst) < ((height-1)*stride+width)*4 {
		return errors.Wrap(ErrShortBuffer, "destination")
	}
	if len(mask) < width*height {
		return errors.Wrap(ErrShortBuffer, "mask")
	}

	p := r.program

	// clear the window
	for y := 0; y < height; y++ {
		row := y * stride * 4
		for i := row; i < row+width*4; i++ {
			dst[i] = 0
		}
	}

	// refresh the flattened polyline of every path touched by a change
	for i := range p.Paths {
		steps := p.Path(i)
		if !r.pathDirty(steps) {
			continue
		}
		r.flatPaths[i] = flattenPath(p, r.stack, steps, r.flatPaths[i][:0])
	}

	// refresh triangle caches; positions and colors are tracked apart
	for i, t := range p.Triangles {
		if r.changes[t.Points[0]] || r.changes[t.Points[1]] || r.changes[t.Points[2]] {
			r.triangles[i] = newShadedTriangle([3]Couple{
				r.stack[t.Points[0]],
				r.stack[t.Points[1]],
				r.stack[t.Points[2]],
			})
		}
		colorsChanged := false
		for _, c := range t.Colors {
			if r.changes[c[0]] || r.changes[c[1]] {
				colorsChanged = true
				break
			}
		}
		if colorsChanged {
			r.colors[i] = newTriangleColors(
				resolveColor(r.stack, t.Colors[0]),
				resolveColor(r.stack, t.Colors[1]),
				resolveColor(r.stack, t.Colors[2]),
			)
		}
	}

	for i := range r.changes {
		r.changes[i] = false
	}

	if alphaBlend {
		r.comp.Set(imop.SrcOver)
	} else {
		r.comp.Set(imop.Copy)
	}

	for _, rs := range p.RenderingSteps {
		polyline := r.flatPaths[rs.Path]

		for i := 0; i < width*height; i++ {
			mask[i] = 0
		}

		switch rs.Kind {
		case RenderClip:
			r.rast.Fill(polyline, mask, width, height)
			r.shadeClip(dst, mask, width, height, stride, p.Background(int(rs.Target)))
		case RenderStroke:
			stroker := p.Strokers[rs.Target]
			// the dash pattern is read but has no effect yet
			_ = r.stack[stroker.Pattern]
			w := r.stack[stroker.Width]
			r.rast.Stroke(polyline, mask, width, height, w.X+w.Y)

			c := resolveColor(r.stack, stroker.Color)
			src := imop.Pixel{R: truncU8(c[0]), G: truncU8(c[1]), B: truncU8(c[2]), A: truncU8(c[3])}
			r.blendMask(dst, mask, width, height, stride, src)
		}
	}

	if glog.V(2) {
		glog.Infof("rendered %d steps at %dx%d", len(p.RenderingSteps), width, height)
	}
	return nil
}

// shadeClip walks the covered pixels and shades each with the first
// background triangle containing it.
func (r *Renderer) shadeClip(dst, mask []uint8, width, height, stride int, background []uint32) {
	mi := 0
	for y := 0; y < height; y++ {
		row := y * stride * 4
		for x := 0; x < width; x++ {
			q := mask[mi]
			mi++
			if q == 0 {
				continue
			}
			point := Couple{Float(x), Float(y)}
			for _, ti := range background {
				tri := &r.triangles[ti]
				u, v, w, inside := tri.weights(point)
				if !inside {
					continue
				}
				src := r.colors[ti].colorAt(u, v, w)
				r.comp.BlendPixel(dst, row+x*4, src, q)
				break
			}
		}
	}
}

// blendMask blends a flat color through the mask into dst.
func (r *Renderer) blendMask(dst, mask []uint8, width, height, stride int, src imop.Pixel) {
	mi := 0
	for y := 0; y < height; y++ {
		row := y * stride * 4
		for x := 0; x < width; x++ {
			q := mask[mi]
			mi++
			if q != 0 {
				r.comp.BlendPixel(dst, row+x*4, src, q)
			}
		}
	}
}
