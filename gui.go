package railway

import (
	"image"
	"image/color"

	"gioui.org/app"
	"gioui.org/io/key"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"github.com/golang/glog"
)

// sizeArgument is the conventional name of the input driving the target
// size of a program.
const sizeArgument = "size"

// Gui previews a render session in a window. Because a railway program
// is resolution independent, resizing the window re-evaluates the value
// program with the new size and re-renders, touching only the stack
// slots, paths and triangles the size actually feeds.
type Gui struct {
	cfg struct {
		window struct {
			width  float32
			height float32
			title  string
		}
		background color.NRGBA
	}
	renderer   *Renderer
	alphaBlend bool
	resizable  bool

	ctx   layout.Context
	frame *image.NRGBA
	mask  []uint8
	size  image.Point
}

// NewGUI initializes the Gio interface around a render session.
func NewGUI(r *Renderer, width, height int, alphaBlend bool) *Gui {
	gui := &Gui{
		ctx: layout.Context{
			Ops: new(op.Ops),
			Constraints: layout.Constraints{
				Max: image.Pt(width, height),
			},
		},
		renderer:   r,
		alphaBlend: alphaBlend,
	}
	_, gui.resizable = r.Program().ArgumentAddress(sizeArgument)

	gui.cfg.window.width, gui.cfg.window.height = float32(width), float32(height)
	gui.cfg.window.title = "Railway preview"
	gui.cfg.background = color.NRGBA{R: 0x2d, G: 0x23, B: 0x2e, A: 0xff}

	return gui
}

// Run is the core method of the Gio GUI application. It re-renders the
// program whenever the window geometry changes and terminates when the
// window is closed or Escape is pressed.
func (g *Gui) Run() error {
	width := unit.Dp(g.cfg.window.width)
	height := unit.Dp(g.cfg.window.height)

	w := new(app.Window)
	w.Option(
		app.Title(g.cfg.window.title),
		app.Size(width, height),
	)

	for {
		switch e := w.Event().(type) {
		case app.FrameEvent:
			g.ctx = app.NewContext(g.ctx.Ops, e)

			for {
				event, ok := g.ctx.Event(key.Filter{
					Name: key.NameEscape,
				})
				if !ok {
					break
				}
				if event, ok := event.(key.Event); ok && event.Name == key.NameEscape {
					w.Perform(system.ActionClose)
				}
			}

			if err := g.update(g.ctx.Constraints.Max); err != nil {
				return err
			}
			g.draw()
			e.Frame(g.ctx.Ops)
		case app.DestroyEvent:
			return e.Err
		}
	}
}

// update re-renders the frame buffer when the window size changed.
// Programs without a size argument are rendered once at the initial
// geometry and merely rescaled by the image widget afterwards.
func (g *Gui) update(size image.Point) error {
	if g.frame != nil && (!g.resizable || size == g.size) {
		return nil
	}
	if size.X <= 0 || size.Y <= 0 {
		return nil
	}

	if g.frame == nil || size != g.size {
		g.frame = image.NewNRGBA(image.Rectangle{Max: size})
		g.mask = make([]uint8, size.X*size.Y)
		g.size = size
	}

	r := g.renderer
	if g.resizable {
		r.SetArgument(sizeArgument, NewCouple(Float(size.X), Float(size.Y)))
	}
	r.Compute()
	if glog.V(1) {
		r.LogStack()
	}
	return r.Render(g.frame.Pix, g.mask, size.X, size.Y, g.frame.Stride/4, g.alphaBlend)
}

// draw paints the rendered frame into the window.
func (g *Gui) draw() {
	paint.Fill(g.ctx.Ops, g.cfg.background)

	if g.frame == nil {
		return
	}
	src := paint.NewImageOp(g.frame)
	src.Add(g.ctx.Ops)

	widget.Image{
		Src:   src,
		Scale: 1 / float32(unit.Dp(1)),
		Fit:   widget.Contain,
	}.Layout(g.ctx)
}
