package railway

import "github.com/pkg/errors"

// Validate cross-checks every address of the program against its
// referent's cardinality. Parse runs it automatically; a program built by
// hand should be validated before use. Argument default values are not
// checked on purpose, the advisory range is never enforced.
func (p *Program) Validate() error {
	stackSize := uint32(p.StackSize())

	max := uint32(len(p.Arguments))
	for i, ins := range p.Instructions {
		for _, op := range ins.Operands {
			if op >= max {
				return errors.Wrapf(ErrInvalidIndex, "instruction %d operand %d", i, op)
			}
		}
		max++
	}

	for i, out := range p.Outputs {
		if out.Address >= stackSize {
			return errors.Wrapf(ErrInvalidIndex, "output %d", i)
		}
	}
	for i, a := range p.Arcs {
		if a.StartPoint >= stackSize || a.Center >= stackSize || a.Deltas >= stackSize {
			return errors.Wrapf(ErrInvalidIndex, "arc %d", i)
		}
	}
	for i, c := range p.CubicCurves {
		for _, pt := range c.Points {
			if pt >= stackSize {
				return errors.Wrapf(ErrInvalidIndex, "cubic curve %d", i)
			}
		}
	}
	for i, c := range p.QuadraticCurves {
		for _, pt := range c.Points {
			if pt >= stackSize {
				return errors.Wrapf(ErrInvalidIndex, "quadratic curve %d", i)
			}
		}
	}
	for i, l := range p.Lines {
		for _, pt := range l.Points {
			if pt >= stackSize {
				return errors.Wrapf(ErrInvalidIndex, "line %d", i)
			}
		}
	}
	for i, t := range p.Triangles {
		for _, pt := range t.Points {
			if pt >= stackSize {
				return errors.Wrapf(ErrInvalidIndex, "triangle %d", i)
			}
		}
		for _, c := range t.Colors {
			if c[0] >= stackSize || c[1] >= stackSize {
				return errors.Wrapf(ErrInvalidIndex, "triangle %d color", i)
			}
		}
	}
	for i, s := range p.Strokers {
		addrs := []Address{s.Pattern, s.Width, s.Color[0], s.Color[1]}
		for _, a := range addrs {
			if a >= stackSize {
				return errors.Wrapf(ErrInvalidIndex, "stroker %d", i)
			}
		}
	}

	stepCount := uint32(len(p.Steps))
	for i, span := range p.Paths {
		if span.Offset+span.Count > stepCount || span.Offset+span.Count < span.Offset {
			return errors.Wrapf(ErrInvalidIndex, "path %d step run", i)
		}
		for _, step := range p.Path(i) {
			var limit int
			switch step.Type {
			case StepArc:
				limit = len(p.Arcs)
			case StepCubicCurve:
				limit = len(p.CubicCurves)
			case StepQuadraticCurve:
				limit = len(p.QuadraticCurves)
			case StepLine:
				limit = len(p.Lines)
			}
			if step.Index >= uint32(limit) {
				return errors.Wrapf(ErrInvalidIndex, "path %d %s step", i, step.Type)
			}
		}
	}

	indexCount := uint32(len(p.TriangleIndexes))
	for i, span := range p.Backgrounds {
		if span.Offset+span.Count > indexCount || span.Offset+span.Count < span.Offset {
			return errors.Wrapf(ErrInvalidIndex, "background %d index run", i)
		}
		for _, ti := range p.Background(i) {
			if ti >= uint32(len(p.Triangles)) {
				return errors.Wrapf(ErrInvalidIndex, "background %d triangle", i)
			}
		}
	}

	for i, rs := range p.RenderingSteps {
		if rs.Path >= uint32(len(p.Paths)) {
			return errors.Wrapf(ErrInvalidIndex, "rendering step %d path", i)
		}
		var limit int
		switch rs.Kind {
		case RenderClip:
			limit = len(p.Backgrounds)
		case RenderStroke:
			limit = len(p.Strokers)
		}
		if rs.Target >= uint32(limit) {
			return errors.Wrapf(ErrInvalidIndex, "rendering step %d target", i)
		}
	}
	return nil
}
