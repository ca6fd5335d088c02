package railway

// Builder assembles a program from direct-form arguments, instructions
// and drawing tables. It is the canonical serializer: primitive records,
// path step runs and triangle-index runs are deduplicated by content
// equality, so re-encoding a built program is a fixpoint.
//
// Addresses returned by Argument and Instruction are stack addresses and
// can be handed straight to primitives and colors.
type Builder struct {
	p Program
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Argument appends a named argument and returns its stack address.
func (b *Builder) Argument(name string, value, min, max Couple) Address {
	b.p.Arguments = append(b.p.Arguments, Argument{
		Name: name, Named: true, Value: value, Min: min, Max: max,
	})
	return Address(len(b.p.Arguments) - 1)
}

// Constant appends an unnamed argument holding a fixed value and returns
// its stack address.
func (b *Builder) Constant(value Couple) Address {
	b.p.Arguments = append(b.p.Arguments, Argument{Value: value, Min: value, Max: value})
	return Address(len(b.p.Arguments) - 1)
}

// Instruction appends an instruction and returns the stack address its
// result will occupy. Unused operands may be passed as zero.
func (b *Builder) Instruction(op Operation, a, c, d Address) Address {
	addr := Address(len(b.p.Arguments) + len(b.p.Instructions))
	b.p.Instructions = append(b.p.Instructions, NewInstruction(op, a, c, d))
	return addr
}

// Output exposes a stack address under a name for external read-back.
func (b *Builder) Output(name string, addr Address) {
	b.p.Outputs = append(b.p.Outputs, Output{Name: name, Named: true, Address: addr})
}

// Line adds a line primitive, reusing an existing identical record.
func (b *Builder) Line(p0, p1 Address) PathStep {
	l := Line{Points: [2]Address{p0, p1}}
	for i, have := range b.p.Lines {
		if have == l {
			return PathStep{Type: StepLine, Index: uint32(i)}
		}
	}
	b.p.Lines = append(b.p.Lines, l)
	return PathStep{Type: StepLine, Index: uint32(len(b.p.Lines) - 1)}
}

// Quadratic adds a quadratic curve primitive, reusing an existing
// identical record.
func (b *Builder) Quadratic(p0, p1, p2 Address) PathStep {
	q := QuadraticCurve{Points: [3]Address{p0, p1, p2}}
	for i, have := range b.p.QuadraticCurves {
		if have == q {
			return PathStep{Type: StepQuadraticCurve, Index: uint32(i)}
		}
	}
	b.p.QuadraticCurves = append(b.p.QuadraticCurves, q)
	return PathStep{Type: StepQuadraticCurve, Index: uint32(len(b.p.QuadraticCurves) - 1)}
}

// Cubic adds a cubic curve primitive, reusing an existing identical
// record.
func (b *Builder) Cubic(p0, p1, p2, p3 Address) PathStep {
	c := CubicCurve{Points: [4]Address{p0, p1, p2, p3}}
	for i, have := range b.p.CubicCurves {
		if have == c {
			return PathStep{Type: StepCubicCurve, Index: uint32(i)}
		}
	}
	b.p.CubicCurves = append(b.p.CubicCurves, c)
	return PathStep{Type: StepCubicCurve, Index: uint32(len(b.p.CubicCurves) - 1)}
}

// Arc adds an arc primitive, reusing an existing identical record.
func (b *Builder) Arc(startPoint, center, deltas Address) PathStep {
	a := Arc{StartPoint: startPoint, Center: center, Deltas: deltas}
	for i, have := range b.p.Arcs {
		if have == a {
			return PathStep{Type: StepArc, Index: uint32(i)}
		}
	}
	b.p.Arcs = append(b.p.Arcs, a)
	return PathStep{Type: StepArc, Index: uint32(len(b.p.Arcs) - 1)}
}

// Triangle adds a shaded triangle record, reusing an existing identical
// one, and returns its index.
func (b *Builder) Triangle(points [3]Address, colors [3]ColorAddress) uint32 {
	t := Triangle{Points: points, Colors: colors}
	for i, have := range b.p.Triangles {
		if have == t {
			return uint32(i)
		}
	}
	b.p.Triangles = append(b.p.Triangles, t)
	return uint32(len(b.p.Triangles) - 1)
}

// Stroker adds a stroker record, reusing an existing identical one, and
// returns its index.
func (b *Builder) Stroker(pattern, width Address, color ColorAddress) uint32 {
	s := Stroker{Pattern: pattern, Width: width, Color: color}
	for i, have := range b.p.Strokers {
		if have == s {
			return uint32(i)
		}
	}
	b.p.Strokers = append(b.p.Strokers, s)
	return uint32(len(b.p.Strokers) - 1)
}

// Path adds a path made of the given steps and returns its index. The
// step run is shared with any existing identical run in the step pool.
func (b *Builder) Path(steps ...PathStep) uint32 {
	offset := findStepRun(b.p.Steps, steps)
	if offset < 0 {
		offset = len(b.p.Steps)
		b.p.Steps = append(b.p.Steps, steps...)
	}
	b.p.Paths = append(b.p.Paths, Span{Offset: uint32(offset), Count: uint32(len(steps))})
	return uint32(len(b.p.Paths) - 1)
}

// Background adds a background listing the given triangle indexes and
// returns its index. The run is shared with any existing identical run.
func (b *Builder) Background(triangles ...uint32) uint32 {
	offset := findIndexRun(b.p.TriangleIndexes, triangles)
	if offset < 0 {
		offset = len(b.p.TriangleIndexes)
		b.p.TriangleIndexes = append(b.p.TriangleIndexes, triangles...)
	}
	b.p.Backgrounds = append(b.p.Backgrounds, Span{Offset: uint32(offset), Count: uint32(len(triangles))})
	return uint32(len(b.p.Backgrounds) - 1)
}

// Clip appends a rendering step filling the path and shading it with the
// background's triangles.
func (b *Builder) Clip(path, background uint32) {
	b.p.RenderingSteps = append(b.p.RenderingSteps, RenderingStep{
		Kind: RenderClip, Path: path, Target: background,
	})
}

// Stroke appends a rendering step outlining the path with the stroker.
func (b *Builder) Stroke(path, stroker uint32) {
	b.p.RenderingSteps = append(b.p.RenderingSteps, RenderingStep{
		Kind: RenderStroke, Path: path, Target: stroker,
	})
}

// Program validates the assembled program and returns it.
func (b *Builder) Program() (*Program, error) {
	p := b.p
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func findStepRun(pool, run []PathStep) int {
	if len(run) == 0 {
		return 0
	}
	for i := 0; i+len(run) <= len(pool); i++ {
		match := true
		for j := range run {
			if pool[i+j] != run[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func findIndexRun(pool, run []uint32) int {
	if len(run) == 0 {
		return 0
	}
	for i := 0; i+len(run) <= len(pool); i++ {
		match := true
		for j := range run {
			if pool[i+j] != run[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
