package railway

// Float is the numeric type used throughout the format.
// Every quantity a program manipulates is a single precision float.
type Float = float32

// Couple is an ordered (x, y) pair of floats, the universal value type.
// Positions, radii, angular spans, color channel pairs, sizes and opaque
// operation results are all couples.
type Couple struct {
	X, Y Float
}

// CZero is the zero couple.
var CZero = Couple{}

// NewCouple returns the couple (x, y).
func NewCouple(x, y Float) Couple {
	return Couple{X: x, Y: y}
}

// Address is a non-negative index into the value stack, the sole way one
// part of a program refers to a number.
type Address = uint32

// ColorAddress refers to an (r,g) couple and a (b,a) couple on the stack,
// in this order. Channel values are expected in the [0, 1] range and are
// scaled to [0, 255] when a color is resolved.
type ColorAddress [2]Address

// Arc is a spiral-capable arc primitive. The start point is computed
// upstream, typically with a Cartesian2 instruction, and Deltas holds the
// angular sweep in X and the radius delta in Y.
type Arc struct {
	StartPoint Address
	Center     Address
	Deltas     Address
}

// CubicCurve is a cubic Bézier curve referencing its four control points.
type CubicCurve struct {
	Points [4]Address
}

// QuadraticCurve is a quadratic Bézier curve referencing its three control
// points.
type QuadraticCurve struct {
	Points [3]Address
}

// Line is a straight segment between two stack-resolved endpoints.
type Line struct {
	Points [2]Address
}

// Triangle references three vertex positions and one color per vertex.
type Triangle struct {
	Points [3]Address
	Colors [3]ColorAddress
}

// Stroker bundles the styling of a stroked path: a dash pattern couple
// (reserved), a width couple (effective width = x + y) and a color.
type Stroker struct {
	Pattern Address
	Width   Address
	Color   ColorAddress
}

// StepType discriminates the primitive kind a path step points to.
type StepType uint32

// The step types in their fixed wire encoding order.
const (
	StepArc StepType = iota
	StepCubicCurve
	StepQuadraticCurve
	StepLine

	numStepTypes
)

// String returns the human readable step type name.
func (s StepType) String() string {
	switch s {
	case StepArc:
		return "Arc"
	case StepCubicCurve:
		return "CubicCurve"
	case StepQuadraticCurve:
		return "QuadraticCurve"
	case StepLine:
		return "Line"
	}
	return "Unknown"
}

// PathStep pairs a step type with an index into the primitive table of
// that type.
type PathStep struct {
	Type  StepType
	Index uint32
}

// Span is an (offset, count) window into one of the shared pools.
// Paths index the step pool, backgrounds the triangle-index pool.
// Keeping the pools explicit preserves run sharing across a decode/encode
// round trip.
type Span struct {
	Offset uint32
	Count  uint32
}

// RenderingStepKind discriminates the two kinds of rendering steps.
type RenderingStepKind uint32

const (
	// RenderClip fills a path and shades its interior with the triangles
	// of a background.
	RenderClip RenderingStepKind = iota
	// RenderStroke outlines a path with a stroker.
	RenderStroke
)

// RenderingStep draws one path, either clipped over a background or
// stroked with a stroker. Target is a background index for RenderClip and
// a stroker index for RenderStroke.
type RenderingStep struct {
	Kind   RenderingStepKind
	Path   uint32
	Target uint32
}

// Program is the decoded form of a railway file: a dataflow value program
// followed by the geometry and rendering tables that consume it.
// A program is immutable after a successful Parse; render sessions share
// it read-only.
type Program struct {
	Arguments       []Argument
	Instructions    []Instruction
	Outputs         []Output
	Triangles       []Triangle
	Arcs            []Arc
	CubicCurves     []CubicCurve
	QuadraticCurves []QuadraticCurve
	Lines           []Line
	Strokers        []Stroker
	Steps           []PathStep
	Paths           []Span
	TriangleIndexes []uint32
	Backgrounds     []Span
	RenderingSteps  []RenderingStep
}

// NewProgram returns an empty program.
func NewProgram() *Program {
	return &Program{}
}

// StackSize returns the number of value slots a render session needs:
// one per argument followed by one per instruction.
func (p *Program) StackSize() int {
	return len(p.Arguments) + len(p.Instructions)
}

// NewStack allocates a value stack seeded with the argument defaults.
// Instruction slots are zero until the first Compute.
func (p *Program) NewStack() []Couple {
	stack := make([]Couple, p.StackSize())
	for i, arg := range p.Arguments {
		stack[i] = arg.Value
	}
	return stack
}

// Path returns the resolved step sequence of path i.
func (p *Program) Path(i int) []PathStep {
	s := p.Paths[i]
	return p.Steps[s.Offset : s.Offset+s.Count]
}

// Background returns the resolved triangle index run of background i.
func (p *Program) Background(i int) []uint32 {
	s := p.Backgrounds[i]
	return p.TriangleIndexes[s.Offset : s.Offset+s.Count]
}

// ArgumentAddress returns the stack address holding the named argument.
// Lookups are linear, they are meant for authoring and embedding time.
func (p *Program) ArgumentAddress(name string) (Address, bool) {
	for i, arg := range p.Arguments {
		if arg.Named && arg.Name == name {
			return Address(i), true
		}
	}
	return 0, false
}

// OutputAddress returns the stack address the named output points to.
func (p *Program) OutputAddress(name string) (Address, bool) {
	for _, out := range p.Outputs {
		if out.Named && out.Name == name {
			return out.Address, true
		}
	}
	return 0, false
}
