package railway

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// The failure kinds of Parse. Wrapped errors carry positional context;
// match the kind with errors.Is.
var (
	ErrNotARailwayFile      = errors.New("not a railway file")
	ErrTooShort             = errors.New("unexpected end of file")
	ErrExcessBytes          = errors.New("excess bytes after string section")
	ErrInvalidOperation     = errors.New("invalid operation code")
	ErrInvalidStepType      = errors.New("invalid path step type")
	ErrInvalidRenderingStep = errors.New("invalid rendering step tag")
	ErrInvalidName          = errors.New("invalid name")
	ErrInvalidIndex         = errors.New("invalid index")
)

var magicBytes = [4]byte{'R', 'W', 'Y', '0'}

// unnamedOffset marks an argument or output without a name.
const unnamedOffset = 0xFFFFFFFF

// makeSlice keeps empty sections nil so a decoded program compares equal
// to its direct-form counterpart.
func makeSlice[T any](n int) []T {
	if n == 0 {
		return nil
	}
	return make([]T, n)
}

type reader struct {
	buf []byte
	pos int
}

func (r *reader) slice(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) || r.pos+n < r.pos {
		return nil, ErrTooShort
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.slice(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *reader) f32() (Float, error) {
	v, err := r.u32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *reader) count() (int, error) {
	v, err := r.u32()
	return int(v), err
}

// Parse decodes a railway file in a single forward pass and validates
// every address against its referent's cardinality. The returned program
// is immutable; a failed parse reports the specific kind.
func Parse(bytes []byte) (*Program, error) {
	if len(bytes) < len(magicBytes) || string(bytes[:4]) != string(magicBytes[:]) {
		return nil, ErrNotARailwayFile
	}
	r := &reader{buf: bytes, pos: len(magicBytes)}
	p := NewProgram()

	n, err := r.count()
	if err != nil {
		return nil, err
	}
	argNames := make([]uint32, n)
	p.Arguments = makeSlice[Argument](n)
	for i := range p.Arguments {
		if argNames[i], err = r.u32(); err != nil {
			return nil, errors.Wrap(err, "arguments")
		}
		arg := &p.Arguments[i]
		fields := []*Float{
			&arg.Value.X, &arg.Value.Y,
			&arg.Min.X, &arg.Max.X,
			&arg.Min.Y, &arg.Max.Y,
		}
		for _, f := range fields {
			if *f, err = r.f32(); err != nil {
				return nil, errors.Wrap(err, "arguments")
			}
		}
	}

	if n, err = r.count(); err != nil {
		return nil, err
	}
	p.Instructions = makeSlice[Instruction](n)
	for i := range p.Instructions {
		opcode, err := r.u32()
		if err != nil {
			return nil, errors.Wrap(err, "instructions")
		}
		if opcode >= uint32(numOperations) {
			return nil, errors.Wrapf(ErrInvalidOperation, "opcode %#x", opcode)
		}
		ins := Instruction{Operation: Operation(opcode)}
		for j := range ins.Operands {
			if ins.Operands[j], err = r.u32(); err != nil {
				return nil, errors.Wrap(err, "instructions")
			}
		}
		p.Instructions[i] = ins
	}

	if n, err = r.count(); err != nil {
		return nil, err
	}
	outNames := make([]uint32, n)
	p.Outputs = makeSlice[Output](n)
	for i := range p.Outputs {
		if outNames[i], err = r.u32(); err != nil {
			return nil, errors.Wrap(err, "outputs")
		}
		if p.Outputs[i].Address, err = r.u32(); err != nil {
			return nil, errors.Wrap(err, "outputs")
		}
	}

	if n, err = r.count(); err != nil {
		return nil, err
	}
	p.Triangles = makeSlice[Triangle](n)
	for i := range p.Triangles {
		t := &p.Triangles[i]
		addrs := []*Address{
			&t.Points[0], &t.Points[1], &t.Points[2],
			&t.Colors[0][0], &t.Colors[0][1],
			&t.Colors[1][0], &t.Colors[1][1],
			&t.Colors[2][0], &t.Colors[2][1],
		}
		for _, a := range addrs {
			if *a, err = r.u32(); err != nil {
				return nil, errors.Wrap(err, "triangles")
			}
		}
	}

	if n, err = r.count(); err != nil {
		return nil, err
	}
	p.Arcs = makeSlice[Arc](n)
	for i := range p.Arcs {
		a := &p.Arcs[i]
		for _, f := range []*Address{&a.StartPoint, &a.Center, &a.Deltas} {
			if *f, err = r.u32(); err != nil {
				return nil, errors.Wrap(err, "arcs")
			}
		}
	}

	if n, err = r.count(); err != nil {
		return nil, err
	}
	p.CubicCurves = makeSlice[CubicCurve](n)
	for i := range p.CubicCurves {
		for j := range p.CubicCurves[i].Points {
			if p.CubicCurves[i].Points[j], err = r.u32(); err != nil {
				return nil, errors.Wrap(err, "cubic curves")
			}
		}
	}

	if n, err = r.count(); err != nil {
		return nil, err
	}
	p.QuadraticCurves = makeSlice[QuadraticCurve](n)
	for i := range p.QuadraticCurves {
		for j := range p.QuadraticCurves[i].Points {
			if p.QuadraticCurves[i].Points[j], err = r.u32(); err != nil {
				return nil, errors.Wrap(err, "quadratic curves")
			}
		}
	}

	if n, err = r.count(); err != nil {
		return nil, err
	}
	p.Lines = makeSlice[Line](n)
	for i := range p.Lines {
		for j := range p.Lines[i].Points {
			if p.Lines[i].Points[j], err = r.u32(); err != nil {
				return nil, errors.Wrap(err, "lines")
			}
		}
	}

	if n, err = r.count(); err != nil {
		return nil, err
	}
	p.Strokers = makeSlice[Stroker](n)
	for i := range p.Strokers {
		s := &p.Strokers[i]
		addrs := []*Address{&s.Pattern, &s.Width, &s.Color[0], &s.Color[1]}
		for _, a := range addrs {
			if *a, err = r.u32(); err != nil {
				return nil, errors.Wrap(err, "strokers")
			}
		}
	}

	if n, err = r.count(); err != nil {
		return nil, err
	}
	p.Steps = makeSlice[PathStep](n)
	for i := range p.Steps {
		stepType, err := r.u32()
		if err != nil {
			return nil, errors.Wrap(err, "step pool")
		}
		if stepType >= uint32(numStepTypes) {
			return nil, errors.Wrapf(ErrInvalidStepType, "step type %d", stepType)
		}
		index, err := r.u32()
		if err != nil {
			return nil, errors.Wrap(err, "step pool")
		}
		p.Steps[i] = PathStep{Type: StepType(stepType), Index: index}
	}

	if n, err = r.count(); err != nil {
		return nil, err
	}
	p.Paths = makeSlice[Span](n)
	for i := range p.Paths {
		if p.Paths[i].Offset, err = r.u32(); err != nil {
			return nil, errors.Wrap(err, "paths")
		}
		if p.Paths[i].Count, err = r.u32(); err != nil {
			return nil, errors.Wrap(err, "paths")
		}
	}

	if n, err = r.count(); err != nil {
		return nil, err
	}
	p.TriangleIndexes = makeSlice[uint32](n)
	for i := range p.TriangleIndexes {
		if p.TriangleIndexes[i], err = r.u32(); err != nil {
			return nil, errors.Wrap(err, "triangle index pool")
		}
	}

	if n, err = r.count(); err != nil {
		return nil, err
	}
	p.Backgrounds = makeSlice[Span](n)
	for i := range p.Backgrounds {
		if p.Backgrounds[i].Offset, err = r.u32(); err != nil {
			return nil, errors.Wrap(err, "backgrounds")
		}
		if p.Backgrounds[i].Count, err = r.u32(); err != nil {
			return nil, errors.Wrap(err, "backgrounds")
		}
	}

	if n, err = r.count(); err != nil {
		return nil, err
	}
	p.RenderingSteps = makeSlice[RenderingStep](n)
	for i := range p.RenderingSteps {
		tag, err := r.u32()
		if err != nil {
			return nil, errors.Wrap(err, "rendering steps")
		}
		if tag > uint32(RenderStroke) {
			return nil, errors.Wrapf(ErrInvalidRenderingStep, "tag %d", tag)
		}
		rs := RenderingStep{Kind: RenderingStepKind(tag)}
		if rs.Path, err = r.u32(); err != nil {
			return nil, errors.Wrap(err, "rendering steps")
		}
		if rs.Target, err = r.u32(); err != nil {
			return nil, errors.Wrap(err, "rendering steps")
		}
		p.RenderingSteps[i] = rs
	}

	if n, err = r.count(); err != nil {
		return nil, err
	}
	payload, err := r.slice(n)
	if err != nil {
		return nil, errors.Wrap(err, "string section")
	}
	for i, off := range argNames {
		arg := &p.Arguments[i]
		if arg.Name, arg.Named, err = resolveName(payload, off); err != nil {
			return nil, errors.Wrapf(err, "argument %d", i)
		}
	}
	for i, off := range outNames {
		out := &p.Outputs[i]
		if out.Name, out.Named, err = resolveName(payload, off); err != nil {
			return nil, errors.Wrapf(err, "output %d", i)
		}
	}

	if r.pos != len(r.buf) {
		return nil, errors.Wrapf(ErrExcessBytes, "%d trailing bytes", len(r.buf)-r.pos)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// resolveName extracts the NUL-terminated name at the given byte offset
// of the string payload.
func resolveName(payload []byte, offset uint32) (string, bool, error) {
	if offset == unnamedOffset {
		return "", false, nil
	}
	if int(offset) >= len(payload) {
		return "", false, errors.Wrapf(ErrInvalidIndex, "name offset %d", offset)
	}
	end := int(offset)
	for end < len(payload) && payload[end] != 0 {
		end++
	}
	if end == len(payload) {
		return "", false, errors.Wrap(ErrInvalidName, "unterminated name")
	}
	name := payload[offset:end]
	if !utf8.Valid(name) {
		return "", false, ErrInvalidName
	}
	return string(name), true, nil
}

// stringTable lays out the string section payload: names are emitted in
// first-reference order (arguments, then outputs) with identical names
// sharing a single entry, leaving no dead space.
func (p *Program) stringTable() ([]byte, map[string]uint32) {
	offsets := make(map[string]uint32)
	var payload []byte
	add := func(name string, named bool) {
		if !named {
			return
		}
		if _, ok := offsets[name]; ok {
			return
		}
		offsets[name] = uint32(len(payload))
		payload = append(payload, name...)
		payload = append(payload, 0)
	}
	for _, arg := range p.Arguments {
		add(arg.Name, arg.Named)
	}
	for _, out := range p.Outputs {
		add(out.Name, out.Named)
	}
	return payload, offsets
}

type writer struct {
	buf []byte
}

func (w *writer) u32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) f32(v Float) {
	w.u32(math.Float32bits(v))
}

// Encode serializes the program back to its on-disk form. Re-encoding a
// parsed program reproduces the input bytes exactly when the input's
// string section had no dead space and held each name once, in
// first-reference order (arguments, then outputs). Any other string
// section layout is re-encoded in that order, so its bytes differ.
func (p *Program) Encode() []byte {
	payload, offsets := p.stringTable()
	nameOffset := func(name string, named bool) uint32 {
		if !named {
			return unnamedOffset
		}
		return offsets[name]
	}

	w := &writer{buf: make([]byte, 0, p.FileSize())}
	w.buf = append(w.buf, magicBytes[:]...)

	w.u32(uint32(len(p.Arguments)))
	for _, arg := range p.Arguments {
		w.u32(nameOffset(arg.Name, arg.Named))
		w.f32(arg.Value.X)
		w.f32(arg.Value.Y)
		w.f32(arg.Min.X)
		w.f32(arg.Max.X)
		w.f32(arg.Min.Y)
		w.f32(arg.Max.Y)
	}

	w.u32(uint32(len(p.Instructions)))
	for _, ins := range p.Instructions {
		w.u32(uint32(ins.Operation))
		w.u32(ins.Operands[0])
		w.u32(ins.Operands[1])
		w.u32(ins.Operands[2])
	}

	w.u32(uint32(len(p.Outputs)))
	for _, out := range p.Outputs {
		w.u32(nameOffset(out.Name, out.Named))
		w.u32(out.Address)
	}

	w.u32(uint32(len(p.Triangles)))
	for _, t := range p.Triangles {
		w.u32(t.Points[0])
		w.u32(t.Points[1])
		w.u32(t.Points[2])
		w.u32(t.Colors[0][0])
		w.u32(t.Colors[0][1])
		w.u32(t.Colors[1][0])
		w.u32(t.Colors[1][1])
		w.u32(t.Colors[2][0])
		w.u32(t.Colors[2][1])
	}

	w.u32(uint32(len(p.Arcs)))
	for _, a := range p.Arcs {
		w.u32(a.StartPoint)
		w.u32(a.Center)
		w.u32(a.Deltas)
	}

	w.u32(uint32(len(p.CubicCurves)))
	for _, c := range p.CubicCurves {
		for _, pt := range c.Points {
			w.u32(pt)
		}
	}

	w.u32(uint32(len(p.QuadraticCurves)))
	for _, c := range p.QuadraticCurves {
		for _, pt := range c.Points {
			w.u32(pt)
		}
	}

	w.u32(uint32(len(p.Lines)))
	for _, l := range p.Lines {
		w.u32(l.Points[0])
		w.u32(l.Points[1])
	}

	w.u32(uint32(len(p.Strokers)))
	for _, s := range p.Strokers {
		w.u32(s.Pattern)
		w.u32(s.Width)
		w.u32(s.Color[0])
		w.u32(s.Color[1])
	}

	w.u32(uint32(len(p.Steps)))
	for _, s := range p.Steps {
		w.u32(uint32(s.Type))
		w.u32(s.Index)
	}

	w.u32(uint32(len(p.Paths)))
	for _, s := range p.Paths {
		w.u32(s.Offset)
		w.u32(s.Count)
	}

	w.u32(uint32(len(p.TriangleIndexes)))
	for _, ti := range p.TriangleIndexes {
		w.u32(ti)
	}

	w.u32(uint32(len(p.Backgrounds)))
	for _, s := range p.Backgrounds {
		w.u32(s.Offset)
		w.u32(s.Count)
	}

	w.u32(uint32(len(p.RenderingSteps)))
	for _, rs := range p.RenderingSteps {
		w.u32(uint32(rs.Kind))
		w.u32(rs.Path)
		w.u32(rs.Target)
	}

	w.u32(uint32(len(payload)))
	w.buf = append(w.buf, payload...)

	return w.buf
}

// FileSize returns the exact byte length Encode will produce.
func (p *Program) FileSize() int {
	u32s := 1 + len(p.Arguments)*7
	u32s += 1 + len(p.Instructions)*4
	u32s += 1 + len(p.Outputs)*2
	u32s += 1 + len(p.Triangles)*9
	u32s += 1 + len(p.Arcs)*3
	u32s += 1 + len(p.CubicCurves)*4
	u32s += 1 + len(p.QuadraticCurves)*3
	u32s += 1 + len(p.Lines)*2
	u32s += 1 + len(p.Strokers)*4
	u32s += 1 + len(p.Steps)*2
	u32s += 1 + len(p.Paths)*2
	u32s += 1 + len(p.TriangleIndexes)
	u32s += 1 + len(p.Backgrounds)*2
	u32s += 1 + len(p.RenderingSteps)*3
	u32s++ // string section length

	payload, _ := p.stringTable()
	return len(magicBytes) + u32s*4 + len(payload)
}
