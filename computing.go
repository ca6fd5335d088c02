package railway

import "math"

// Argument is an externally settable input of the value program. Its
// default value seeds stack slot i (in table order) when a render session
// is created. The range is advisory, it is stored and round-tripped but
// never enforced.
type Argument struct {
	Name  string
	Named bool
	Value Couple
	Min   Couple
	Max   Couple
}

// Output gives a name to a stack address for external read-back.
type Output struct {
	Name    string
	Named   bool
	Address Address
}

// Operation is the opcode of an instruction. The numeric encoding is
// fixed, new operations may only be appended.
type Operation uint32

const (
	Add2 Operation = iota
	Subtract2
	Multiply2
	Divide2
	Select2
	EachX2
	EachY2
	Polar1
	Cartesian1
	Cartesian2
	Inside3
	Swap1
	Adjusted3
	Clamp3

	numOperations
)

// operandCounts holds the arity of each operation. Unused operands are
// still read from the stack, their value is simply discarded.
var operandCounts = [numOperations]int{2, 2, 2, 2, 2, 2, 2, 1, 1, 2, 3, 1, 3, 3}

// Operands returns how many of the three operand slots the operation uses.
func (op Operation) Operands() int {
	return operandCounts[op]
}

// String returns the operation mnemonic.
func (op Operation) String() string {
	switch op {
	case Add2:
		return "Add2"
	case Subtract2:
		return "Subtract2"
	case Multiply2:
		return "Multiply2"
	case Divide2:
		return "Divide2"
	case Select2:
		return "Select2"
	case EachX2:
		return "EachX2"
	case EachY2:
		return "EachY2"
	case Polar1:
		return "Polar1"
	case Cartesian1:
		return "Cartesian1"
	case Cartesian2:
		return "Cartesian2"
	case Inside3:
		return "Inside3"
	case Swap1:
		return "Swap1"
	case Adjusted3:
		return "Adjusted3"
	case Clamp3:
		return "Clamp3"
	}
	return "Unknown"
}

// Instruction applies an operation to three operand addresses. Its result
// occupies stack slot len(arguments) + instruction index.
type Instruction struct {
	Operation Operation
	Operands  [3]Address
}

// NewInstruction builds an instruction from an operation and its operands.
func NewInstruction(op Operation, a, b, c Address) Instruction {
	return Instruction{Operation: op, Operands: [3]Address{a, b, c}}
}

func cartesian1(a Couple) Couple {
	sin, cos := math.Sincos(float64(a.X))
	return Couple{X: Float(cos) * a.Y, Y: -Float(sin) * a.Y}
}

func clamp(v, lo, hi Float) Float {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}

// Compute evaluates the instruction list over the stack in a single
// forward pass. Instructions can only reference earlier slots, so no
// ordering work is needed. When a change bitset is supplied, every slot
// whose new value differs from its previous content is flagged.
//
// Division by zero and other IEEE edge cases propagate through the stack
// silently; they are never an error.
func (p *Program) Compute(stack []Couple, changes []bool) {
	base := len(p.Arguments)
	for i, ins := range p.Instructions {
		a := stack[ins.Operands[0]]
		b := stack[ins.Operands[1]]
		c := stack[ins.Operands[2]]

		var v Couple
		switch ins.Operation {
		case Add2:
			v = Couple{a.X + b.X, a.Y + b.Y}
		case Subtract2:
			v = Couple{a.X - b.X, a.Y - b.Y}
		case Multiply2:
			v = Couple{a.X * b.X, a.Y * b.Y}
		case Divide2:
			v = Couple{a.X / b.X, a.Y / b.Y}
		case Select2:
			v = Couple{a.X, b.Y}
		case EachX2:
			v = Couple{a.X, b.X}
		case EachY2:
			v = Couple{a.Y, b.Y}
		case Polar1:
			v = Couple{
				Float(math.Atan2(float64(-a.Y), float64(a.X))),
				Float(math.Sqrt(float64(a.X*a.X + a.Y*a.Y))),
			}
		case Cartesian1:
			v = cartesian1(a)
		case Cartesian2:
			ca := cartesian1(a)
			v = Couple{ca.X + b.X, ca.Y + b.Y}
		case Inside3:
			// All four strict orderings must hold; NaN comparisons fail
			// and fall through to the outside branch.
			if a.X > b.X && a.Y > b.Y && a.X < c.X && a.Y < c.Y {
				v = Couple{1, 0}
			} else {
				v = Couple{0, 1}
			}
		case Swap1:
			v = Couple{a.Y, a.X}
		case Adjusted3:
			v = Couple{a.X*c.X + b.X*c.Y, a.Y*c.X + b.Y*c.Y}
		case Clamp3:
			v = Couple{clamp(a.X, b.X, c.X), clamp(a.Y, b.Y, c.Y)}
		}

		slot := base + i
		if changes != nil && stack[slot] != v {
			changes[slot] = true
		}
		stack[slot] = v
	}
}
