package railway

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute_Basic(t *testing.T) {
	assert := assert.New(t)

	b := NewBuilder()
	size := b.Argument("size", NewCouple(200, 200), CZero, NewCouple(4096, 4096))
	topLeft := b.Constant(NewCouple(0.05, 0.05))
	b.Instruction(Multiply2, size, topLeft, 0)
	p, err := b.Program()
	assert.NoError(err)

	stack := p.NewStack()
	p.Compute(stack, nil)

	assert.Equal(NewCouple(10, 10), stack[2])
}

func TestCompute_Deterministic(t *testing.T) {
	assert := assert.New(t)

	b := NewBuilder()
	a := b.Constant(NewCouple(3, -4))
	c := b.Constant(NewCouple(0.5, 2))
	b.Instruction(Add2, a, c, 0)
	b.Instruction(Polar1, a, 0, 0)
	b.Instruction(Divide2, a, c, 0)
	b.Instruction(Adjusted3, a, c, a)
	p, err := b.Program()
	assert.NoError(err)

	first := p.NewStack()
	p.Compute(first, nil)
	second := p.NewStack()
	p.Compute(second, nil)

	assert.Equal(first, second)
}

func TestCompute_Operations(t *testing.T) {
	assert := assert.New(t)

	eval := func(op Operation, values ...Couple) Couple {
		b := NewBuilder()
		var addrs []Address
		for _, v := range values {
			addrs = append(addrs, b.Constant(v))
		}
		for len(addrs) < 3 {
			addrs = append(addrs, addrs[0])
		}
		b.Instruction(op, addrs[0], addrs[1], addrs[2])
		p, err := b.Program()
		assert.NoError(err)

		stack := p.NewStack()
		p.Compute(stack, nil)
		return stack[len(stack)-1]
	}

	assert.Equal(NewCouple(4, 6), eval(Add2, NewCouple(1, 2), NewCouple(3, 4)))
	assert.Equal(NewCouple(-2, -2), eval(Subtract2, NewCouple(1, 2), NewCouple(3, 4)))
	assert.Equal(NewCouple(3, 8), eval(Multiply2, NewCouple(1, 2), NewCouple(3, 4)))
	assert.Equal(NewCouple(2, 3), eval(Divide2, NewCouple(6, 12), NewCouple(3, 4)))
	assert.Equal(NewCouple(1, 4), eval(Select2, NewCouple(1, 2), NewCouple(3, 4)))
	assert.Equal(NewCouple(1, 3), eval(EachX2, NewCouple(1, 2), NewCouple(3, 4)))
	assert.Equal(NewCouple(2, 4), eval(EachY2, NewCouple(1, 2), NewCouple(3, 4)))
	assert.Equal(NewCouple(2, 1), eval(Swap1, NewCouple(1, 2)))
	assert.Equal(NewCouple(5, 11), eval(Adjusted3,
		NewCouple(1, 3), NewCouple(2, 4), NewCouple(1, 2)))
	assert.Equal(NewCouple(2, 3), eval(Clamp3,
		NewCouple(1, 5), NewCouple(2, 0), NewCouple(6, 3)))

	// polar and cartesian are inverses up to the screen-space y flip
	polar := eval(Polar1, NewCouple(3, -4))
	assert.InDelta(5.0, float64(polar.Y), 1e-5)
	assert.InDelta(math.Atan2(4, 3), float64(polar.X), 1e-5)

	cart := eval(Cartesian1, NewCouple(math.Pi/2, 2))
	assert.InDelta(0.0, float64(cart.X), 1e-5)
	assert.InDelta(-2.0, float64(cart.Y), 1e-5)

	cart2 := eval(Cartesian2, NewCouple(0, 2), NewCouple(10, 20))
	assert.InDelta(12.0, float64(cart2.X), 1e-5)
	assert.InDelta(20.0, float64(cart2.Y), 1e-5)
}

func TestCompute_DivisionByZero(t *testing.T) {
	assert := assert.New(t)

	b := NewBuilder()
	a := b.Constant(NewCouple(1, 0))
	z := b.Constant(CZero)
	b.Instruction(Divide2, a, z, 0)
	p, err := b.Program()
	assert.NoError(err)

	stack := p.NewStack()
	p.Compute(stack, nil)

	assert.True(math.IsInf(float64(stack[2].X), 1))
	assert.True(math.IsNaN(float64(stack[2].Y)))
}

func TestCompute_Inside3(t *testing.T) {
	assert := assert.New(t)

	eval := func(pt, lo, hi Couple) Couple {
		b := NewBuilder()
		a := b.Constant(pt)
		l := b.Constant(lo)
		h := b.Constant(hi)
		b.Instruction(Inside3, a, l, h)
		p, err := b.Program()
		assert.NoError(err)

		stack := p.NewStack()
		p.Compute(stack, nil)
		return stack[3]
	}

	inside := NewCouple(1, 0)
	outside := NewCouple(0, 1)

	assert.Equal(inside, eval(NewCouple(1, 1), CZero, NewCouple(2, 2)))
	// the comparison is strict in both axes
	assert.Equal(outside, eval(NewCouple(1, 1), NewCouple(1, 0), NewCouple(2, 2)))
	assert.Equal(outside, eval(NewCouple(2, 1), CZero, NewCouple(2, 2)))
	assert.Equal(outside, eval(NewCouple(3, 1), CZero, NewCouple(2, 2)))
	// NaN comparisons fall through to the outside branch
	nan := Float(math.NaN())
	assert.Equal(outside, eval(NewCouple(nan, 1), CZero, NewCouple(2, 2)))
}

func TestCompute_ChangeTracking(t *testing.T) {
	assert := assert.New(t)

	b := NewBuilder()
	a := b.Argument("input", NewCouple(1, 1), CZero, NewCouple(10, 10))
	c := b.Constant(NewCouple(2, 2))
	b.Instruction(Multiply2, a, c, 0)
	p, err := b.Program()
	assert.NoError(err)

	stack := p.NewStack()
	changes := make([]bool, p.StackSize())
	p.Compute(stack, changes)
	// the result slot went from zero to (2, 2)
	assert.True(changes[2])

	for i := range changes {
		changes[i] = false
	}
	p.Compute(stack, changes)
	// nothing moved, nothing is flagged
	assert.Equal([]bool{false, false, false}, changes)

	stack[0] = NewCouple(3, 3)
	p.Compute(stack, changes)
	assert.True(changes[2])
}
