// Package imop implements the composition operations used for mixing a
// graphic element with its backdrop through an 8-bit coverage mask.
// Out of the Porter-Duff catalogue the renderer needs exactly two
// operations: an opaque write, where the source scaled by the coverage
// replaces the destination, and source-over-destination, where the
// source alpha is modulated by the coverage before the blend.
package imop

const (
	Copy    = "copy"
	SrcOver = "src_over"
)

// Pixel is a color sample in RGBA8 order.
type Pixel struct {
	R, G, B, A uint8
}

// Composite holds the active and all the supported composition operations.
type Composite struct {
	currentOp string
	ops       []string
}

// InitOp initializes a new composition operation.
func InitOp() *Composite {
	return &Composite{
		currentOp: Copy,
		ops: []string{
			Copy,
			SrcOver,
		},
	}
}

// Set changes the current composition operation.
func (op *Composite) Set(cop string) {
	for _, have := range op.ops {
		if have == cop {
			op.currentOp = cop
			return
		}
	}
}

// Get returns the active composition operation.
func (op *Composite) Get() string {
	return op.currentOp
}

// BlendPixel composes the source pixel into dst at byte offset i through
// the mask coverage value. A fully opaque source under full coverage is
// written verbatim in both operations.
func (op *Composite) BlendPixel(dst []uint8, i int, src Pixel, coverage uint8) {
	if src.A == 255 && coverage == 255 {
		dst[i+0] = src.R
		dst[i+1] = src.G
		dst[i+2] = src.B
		dst[i+3] = src.A
		return
	}

	srcAlpha := uint32(src.A) * uint32(coverage) / 255
	dstAlpha := 255 - srcAlpha

	if op.currentOp == SrcOver {
		blend := func(s uint8, d *uint8) {
			*d = uint8((uint32(s)*srcAlpha + uint32(*d)*dstAlpha) / 255)
		}
		blend(src.R, &dst[i+0])
		blend(src.G, &dst[i+1])
		blend(src.B, &dst[i+2])
		blend(src.A, &dst[i+3])
		return
	}

	cov := uint32(coverage)
	dst[i+0] = uint8(uint32(src.R) * cov / 255)
	dst[i+1] = uint8(uint32(src.G) * cov / 255)
	dst[i+2] = uint8(uint32(src.B) * cov / 255)
	dst[i+3] = uint8(uint32(src.A) * cov / 255)
}
