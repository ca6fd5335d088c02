package railway

import (
	"math"

	"github.com/railwayfile/railway/imop"
)

// shadedTriangle caches everything the per-pixel inside test needs: the
// vertex positions and the two edge vectors pre-divided by the signed
// parallelogram area. A degenerate triangle divides by zero here and
// produces NaN weights, which fail the inside test on every pixel.
type shadedTriangle struct {
	p [3]Couple
	v [2]Couple
}

func newShadedTriangle(p [3]Couple) shadedTriangle {
	v0 := Couple{p[1].X - p[0].X, p[1].Y - p[0].Y}
	v1 := Couple{p[2].X - p[0].X, p[2].Y - p[0].Y}
	den := 1.0 / (v0.X*v1.Y - v1.X*v0.Y)
	v0 = Couple{v0.X * den, v0.Y * den}
	v1 = Couple{v1.X * den, v1.Y * den}
	return shadedTriangle{p: p, v: [2]Couple{v0, v1}}
}

// weights returns the barycentric weights of pt and whether the point is
// inside the triangle. The test uses the IEEE sign, so a vertex exactly
// on an edge is included; the NaN weights of a degenerate triangle test
// outside everywhere.
func (t *shadedTriangle) weights(pt Couple) (u, v, w Float, inside bool) {
	dx := pt.X - t.p[0].X
	dy := pt.Y - t.p[0].Y
	v = dx*t.v[1].Y - dy*t.v[1].X
	w = dy*t.v[0].X - dx*t.v[0].Y
	u = 1.0 - v - w
	inside = signPositive(u) && signPositive(v) && signPositive(w)
	return u, v, w, inside
}

func signPositive(f Float) bool {
	return !math.Signbit(float64(f)) && !math.IsNaN(float64(f))
}

// triangleColors caches the three vertex colors scaled to [0, 255] and a
// flag marking triangles whose vertices all share one color, which skips
// the interpolation entirely.
type triangleColors struct {
	c     [3][4]Float
	solid bool
}

func newTriangleColors(c0, c1, c2 [4]Float) triangleColors {
	return triangleColors{
		c:     [3][4]Float{c0, c1, c2},
		solid: c0 == c1 && c0 == c2,
	}
}

// resolveColor reads a color address pair off the stack and scales the
// channels to [0, 255].
func resolveColor(stack []Couple, c ColorAddress) [4]Float {
	rg := stack[c[0]]
	ba := stack[c[1]]
	return [4]Float{rg.X * 255, rg.Y * 255, ba.X * 255, ba.Y * 255}
}

// colorAt interpolates the vertex colors with the given barycentric
// weights and rounds to 8 bits. Solid triangles return the first vertex
// color truncated.
func (tc *triangleColors) colorAt(u, v, w Float) imop.Pixel {
	if tc.solid {
		return imop.Pixel{
			R: truncU8(tc.c[0][0]),
			G: truncU8(tc.c[0][1]),
			B: truncU8(tc.c[0][2]),
			A: truncU8(tc.c[0][3]),
		}
	}
	m := tc.c
	return imop.Pixel{
		R: roundU8(m[0][0]*u + m[1][0]*v + m[2][0]*w),
		G: roundU8(m[0][1]*u + m[1][1]*v + m[2][1]*w),
		B: roundU8(m[0][2]*u + m[1][2]*v + m[2][2]*w),
		A: roundU8(m[0][3]*u + m[1][3]*v + m[2][3]*w),
	}
}

func truncU8(v Float) uint8 {
	if !(v > 0) {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func roundU8(v Float) uint8 {
	return truncU8(v + 0.5)
}
