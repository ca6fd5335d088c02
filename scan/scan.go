// Package scan is the reference mask rasterizer: it turns a closed
// polyline into an 8-bit coverage mask, either filled with the non-zero
// winding rule or stroked with a given width, using SSAA×SSAA
// super-sampling. Embedders with their own rasterizer can substitute it
// through the railway.Rasterizer interface.
package scan

import (
	"sort"

	"github.com/railwayfile/railway"
	"github.com/railwayfile/railway/utils"
)

// DefaultSSAA is the supersampling factor used by the command line tools.
const DefaultSSAA = 6

// Rasterizer rasterizes polylines into caller-owned coverage masks.
// It keeps a reusable sample accumulator, so a rasterizer must not be
// shared between concurrently running render sessions.
type Rasterizer struct {
	ssaa int
	acc  []uint16
}

type crossing struct {
	x    float32
	wind int
}

// NewRasterizer returns a rasterizer with the given supersampling factor
// per axis. Factors outside [1, 15] are clamped.
func NewRasterizer(ssaa int) *Rasterizer {
	return &Rasterizer{ssaa: utils.Clamp(ssaa, 1, 15)}
}

// SSAA returns the supersampling factor per axis.
func (r *Rasterizer) SSAA() int {
	return r.ssaa
}

// Fill rasterizes the closed polyline with the non-zero winding rule and
// writes per-pixel coverage 0..255 into mask (row-major, stride = width).
func (r *Rasterizer) Fill(polyline []railway.Couple, mask []uint8, width, height int) {
	r.reset(width * height)
	s := r.ssaa

	var crossings []crossing
	for sy := 0; sy < height*s; sy++ {
		ys := (float32(sy) + 0.5) / float32(s)
		crossings = crossings[:0]
		for i := 1; i < len(polyline); i++ {
			a, b := polyline[i-1], polyline[i]
			if a.Y == b.Y {
				continue
			}
			wind := 1
			y0, y1 := a.Y, b.Y
			if y0 > y1 {
				y0, y1 = y1, y0
				wind = -1
			}
			if ys < y0 || ys >= y1 {
				continue
			}
			x := a.X + (ys-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			crossings = append(crossings, crossing{x: x, wind: wind})
		}
		if len(crossings) == 0 {
			continue
		}
		sort.Slice(crossings, func(i, j int) bool {
			return crossings[i].x < crossings[j].x
		})

		// between two consecutive crossings the winding number is
		// constant; the span is inside whenever it is non-zero
		wind := 0
		prevX := float32(0)
		row := (sy / s) * width
		for _, c := range crossings {
			if wind != 0 {
				r.addSpan(row, prevX, c.x, width)
			}
			wind += c.wind
			prevX = c.x
		}
	}

	r.resolve(mask, width*height)
}

// addSpan accumulates sample hits for the continuous span [xa, xb) on one
// sample row.
func (r *Rasterizer) addSpan(row int, xa, xb float32, width int) {
	s := r.ssaa
	// first and last sample column covered by the span
	k0 := ceil(xa*float32(s) - 0.5)
	k1 := ceil(xb*float32(s)-0.5) - 1
	k0 = utils.Max(k0, 0)
	k1 = utils.Min(k1, width*s-1)
	if k0 > k1 {
		return
	}
	for p := k0 / s; p <= k1/s; p++ {
		lo := utils.Max(k0, p*s)
		hi := utils.Min(k1, p*s+s-1)
		r.acc[row+p] += uint16(hi - lo + 1)
	}
}

// Stroke rasterizes the outline of the polyline with the given stroke
// width. Coverage of overlapping segments is combined with max, which is
// exact everywhere except deep inside joints.
func (r *Rasterizer) Stroke(polyline []railway.Couple, mask []uint8, width, height int, strokeWidth float32) {
	s := r.ssaa
	half := strokeWidth / 2
	halfSq := half * half
	inv := 1.0 / float32(s)

	for i := 1; i < len(polyline); i++ {
		a, b := polyline[i-1], polyline[i]
		abx := b.X - a.X
		aby := b.Y - a.Y
		lenSq := abx*abx + aby*aby

		x0 := utils.Max(floor(utils.Min(a.X, b.X)-half), 0)
		x1 := utils.Min(ceil(utils.Max(a.X, b.X)+half), width-1)
		y0 := utils.Max(floor(utils.Min(a.Y, b.Y)-half), 0)
		y1 := utils.Min(ceil(utils.Max(a.Y, b.Y)+half), height-1)

		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				hits := 0
				for sy := 0; sy < s; sy++ {
					qy := float32(y) + (float32(sy)+0.5)*inv
					for sx := 0; sx < s; sx++ {
						qx := float32(x) + (float32(sx)+0.5)*inv

						// project q on the segment and clamp
						dx := qx - a.X
						dy := qy - a.Y
						t := float32(0)
						if lenSq > 0 {
							t = utils.Clamp((dx*abx+dy*aby)/lenSq, 0, 1)
						}
						px := dx - t*abx
						py := dy - t*aby
						if px*px+py*py <= halfSq {
							hits++
						}
					}
				}
				if hits == 0 {
					continue
				}
				cov := uint8(hits * 255 / (s * s))
				idx := y*width + x
				mask[idx] = utils.Max(mask[idx], cov)
			}
		}
	}
}

func (r *Rasterizer) reset(size int) {
	if cap(r.acc) < size {
		r.acc = make([]uint16, size)
		return
	}
	r.acc = r.acc[:size]
	for i := range r.acc {
		r.acc[i] = 0
	}
}

func (r *Rasterizer) resolve(mask []uint8, size int) {
	full := uint32(r.ssaa * r.ssaa)
	for i := 0; i < size; i++ {
		mask[i] = uint8(uint32(r.acc[i]) * 255 / full)
	}
}

func floor(v float32) int {
	i := int(v)
	if v < 0 && float32(i) != v {
		i--
	}
	return i
}

func ceil(v float32) int {
	i := int(v)
	if v > 0 && float32(i) != v {
		i++
	}
	return i
}
