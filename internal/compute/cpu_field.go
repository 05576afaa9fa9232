package compute

import "math"

type cpuField struct {
	meta    Field
	sampler Sampler
	f32     []float32
	u8      []uint8
}

func (f *cpuField) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.meta.Width && y < f.meta.Height
}

func (f *cpuField) loadF(x, y int) [4]float32 {
	var v [4]float32
	n := f.meta.Format.Channels()
	i := (y*f.meta.Width + x) * n
	copy(v[:n], f.f32[i:i+n])
	return v
}

func (f *cpuField) storeF(x, y int, v [4]float32) {
	n := f.meta.Format.Channels()
	i := (y*f.meta.Width + x) * n
	copy(f.f32[i:i+n], v[:n])
}

// texel returns one cell as a texture read would: normalised for RGBA8,
// raw values otherwise.
func (f *cpuField) texel(x, y int) [4]float32 {
	if f.f32 != nil {
		return f.loadF(x, y)
	}
	i := (y*f.meta.Width + x) * 4
	v := [4]float32{float32(f.u8[i]), float32(f.u8[i+1]), float32(f.u8[i+2]), float32(f.u8[i+3])}
	if f.meta.Format == RGBA8 {
		for c := range v {
			v[c] /= 255
		}
	}
	return v
}

func (f *cpuField) sample(u, v float32) [4]float32 {
	w, h := f.meta.Width, f.meta.Height
	if f.sampler.Filter == Nearest {
		x := wrapCoord(int(math.Floor(float64(u*float32(w)))), w, f.sampler.Wrap)
		y := wrapCoord(int(math.Floor(float64(v*float32(h)))), h, f.sampler.Wrap)
		return f.texel(x, y)
	}

	// texel centres sit at half-integers
	fx := u*float32(w) - 0.5
	fy := v*float32(h) - 0.5
	x0 := int(math.Floor(float64(fx)))
	y0 := int(math.Floor(float64(fy)))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	xa, xb := wrapCoord(x0, w, f.sampler.Wrap), wrapCoord(x0+1, w, f.sampler.Wrap)
	ya, yb := wrapCoord(y0, h, f.sampler.Wrap), wrapCoord(y0+1, h, f.sampler.Wrap)

	c00, c10 := f.texel(xa, ya), f.texel(xb, ya)
	c01, c11 := f.texel(xa, yb), f.texel(xb, yb)

	var out [4]float32
	for c := 0; c < 4; c++ {
		top := c00[c] + (c10[c]-c00[c])*tx
		bottom := c01[c] + (c11[c]-c01[c])*tx
		out[c] = top + (bottom-top)*ty
	}
	return out
}

// wrapCoord maps an integer texel coordinate into [0, n) according to mode.
func wrapCoord(i, n int, mode Wrap) int {
	switch mode {
	case Repeat:
		i %= n
		if i < 0 {
			i += n
		}
		return i
	case MirroredRepeat:
		period := 2 * n
		i %= period
		if i < 0 {
			i += period
		}
		if i >= n {
			i = period - 1 - i
		}
		return i
	}
	return clampInt(i, 0, n-1)
}

// Mirror folds a cell coordinate into [0, n) the way MirroredRepeat addressing does.
func Mirror(i, n int) int { return wrapCoord(i, n, MirroredRepeat) }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
