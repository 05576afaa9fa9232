package compute

// Kernel is the CPU implementation of a named program.
//
// Images declares the access each image slot is used with, in slot order,
// the way a GLSL layout qualifier would. Textures is the number of texture
// units read by a draw program.
type Kernel struct {
	Images   []Access
	Textures int
	Draw     bool
	// Serial kernels scatter into cells other than their own and run on one goroutine.
	Serial bool
	Run    func(inv *Invocation, x, y int)
}

// KernelSet maps program names to CPU kernels.
type KernelSet map[string]Kernel

type uniform struct {
	f [4]float32
	i [2]int32
}

// Invocation is the view a CPU kernel has of the device during one dispatch or draw.
type Invocation struct {
	dev      *CPUBackend
	prog     Program
	images   []*binding
	textures []*cpuField
	uniforms map[string]uniform
	width    int
	height   int
}

type binding struct {
	field  *cpuField
	access Access
}

// Size returns the dispatch domain, or the framebuffer size for a draw.
func (inv *Invocation) Size() (int, int) { return inv.width, inv.height }

func (inv *Invocation) Float(name string) float32 { return inv.uniforms[name].f[0] }

func (inv *Invocation) Int(name string) int32 { return inv.uniforms[name].i[0] }

func (inv *Invocation) Int2(name string) (int32, int32) {
	u := inv.uniforms[name]
	return u.i[0], u.i[1]
}

func (inv *Invocation) Vec3(name string) [3]float32 {
	u := inv.uniforms[name]
	return [3]float32{u.f[0], u.f[1], u.f[2]}
}

func (inv *Invocation) image(slot int, want Access) *cpuField {
	b := inv.images[slot]
	if b == nil {
		return nil
	}
	if !b.access.Allows(want) {
		inv.dev.record(&SlotError{Program: inv.prog.Name, Slot: slot, Field: b.field.meta.String(), Wrapped: ErrAccessMode})
		return nil
	}
	return b.field
}

// Load reads a float cell. Out-of-range coordinates read as zero.
func (inv *Invocation) Load(slot, x, y int) [4]float32 {
	f := inv.image(slot, Read)
	if f == nil || f.f32 == nil || !f.inside(x, y) {
		return [4]float32{}
	}
	return f.loadF(x, y)
}

// LoadScalar is Load for single channel fields.
func (inv *Invocation) LoadScalar(slot, x, y int) float32 {
	return inv.Load(slot, x, y)[0]
}

// Store writes a float cell. Out-of-range writes are dropped.
func (inv *Invocation) Store(slot, x, y int, v [4]float32) {
	f := inv.image(slot, Write)
	if f == nil || f.f32 == nil || !f.inside(x, y) {
		return
	}
	f.storeF(x, y, v)
}

func (inv *Invocation) StoreScalar(slot, x, y int, v float32) {
	inv.Store(slot, x, y, [4]float32{v})
}

// LoadU reads an unsigned integer cell.
func (inv *Invocation) LoadU(slot, x, y int) [4]uint32 {
	f := inv.image(slot, Read)
	if f == nil || f.u8 == nil || !f.inside(x, y) {
		return [4]uint32{}
	}
	i := (y*f.meta.Width + x) * 4
	return [4]uint32{uint32(f.u8[i]), uint32(f.u8[i+1]), uint32(f.u8[i+2]), uint32(f.u8[i+3])}
}

// StoreU writes an unsigned integer cell, truncating each channel to the format width.
func (inv *Invocation) StoreU(slot, x, y int, v [4]uint32) {
	f := inv.image(slot, Write)
	if f == nil || f.u8 == nil || !f.inside(x, y) {
		return
	}
	i := (y*f.meta.Width + x) * 4
	for c := 0; c < 4; c++ {
		f.u8[i+c] = uint8(v[c])
	}
}

// Sample reads a texture unit at normalised coordinates using the field's sampler.
func (inv *Invocation) Sample(unit int, u, v float32) [4]float32 {
	if unit >= len(inv.textures) || inv.textures[unit] == nil {
		return [4]float32{}
	}
	return inv.textures[unit].sample(u, v)
}

// Fetch reads a texel of a texture unit without filtering; coordinates are clamped.
func (inv *Invocation) Fetch(unit, x, y int) [4]float32 {
	if unit >= len(inv.textures) || inv.textures[unit] == nil {
		return [4]float32{}
	}
	f := inv.textures[unit]
	return f.texel(clampInt(x, 0, f.meta.Width-1), clampInt(y, 0, f.meta.Height-1))
}

// Emit writes a colour to the framebuffer during a draw.
func (inv *Invocation) Emit(x, y int, c [4]float32) {
	inv.dev.frame.Set(x, y, toColor(c))
}

// TextureSize returns the size of the field bound to a texture unit.
func (inv *Invocation) TextureSize(unit int) (int, int) {
	if unit >= len(inv.textures) || inv.textures[unit] == nil {
		return 0, 0
	}
	f := inv.textures[unit]
	return f.meta.Width, f.meta.Height
}
