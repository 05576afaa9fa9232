package compute

import (
	"fmt"
	"image"
	"image/color"
	"runtime"
	"sync"
)

const (
	maxImageSlots   = 8
	maxTextureUnits = 8
)

// CPUBackend executes registered Go kernels on host memory. It is the
// reference device for tests and the terminal preview.
type CPUBackend struct {
	workers  int
	kernels  KernelSet
	fields   map[uint32]*cpuField
	programs map[uint32]Program
	uniforms map[uint32]map[string]uniform
	nextID   uint32

	images   [maxImageSlots]*binding
	textures [maxTextureUnits]*cpuField

	// fields written since the last barrier
	pending map[uint32]bool

	frame *image.RGBA

	errMu sync.Mutex
	errs  []error
}

func NewCPUBackend(kernels KernelSet) *CPUBackend {
	return &CPUBackend{
		workers:  runtime.NumCPU(),
		kernels:  kernels,
		fields:   make(map[uint32]*cpuField),
		programs: make(map[uint32]Program),
		uniforms: make(map[uint32]map[string]uniform),
		pending:  make(map[uint32]bool),
	}
}

// SetWorkers overrides the number of goroutines used per dispatch.
func (c *CPUBackend) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	c.workers = n
}

// SetViewport sizes the framebuffer written by Draw.
func (c *CPUBackend) SetViewport(width, height int) {
	c.frame = image.NewRGBA(image.Rect(0, 0, width, height))
}

// Frame returns the framebuffer written by the most recent Draw.
func (c *CPUBackend) Frame() *image.RGBA { return c.frame }

func (c *CPUBackend) Name() string { return fmt.Sprintf("cpu (%d workers)", c.workers) }

func (c *CPUBackend) Close() {
	c.fields = make(map[uint32]*cpuField)
	c.images = [maxImageSlots]*binding{}
	c.textures = [maxTextureUnits]*cpuField{}
}

func (c *CPUBackend) record(err error) {
	c.errMu.Lock()
	c.errs = append(c.errs, err)
	c.errMu.Unlock()
}

func (c *CPUBackend) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	if len(c.errs) == 0 {
		return nil
	}
	err := c.errs[0]
	c.errs = c.errs[:0]
	return err
}

func (c *CPUBackend) newField(width, height int, format Format) (*cpuField, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadSize, width, height)
	}
	c.nextID++
	f := &cpuField{meta: Field{ID: c.nextID, Width: width, Height: height, Format: format}}
	switch format {
	case R32F, RGBA32F:
		f.f32 = make([]float32, width*height*format.Channels())
	case RGBA8UI, RGBA8:
		f.u8 = make([]uint8, width*height*4)
	default:
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, format)
	}
	if format.Integer() {
		f.sampler.Filter = Nearest
	}
	c.fields[f.meta.ID] = f
	return f, nil
}

// CreateField allocates a zero-initialised field.
func (c *CPUBackend) CreateField(width, height int, format Format) (Field, error) {
	f, err := c.newField(width, height, format)
	if err != nil {
		return Field{}, err
	}
	return f.meta, nil
}

func (c *CPUBackend) LoadImage(path string, s Sampler) (Field, error) {
	img, err := DecodeImage(path)
	if err != nil {
		return Field{}, err
	}
	return c.ImageField(img, s)
}

// ImageField uploads img as an RGBA8 field.
func (c *CPUBackend) ImageField(img image.Image, s Sampler) (Field, error) {
	rgba := toRGBA(img)
	b := rgba.Bounds()
	f, err := c.newField(b.Dx(), b.Dy(), RGBA8)
	if err != nil {
		return Field{}, err
	}
	for y := 0; y < b.Dy(); y++ {
		copy(f.u8[y*b.Dx()*4:(y+1)*b.Dx()*4], rgba.Pix[y*rgba.Stride:y*rgba.Stride+b.Dx()*4])
	}
	f.sampler = s
	return f.meta, nil
}

func (c *CPUBackend) SetSampler(field Field, s Sampler) error {
	f, ok := c.fields[field.ID]
	if !ok {
		return fmt.Errorf("%w: unknown field %v", ErrBadFormat, field)
	}
	if f.meta.Format.Integer() && s.Filter == Linear {
		return fmt.Errorf("%w: integer field %v cannot be filtered", ErrBadFormat, field)
	}
	f.sampler = s
	return nil
}

func (c *CPUBackend) lookup(field Field) *cpuField {
	f, ok := c.fields[field.ID]
	if !ok {
		return nil
	}
	// keep the caller's label for diagnostics
	if field.Label != "" {
		f.meta.Label = field.Label
	}
	return f
}

func (c *CPUBackend) Compile(name string) (Program, error) {
	k, ok := c.kernels[name]
	if !ok {
		return Program{}, fmt.Errorf("%w: %s", ErrUnknownProgram, name)
	}
	if k.Run == nil {
		return Program{}, fmt.Errorf("%w: %s has no entry point", ErrCompile, name)
	}
	if len(k.Images) > maxImageSlots || k.Textures > maxTextureUnits {
		return Program{}, fmt.Errorf("%w: %s uses too many slots", ErrCompile, name)
	}
	c.nextID++
	p := Program{ID: c.nextID, Name: name}
	c.programs[p.ID] = p
	c.uniforms[p.ID] = make(map[string]uniform)
	return p, nil
}

func (c *CPUBackend) BindImage(field Field, slot int, access Access) {
	if slot < 0 || slot >= maxImageSlots {
		c.record(&SlotError{Program: "bind", Slot: slot, Wrapped: ErrUnbound})
		return
	}
	f := c.lookup(field)
	if f == nil {
		c.images[slot] = nil
		return
	}
	c.images[slot] = &binding{field: f, access: access}
}

func (c *CPUBackend) BindTexture(field Field, unit int) {
	if unit < 0 || unit >= maxTextureUnits {
		c.record(&SlotError{Program: "bind", Slot: unit, Wrapped: ErrUnbound})
		return
	}
	c.textures[unit] = c.lookup(field)
}

func (c *CPUBackend) setUniform(p Program, name string, u uniform) {
	set, ok := c.uniforms[p.ID]
	if !ok {
		c.record(fmt.Errorf("%w: uniform %s on unknown program %d", ErrUnknownProgram, name, p.ID))
		return
	}
	set[name] = u
}

func (c *CPUBackend) SetFloat(p Program, name string, v float32) {
	c.setUniform(p, name, uniform{f: [4]float32{v}})
}

func (c *CPUBackend) SetInt(p Program, name string, v int32) {
	c.setUniform(p, name, uniform{i: [2]int32{v}})
}

func (c *CPUBackend) SetInt2(p Program, name string, x, y int32) {
	c.setUniform(p, name, uniform{i: [2]int32{x, y}})
}

func (c *CPUBackend) SetVec3(p Program, name string, x, y, z float32) {
	c.setUniform(p, name, uniform{f: [4]float32{x, y, z}})
}

func (c *CPUBackend) Barrier() {
	for id := range c.pending {
		delete(c.pending, id)
	}
}

// prepare resolves the slots a kernel declares and checks them against the
// current bindings and pending writes.
func (c *CPUBackend) prepare(p Program, k Kernel) (*Invocation, bool) {
	inv := &Invocation{
		dev:      c,
		prog:     p,
		images:   make([]*binding, len(k.Images)),
		textures: make([]*cpuField, k.Textures),
		uniforms: c.uniforms[p.ID],
	}
	ok := true
	for slot, want := range k.Images {
		b := c.images[slot]
		if b == nil {
			c.record(&SlotError{Program: p.Name, Slot: slot, Wrapped: ErrUnbound})
			ok = false
			continue
		}
		if !b.access.Allows(want) {
			c.record(&SlotError{Program: p.Name, Slot: slot, Field: b.field.meta.String(), Wrapped: ErrAccessMode})
			ok = false
			continue
		}
		if c.pending[b.field.meta.ID] {
			c.record(&SlotError{Program: p.Name, Slot: slot, Field: b.field.meta.String(), Wrapped: ErrMissingBarrier})
		}
		inv.images[slot] = &binding{field: b.field, access: want}
	}
	for unit := 0; unit < k.Textures; unit++ {
		f := c.textures[unit]
		if f == nil {
			c.record(&SlotError{Program: p.Name, Slot: unit, Wrapped: ErrUnbound})
			ok = false
			continue
		}
		if c.pending[f.meta.ID] {
			c.record(&SlotError{Program: p.Name, Slot: unit, Field: f.meta.String(), Wrapped: ErrMissingBarrier})
		}
		inv.textures[unit] = f
	}
	return inv, ok
}

func (c *CPUBackend) kernel(p Program) (Kernel, bool) {
	if _, ok := c.programs[p.ID]; !ok {
		c.record(fmt.Errorf("%w: program %d", ErrUnknownProgram, p.ID))
		return Kernel{}, false
	}
	return c.kernels[p.Name], true
}

// Dispatch runs the kernel over an x*y domain. z layers beyond the first are
// not used by 2D fields and are ignored.
func (c *CPUBackend) Dispatch(p Program, x, y, z int) {
	k, ok := c.kernel(p)
	if !ok {
		return
	}
	if k.Draw {
		c.record(fmt.Errorf("%w: %s is a render program", ErrCompile, p.Name))
		return
	}
	inv, ok := c.prepare(p, k)
	if !ok {
		return
	}
	inv.width, inv.height = x, y
	if k.Serial {
		c.runRows(inv, k, 0, y)
	} else {
		c.parallelRows(inv, k, y)
	}
	for slot, want := range k.Images {
		if want.Writes() {
			c.pending[inv.images[slot].field.meta.ID] = true
		}
	}
}

// Draw runs a render kernel once per framebuffer pixel.
func (c *CPUBackend) Draw(p Program) {
	k, ok := c.kernel(p)
	if !ok {
		return
	}
	if !k.Draw {
		c.record(fmt.Errorf("%w: %s is not a render program", ErrCompile, p.Name))
		return
	}
	if c.frame == nil {
		c.record(fmt.Errorf("%w: no viewport", ErrBadSize))
		return
	}
	inv, ok := c.prepare(p, k)
	if !ok {
		return
	}
	b := c.frame.Bounds()
	inv.width, inv.height = b.Dx(), b.Dy()
	c.parallelRows(inv, k, inv.height)
}

func (c *CPUBackend) runRows(inv *Invocation, k Kernel, y0, y1 int) {
	for y := y0; y < y1; y++ {
		for x := 0; x < inv.width; x++ {
			k.Run(inv, x, y)
		}
	}
}

func (c *CPUBackend) parallelRows(inv *Invocation, k Kernel, rows int) {
	if rows < 16 || c.workers == 1 {
		c.runRows(inv, k, 0, rows)
		return
	}

	var wg sync.WaitGroup
	chunkSize := (rows + c.workers - 1) / c.workers

	for w := 0; w < c.workers; w++ {
		start := w * chunkSize
		if start >= rows {
			break
		}
		end := start + chunkSize
		if end > rows {
			end = rows
		}
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			c.runRows(inv, k, y0, y1)
		}(start, end)
	}

	wg.Wait()
}

// ReadFloats returns a copy of the field's cells, channel-interleaved.
// Integer and colour fields are returned as their raw byte values.
func (c *CPUBackend) ReadFloats(field Field) ([]float32, error) {
	f, ok := c.fields[field.ID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown field %v", ErrBadFormat, field)
	}
	if f.f32 != nil {
		out := make([]float32, len(f.f32))
		copy(out, f.f32)
		return out, nil
	}
	out := make([]float32, len(f.u8))
	for i, v := range f.u8 {
		out[i] = float32(v)
	}
	return out, nil
}

// WriteFloats replaces the contents of a float field. It counts as a
// host upload, not a dispatch, and needs no barrier.
func (c *CPUBackend) WriteFloats(field Field, data []float32) error {
	f, ok := c.fields[field.ID]
	if !ok || f.f32 == nil {
		return fmt.Errorf("%w: %v is not a float field", ErrBadFormat, field)
	}
	if len(data) != len(f.f32) {
		return fmt.Errorf("%w: got %d values for %v, want %d", ErrBadSize, len(data), field, len(f.f32))
	}
	copy(f.f32, data)
	return nil
}

// WriteBytes replaces the contents of an integer or colour field.
func (c *CPUBackend) WriteBytes(field Field, data []uint8) error {
	f, ok := c.fields[field.ID]
	if !ok || f.u8 == nil {
		return fmt.Errorf("%w: %v is not a byte field", ErrBadFormat, field)
	}
	if len(data) != len(f.u8) {
		return fmt.Errorf("%w: got %d bytes for %v, want %d", ErrBadSize, len(data), field, len(f.u8))
	}
	copy(f.u8, data)
	return nil
}

func toColor(c [4]float32) color.RGBA {
	return color.RGBA{R: unorm(c[0]), G: unorm(c[1]), B: unorm(c[2]), A: unorm(c[3])}
}

func unorm(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
