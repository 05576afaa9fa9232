package compute

import (
	"fmt"
	"image"
	"strings"

	"github.com/go-gl/gl/v4.3-core/gl"
)

// LocalSize is the compute work group edge every GLSL kernel declares.
const LocalSize = 16

// Source is the GLSL text of one program: either a compute shader or a
// vertex/fragment pair.
type Source struct {
	Compute  string
	Vertex   string
	Fragment string
}

// SourceSet maps program names to GLSL sources.
type SourceSet map[string]Source

type glField struct {
	meta     Field
	tex      uint32
	internal uint32
}

type glProgram struct {
	id        uint32
	render    bool
	locations map[string]int32
}

// OpenGLBackend drives GLSL programs on the OpenGL 4.3 context that is
// current on the calling thread.
type OpenGLBackend struct {
	sources  SourceSet
	fields   map[uint32]*glField
	programs map[uint32]*glProgram
	vao      uint32
	vbo      uint32
	quadFor  uint32
	renderer string
}

func NewOpenGLBackend(sources SourceSet) (*OpenGLBackend, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to init opengl: %w", err)
	}

	return &OpenGLBackend{
		sources:  sources,
		fields:   make(map[uint32]*glField),
		programs: make(map[uint32]*glProgram),
		renderer: gl.GoStr(gl.GetString(gl.RENDERER)),
	}, nil
}

func (c *OpenGLBackend) Name() string { return "opengl (" + c.renderer + ")" }

func glFormat(f Format) (internal, format, xtype uint32, err error) {
	switch f {
	case R32F:
		return gl.R32F, gl.RED, gl.FLOAT, nil
	case RGBA32F:
		return gl.RGBA32F, gl.RGBA, gl.FLOAT, nil
	case RGBA8UI:
		return gl.RGBA8UI, gl.RGBA_INTEGER, gl.UNSIGNED_BYTE, nil
	case RGBA8:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE, nil
	}
	return 0, 0, 0, fmt.Errorf("%w: %v", ErrBadFormat, f)
}

func (c *OpenGLBackend) allocate(width, height int, format Format, pixels []byte) (Field, error) {
	if width <= 0 || height <= 0 {
		return Field{}, fmt.Errorf("%w: %dx%d", ErrBadSize, width, height)
	}
	internal, pixFormat, xtype, err := glFormat(format)
	if err != nil {
		return Field{}, err
	}

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexStorage2D(gl.TEXTURE_2D, 1, internal, int32(width), int32(height))

	if pixels == nil {
		// TexStorage contents are undefined; fields start at zero
		size := width * height * 4
		if xtype == gl.FLOAT {
			size *= format.Channels()
		}
		pixels = make([]byte, size)
	}
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(width), int32(height), pixFormat, xtype, gl.Ptr(pixels))

	f := &glField{meta: Field{ID: tex, Width: width, Height: height, Format: format}, tex: tex, internal: internal}
	c.fields[tex] = f
	c.applySampler(f, Sampler{Filter: Nearest, Wrap: ClampToEdge})
	return f.meta, nil
}

func (c *OpenGLBackend) CreateField(width, height int, format Format) (Field, error) {
	return c.allocate(width, height, format, nil)
}

func (c *OpenGLBackend) LoadImage(path string, s Sampler) (Field, error) {
	img, err := DecodeImage(path)
	if err != nil {
		return Field{}, err
	}
	return c.ImageField(img, s)
}

func (c *OpenGLBackend) ImageField(img image.Image, s Sampler) (Field, error) {
	rgba := toRGBA(img)
	b := rgba.Bounds()
	pix := make([]byte, b.Dx()*b.Dy()*4)
	for y := 0; y < b.Dy(); y++ {
		copy(pix[y*b.Dx()*4:], rgba.Pix[y*rgba.Stride:y*rgba.Stride+b.Dx()*4])
	}
	f, err := c.allocate(b.Dx(), b.Dy(), RGBA8, pix)
	if err != nil {
		return Field{}, err
	}
	return f, c.SetSampler(f, s)
}

func (c *OpenGLBackend) SetSampler(field Field, s Sampler) error {
	f, ok := c.fields[field.ID]
	if !ok {
		return fmt.Errorf("%w: unknown field %v", ErrBadFormat, field)
	}
	if f.meta.Format.Integer() && s.Filter == Linear {
		return fmt.Errorf("%w: integer field %v cannot be filtered", ErrBadFormat, field)
	}
	c.applySampler(f, s)
	return nil
}

func (c *OpenGLBackend) applySampler(f *glField, s Sampler) {
	filter := int32(gl.NEAREST)
	if s.Filter == Linear {
		filter = gl.LINEAR
	}
	wrap := int32(gl.CLAMP_TO_EDGE)
	switch s.Wrap {
	case MirroredRepeat:
		wrap = gl.MIRRORED_REPEAT
	case Repeat:
		wrap = gl.REPEAT
	}
	gl.BindTexture(gl.TEXTURE_2D, f.tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)
}

func (c *OpenGLBackend) Compile(name string) (Program, error) {
	src, ok := c.sources[name]
	if !ok {
		return Program{}, fmt.Errorf("%w: %s", ErrUnknownProgram, name)
	}

	var (
		id  uint32
		err error
	)
	render := src.Compute == ""
	if render {
		id, err = createRenderProgram(src.Vertex, src.Fragment)
	} else {
		id, err = createComputeProgram(src.Compute)
	}
	if err != nil {
		return Program{}, fmt.Errorf("%w: %s: %v", ErrCompile, name, err)
	}

	c.programs[id] = &glProgram{id: id, render: render, locations: make(map[string]int32)}
	return Program{ID: id, Name: name}, nil
}

func (c *OpenGLBackend) BindImage(field Field, slot int, access Access) {
	f, ok := c.fields[field.ID]
	if !ok {
		return
	}
	mode := uint32(gl.READ_WRITE)
	switch access {
	case Read:
		mode = gl.READ_ONLY
	case Write:
		mode = gl.WRITE_ONLY
	}
	gl.BindImageTexture(uint32(slot), f.tex, 0, false, 0, mode, f.internal)
}

func (c *OpenGLBackend) BindTexture(field Field, unit int) {
	f, ok := c.fields[field.ID]
	if !ok {
		return
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, f.tex)
}

// location caches uniform locations; a name the program does not use
// resolves to -1 and the set is ignored by GL.
func (c *OpenGLBackend) location(p Program, name string) (uint32, int32) {
	prog, ok := c.programs[p.ID]
	if !ok {
		return 0, -1
	}
	loc, ok := prog.locations[name]
	if !ok {
		loc = gl.GetUniformLocation(prog.id, gl.Str(name+"\x00"))
		prog.locations[name] = loc
	}
	return prog.id, loc
}

func (c *OpenGLBackend) SetFloat(p Program, name string, v float32) {
	id, loc := c.location(p, name)
	gl.ProgramUniform1f(id, loc, v)
}

func (c *OpenGLBackend) SetInt(p Program, name string, v int32) {
	id, loc := c.location(p, name)
	gl.ProgramUniform1i(id, loc, v)
}

func (c *OpenGLBackend) SetInt2(p Program, name string, x, y int32) {
	id, loc := c.location(p, name)
	gl.ProgramUniform2i(id, loc, x, y)
}

func (c *OpenGLBackend) SetVec3(p Program, name string, x, y, z float32) {
	id, loc := c.location(p, name)
	gl.ProgramUniform3f(id, loc, x, y, z)
}

func (c *OpenGLBackend) Dispatch(p Program, x, y, z int) {
	gl.UseProgram(p.ID)
	gx := (x + LocalSize - 1) / LocalSize
	gy := (y + LocalSize - 1) / LocalSize
	gl.DispatchCompute(uint32(gx), uint32(gy), uint32(z))
}

func (c *OpenGLBackend) Barrier() {
	gl.MemoryBarrier(gl.SHADER_IMAGE_ACCESS_BARRIER_BIT | gl.TEXTURE_FETCH_BARRIER_BIT)
}

func (c *OpenGLBackend) Draw(p Program) {
	if c.quadFor != p.ID {
		c.buildQuad(p.ID)
	}
	gl.ClearColor(0.5, 0.5, 0.5, 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.UseProgram(p.ID)
	gl.BindVertexArray(c.vao)
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
}

// buildQuad uploads the two-triangle strip covering the viewport, with
// texture coordinates running top-left to bottom-right.
func (c *OpenGLBackend) buildQuad(program uint32) {
	vertices := []float32{
		// x, y, s, t
		-1, 1, 0, 0,
		-1, -1, 0, 1,
		1, 1, 1, 0,
		1, -1, 1, 1,
	}
	if c.vao == 0 {
		gl.GenVertexArrays(1, &c.vao)
		gl.GenBuffers(1, &c.vbo)
	}
	gl.BindVertexArray(c.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, c.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	stride := int32(4 * 4)
	if loc := gl.GetAttribLocation(program, gl.Str("vertex_pos\x00")); loc >= 0 {
		gl.EnableVertexAttribArray(uint32(loc))
		gl.VertexAttribPointerWithOffset(uint32(loc), 2, gl.FLOAT, false, stride, 0)
	}
	if loc := gl.GetAttribLocation(program, gl.Str("vertex_tex_coord\x00")); loc >= 0 {
		gl.EnableVertexAttribArray(uint32(loc))
		gl.VertexAttribPointerWithOffset(uint32(loc), 2, gl.FLOAT, false, stride, 2*4)
	}
	c.quadFor = program
}

func (c *OpenGLBackend) ReadFloats(field Field) ([]float32, error) {
	f, ok := c.fields[field.ID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown field %v", ErrBadFormat, field)
	}
	_, pixFormat, xtype, err := glFormat(f.meta.Format)
	if err != nil {
		return nil, err
	}
	n := f.meta.Width * f.meta.Height * f.meta.Format.Channels()
	gl.BindTexture(gl.TEXTURE_2D, f.tex)
	if xtype == gl.FLOAT {
		out := make([]float32, n)
		gl.GetTexImage(gl.TEXTURE_2D, 0, pixFormat, xtype, gl.Ptr(out))
		return out, nil
	}
	raw := make([]uint8, n)
	gl.GetTexImage(gl.TEXTURE_2D, 0, pixFormat, xtype, gl.Ptr(raw))
	out := make([]float32, n)
	for i, v := range raw {
		out[i] = float32(v)
	}
	return out, nil
}

func (c *OpenGLBackend) Err() error {
	var codes []string
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		codes = append(codes, fmt.Sprintf("0x%04x", code))
	}
	if len(codes) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrDevice, strings.Join(codes, ", "))
}

func (c *OpenGLBackend) Close() {
	for id := range c.fields {
		tex := id
		gl.DeleteTextures(1, &tex)
	}
	for id := range c.programs {
		gl.DeleteProgram(id)
	}
	if c.vao != 0 {
		gl.DeleteVertexArrays(1, &c.vao)
		gl.DeleteBuffers(1, &c.vbo)
	}
	c.fields = make(map[uint32]*glField)
	c.programs = make(map[uint32]*glProgram)
}

func compileShader(kind uint32, source string) (uint32, error) {
	shader := gl.CreateShader(kind)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile: %s", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func linkProgram(shaders ...uint32) (uint32, error) {
	program := gl.CreateProgram()
	for _, s := range shaders {
		gl.AttachShader(program, s)
	}
	gl.LinkProgram(program)
	for _, s := range shaders {
		gl.DeleteShader(s)
	}

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", strings.TrimRight(log, "\x00"))
	}
	return program, nil
}

func createComputeProgram(source string) (uint32, error) {
	shader, err := compileShader(gl.COMPUTE_SHADER, source)
	if err != nil {
		return 0, err
	}
	return linkProgram(shader)
}

func createRenderProgram(vertex, fragment string) (uint32, error) {
	vShader, err := compileShader(gl.VERTEX_SHADER, vertex)
	if err != nil {
		return 0, err
	}
	fShader, err := compileShader(gl.FRAGMENT_SHADER, fragment)
	if err != nil {
		gl.DeleteShader(vShader)
		return 0, err
	}
	return linkProgram(vShader, fShader)
}
