package compute

import (
	"fmt"
	"image"
)

// Format is the per-cell storage format of a field.
type Format int

const (
	R32F    Format = iota + 1 // one float32 per cell
	RGBA32F                   // four float32 per cell
	RGBA8UI                   // four unsigned integer bytes per cell
	RGBA8                     // four normalised bytes per cell (colour images)
)

func (f Format) String() string {
	switch f {
	case R32F:
		return "r32f"
	case RGBA32F:
		return "rgba32f"
	case RGBA8UI:
		return "rgba8ui"
	case RGBA8:
		return "rgba8"
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// Channels returns the number of components stored per cell.
func (f Format) Channels() int {
	if f == R32F {
		return 1
	}
	return 4
}

// Integer reports whether the format stores unnormalised integers.
func (f Format) Integer() bool { return f == RGBA8UI }

// Access is the mode a field is bound with for compute access.
type Access int

const (
	Read Access = iota + 1
	Write
	ReadWrite
)

func (a Access) String() string {
	switch a {
	case Read:
		return "read"
	case Write:
		return "write"
	case ReadWrite:
		return "read_write"
	}
	return fmt.Sprintf("access(%d)", int(a))
}

func (a Access) Reads() bool  { return a == Read || a == ReadWrite }
func (a Access) Writes() bool { return a == Write || a == ReadWrite }

// Allows reports whether a slot bound with a may serve a kernel declared with want.
func (a Access) Allows(want Access) bool {
	if a == ReadWrite {
		return true
	}
	return a == want
}

type Filter int

const (
	Nearest Filter = iota
	Linear
)

type Wrap int

const (
	ClampToEdge Wrap = iota
	MirroredRepeat
	Repeat
)

// Sampler controls how a field is read through a texture unit.
type Sampler struct {
	Filter Filter
	Wrap   Wrap
}

// Field is a handle to a 2D grid resident on a device. The zero Field is invalid.
type Field struct {
	ID     uint32
	Width  int
	Height int
	Format Format
	Label  string
}

func (f Field) Valid() bool { return f.ID != 0 }

func (f Field) String() string {
	if f.Label != "" {
		return f.Label
	}
	return fmt.Sprintf("field#%d", f.ID)
}

// Program is a handle to a compiled compute or render program.
type Program struct {
	ID   uint32
	Name string
}

func (p Program) Valid() bool { return p.ID != 0 }

// Device is the capability surface the simulation is written against.
// Every call is issued from the single control thread.
type Device interface {
	Name() string

	CreateField(width, height int, format Format) (Field, error)
	LoadImage(path string, s Sampler) (Field, error)
	ImageField(img image.Image, s Sampler) (Field, error)
	SetSampler(f Field, s Sampler) error

	Compile(name string) (Program, error)

	BindImage(f Field, slot int, access Access)
	BindTexture(f Field, unit int)

	SetFloat(p Program, name string, v float32)
	SetInt(p Program, name string, v int32)
	SetInt2(p Program, name string, x, y int32)
	SetVec3(p Program, name string, x, y, z float32)

	Dispatch(p Program, x, y, z int)
	Barrier()
	Draw(p Program)

	ReadFloats(f Field) ([]float32, error)

	// Err returns the first device error recorded since the previous call.
	Err() error
	Close()
}
