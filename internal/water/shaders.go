package water

import (
	_ "embed"

	"github.com/san-kum/ripple/internal/compute"
)

// Program names shared by the CPU kernels and the GLSL sources.
const (
	ProgramAccel  = "accel"
	ProgramVerlet = "verlet"
	ProgramMouse  = "mouse"
	ProgramNormal = "normal"
	ProgramDecay  = "decay"
	ProgramPhoton = "photon"
	ProgramRender = "render"
)

var (
	//go:embed shaders/accel.comp
	accelSource string
	//go:embed shaders/verlet.comp
	verletSource string
	//go:embed shaders/mouse.comp
	mouseSource string
	//go:embed shaders/normal.comp
	normalSource string
	//go:embed shaders/decay.comp
	decaySource string
	//go:embed shaders/photon.comp
	photonSource string
	//go:embed shaders/water.vert
	vertexSource string
	//go:embed shaders/water.frag
	fragmentSource string
)

// Sources returns the GLSL programs for compute.NewOpenGLBackend.
func Sources() compute.SourceSet {
	return compute.SourceSet{
		ProgramAccel:  {Compute: accelSource},
		ProgramVerlet: {Compute: verletSource},
		ProgramMouse:  {Compute: mouseSource},
		ProgramNormal: {Compute: normalSource},
		ProgramDecay:  {Compute: decaySource},
		ProgramPhoton: {Compute: photonSource},
		ProgramRender: {Vertex: vertexSource, Fragment: fragmentSource},
	}
}
