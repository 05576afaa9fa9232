package water

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ripple/internal/compute"
)

var _ = Describe("kernel maths", func() {
	It("passes straight through a flat surface", func() {
		t := refract(down, up, 1/1.33)
		Expect(t.ApproxEqual(down)).To(BeTrue())
	})

	It("bends towards the normal entering water", func() {
		n := mgl32.Vec3{0.2, 0, 1}.Normalize()
		t := refract(down, n, 1/1.33)
		Expect(t.X()).To(BeNumerically("<", 0))
		Expect(t.X()).To(BeNumerically(">", -n.X()))
	})

	It("reflects the view ray upwards", func() {
		Expect(reflect(down, up).ApproxEqual(up)).To(BeTrue())
	})

	It("varies the jitter between seeds", func() {
		seen := make(map[uint32]bool)
		for seed := uint32(0); seed < 64; seed++ {
			seen[hash(5, 9, seed)] = true
		}
		Expect(len(seen)).To(BeNumerically(">", 60))
	})
})

var _ = Describe("GLSL sources", func() {
	sources := Sources()

	It("covers every CPU kernel", func() {
		for name := range Kernels() {
			Expect(sources).To(HaveKey(name))
		}
	})

	It("uses the shared work group size", func() {
		size := fmt.Sprintf("local_size_x = %d, local_size_y = %d", compute.LocalSize, compute.LocalSize)
		for name, src := range sources {
			if src.Compute != "" {
				Expect(src.Compute).To(ContainSubstring(size), name)
			}
		}
	})

	DescribeTable("declares the uniforms pushed from params",
		func(program string, uniforms ...string) {
			src := sources[program]
			text := src.Compute + src.Vertex + src.Fragment
			for _, u := range uniforms {
				Expect(text).To(MatchRegexp(`uniform \w+ `+u+`;`), u)
			}
		},
		Entry(nil, ProgramAccel, "damping"),
		Entry(nil, ProgramVerlet, "dt"),
		Entry(nil, ProgramMouse, "mouse_pos", "mouse_rad", "mouse_pow"),
		Entry(nil, ProgramPhoton, "depth", "eta", "dispersion", "rand_seed"),
		Entry(nil, ProgramRender, "water_refraction_depth", "water_refraction", "dispersion",
			"reflection_height", "reflection_strength", "sun_strength", "photon_strength", "ambient", "sun_dir"),
	)

	It("feeds the quad attributes the render backend binds", func() {
		vert := sources[ProgramRender].Vertex
		Expect(strings.Contains(vert, "in vec2 vertex_pos;")).To(BeTrue())
		Expect(strings.Contains(vert, "in vec2 vertex_tex_coord;")).To(BeTrue())
	})
})
