package water

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ripple/internal/compute"
	"github.com/san-kum/ripple/internal/pipeline"
)

func fieldEnergy(pos, vel []float32, w, h int) float64 {
	var e float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			e += 0.5 * float64(vel[i]) * float64(vel[i])
			if x+1 < w {
				d := float64(pos[i+1] - pos[i])
				e += 0.5 * d * d
			}
			if y+1 < h {
				d := float64(pos[i+w] - pos[i])
				e += 0.5 * d * d
			}
		}
	}
	return e
}

func absHeight(pos []float32) float64 {
	var sum float64
	for _, p := range pos {
		sum += math.Abs(float64(p))
	}
	return sum
}

func bumps(w, h int) []float32 {
	pos := make([]float32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := math.Exp(-(math.Pow(float64(x-8), 2) + math.Pow(float64(y-8), 2)) / 8)
			b := math.Exp(-(math.Pow(float64(x-23), 2) + math.Pow(float64(y-23), 2)) / 8)
			pos[y*w+x] = float32(a - b)
		}
	}
	return pos
}

var _ = Describe("Sim", func() {
	var params Params

	BeforeEach(func() {
		params = DefaultParams()
	})

	Describe("construction", func() {
		It("rejects an empty grid", func() {
			dev := compute.NewCPUBackend(Kernels())
			_, err := NewState(dev, 0, 4)
			Expect(err).To(MatchError(ErrGridSize))
		})

		It("requires the background before compiling", func() {
			dev := compute.NewCPUBackend(Kernels())
			st, err := NewState(dev, 4, 4)
			Expect(err).NotTo(HaveOccurred())
			_, err = New(dev, st, params)
			Expect(err).To(MatchError(ErrBackground))
		})

		It("fails on a missing background file", func() {
			dev := compute.NewCPUBackend(Kernels())
			st, err := NewState(dev, 4, 4)
			Expect(err).NotTo(HaveOccurred())
			err = st.LoadBackground("does-not-exist.jpg", "")
			Expect(err).To(MatchError(ErrBackground))
			Expect(errors.Is(err, fs.ErrNotExist)).To(BeTrue())

			err = st.LoadBackground("", "does-not-exist.jpg")
			Expect(err).To(MatchError(ErrBackground))
			Expect(errors.Is(err, fs.ErrNotExist)).To(BeTrue())
		})

		It("clamps the sky and mirrors the floor past the right edge", func() {
			// 4x1 ramp; texel 5 clamps to texel 3 and mirrors onto texel 2
			ramp := image.NewRGBA(image.Rect(0, 0, 4, 1))
			for x, r := range []uint8{0, 60, 120, 240} {
				ramp.SetRGBA(x, 0, color.RGBA{r, r, r, 255})
			}
			path := filepath.Join(GinkgoT().TempDir(), "ramp.png")
			out, err := os.Create(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(png.Encode(out, ramp)).To(Succeed())
			Expect(out.Close()).To(Succeed())

			const u = 5.5 / 4
			kernels := Kernels()
			kernels["edge"] = compute.Kernel{
				Textures: 2,
				Draw:     true,
				Run: func(inv *compute.Invocation, x, y int) {
					inv.Emit(x, y, inv.Sample(x, u, 0.5))
				},
			}
			dev := compute.NewCPUBackend(kernels)
			st, err := NewState(dev, 4, 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(st.LoadBackground(path, path)).To(Succeed())

			prog, err := dev.Compile("edge")
			Expect(err).NotTo(HaveOccurred())
			dev.SetViewport(2, 1)
			dev.BindTexture(st.Sky, 0)
			dev.BindTexture(st.Floor, 1)
			dev.Draw(prog)
			Expect(dev.Err()).To(Succeed())

			frame := dev.Frame()
			Expect(frame.RGBAAt(0, 0).R).To(BeNumerically("~", 240, 1))
			Expect(frame.RGBAAt(1, 0).R).To(BeNumerically("~", 120, 1))
		})

		It("fails on an unknown program", func() {
			dev := compute.NewCPUBackend(compute.KernelSet{})
			st, err := NewState(dev, 4, 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(st.LoadBackground("", "")).To(Succeed())
			_, err = New(dev, st, params)
			Expect(err).To(MatchError(compute.ErrUnknownProgram))
		})

		It("builds a frame schedule that validates across frames", func() {
			sim, _ := newCPUSim(8, 8, params, 1)
			frame := sim.Schedule()
			Expect(frame.Passes).To(HaveLen(1 + 3*params.StepsPerFrame + 3))
			Expect(frame.Passes[0].Draw).To(BeTrue())
			Expect(pipeline.Repeat(frame, 2).Validate()).To(Succeed())
		})

		It("binds the render textures in normal, sky, floor, photon order", func() {
			sim, _ := newCPUSim(8, 8, params, 1)
			st := sim.State()
			var ids []uint32
			for _, b := range sim.render.Passes[0].Bindings {
				ids = append(ids, b.Field.ID)
			}
			Expect(ids).To(Equal([]uint32{st.Normal.ID, st.Sky.ID, st.Floor.ID, st.Photon.ID}))
		})
	})

	It("keeps flat water flat", func() {
		params.Damping = 0.01
		params.Dt = 0.5
		sim, _ := newCPUSim(4, 4, params, 1)

		Expect(sim.Step()).To(Succeed())

		pos, err := sim.State().Heights()
		Expect(err).NotTo(HaveOccurred())
		vel, err := sim.State().Velocities()
		Expect(err).NotTo(HaveOccurred())
		Expect(pos).To(HaveEach(BeZero()))
		Expect(vel).To(HaveEach(BeZero()))
	})

	It("leaves cells outside the force radius untouched", func() {
		const w, h = 32, 32
		params.MouseRadius = 5
		pushed, pushedDev := newCPUSim(w, h, params, 2)
		still, stillDev := newCPUSim(w, h, params, 2)

		rng := rand.New(rand.NewSource(7))
		initial := make([]float32, w*h)
		for i := range initial {
			initial[i] = float32(rng.NormFloat64() * 0.1)
		}
		Expect(pushedDev.WriteFloats(pushed.State().Pos, initial)).To(Succeed())
		Expect(stillDev.WriteFloats(still.State().Pos, initial)).To(Succeed())

		for _, in := range []*Interaction{pushed.Interaction(), still.Interaction()} {
			in.PointerMove(16, 16)
		}
		pushed.Interaction().ButtonDown(ButtonPrimary)
		Expect(still.Interaction().Strength()).To(BeZero())

		Expect(pushed.Step()).To(Succeed())
		Expect(still.Step()).To(Succeed())

		a, err := pushed.State().Heights()
		Expect(err).NotTo(HaveOccurred())
		b, err := still.State().Heights()
		Expect(err).NotTo(HaveOccurred())

		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				d := math.Hypot(float64(x-16), float64(y-16))
				i := y*w + x
				if d >= float64(params.MouseRadius) {
					Expect(a[i]).To(Equal(b[i]), "cell %d,%d", x, y)
				}
			}
		}
		Expect(a[16*w+16] - b[16*w+16]).To(BeNumerically("~", params.MaxForce, 1e-6))
	})

	It("decays photons monotonically to zero", func() {
		const w, h = 16, 16
		sim, dev := newCPUSim(w, h, params, 1)

		rng := rand.New(rand.NewSource(3))
		raw := make([]uint8, w*h*4)
		for i := range raw {
			raw[i] = uint8(rng.Intn(256))
		}
		Expect(dev.WriteBytes(sim.State().Photon, raw)).To(Succeed())

		decayOnly := pipeline.Schedule{Name: "decay", Passes: sim.derive.Passes[1:2]}
		prev, err := sim.State().Photons()
		Expect(err).NotTo(HaveOccurred())
		for i := 0; i < 100; i++ {
			pipeline.Run(dev, decayOnly, w, h)
			Expect(dev.Err()).To(Succeed())
			next, err := sim.State().Photons()
			Expect(err).NotTo(HaveOccurred())
			for j := range next {
				if prev[j] > 0 {
					Expect(next[j]).To(BeNumerically("<", prev[j]))
				} else {
					Expect(next[j]).To(BeZero())
				}
			}
			prev = next
		}
		Expect(prev).To(HaveEach(BeZero()))
	})

	It("accumulates every band of an undisturbed surface in place", func() {
		sim, _ := newCPUSim(8, 8, params, 1)
		Expect(sim.Advance()).To(Succeed())

		ph, err := sim.State().Photons()
		Expect(err).NotTo(HaveOccurred())
		for i := 0; i < len(ph); i += 4 {
			Expect(ph[i : i+4]).To(Equal([]float32{3, 4, 3, 0}))
		}

		Expect(sim.Advance()).To(Succeed())
		ph, err = sim.State().Photons()
		Expect(err).NotTo(HaveOccurred())
		Expect(ph[:4]).To(Equal([]float32{5, 7, 5, 0}))
	})

	It("moves the caustic seed on once per frame", func() {
		sim, _ := newCPUSim(8, 8, params, 1)
		Expect(sim.Seed()).To(BeZero())
		Expect(sim.Run(context.Background(), 3)).To(Succeed())
		Expect(sim.Seed()).To(Equal(int32(3)))
		Expect(sim.Frames()).To(Equal(3))
	})

	It("is deterministic for a fixed event sequence", func() {
		const w, h = 24, 20
		serial, _ := newCPUSim(w, h, params, 1)
		parallel, _ := newCPUSim(w, h, params, 4)

		script := func(s *Sim) {
			in := s.Interaction()
			in.PointerEnter()
			in.PointerMove(10, 12)
			in.ButtonDown(ButtonSecondary)
			for i := 0; i < 3; i++ {
				Expect(s.Advance()).To(Succeed())
			}
			in.ButtonUp(ButtonSecondary)
			in.PointerMove(3, 4)
			in.ButtonDown(ButtonPrimary)
			for i := 0; i < 2; i++ {
				Expect(s.Advance()).To(Succeed())
			}
		}
		script(serial)
		script(parallel)

		Expect(readAll(parallel.State())).To(Equal(readAll(serial.State())))
	})

	It("loses height and energy across 100-step checkpoints", func() {
		const w, h = 32, 32
		params.Damping = 0.1
		sim, dev := newCPUSim(w, h, params, 2)
		Expect(dev.WriteFloats(sim.State().Pos, bumps(w, h))).To(Succeed())

		measure := func() (float64, float64) {
			pos, err := sim.State().Heights()
			Expect(err).NotTo(HaveOccurred())
			vel, err := sim.State().Velocities()
			Expect(err).NotTo(HaveOccurred())
			return fieldEnergy(pos, vel, w, h), absHeight(pos)
		}

		// single steps oscillate; only the sampled trend is monotone
		start, _ := measure()
		var energies, heights []float64
		for checkpoint := 0; checkpoint < 4; checkpoint++ {
			e, a := measure()
			energies = append(energies, e)
			heights = append(heights, a)

			for i := 0; i < 100; i++ {
				Expect(sim.Step()).To(Succeed())
				e, _ := measure()
				Expect(e).To(BeNumerically("<=", start), "checkpoint %d step %d", checkpoint, i)
			}
		}

		for i := 1; i < len(energies); i++ {
			Expect(energies[i]).To(BeNumerically("<", energies[i-1]))
			Expect(heights[i]).To(BeNumerically("<", heights[i-1]))
		}
	})

	Describe("device errors", func() {
		breakBarrier := func(s *Sim) {
			s.substep.Passes[0].Barrier = false
		}

		It("fails the step in strict mode", func() {
			params.Strict = true
			sim, _ := newCPUSim(8, 8, params, 1)
			breakBarrier(sim)
			err := sim.Step()
			Expect(errors.Is(err, compute.ErrMissingBarrier)).To(BeTrue())
		})

		It("logs and continues otherwise", func() {
			params.Strict = false
			sim, _ := newCPUSim(8, 8, params, 1)
			breakBarrier(sim)
			Expect(sim.Step()).To(Succeed())
		})

		It("fails to draw without a viewport", func() {
			sim, _ := newCPUSim(8, 8, params, 1)
			Expect(sim.Draw()).To(MatchError(compute.ErrBadSize))
		})
	})

	It("renders an opaque frame", func() {
		sim, dev := newCPUSim(16, 8, params, 2)
		dev.SetViewport(16, 8)
		for i := 0; i < 2; i++ {
			Expect(sim.Frame()).To(Succeed())
		}
		frame := dev.Frame()
		Expect(frame.Bounds().Dx()).To(Equal(16))
		px := frame.RGBAAt(8, 4)
		Expect(px.A).To(Equal(uint8(255)))
		Expect(px).NotTo(Equal(color.RGBA{128, 128, 128, 255}))
	})
})
