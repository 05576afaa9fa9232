package water

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ripple/internal/compute"
)

func TestWater(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Water Suite")
}

func newCPUSim(width, height int, params Params, workers int) (*Sim, *compute.CPUBackend) {
	GinkgoHelper()
	dev := compute.NewCPUBackend(Kernels())
	dev.SetWorkers(workers)
	st, err := NewState(dev, width, height)
	Expect(err).NotTo(HaveOccurred())
	Expect(st.LoadBackground("", "")).To(Succeed())
	sim, err := New(dev, st, params)
	Expect(err).NotTo(HaveOccurred())
	return sim, dev
}

func readAll(st *State) [][]float32 {
	GinkgoHelper()
	var out [][]float32
	for _, read := range []func() ([]float32, error){st.Heights, st.Velocities, st.Normals, st.Photons} {
		v, err := read()
		Expect(err).NotTo(HaveOccurred())
		out = append(out, v)
	}
	return out
}
