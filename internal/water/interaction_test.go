package water

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Interaction", func() {
	var in *Interaction

	BeforeEach(func() {
		in = NewInteraction(64, 32, 0.05, 0.2)
	})

	It("starts without force", func() {
		Expect(in.Magnitude()).To(BeZero())
		Expect(in.Strength()).To(BeZero())
	})

	It("moves the force centre inside the grid", func() {
		in.PointerMove(10.7, 3.2)
		x, y := in.Center()
		Expect([]int{x, y}).To(Equal([]int{10, 3}))
	})

	DescribeTable("ignores positions outside the grid",
		func(px, py float64) {
			in.PointerMove(5, 6)
			in.PointerMove(px, py)
			x, y := in.Center()
			Expect([]int{x, y}).To(Equal([]int{5, 6}))
		},
		Entry("left", -1.0, 4.0),
		Entry("just left of zero", -0.5, 4.0),
		Entry("right edge", 64.0, 4.0),
		Entry("top", 4.0, -3.0),
		Entry("bottom edge", 4.0, 32.0),
	)

	DescribeTable("button presses set sign and full force",
		func(b Button, sign float32) {
			in.ButtonDown(b)
			Expect(in.Sign()).To(Equal(sign))
			Expect(in.Magnitude()).To(Equal(float32(0.2)))
			Expect(in.Strength()).To(Equal(sign * 0.2))
		},
		Entry("primary pushes up", ButtonPrimary, float32(1)),
		Entry("secondary pulls down", ButtonSecondary, float32(-1)),
		Entry("middle pushes up", ButtonMiddle, float32(1)),
	)

	It("drops to the ambient force when a press is released", func() {
		in.ButtonDown(ButtonPrimary)
		in.ButtonUp(ButtonPrimary)
		Expect(in.Magnitude()).To(Equal(float32(0.05)))
	})

	It("releases to ambient regardless of which button went up", func() {
		in.ButtonDown(ButtonSecondary)
		in.ButtonUp(ButtonPrimary)
		Expect(in.Magnitude()).To(Equal(float32(0.05)))
		Expect(in.Strength()).To(Equal(float32(-0.05)))
	})

	It("follows the pointer in and out of the surface", func() {
		in.PointerEnter()
		Expect(in.Magnitude()).To(Equal(float32(0.05)))
		in.ButtonDown(ButtonPrimary)
		in.PointerLeave()
		Expect(in.Magnitude()).To(BeZero())
	})
})
