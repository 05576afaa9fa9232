package water

import "math"

// Button identifies a pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
	ButtonMiddle
)

// Interaction is the pointer force applied by the mouse pass. Its handlers
// only change this record; the simulation reads it once per substep.
type Interaction struct {
	width, height int
	minForce      float32
	maxForce      float32

	x, y      int
	sign      float32
	magnitude float32
}

// NewInteraction centres the force on the grid with zero magnitude, as if
// the pointer had not yet entered the surface.
func NewInteraction(width, height int, minForce, maxForce float32) *Interaction {
	return &Interaction{
		width:    width,
		height:   height,
		minForce: minForce,
		maxForce: maxForce,
		x:        width / 2,
		y:        height / 2,
		sign:     1,
	}
}

// PointerMove moves the force centre to the cell under (x, y). Positions
// outside the grid are ignored.
func (i *Interaction) PointerMove(x, y float64) {
	cx, cy := int(math.Floor(x)), int(math.Floor(y))
	if cx < 0 || cy < 0 || cx >= i.width || cy >= i.height {
		return
	}
	i.x, i.y = cx, cy
}

func (i *Interaction) ButtonDown(b Button) {
	if b == ButtonSecondary {
		i.sign = -1
	} else {
		i.sign = 1
	}
	i.magnitude = i.maxForce
}

func (i *Interaction) ButtonUp(Button) {
	i.magnitude = i.minForce
}

func (i *Interaction) PointerEnter() {
	i.magnitude = i.minForce
}

func (i *Interaction) PointerLeave() {
	i.magnitude = 0
}

func (i *Interaction) Center() (int, int) { return i.x, i.y }

func (i *Interaction) Magnitude() float32 { return i.magnitude }

func (i *Interaction) Sign() float32 { return i.sign }

// Strength is the signed height added at the force centre per substep.
func (i *Interaction) Strength() float32 { return i.sign * i.magnitude }
