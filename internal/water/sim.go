package water

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/ripple/internal/compute"
	"github.com/san-kum/ripple/internal/pipeline"
)

type programs struct {
	accel, verlet, mouse  compute.Program
	normal, decay, photon compute.Program
	render                compute.Program
}

func compile(dev compute.Device) (programs, error) {
	var p programs
	targets := []struct {
		dst  *compute.Program
		name string
	}{
		{&p.accel, ProgramAccel},
		{&p.verlet, ProgramVerlet},
		{&p.mouse, ProgramMouse},
		{&p.normal, ProgramNormal},
		{&p.decay, ProgramDecay},
		{&p.photon, ProgramPhoton},
		{&p.render, ProgramRender},
	}
	for _, t := range targets {
		prog, err := dev.Compile(t.name)
		if err != nil {
			return programs{}, err
		}
		*t.dst = prog
	}
	return p, nil
}

// Observer is notified after every advanced frame.
type Observer interface {
	OnFrame(frame int, s *Sim)
}

// Sim drives a State through the per-frame schedule on one device. All
// methods must be called from the thread that owns the device.
type Sim struct {
	dev    compute.Device
	state  *State
	input  *Interaction
	params Params
	progs  programs
	log    *slog.Logger

	substep pipeline.Schedule
	derive  pipeline.Schedule
	render  pipeline.Schedule

	seed      int32
	frames    int
	observers []Observer
}

// New compiles the water programs, pushes params into them and validates
// the frame schedule. The background must already be loaded.
func New(dev compute.Device, st *State, params Params) (*Sim, error) {
	if !st.Sky.Valid() || !st.Floor.Valid() {
		return nil, fmt.Errorf("%w: background not loaded", ErrBackground)
	}
	if params.StepsPerFrame <= 0 {
		return nil, fmt.Errorf("steps per frame must be positive, got %d", params.StepsPerFrame)
	}
	progs, err := compile(dev)
	if err != nil {
		return nil, err
	}

	s := &Sim{
		dev:    dev,
		state:  st,
		input:  NewInteraction(st.Width, st.Height, params.MinForce, params.MaxForce),
		params: params,
		progs:  progs,
		log:    slog.Default(),
	}
	s.substep = substepSchedule(st, progs)
	s.derive = deriveSchedule(st, progs)
	s.render = renderSchedule(st, progs)

	// two frames back to back also cover the wrap from derive into render
	if err := pipeline.Repeat(s.Schedule(), 2).Validate(); err != nil {
		return nil, err
	}

	params.apply(dev, progs)
	dev.SetInt(progs.photon, "rand_seed", s.seed)
	if err := dev.Err(); err != nil {
		return nil, fmt.Errorf("pushing parameters: %w", err)
	}
	return s, nil
}

func substepSchedule(st *State, p programs) pipeline.Schedule {
	return pipeline.Schedule{
		Name: "substep",
		Passes: []pipeline.Pass{
			{
				Name:    "accel",
				Program: p.accel,
				Bindings: []pipeline.Binding{
					{Field: st.Pos, Slot: 0, Access: compute.Read},
					{Field: st.Vel, Slot: 1, Access: compute.Read},
					{Field: st.Acc, Slot: 2, Access: compute.Write},
				},
				Barrier: true,
			},
			{
				Name:    "verlet",
				Program: p.verlet,
				Bindings: []pipeline.Binding{
					{Field: st.Pos, Slot: 0, Access: compute.ReadWrite},
					{Field: st.Vel, Slot: 1, Access: compute.ReadWrite},
					{Field: st.Acc, Slot: 2, Access: compute.Read},
				},
				Barrier: true,
			},
			{
				Name:    "mouse",
				Program: p.mouse,
				Bindings: []pipeline.Binding{
					{Field: st.Pos, Slot: 0, Access: compute.ReadWrite},
				},
				Barrier: true,
			},
		},
		Scratch: []compute.Field{st.Acc},
	}
}

func deriveSchedule(st *State, p programs) pipeline.Schedule {
	return pipeline.Schedule{
		Name: "derive",
		Passes: []pipeline.Pass{
			{
				Name:    "normal",
				Program: p.normal,
				Bindings: []pipeline.Binding{
					{Field: st.Pos, Slot: 0, Access: compute.Read},
					{Field: st.Normal, Slot: 1, Access: compute.Write},
				},
				Barrier: true,
			},
			{
				Name:    "decay",
				Program: p.decay,
				Bindings: []pipeline.Binding{
					{Field: st.Photon, Slot: 0, Access: compute.ReadWrite},
				},
				Barrier: true,
			},
			{
				Name:    "photon",
				Program: p.photon,
				Bindings: []pipeline.Binding{
					{Field: st.Normal, Slot: 0, Access: compute.Read},
					{Field: st.Photon, Slot: 1, Access: compute.ReadWrite},
				},
				Barrier: true,
			},
		},
	}
}

func renderSchedule(st *State, p programs) pipeline.Schedule {
	return pipeline.Schedule{
		Name: "render",
		Passes: []pipeline.Pass{
			{
				Name:    "render",
				Program: p.render,
				Draw:    true,
				Bindings: []pipeline.Binding{
					{Field: st.Normal, Slot: 0, Access: compute.Read},
					{Field: st.Sky, Slot: 1, Access: compute.Read},
					{Field: st.Floor, Slot: 2, Access: compute.Read},
					{Field: st.Photon, Slot: 3, Access: compute.Read},
				},
			},
		},
	}
}

// SetLogger replaces the logger used for non-strict device errors.
func (s *Sim) SetLogger(l *slog.Logger) { s.log = l }

func (s *Sim) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Sim) State() *State { return s.state }

// Interaction returns the pointer state event sources should update.
func (s *Sim) Interaction() *Interaction { return s.input }

func (s *Sim) Params() Params { return s.params }

// Seed is the caustic seed the next derive pass will use.
func (s *Sim) Seed() int32 { return s.seed }

// Frames counts completed calls to Advance.
func (s *Sim) Frames() int { return s.frames }

// Schedule is everything one displayed frame issues, in order.
func (s *Sim) Schedule() pipeline.Schedule {
	return pipeline.Concat("frame",
		s.render,
		pipeline.Repeat(s.substep, s.params.StepsPerFrame),
		s.derive,
	)
}

// Step advances the height field by one substep.
func (s *Sim) Step() error {
	s.pushInteraction()
	pipeline.Run(s.dev, s.substep, s.state.Width, s.state.Height)
	return s.check("step")
}

// Derive recomputes normals and caustics from the current heights and
// moves the caustic seed on.
func (s *Sim) Derive() error {
	s.dev.SetInt(s.progs.photon, "rand_seed", s.seed)
	pipeline.Run(s.dev, s.derive, s.state.Width, s.state.Height)
	s.seed++
	return s.check("derive")
}

// Draw composes the current surface into the device's framebuffer.
func (s *Sim) Draw() error {
	pipeline.Run(s.dev, s.render, s.state.Width, s.state.Height)
	return s.check("render")
}

// Advance runs the configured substeps followed by one derive.
func (s *Sim) Advance() error {
	s.pushInteraction()
	for i := 0; i < s.params.StepsPerFrame; i++ {
		pipeline.Run(s.dev, s.substep, s.state.Width, s.state.Height)
	}
	if err := s.check("step"); err != nil {
		return err
	}
	if err := s.Derive(); err != nil {
		return err
	}
	s.frames++
	for _, o := range s.observers {
		o.OnFrame(s.frames, s)
	}
	return nil
}

// Frame draws the current surface and then advances it.
func (s *Sim) Frame() error {
	if err := s.Draw(); err != nil {
		return err
	}
	return s.Advance()
}

// Run advances n frames without drawing, stopping early if ctx is done.
func (s *Sim) Run(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := s.Advance(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sim) pushInteraction() {
	x, y := s.input.Center()
	s.dev.SetInt2(s.progs.mouse, "mouse_pos", int32(x), int32(y))
	s.dev.SetFloat(s.progs.mouse, "mouse_pow", s.input.Strength())
}

func (s *Sim) check(stage string) error {
	err := s.dev.Err()
	if err == nil {
		return nil
	}
	if s.params.Strict {
		return fmt.Errorf("%s: %w", stage, err)
	}
	s.log.Warn("device error", "stage", stage, "err", err)
	return nil
}
