package gui

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/san-kum/ripple/internal/compute"
	"github.com/san-kum/ripple/internal/pacing"
	"github.com/san-kum/ripple/internal/water"
)

// Options describe the window and the simulation it shows.
type Options struct {
	Title    string
	Width    int
	Height   int
	Sky      string
	Floor    string
	Params   water.Params
	Interval time.Duration
	Vsync    bool
	FPS      bool
	Logger   *slog.Logger
}

// Window owns the glfw window, its GL context and the simulation running
// on it. It must be created and run on the same locked OS thread.
type Window struct {
	opts  Options
	win   *glfw.Window
	dev   *compute.OpenGLBackend
	sim   *water.Sim
	log   *slog.Logger
	pacer *pacing.Pacer
}

func init() {
	// glfw and the GL context are bound to the main thread
	runtime.LockOSThread()
}

// Open creates a 4.3 core window sized to the grid and builds the
// simulation on it.
func Open(opts Options) (*Window, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Title == "" {
		opts.Title = "ripple"
	}

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize glfw: %w", err)
	}
	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	win, err := glfw.CreateWindow(opts.Width, opts.Height, opts.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	win.MakeContextCurrent()
	if opts.Vsync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	w := &Window{opts: opts, win: win, log: opts.Logger}
	if err := w.build(); err != nil {
		w.Close()
		return nil, err
	}
	w.bindCallbacks()
	return w, nil
}

func (w *Window) build() error {
	dev, err := compute.NewOpenGLBackend(water.Sources())
	if err != nil {
		return err
	}
	w.dev = dev

	st, err := water.NewState(dev, w.opts.Width, w.opts.Height)
	if err != nil {
		return err
	}
	if err := st.LoadBackground(w.opts.Sky, w.opts.Floor); err != nil {
		return err
	}
	sim, err := water.New(dev, st, w.opts.Params)
	if err != nil {
		return err
	}
	sim.SetLogger(w.log)
	w.sim = sim

	fw, fh := w.win.GetFramebufferSize()
	gl.Viewport(0, 0, int32(fw), int32(fh))

	w.log.Info("window ready",
		"backend", dev.Name(),
		"grid", fmt.Sprintf("%dx%d", st.Width, st.Height),
		"passes", len(sim.Schedule().Passes),
	)
	return nil
}

func (w *Window) bindCallbacks() {
	in := w.sim.Interaction()

	w.win.SetCursorPosCallback(func(win *glfw.Window, x, y float64) {
		// cursor positions are in screen coordinates, which may not match
		// the grid on scaled displays
		ww, wh := win.GetSize()
		if ww > 0 && wh > 0 {
			x *= float64(w.opts.Width) / float64(ww)
			y *= float64(w.opts.Height) / float64(wh)
		}
		in.PointerMove(x, y)
	})
	w.win.SetMouseButtonCallback(func(_ *glfw.Window, b glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		switch action {
		case glfw.Press:
			in.ButtonDown(button(b))
		case glfw.Release:
			in.ButtonUp(button(b))
		}
	})
	w.win.SetCursorEnterCallback(func(_ *glfw.Window, entered bool) {
		if entered {
			in.PointerEnter()
		} else {
			in.PointerLeave()
		}
	})
	w.win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		gl.Viewport(0, 0, int32(width), int32(height))
	})
	w.win.SetKeyCallback(func(win *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			win.SetShouldClose(true)
		}
	})
}

func button(b glfw.MouseButton) water.Button {
	switch b {
	case glfw.MouseButtonRight:
		return water.ButtonSecondary
	case glfw.MouseButtonMiddle:
		return water.ButtonMiddle
	}
	return water.ButtonPrimary
}

// Sim exposes the simulation for observers.
func (w *Window) Sim() *water.Sim { return w.sim }

// Run processes window events until the window closes or ctx is done.
// Each pacing signal draws the current surface, presents it and then
// advances the simulation by one frame.
func (w *Window) Run(ctx context.Context) error {
	w.pacer = pacing.NewPacer(w.opts.Interval, glfw.PostEmptyEvent)
	defer w.pacer.Stop()

	stop := context.AfterFunc(ctx, glfw.PostEmptyEvent)
	defer stop()

	frames := 0
	lastReport := time.Now()

	for !w.win.ShouldClose() {
		glfw.WaitEvents()
		if ctx.Err() != nil {
			w.log.Info("interrupted")
			return nil
		}

		select {
		case <-w.pacer.C:
		default:
			continue
		}

		if err := w.sim.Draw(); err != nil {
			return err
		}
		w.win.SwapBuffers()
		if err := w.sim.Advance(); err != nil {
			return err
		}

		frames++
		if w.opts.FPS {
			if elapsed := time.Since(lastReport); elapsed >= time.Second {
				w.log.Info("fps", "fps", float64(frames)/elapsed.Seconds(), "frame", w.sim.Frames())
				frames = 0
				lastReport = time.Now()
			}
		}
	}
	return nil
}

// Close releases the GL resources and the window.
func (w *Window) Close() {
	if w.dev != nil {
		w.dev.Close()
	}
	if w.win != nil {
		w.win.Destroy()
	}
	glfw.Terminate()
}
