package water

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/san-kum/ripple/internal/compute"
)

const (
	// spectral samples per caustic ray
	bands = 5
	// photon count that renders at full caustic strength
	photonScale = 64
	sunExponent = 128
)

var (
	down = mgl32.Vec3{0, 0, -1}
	up   = mgl32.Vec3{0, 0, 1}

	// red, yellow, green, cyan, blue
	bandWeights = [bands][4]uint32{
		{2, 0, 0, 0},
		{1, 1, 0, 0},
		{0, 2, 0, 0},
		{0, 1, 1, 0},
		{0, 0, 2, 0},
	}
)

// Kernels returns the CPU implementations of every water program. They
// mirror the GLSL returned by Sources.
func Kernels() compute.KernelSet {
	return compute.KernelSet{
		ProgramAccel: {
			Images: []compute.Access{compute.Read, compute.Read, compute.Write},
			Run:    accel,
		},
		ProgramVerlet: {
			Images: []compute.Access{compute.ReadWrite, compute.ReadWrite, compute.Read},
			Run:    verlet,
		},
		ProgramMouse: {
			Images: []compute.Access{compute.ReadWrite},
			Run:    mouse,
		},
		ProgramNormal: {
			Images: []compute.Access{compute.Read, compute.Write},
			Run:    normal,
		},
		ProgramDecay: {
			Images: []compute.Access{compute.ReadWrite},
			Run:    decay,
		},
		ProgramPhoton: {
			Images: []compute.Access{compute.Read, compute.ReadWrite},
			Serial: true,
			Run:    photon,
		},
		ProgramRender: {
			Textures: 4,
			Draw:     true,
			Run:      render,
		},
	}
}

// height reads pos with neighbours clamped to the grid edge.
func height(inv *compute.Invocation, slot, x, y int) float32 {
	w, h := inv.Size()
	return inv.LoadScalar(slot, clamp(x, 0, w-1), clamp(y, 0, h-1))
}

func accel(inv *compute.Invocation, x, y int) {
	lap := height(inv, 0, x-1, y) + height(inv, 0, x+1, y) +
		height(inv, 0, x, y-1) + height(inv, 0, x, y+1) -
		4*height(inv, 0, x, y)
	inv.StoreScalar(2, x, y, lap-inv.Float("damping")*inv.LoadScalar(1, x, y))
}

func verlet(inv *compute.Invocation, x, y int) {
	dt := inv.Float("dt")
	v := inv.LoadScalar(1, x, y) + inv.LoadScalar(2, x, y)*dt
	p := inv.LoadScalar(0, x, y) + v*dt
	inv.StoreScalar(1, x, y, v)
	inv.StoreScalar(0, x, y, p)
}

func mouse(inv *compute.Invocation, x, y int) {
	mx, my := inv.Int2("mouse_pos")
	radius := inv.Float("mouse_rad")
	d := mgl32.Vec2{float32(x - int(mx)), float32(y - int(my))}.Len()
	if d >= radius {
		return
	}
	r := d / radius
	falloff := (1 - r*r) * (1 - r*r)
	inv.StoreScalar(0, x, y, inv.LoadScalar(0, x, y)+inv.Float("mouse_pow")*falloff)
}

func normal(inv *compute.Invocation, x, y int) {
	dx := (height(inv, 0, x+1, y) - height(inv, 0, x-1, y)) / 2
	dy := (height(inv, 0, x, y+1) - height(inv, 0, x, y-1)) / 2
	n := mgl32.Vec3{-dx, -dy, 1}.Normalize()
	inv.Store(1, x, y, [4]float32{n[0], n[1], n[2], height(inv, 0, x, y)})
}

func decay(inv *compute.Invocation, x, y int) {
	c := inv.LoadU(0, x, y)
	for i := range c {
		c[i] = c[i] * 15 / 16
	}
	inv.StoreU(0, x, y, c)
}

func photon(inv *compute.Invocation, x, y int) {
	w, h := inv.Size()
	nv := inv.Load(0, x, y)
	n := mgl32.Vec3{nv[0], nv[1], nv[2]}

	jitter := hash(uint32(x), uint32(y), uint32(inv.Int("rand_seed")))
	ox := float32(x) + float32(jitter&0xffff)/65536
	oy := float32(y) + float32(jitter>>16)/65536
	travel := inv.Float("depth") * float32(w)
	eta := inv.Float("eta")
	dispersion := inv.Float("dispersion")

	for k := 0; k < bands; k++ {
		t := refract(down, n, 1/(eta+float32(k)*dispersion))
		if t.Z() >= 0 {
			continue
		}
		lx := int(math.Floor(float64(ox + t.X()/-t.Z()*travel)))
		ly := int(math.Floor(float64(oy + t.Y()/-t.Z()*travel)))
		lx, ly = compute.Mirror(lx, w), compute.Mirror(ly, h)

		c := inv.LoadU(1, lx, ly)
		for i, wgt := range bandWeights[k] {
			c[i] = min(c[i]+wgt, 255)
		}
		inv.StoreU(1, lx, ly, c)
	}
}

func render(inv *compute.Invocation, x, y int) {
	fw, fh := inv.Size()
	u := (float32(x) + 0.5) / float32(fw)
	v := (float32(y) + 0.5) / float32(fh)

	nv := inv.Sample(0, u, v)
	n := mgl32.Vec3{nv[0], nv[1], nv[2]}
	if n.Len() > 0 {
		n = n.Normalize()
	} else {
		n = up
	}
	gw, gh := inv.TextureSize(0)
	scale := mgl32.Vec2{1, float32(gw) / float32(gh)}.Mul(inv.Float("water_refraction_depth"))

	eta := inv.Float("water_refraction")
	dispersion := inv.Float("dispersion")
	var floor [3]float32
	for c := 0; c < 3; c++ {
		t := refract(down, n, 1/(eta+float32(c-1)*dispersion))
		var off mgl32.Vec2
		if t.Z() < 0 {
			off = mgl32.Vec2{t.X() / -t.Z() * scale.X(), t.Y() / -t.Z() * scale.Y()}
		}
		floor[c] = inv.Sample(2, u+off.X(), v+off.Y())[c]
	}

	r := reflect(down, n)
	lift := inv.Float("reflection_height") / max(r.Z(), 0.05)
	sky := inv.Sample(1, u+r.X()*lift/float32(gw), v+r.Y()*lift/float32(gh))

	ph := inv.Sample(3, u, v)
	strength := inv.Float("photon_strength")
	sunDir := inv.Vec3("sun_dir")
	sun := inv.Float("sun_strength") *
		float32(math.Pow(float64(max(r.Dot(mgl32.Vec3(sunDir)), 0)), sunExponent))

	ambient := inv.Float("ambient")
	refl := inv.Float("reflection_strength")
	var out [4]float32
	for c := 0; c < 3; c++ {
		caustic := strength * ph[c] / photonScale
		out[c] = floor[c]*(ambient+caustic)*(1-refl) + sky[c]*refl + sun
	}
	out[3] = 1
	inv.Emit(x, y, out)
}

// refract follows GLSL refract: eta is the ratio of indices and total
// internal reflection yields the zero vector.
func refract(i, n mgl32.Vec3, eta float32) mgl32.Vec3 {
	d := n.Dot(i)
	k := 1 - eta*eta*(1-d*d)
	if k < 0 {
		return mgl32.Vec3{}
	}
	return i.Mul(eta).Sub(n.Mul(eta*d + float32(math.Sqrt(float64(k)))))
}

func reflect(i, n mgl32.Vec3) mgl32.Vec3 {
	return i.Sub(n.Mul(2 * n.Dot(i)))
}

// hash decorrelates per-cell ray jitter between frames.
func hash(x, y, seed uint32) uint32 {
	h := x*0x8da6b343 ^ y*0xd8163841 ^ seed*0xcb1ab31f
	h ^= h >> 16
	h *= 0x7feb352d
	h ^= h >> 15
	h *= 0x846ca68b
	h ^= h >> 16
	return h
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
