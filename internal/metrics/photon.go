package metrics

// PhotonMean is the mean caustic intensity over the red, green and blue
// channels of the photon field.
type PhotonMean struct {
	name string
	mean float64
}

func NewPhotonMean() *PhotonMean {
	return &PhotonMean{name: "photon_mean"}
}

func (p *PhotonMean) Name() string { return p.name }

func (p *PhotonMean) Observe(s Sample) {
	var sum float64
	var n int
	for i := 0; i+3 < len(s.Photon); i += 4 {
		sum += float64(s.Photon[i]) + float64(s.Photon[i+1]) + float64(s.Photon[i+2])
		n += 3
	}
	if n == 0 {
		p.mean = 0
		return
	}
	p.mean = sum / float64(n)
}

func (p *PhotonMean) Value() float64 { return p.mean }

func (p *PhotonMean) Reset() { p.mean = 0 }
