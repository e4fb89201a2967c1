package ecg

import "math"

// Nominal component amplitudes in signal units before any scaling.
const (
	nominalQ = 0.12
	nominalR = 1.0
	nominalS = -0.25

	// R loses this fraction per unit of Q scale above 1, down to rFloor.
	qEncroach = 0.3
	rFloor    = 0.05

	// e-folding distance (mV) of the S raise above the ST threshold.
	sRaiseRate = 0.15

	biphasicRatio = 0.6
)

// Synthesizer evaluates single beats for one immutable parameter snapshot.
// It is safe for concurrent use.
type Synthesizer struct {
	params Parameters
	layout Layout
}

// NewSynthesizer copies and sanitizes p and precomputes its window layout.
func NewSynthesizer(p Parameters) *Synthesizer {
	p = p.Sanitized()
	return &Synthesizer{params: p, layout: NewLayout(p)}
}

// Params returns the sanitized snapshot the synthesizer was built from.
func (s *Synthesizer) Params() Parameters { return s.params }

// Layout returns the component windows.
func (s *Synthesizer) Layout() Layout { return s.layout }

// EvaluateBeat is a one-shot form of NewSynthesizer(p).Eval.
func EvaluateBeat(p Parameters, t, effT, effST float64, lead *LeadMultipliers) float64 {
	return NewSynthesizer(p).Eval(t, effT, effST, lead)
}

// Eval returns the signal at t seconds from the R peak. effT and effST are
// the ischemia-adjusted T scale and ST offset. A nil lead means unit gain.
func (s *Synthesizer) Eval(t, effT, effST float64, lead *LeadMultipliers) float64 {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0
	}
	lm := DefaultLead()
	if lead != nil {
		lm = *lead
	}
	effT = finiteOr(effT, 0)
	effST = finiteOr(effST, 0)

	p := s.params
	l := s.layout

	v := s.pWave(t, p.PAmplitude*p.PWaveScale*lm.P)

	qScale := p.QWaveScale * lm.Q
	qAmp := -math.Abs(nominalQ * qScale)
	v += qAmp * pulse(t, l.Q, l.Q.Width()/6)

	atten := clamp(1-qEncroach*math.Max(0, math.Abs(qScale)-1), rFloor, 1)
	rAmp := nominalR * p.RWaveScale * lm.R * atten
	v += rAmp * pulse(t, l.R, l.R.Width()/6)

	sAmp := s.raiseS(nominalS*p.SWaveScale*lm.S*atten, effST)
	v += sAmp * pulse(t, l.S, l.S.Width()/6)

	tAmp := effT * p.TWaveScale * lm.T
	v += tAmp * pulse(t, l.T, p.TDuration/4)

	v += effST * l.ST.Taper(t)

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func (s *Synthesizer) pWave(t, amp float64) float64 {
	w := s.layout.P
	if t < w.Start || t > w.End || amp == 0 {
		return 0
	}
	width := w.Width()
	if !s.params.PBiphasic {
		return amp * pulse(t, w, width/5)
	}
	first := amp * gauss(t, w.Center()-0.2*width, width/8)
	second := -biphasicRatio * amp * gauss(t, w.Center()+0.25*width, width/8)
	return (first + second) * w.Taper(t)
}

// raiseS pulls the S trough toward SMaxRaise once ST elevation passes the
// threshold. The pull grows as 1-exp(-excess/rate) and SFlatten blends it in.
func (s *Synthesizer) raiseS(depth, effST float64) float64 {
	p := s.params
	if effST <= p.SRaiseThreshold || p.SFlatten == 0 {
		return depth
	}
	decay := 1 - math.Exp(-(effST-p.SRaiseThreshold)/sRaiseRate)
	raised := depth + (p.SMaxRaise-depth)*decay
	return lerp(depth, raised, p.SFlatten)
}

func pulse(t float64, w Window, sigma float64) float64 {
	g := w.Taper(t)
	if g == 0 {
		return 0
	}
	return g * gauss(t, w.Center(), sigma)
}

func gauss(x, mu, sigma float64) float64 {
	if sigma <= 0 {
		return 0
	}
	z := (x - mu) / sigma
	return math.Exp(-0.5 * z * z)
}
