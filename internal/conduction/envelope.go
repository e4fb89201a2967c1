package conduction

// Phase is where an item sits within its envelope.
type Phase int

const (
	PhaseRampUp Phase = iota
	PhaseSustain
	PhaseRampDown
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseRampUp:
		return "ramp-up"
	case PhaseSustain:
		return "sustain"
	case PhaseRampDown:
		return "ramp-down"
	default:
		return "done"
	}
}

// EnvelopeTimes are resolved envelope phase lengths in milliseconds.
type EnvelopeTimes struct {
	RampUp, Sustain, RampDown float64
}

// Total is the summed length of all three phases.
func (e EnvelopeTimes) Total() float64 {
	return e.RampUp + e.Sustain + e.RampDown
}

// Fit scales the phases down proportionally so they fit in effective ms.
// Envelopes already shorter than effective are returned as is.
func (e EnvelopeTimes) Fit(effective float64) EnvelopeTimes {
	total := e.Total()
	if total <= effective || total <= 0 {
		return e
	}
	k := effective / total
	return EnvelopeTimes{
		RampUp:   e.RampUp * k,
		Sustain:  e.Sustain * k,
		RampDown: e.RampDown * k,
	}
}

// Alpha returns the envelope opacity at elapsed ms and the phase it falls in.
func (e EnvelopeTimes) Alpha(elapsed float64) (float64, Phase) {
	if elapsed < 0 {
		elapsed = 0
	}
	switch {
	case elapsed < e.RampUp:
		return elapsed / e.RampUp, PhaseRampUp
	case elapsed < e.RampUp+e.Sustain:
		return 1, PhaseSustain
	case elapsed < e.Total():
		return 1 - (elapsed-e.RampUp-e.Sustain)/e.RampDown, PhaseRampDown
	default:
		return 0, PhaseDone
	}
}

// Resolve turns the envelope's sources into milliseconds. Negative manual
// values count as zero.
func (env Envelope) Resolve(r FeatureResolver) EnvelopeTimes {
	return EnvelopeTimes{
		RampUp:   nonNegative(env.RampUp.Resolve(r)),
		Sustain:  nonNegative(env.Sustain.Resolve(r)),
		RampDown: nonNegative(env.RampDown.Resolve(r)),
	}
}

func nonNegative(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}
