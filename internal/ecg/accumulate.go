package ecg

import "math"

// Accumulator overlays every beat visible in a sweep window onto a pixel
// buffer. Output pixel x shows time now-(Width-x)/PixelsPerSecond, so the
// newest sample is on the right.
//
// Beats are placed with whole-pixel shifts of one shared template. A beat
// therefore keeps the same pixel pattern from frame to frame instead of
// shimmering with sub-pixel resampling.
type Accumulator struct {
	Width           int
	PixelsPerSecond float64
}

func (a Accumulator) valid() bool {
	return a.Width > 0 && a.PixelsPerSecond > 0 &&
		!math.IsInf(a.PixelsPerSecond, 0) && !math.IsNaN(a.PixelsPerSecond)
}

// Template samples one beat at every pixel offset in [-Width, Width].
// Index k corresponds to t = (k-Width)/PixelsPerSecond.
func (a Accumulator) Template(syn *Synthesizer, effT, effST float64, lead *LeadMultipliers) []float64 {
	if !a.valid() {
		return nil
	}
	tpl := make([]float64, 2*a.Width+1)
	for k := range tpl {
		t := float64(k-a.Width) / a.PixelsPerSecond
		tpl[k] = syn.Eval(t, effT, effST, lead)
	}
	return tpl
}

// BeatTimes returns the R-peak instants (seconds) of every beat whose
// template can reach the output at time now. Beats sit on the n*RR grid and
// are listed newest first.
func (a Accumulator) BeatTimes(now, heartRate float64) []float64 {
	rr := 60 / clampHeartRate(heartRate)
	return a.BeatTimesFrom(math.Floor(now/rr)*rr, now, heartRate)
}

// BeatTimesFrom is BeatTimes for a rhythm anchored on a known R wave at
// anchor. Beats are spaced one current RR apart on either side of it, so a
// rate change leaves the anchor beat where it is.
func (a Accumulator) BeatTimesFrom(anchor, now, heartRate float64) []float64 {
	if !a.valid() || !finite(now) || !finite(anchor) {
		return nil
	}
	rr := 60 / clampHeartRate(heartRate)
	span := float64(a.Width) / a.PixelsPerSecond

	// A beat touches the output while its shift lies in [-Width, 2*Width].
	newest := now + span
	oldest := now - 2*span

	// Bounded so a clock too large to step by rr cannot spin forever.
	limit := int(math.Ceil(3*span/rr)) + 1
	first := math.Floor((newest - anchor) / rr)

	beats := make([]float64, 0, limit)
	for i := 0; i < limit; i++ {
		bt := anchor + (first-float64(i))*rr
		if bt < oldest {
			break
		}
		beats = append(beats, bt)
	}
	return beats
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Overlay sums the template into Width+1 samples, one copy per beat.
func (a Accumulator) Overlay(tpl []float64, now float64, beats []float64) []float64 {
	if !a.valid() || len(tpl) != 2*a.Width+1 {
		return nil
	}
	out := make([]float64, a.Width+1)
	for _, bt := range beats {
		shift := int(math.Round((now - bt) * a.PixelsPerSecond))
		// out[x] += tpl[x+shift] for the overlapping range
		lo := max(0, -shift)
		hi := min(a.Width, 2*a.Width-shift)
		for x := lo; x <= hi; x++ {
			out[x] += tpl[x+shift]
		}
	}
	return out
}

// Accumulate renders the strip ending at now (seconds).
func (a Accumulator) Accumulate(syn *Synthesizer, now, effT, effST float64, lead *LeadMultipliers) []float64 {
	tpl := a.Template(syn, effT, effST, lead)
	beats := a.BeatTimes(now, syn.Params().HeartRate)
	return a.Overlay(tpl, now, beats)
}

// AccumulateFrom renders the strip ending at now with beats anchored on the
// R wave at anchor.
func (a Accumulator) AccumulateFrom(syn *Synthesizer, anchor, now, effT, effST float64, lead *LeadMultipliers) []float64 {
	tpl := a.Template(syn, effT, effST, lead)
	beats := a.BeatTimesFrom(anchor, now, syn.Params().HeartRate)
	return a.Overlay(tpl, now, beats)
}
