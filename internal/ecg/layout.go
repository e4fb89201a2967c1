package ecg

import "math"

// Placement constants, all in seconds.
const (
	minPQGap   = 0.040 // P end to Q start, never violated
	minTPGap   = 0.030 // previous T end to P start, sacrificed first
	minPWidth  = 0.010
	minRSGap   = 0.006 // R peak to S window start
	minSTGap   = 0.020 // S end to T start
	stOverlap  = 0.085 // ST plateau starts this far before S end
	pSlackFill = 0.9

	taperFrac = 0.1
)

// Window is a time interval relative to the R peak within which one
// component contributes. Both edges taper with a raised cosine.
type Window struct {
	Start float64
	End   float64
}

// Width of the window in seconds.
func (w Window) Width() float64 { return w.End - w.Start }

// Center of the window in seconds.
func (w Window) Center() float64 { return (w.Start + w.End) / 2 }

// Taper returns the window gain at t: 0 outside, 1 across the middle 80%,
// and a raised-cosine ramp over the first and last 10%.
func (w Window) Taper(t float64) float64 {
	width := w.Width()
	if width <= 0 || t < w.Start || t > w.End {
		return 0
	}
	frac := (t - w.Start) / width
	switch {
	case frac < taperFrac:
		return 0.5 * (1 - math.Cos(math.Pi*frac/taperFrac))
	case frac > 1-taperFrac:
		return 0.5 * (1 - math.Cos(math.Pi*(1-frac)/taperFrac))
	default:
		return 1
	}
}

// Layout holds every component window of one beat.
type Layout struct {
	P, Q, R, S, T, ST Window
}

// QRSStart is the onset of the Q window.
func (l Layout) QRSStart() float64 { return l.Q.Start }

// NewLayout places the component windows for a sanitized snapshot.
//
// Q, R and S sit at fixed offsets around the R peak. T ends a QT interval
// after Q onset. P is pulled toward Q onset minus the PR interval and then
// squeezed between the previous beat's T wave and Q.
func NewLayout(p Parameters) Layout {
	p = p.Sanitized()

	wQ := positive(p.QDuration * p.QRSWidth)
	wR := positive(p.RDuration * p.QRSWidth)
	wS := positive(p.SDuration * p.QRSWidth)

	var l Layout
	l.R = Window{Start: -wR / 2, End: wR / 2}

	qEnd := -0.25 * wR
	l.Q = Window{Start: qEnd - wQ, End: qEnd}

	sStart := math.Max(minRSGap, 0.25*wR)
	l.S = Window{Start: sStart, End: sStart + wS}

	l.T = placeT(p, l.Q.Start, l.S.End)
	l.P = placeP(p, l.Q.Start, l.T.End-p.RR())

	stStart := l.S.End - stOverlap
	stEnd := l.T.Center()
	if stEnd > stStart {
		l.ST = Window{Start: stStart, End: stEnd}
	}
	return l
}

func placeT(p Parameters, qStart, sEnd float64) Window {
	end := qStart + p.QTIntervalMs/1000
	start := math.Max(end-p.TDuration, sEnd+minSTGap)
	if end-start < minDuration {
		end = start + minDuration
	}
	return Window{Start: start, End: end}
}

// placeP fits the P window between prevTEnd+minTPGap and qStart-minPQGap.
// When the two gaps cannot both hold, P shrinks to 90% of the slack; when
// even that is below minPWidth a minimum-width P is centred in the slack but
// never allowed closer than minPQGap to Q.
func placeP(p Parameters, qStart, prevTEnd float64) Window {
	lower := prevTEnd + minTPGap
	upper := qStart - minPQGap
	target := qStart - p.PRInterval

	dur := p.PDuration
	slack := upper - lower
	shrunk := false
	if dur > slack {
		dur = pSlackFill * slack
		shrunk = true
	}

	var center float64
	if shrunk && dur < minPWidth {
		dur = minPWidth
		center = math.Min((lower+upper)/2, upper-dur/2)
	} else {
		center = clamp(target, lower+dur/2, upper-dur/2)
	}
	return Window{Start: center - dur/2, End: center + dur/2}
}
