package ecg

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestEvaluateBeatFiniteAcrossHeartRates(t *testing.T) {
	for hr := 30.0; hr <= 220; hr += 5 {
		p := DefaultParameters()
		p.HeartRate = hr
		syn := NewSynthesizer(p)
		m := p.Morphology(97)

		for ms := -1000; ms <= 1000; ms++ {
			v := syn.Eval(float64(ms)/1000, m.EffT, m.EffST, nil)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("hr=%v t=%dms: non-finite sample %v", hr, ms, v)
			}
			if math.Abs(v) > 5 {
				t.Fatalf("hr=%v t=%dms: sample %v out of bounds", hr, ms, v)
			}
		}
	}
}

func TestEvaluateBeatDegenerateParameters(t *testing.T) {
	p := Parameters{
		HeartRate:    -5,
		QDuration:    0,
		RDuration:    -1,
		SDuration:    math.NaN(),
		QRSWidth:     0,
		PDuration:    math.Inf(1),
		PRInterval:   -0.2,
		QTIntervalMs: 0,
		TDuration:    0,
	}
	for ms := -500; ms <= 500; ms += 3 {
		v := EvaluateBeat(p, float64(ms)/1000, math.NaN(), math.Inf(-1), nil)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("t=%dms: non-finite sample %v", ms, v)
		}
	}
}

func TestPWindowNeverCrowdsQ(t *testing.T) {
	pDurations := []float64{0.002, 0.05, 0.09, 0.2, 0.5}
	prIntervals := []float64{0, 0.05, 0.12, 0.3, 0.6}

	for hr := 30.0; hr <= 220; hr += 10 {
		for _, pd := range pDurations {
			for _, pr := range prIntervals {
				p := DefaultParameters()
				p.HeartRate = hr
				p.PDuration = pd
				p.PRInterval = pr
				l := NewLayout(p)

				gap := l.Q.Start - l.P.End
				if gap < minPQGap-eps {
					t.Errorf("hr=%v pd=%v pr=%v: P->Q gap %.4fs < %.4fs", hr, pd, pr, gap, minPQGap)
				}
				if l.P.Width() < minPWidth-eps && l.P.Width() < pd-eps {
					t.Errorf("hr=%v pd=%v pr=%v: P width %.4f below minimum", hr, pd, pr, l.P.Width())
				}
			}
		}
	}
}

func TestPWindowFollowsPRWhenFeasible(t *testing.T) {
	p := DefaultParameters()
	p.HeartRate = 60
	p.PRInterval = 0.15
	l := NewLayout(p)

	want := l.Q.Start - p.PRInterval
	if math.Abs(l.P.Center()-want) > eps {
		t.Errorf("P center = %.4f, want %.4f", l.P.Center(), want)
	}
	if math.Abs(l.P.Width()-p.PDuration) > eps {
		t.Errorf("P width = %.4f, want %.4f", l.P.Width(), p.PDuration)
	}
}

func TestPWindowShrinksAtHighRate(t *testing.T) {
	p := DefaultParameters()
	p.HeartRate = 120
	l := NewLayout(p)

	lower := l.T.End - p.RR() + minTPGap
	upper := l.Q.Start - minPQGap
	slack := upper - lower
	if slack >= p.PDuration || slack*pSlackFill < minPWidth {
		t.Fatalf("test setup: slack %.4f does not exercise the shrink branch", slack)
	}
	if math.Abs(l.P.Width()-pSlackFill*slack) > eps {
		t.Errorf("P width = %.4f, want 90%% of slack %.4f", l.P.Width(), slack)
	}
	if l.P.Start < lower-eps || l.P.End > upper+eps {
		t.Errorf("P [%.4f, %.4f] outside [%.4f, %.4f]", l.P.Start, l.P.End, lower, upper)
	}
}

func TestPWindowSacrificesTPGap(t *testing.T) {
	p := DefaultParameters()
	p.HeartRate = 220
	p.QTIntervalMs = 420
	l := NewLayout(p)

	if math.Abs(l.P.Width()-minPWidth) > eps {
		t.Errorf("P width = %.4f, want minimum %.4f", l.P.Width(), minPWidth)
	}
	if l.Q.Start-l.P.End < minPQGap-eps {
		t.Errorf("P->Q gap violated: %.4f", l.Q.Start-l.P.End)
	}
}

func TestTWindowPlacement(t *testing.T) {
	p := DefaultParameters()
	l := NewLayout(p)

	wantEnd := l.Q.Start + p.QTIntervalMs/1000
	if math.Abs(l.T.End-wantEnd) > eps {
		t.Errorf("T end = %.4f, want %.4f", l.T.End, wantEnd)
	}
	if l.T.Start < l.S.End+minSTGap-eps {
		t.Errorf("T start %.4f closer than %v to S end %.4f", l.T.Start, minSTGap, l.S.End)
	}

	// A QT shorter than S end + gap collapses T to the minimum width.
	p.QTIntervalMs = 20
	l = NewLayout(p)
	if l.T.Width() < minDuration-eps {
		t.Errorf("collapsed T width = %v", l.T.Width())
	}
}

func TestSWindowGapFromR(t *testing.T) {
	p := DefaultParameters()
	p.RDuration = 0.002
	p.QRSWidth = 0.05
	l := NewLayout(p)
	if l.S.Start < minRSGap-eps {
		t.Errorf("S start %.4f within %v of R", l.S.Start, minRSGap)
	}
}

func TestWindowTaper(t *testing.T) {
	w := Window{Start: 0, End: 1}
	tests := []struct {
		t    float64
		want float64
	}{
		{-0.1, 0},
		{0, 0},
		{0.05, 0.5},
		{0.5, 1},
		{0.95, 0.5},
		{1, 0},
		{1.1, 0},
	}
	for _, tt := range tests {
		if got := w.Taper(tt.t); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Taper(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestQNeverPositive(t *testing.T) {
	p := DefaultParameters()
	p.QWaveScale = -3
	syn := NewSynthesizer(p)
	l := syn.Layout()

	lead := LeadMultipliers{P: 0, Q: -2, R: 0, S: 0, T: 0}
	v := syn.Eval(l.Q.Center(), 0, 0, &lead)
	if v > 0 {
		t.Errorf("Q trough = %v, want <= 0", v)
	}
}

func TestRAttenuationFloor(t *testing.T) {
	p := DefaultParameters()
	p.QWaveScale = 1000
	syn := NewSynthesizer(p)

	lead := LeadMultipliers{Q: 1, R: 1}
	v := syn.Eval(0, 0, 0, &lead)
	if math.Abs(v-rFloor*nominalR) > 1e-6 {
		t.Errorf("R peak = %v, want floor %v", v, rFloor*nominalR)
	}
}

func TestSRaiseWithSTElevation(t *testing.T) {
	p := DefaultParameters()
	p.SFlatten = 1
	p.SMaxRaise = 0
	syn := NewSynthesizer(p)
	sc := syn.Layout().S.Center()

	sOnly := LeadMultipliers{S: 1}
	base := syn.Eval(sc, 0, 0, &sOnly)

	// The ST plateau adds effST at S center too; remove it to compare depth.
	stGain := syn.Layout().ST.Taper(sc)
	raised := syn.Eval(sc, 0, 0.7, &sOnly) - 0.7*stGain

	if base >= 0 {
		t.Fatalf("baseline S = %v, want negative", base)
	}
	if raised <= base {
		t.Errorf("S depth with ST elevation = %v, want shallower than %v", raised, base)
	}

	p.SFlatten = 0
	syn = NewSynthesizer(p)
	flat := syn.Eval(sc, 0, 0.7, &sOnly) - 0.7*stGain
	if math.Abs(flat-base) > 1e-9 {
		t.Errorf("SFlatten=0 changed S: %v vs %v", flat, base)
	}
}

func TestAVRInvertsPAndT(t *testing.T) {
	p := DefaultParameters()
	syn := NewSynthesizer(p)
	l := syn.Layout()
	avr := AVRLead()

	if v := syn.Eval(l.P.Center(), p.TScale, 0, nil); v <= 0 {
		t.Errorf("lead II P = %v, want positive", v)
	}
	if v := syn.Eval(l.P.Center(), p.TScale, 0, &avr); v >= 0 {
		t.Errorf("aVR P = %v, want negative", v)
	}
	if v := syn.Eval(l.T.Center(), p.TScale, 0, &avr); v >= 0 {
		t.Errorf("aVR T = %v, want negative", v)
	}
}

func TestBiphasicP(t *testing.T) {
	p := DefaultParameters()
	p.PBiphasic = true
	syn := NewSynthesizer(p)
	w := syn.Layout().P
	pOnly := LeadMultipliers{P: 1}

	early := syn.Eval(w.Center()-0.2*w.Width(), 0, 0, &pOnly)
	late := syn.Eval(w.Center()+0.25*w.Width(), 0, 0, &pOnly)
	if early <= 0 || late >= 0 {
		t.Errorf("biphasic P lobes = (%v, %v), want (+, -)", early, late)
	}
}
