package ecg

import (
	"math"
	"testing"
)

func TestMapIschemiaBreakpoints(t *testing.T) {
	const baseT, baseST = 0.3, 0.02

	tests := []struct {
		pct    float64
		wantT  float64
		wantST float64
	}{
		{0, baseT, baseST},
		{25, (baseT - 1) / 2, baseST},
		{50, -1, baseST},
		{70, -1, (baseST - 0.4) / 2},
		{90, -1, -0.4},
		{92.5, -1, -0.15},
		{95, -1, 0.1},
		{97.5, -0.625, 0.4},
		{100, -0.25, 0.7},
		// out of range inputs clamp
		{-10, baseT, baseST},
		{150, -0.25, 0.7},
	}

	for _, tt := range tests {
		got := MapIschemia(tt.pct, baseT, baseST)
		if math.Abs(got.EffT-tt.wantT) > 1e-9 || math.Abs(got.EffST-tt.wantST) > 1e-9 {
			t.Errorf("MapIschemia(%v) = {%.4f, %.4f}, want {%.4f, %.4f}",
				tt.pct, got.EffT, got.EffST, tt.wantT, tt.wantST)
		}
	}
}

func TestMapIschemiaContinuousAtBandEdges(t *testing.T) {
	const d = 1e-7
	for _, edge := range []float64{50, 90, 95} {
		a := MapIschemia(edge, 0.3, 0)
		b := MapIschemia(edge+d, 0.3, 0)
		if math.Abs(a.EffT-b.EffT) > 1e-5 || math.Abs(a.EffST-b.EffST) > 1e-5 {
			t.Errorf("discontinuity at %v: %+v vs %+v", edge, a, b)
		}
	}
}

func TestParametersMorphologyUsesBaseline(t *testing.T) {
	p := DefaultParameters()
	p.TScale = 0.4
	p.STOffset = -0.05

	m := p.Morphology(0)
	if m.EffT != 0.4 || m.EffST != -0.05 {
		t.Errorf("Morphology(0) = %+v, want baseline", m)
	}
}

func TestIschemiaInputsPercent(t *testing.T) {
	tests := []struct {
		name string
		in   IschemiaInputs
		lo   float64
		hi   float64
	}{
		{"healthy", IschemiaInputs{StenosisPct: 0, ThrombusPct: 0, METs: 1}, 0, 0},
		{"mild stenosis at rest", IschemiaInputs{StenosisPct: 40, METs: 1}, 0, 1},
		{"occluded", IschemiaInputs{StenosisPct: 100}, 100, 100},
		{"thrombus fills lumen", IschemiaInputs{StenosisPct: 60, ThrombusPct: 100}, 100, 100},
		{"severe under load", IschemiaInputs{StenosisPct: 90, METs: 10}, 70, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Percent()
			if got < tt.lo || got > tt.hi {
				t.Errorf("Percent() = %v, want in [%v, %v]", got, tt.lo, tt.hi)
			}
		})
	}
}

func TestIschemiaInputsMonotonic(t *testing.T) {
	prev := -1.0
	for s := 0.0; s <= 100; s += 5 {
		got := IschemiaInputs{StenosisPct: s, METs: 6}.Percent()
		if got < prev {
			t.Fatalf("stenosis %v: percent %v dropped below %v", s, got, prev)
		}
		prev = got
	}

	rest := IschemiaInputs{StenosisPct: 75, METs: 1}.Percent()
	load := IschemiaInputs{StenosisPct: 75, METs: 8}.Percent()
	if load <= rest {
		t.Errorf("load %v should exceed rest %v", load, rest)
	}
}
