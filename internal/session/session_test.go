package session

import (
	"math"
	"testing"

	"github.com/icco/genecg/internal/conduction"
	"github.com/icco/genecg/internal/ecg"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	p := ecg.DefaultParameters()
	p.HeartRate = 60
	return New(Options{Params: p, Width: 100, PixelsPerSecond: 50, FPS: 30})
}

func TestStepAppliesQueuedBatch(t *testing.T) {
	s := newSession(t)
	if err := s.Queue().Push(ecg.Command{Param: "heart_rate", Value: 120}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if s.Params().HeartRate != 60 {
		t.Fatalf("batch applied before the tick boundary")
	}

	tick := s.Step(1)
	if tick.Params.HeartRate != 120 || s.Params().HeartRate != 120 {
		t.Errorf("heart rate = %v after step, want 120", tick.Params.HeartRate)
	}
	if len(tick.Strip) != 101 {
		t.Errorf("strip length = %d, want 101", len(tick.Strip))
	}
}

func TestStepCountsBeats(t *testing.T) {
	s := newSession(t)

	var beats int
	for i := 0; i <= 35; i++ {
		if s.Step(float64(i) / 10).Beat {
			beats++
		}
	}
	// R waves at 1, 2 and 3 seconds; the first tick only sets the phase.
	if beats != 3 {
		t.Errorf("beats = %d, want 3", beats)
	}
}

func TestHeartRateChangeKeepsPhase(t *testing.T) {
	s := newSession(t)

	before := s.Step(100.30)
	if before.LastBeat != 100 {
		t.Fatalf("anchor = %v, want 100", before.LastBeat)
	}
	if err := s.Queue().Push(ecg.Command{Param: "heart_rate", Value: 77}); err != nil {
		t.Fatalf("Push: %v", err)
	}

	after := s.Step(100.34)
	if after.Beat {
		t.Error("rate change reported a beat with no R wave since the last tick")
	}
	if after.LastBeat != 100 {
		t.Errorf("newest past beat moved to %v, want 100", after.LastBeat)
	}

	// The R wave at 100 s is 17 px behind the right edge.
	peak := 70
	for x := 70; x < len(after.Strip); x++ {
		if after.Strip[x] > after.Strip[peak] {
			peak = x
		}
	}
	if peak != 83 {
		t.Errorf("R peak at pixel %d, want 83", peak)
	}

	next := s.Step(100.80)
	if !next.Beat || next.Beats != 1 {
		t.Errorf("beat = %v, beats = %d; want the R wave at 100.78 s", next.Beat, next.Beats)
	}
	if math.Abs(next.LastBeat-(100+60.0/77)) > 1e-9 {
		t.Errorf("anchor = %v, want %v", next.LastBeat, 100+60.0/77)
	}
}

func TestIschemiaEasesTowardTarget(t *testing.T) {
	s := newSession(t)
	s.SetIschemia(ecg.IschemiaInputs{StenosisPct: 100, METs: 1})

	first := s.Step(0).IschemiaPct
	if first <= 0 || first >= 100 {
		t.Fatalf("first frame jumped to %v", first)
	}
	var last float64
	for i := 1; i < 300; i++ {
		last = s.Step(float64(i) / 30).IschemiaPct
	}
	if math.Abs(last-100) > 0.5 {
		t.Errorf("settled at %v, want 100", last)
	}
}

func TestConductionTracksLiveParameters(t *testing.T) {
	s := newSession(t)
	s.Scheduler().Play(0)

	before := s.Scheduler().StepDuration(2)
	if err := s.Queue().Push(ecg.Command{Param: "qrs_width", Value: 2}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	s.Step(0)
	after := s.Scheduler().StepDuration(2)
	if math.Abs(after-2*before) > 1e-9 {
		t.Errorf("QRS step %v -> %v, want doubled", before, after)
	}
}

func TestOverridesAndItems(t *testing.T) {
	it := conduction.NewPath(4, conduction.Point{}, conduction.Point{X: 1})
	s := New(Options{
		Params:    ecg.DefaultParameters(),
		Items:     []conduction.Item{it},
		Overrides: map[int]float64{4: 250},
	})
	if got := s.Scheduler().StepDuration(4); got != 250 {
		t.Errorf("StepDuration(4) = %v, want 250", got)
	}
	if order := s.Scheduler().StepOrder(); len(order) != 1 || order[0] != 4 {
		t.Errorf("order = %v", order)
	}
}

func TestConductionUsesSanitizedParameters(t *testing.T) {
	s := newSession(t)
	// The trace clamps a negative PR interval to 0, so TP is RR - QT.
	if err := s.Queue().Push(ecg.Command{Param: "pr_interval", Value: -0.5}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	s.Step(0)

	if got := s.Scheduler().StepDuration(4); got != 620 {
		t.Errorf("TP step = %v ms, want 620", got)
	}
}

func TestLeadSwitchInvertsT(t *testing.T) {
	s := newSession(t)
	p := s.Params()
	tPeak := ecg.NewLayout(p.Sanitized()).T.Center()

	// Sample the newest pixel exactly at the T peak of the beat at 1 s.
	normal := s.Step(1 + tPeak).Strip
	s.SetLead(ecg.AVRLead())
	inverted := s.Step(1 + tPeak).Strip

	n, i := normal[len(normal)-1], inverted[len(inverted)-1]
	if n <= 0 || i >= 0 {
		t.Errorf("T peak lead II %v, aVR %v; want opposite signs", n, i)
	}
}
