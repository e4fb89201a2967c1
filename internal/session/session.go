// Package session owns the live state shared by every front end: the
// parameter snapshot, the command queue, the synthesizer and the conduction
// scheduler. A front end calls Step once per frame from a single goroutine.
package session

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/icco/genecg/internal/conduction"
	"github.com/icco/genecg/internal/ecg"
	"go.uber.org/zap"
)

// Options configures a Session.
type Options struct {
	Params          ecg.Parameters
	Ischemia        ecg.IschemiaInputs
	Lead            ecg.LeadMultipliers
	Items           []conduction.Item
	Overrides       map[int]float64
	Width           int
	PixelsPerSecond float64
	FPS             int
	Logger          *zap.Logger
}

// Tick is everything a front end needs to draw one frame.
type Tick struct {
	Now         float64 // seconds
	Params      ecg.Parameters
	IschemiaPct float64 // smoothed
	Morphology  ecg.Morphology
	Strip       []float64
	Conduction  conduction.Frame
	// Beat is set on the first tick after a new R wave.
	Beat  bool
	Beats int
	// LastBeat is the newest R wave at or before Now, in seconds.
	LastBeat float64
}

// Session is the tick-driven state machine behind the monitor and the
// streamer.
type Session struct {
	params   ecg.Parameters
	ischemia ecg.IschemiaInputs
	lead     ecg.LeadMultipliers
	queue    ecg.CommandQueue
	syn      *ecg.Synthesizer
	sched    *conduction.Scheduler
	acc      ecg.Accumulator
	log      *zap.Logger

	spring      harmonica.Spring
	pct, pctVel float64

	// lastBeat anchors the rhythm so a rate change only alters the spacing
	// of beats after it.
	lastBeat float64
	beats    int
}

// New builds a session. Invalid geometry falls back to a 250 pixel strip at
// 50 px/s.
func New(opts Options) *Session {
	if opts.Width <= 0 {
		opts.Width = 250
	}
	if opts.PixelsPerSecond <= 0 {
		opts.PixelsPerSecond = 50
	}
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Lead == (ecg.LeadMultipliers{}) {
		opts.Lead = ecg.DefaultLead()
	}

	s := &Session{
		params:    opts.Params,
		ischemia:  opts.Ischemia,
		lead:      opts.Lead,
		syn:       ecg.NewSynthesizer(opts.Params),
		acc:       ecg.Accumulator{Width: opts.Width, PixelsPerSecond: opts.PixelsPerSecond},
		log:       opts.Logger,
		spring:    harmonica.NewSpring(harmonica.FPS(opts.FPS), 6.0, 1.0),
		pct:       opts.Ischemia.Percent(),
		lastBeat:  math.NaN(),
	}

	// Bound durations read the sanitized snapshot the trace is drawn from.
	s.sched = conduction.New(conduction.FeatureResolverFunc(func(f ecg.Feature) (float64, bool) {
		return s.syn.Params().ResolveFeatureMs(f)
	}))
	items := opts.Items
	if items == nil {
		items = conduction.DefaultPathway()
	}
	s.sched.SetItems(items)
	for step, ms := range opts.Overrides {
		s.sched.SetOverride(step, ms)
	}
	return s
}

// Queue accepts parameter command batches from any goroutine.
func (s *Session) Queue() *ecg.CommandQueue { return &s.queue }

// Scheduler exposes the conduction scheduler for playback control.
func (s *Session) Scheduler() *conduction.Scheduler { return s.sched }

// Params returns the live snapshot.
func (s *Session) Params() ecg.Parameters { return s.params }

// Ischemia returns the coronary inputs.
func (s *Session) Ischemia() ecg.IschemiaInputs { return s.ischemia }

// SetIschemia replaces the coronary inputs. The displayed percentage eases
// toward the new value over the next frames.
func (s *Session) SetIschemia(in ecg.IschemiaInputs) { s.ischemia = in }

// Lead returns the active lead multipliers.
func (s *Session) Lead() ecg.LeadMultipliers { return s.lead }

// SetLead switches the lead multipliers.
func (s *Session) SetLead(l ecg.LeadMultipliers) { s.lead = l }

// Step applies queued commands, advances every engine to now (seconds) and
// returns the frame.
func (s *Session) Step(now float64) Tick {
	if next, n := s.queue.Drain(s.params); n > 0 {
		s.params = next
		s.syn = ecg.NewSynthesizer(next)
		s.log.Debug("applied parameter batches",
			zap.Int("batches", n),
			zap.Float64("heart_rate", next.HeartRate),
		)
	}

	s.pct, s.pctVel = s.spring.Update(s.pct, s.pctVel, s.ischemia.Percent())
	s.pct = math.Max(0, math.Min(100, s.pct))

	params := s.syn.Params()
	morph := params.Morphology(s.pct)
	beat := s.advanceBeat(now, params.RR())

	return Tick{
		Now:         now,
		Params:      params,
		IschemiaPct: s.pct,
		Morphology:  morph,
		Strip:       s.acc.AccumulateFrom(s.syn, s.lastBeat, now, morph.EffT, morph.EffST, &s.lead),
		Conduction:  s.sched.Advance(now * 1000),
		Beat:        beat,
		Beats:       s.beats,
		LastBeat:    s.lastBeat,
	}
}

// advanceBeat moves the rhythm anchor past every R wave due by now and
// reports whether there was one. The first tick, or a clock that went
// backwards, re-anchors on the n*RR grid without reporting a beat.
func (s *Session) advanceBeat(now, rr float64) bool {
	if math.IsNaN(s.lastBeat) || now < s.lastBeat {
		s.lastBeat = math.Floor(now/rr) * rr
		return false
	}
	if now < s.lastBeat+rr {
		return false
	}
	n := math.Floor((now - s.lastBeat) / rr)
	s.lastBeat += n * rr
	s.beats += int(n)
	return true
}
