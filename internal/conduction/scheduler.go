package conduction

import "math"

// State is the scheduler's playback state.
type State int

const (
	Idle State = iota
	AwaitingStart
	Advancing
	StepComplete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingStart:
		return "awaiting-start"
	case Advancing:
		return "advancing"
	case StepComplete:
		return "step-complete"
	}
	return "unknown"
}

// ItemFrame is what the renderer needs to draw one item this frame.
type ItemFrame struct {
	ID       string
	Kind     Kind
	Mode     Mode
	Progress float64
	Alpha    float64
	Phase    Phase
	// Head is the pulse position for sequential items.
	Head Point
}

// Frame is the output of one Advance call.
type Frame struct {
	Active    bool
	Step      int
	StepIndex int
	Elapsed   float64
	Duration  float64
	Progress  float64
	Items     []ItemFrame
}

// Scheduler plays the steps of a conduction pathway in order, looping.
// All times are milliseconds on the caller's monotonic clock. It is driven
// from a single tick loop and is not safe for concurrent use.
type Scheduler struct {
	resolver  FeatureResolver
	items     []Item
	order     []int
	overrides map[int]float64

	playing   bool
	state     State
	index     int
	stepStart float64
}

// New returns an idle scheduler that resolves bound durations through r.
func New(r FeatureResolver) *Scheduler {
	return &Scheduler{
		resolver:  r,
		overrides: make(map[int]float64),
	}
}

// BuildStepOrder lists the distinct step values of items in first-seen order.
func BuildStepOrder(items []Item) []int {
	seen := make(map[int]bool, len(items))
	var order []int
	for _, it := range items {
		if !seen[it.Step] {
			seen[it.Step] = true
			order = append(order, it.Step)
		}
	}
	return order
}

// SetItems replaces the item set and rebuilds the step order. The current
// step index is clamped if the order shrank.
func (s *Scheduler) SetItems(items []Item) {
	s.items = append([]Item(nil), items...)
	s.order = BuildStepOrder(s.items)

	if len(s.order) == 0 {
		s.index = 0
		s.state = Idle
		return
	}
	if s.index >= len(s.order) {
		s.index = len(s.order) - 1
	}
	if s.state == Idle && s.playing {
		s.state = AwaitingStart
	}
}

// StepOrder returns a copy of the current step order.
func (s *Scheduler) StepOrder() []int {
	return append([]int(nil), s.order...)
}

// SetOverride pins the duration of step to ms, replacing the computed value.
func (s *Scheduler) SetOverride(step int, ms float64) {
	s.overrides[step] = ms
}

// ClearOverride removes a step override.
func (s *Scheduler) ClearOverride(step int) {
	delete(s.overrides, step)
}

// Override reports the usable override for step, if any. Any finite value
// counts; it is floored at MinDurationMs.
func (s *Scheduler) Override(step int) (float64, bool) {
	ms, ok := s.overrides[step]
	if !ok || math.IsNaN(ms) || math.IsInf(ms, 0) {
		return 0, false
	}
	return math.Max(ms, MinDurationMs), true
}

// ItemDuration is how long it takes to play it once, in ms.
func (s *Scheduler) ItemDuration(it Item) float64 {
	var ms float64
	switch {
	case it.Duration.Bound():
		ms = it.Duration.Resolve(s.resolver)
	case it.Kind == ShapeItem && it.Envelope != nil:
		ms = it.Envelope.Resolve(s.resolver).Total()
	default:
		ms = it.Duration.Ms
	}
	if math.IsNaN(ms) || ms < MinDurationMs {
		return MinDurationMs
	}
	return ms
}

// StepDuration is the override for step when set, otherwise the longest item
// in the step. An empty step lasts MinDurationMs.
func (s *Scheduler) StepDuration(step int) float64 {
	if ms, ok := s.Override(step); ok {
		return ms
	}
	longest := 0.0
	for _, it := range s.items {
		if it.Step == step {
			longest = math.Max(longest, s.ItemDuration(it))
		}
	}
	if longest < MinDurationMs {
		return MinDurationMs
	}
	return longest
}

// Play starts from the first step at now.
func (s *Scheduler) Play(now float64) {
	s.playing = true
	s.index = 0
	if len(s.order) == 0 {
		s.state = Idle
		return
	}
	s.stepStart = now
	s.state = Advancing
}

// Stop pauses playback. The next Play restarts from the first step.
func (s *Scheduler) Stop() {
	s.playing = false
}

// Restart rewinds to the first step at now without changing the playing
// flag.
func (s *Scheduler) Restart(now float64) {
	s.index = 0
	s.stepStart = now
	switch {
	case len(s.order) == 0:
		s.state = Idle
	case s.playing:
		s.state = Advancing
	default:
		s.state = AwaitingStart
	}
}

// Playing reports whether playback is running.
func (s *Scheduler) Playing() bool { return s.playing }

// State reports the playback state.
func (s *Scheduler) State() State { return s.state }

// CurrentIndex is the position of the active step in the step order.
func (s *Scheduler) CurrentIndex() int { return s.index }

// StepStart is when the active step began.
func (s *Scheduler) StepStart() float64 { return s.stepStart }

// Advance moves the clock to now and reports what to draw. A call that
// finds the step finished reports progress 1; the call after it starts the
// next step at its own now.
func (s *Scheduler) Advance(now float64) Frame {
	if !s.playing || len(s.order) == 0 {
		return Frame{}
	}

	switch s.state {
	case Idle, AwaitingStart:
		s.stepStart = now
		s.state = Advancing
	case StepComplete:
		s.index = (s.index + 1) % len(s.order)
		s.stepStart = now
		s.state = Advancing
	}

	step := s.order[s.index]
	dur := s.StepDuration(step)
	elapsed := math.Max(0, now-s.stepStart)
	progress := clamp01(elapsed / dur)

	f := Frame{
		Active:    true,
		Step:      step,
		StepIndex: s.index,
		Elapsed:   elapsed,
		Duration:  dur,
		Progress:  progress,
	}
	for _, it := range s.items {
		if it.Step == step {
			f.Items = append(f.Items, s.itemFrame(it, elapsed))
		}
	}

	if progress >= 1 {
		s.state = StepComplete
	}
	return f
}

func (s *Scheduler) itemFrame(it Item, elapsed float64) ItemFrame {
	d := s.ItemDuration(it)
	f := ItemFrame{
		ID:       it.ID,
		Kind:     it.Kind,
		Mode:     it.Mode,
		Progress: clamp01(elapsed / d),
	}

	if it.Kind == ShapeItem && it.Envelope != nil {
		env := it.Envelope.Resolve(s.resolver).Fit(d)
		f.Alpha, f.Phase = env.Alpha(elapsed)
	} else if elapsed < d {
		f.Alpha, f.Phase = 1, PhaseSustain
	} else {
		f.Alpha, f.Phase = 0, PhaseDone
	}

	if it.Mode == Sequential {
		f.Head = it.PointAt(f.Progress)
	}
	return f
}
