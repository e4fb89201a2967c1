package ecg

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

var (
	ErrUnknownParameter = errors.New("unknown parameter")
	ErrInvalidValue     = errors.New("invalid parameter value")
)

// Command sets one named parameter. Names match the snake_case config keys.
type Command struct {
	Param string  `json:"param"`
	Value float64 `json:"value"`
}

type setter func(p *Parameters, v float64)

var setters = map[string]setter{
	"heart_rate":        func(p *Parameters, v float64) { p.HeartRate = v },
	"q_duration":        func(p *Parameters, v float64) { p.QDuration = v },
	"r_duration":        func(p *Parameters, v float64) { p.RDuration = v },
	"s_duration":        func(p *Parameters, v float64) { p.SDuration = v },
	"qrs_width":         func(p *Parameters, v float64) { p.QRSWidth = v },
	"p_duration":        func(p *Parameters, v float64) { p.PDuration = v },
	"p_amplitude":       func(p *Parameters, v float64) { p.PAmplitude = v },
	"p_biphasic":        func(p *Parameters, v float64) { p.PBiphasic = v != 0 },
	"pr_interval":       func(p *Parameters, v float64) { p.PRInterval = v },
	"qt_interval_ms":    func(p *Parameters, v float64) { p.QTIntervalMs = v },
	"t_duration":        func(p *Parameters, v float64) { p.TDuration = v },
	"t_scale":           func(p *Parameters, v float64) { p.TScale = v },
	"st_offset":         func(p *Parameters, v float64) { p.STOffset = v },
	"p_wave_scale":      func(p *Parameters, v float64) { p.PWaveScale = v },
	"q_wave_scale":      func(p *Parameters, v float64) { p.QWaveScale = v },
	"r_wave_scale":      func(p *Parameters, v float64) { p.RWaveScale = v },
	"s_wave_scale":      func(p *Parameters, v float64) { p.SWaveScale = v },
	"t_wave_scale":      func(p *Parameters, v float64) { p.TWaveScale = v },
	"s_raise_threshold": func(p *Parameters, v float64) { p.SRaiseThreshold = v },
	"s_max_raise":       func(p *Parameters, v float64) { p.SMaxRaise = v },
	"s_flatten":         func(p *Parameters, v float64) { p.SFlatten = v },
}

// Validate checks that the command names a known parameter and carries a
// finite value.
func (c Command) Validate() error {
	if _, ok := setters[c.Param]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, c.Param)
	}
	if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) {
		return fmt.Errorf("%w: %s=%v", ErrInvalidValue, c.Param, c.Value)
	}
	return nil
}

// Apply returns p with every command applied, or p unchanged and an error if
// any command in the batch is invalid.
func Apply(p Parameters, batch []Command) (Parameters, error) {
	for _, c := range batch {
		if err := c.Validate(); err != nil {
			return p, err
		}
	}
	next := p
	for _, c := range batch {
		setters[c.Param](&next, c.Value)
	}
	return next, nil
}

// Snapshot returns a batch that sets every parameter to its value in p,
// ordered by name. Pushing it replaces the live snapshot atomically.
func Snapshot(p Parameters) []Command {
	raw, _ := json.Marshal(p)
	var fields map[string]any
	_ = json.Unmarshal(raw, &fields)

	batch := make([]Command, 0, len(fields))
	for name, v := range fields {
		c := Command{Param: name}
		switch v := v.(type) {
		case float64:
			c.Value = v
		case bool:
			if v {
				c.Value = 1
			}
		}
		batch = append(batch, c)
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].Param < batch[j].Param })
	return batch
}

// CommandQueue collects command batches from other goroutines until the
// tick loop drains them. Each batch lands whole or not at all.
type CommandQueue struct {
	mu      sync.Mutex
	pending [][]Command
}

// Push validates and enqueues one batch.
func (q *CommandQueue) Push(batch ...Command) error {
	for _, c := range batch {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	b := make([]Command, len(batch))
	copy(b, batch)

	q.mu.Lock()
	q.pending = append(q.pending, b)
	q.mu.Unlock()
	return nil
}

// Drain applies every queued batch in arrival order and returns the new
// snapshot along with the number of batches applied.
func (q *CommandQueue) Drain(p Parameters) (Parameters, int) {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, b := range pending {
		// Batches were validated on Push.
		p, _ = Apply(p, b)
	}
	return p, len(pending)
}
