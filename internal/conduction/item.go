// Package conduction schedules the conduction-pathway animation that plays
// alongside the synthesized ECG. Items are grouped into steps; steps play in
// order and loop, and a step's clock can be bound to live ECG intervals.
package conduction

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/icco/genecg/internal/ecg"
)

const (
	// DefaultManualMs is the duration given to new items.
	DefaultManualMs = 1200
	// MinDurationMs is the floor for every item and empty step.
	MinDurationMs = 10
)

// FeatureResolver turns a named ECG feature into milliseconds.
// ecg.Parameters implements it.
type FeatureResolver interface {
	ResolveFeatureMs(f ecg.Feature) (float64, bool)
}

// FeatureResolverFunc adapts a function to FeatureResolver.
type FeatureResolverFunc func(f ecg.Feature) (float64, bool)

func (fn FeatureResolverFunc) ResolveFeatureMs(f ecg.Feature) (float64, bool) {
	return fn(f)
}

// DurationSource is either a manual millisecond value or a binding to a
// named ECG feature. A bound source keeps Ms as its fallback.
type DurationSource struct {
	Feature ecg.Feature
	Ms      float64
}

// Manual returns a fixed duration.
func Manual(ms float64) DurationSource {
	return DurationSource{Ms: ms}
}

// BoundTo returns a duration that follows f.
func BoundTo(f ecg.Feature) DurationSource {
	return DurationSource{Feature: f, Ms: DefaultManualMs}
}

// Bound reports whether the source follows a feature.
func (d DurationSource) Bound() bool { return d.Feature != "" }

// Resolve returns the bound feature's live value, or Ms when unbound or the
// feature cannot be resolved.
func (d DurationSource) Resolve(r FeatureResolver) float64 {
	if d.Bound() && r != nil {
		if ms, ok := r.ResolveFeatureMs(d.Feature); ok {
			return ms
		}
	}
	return d.Ms
}

func (d DurationSource) String() string {
	if d.Bound() {
		return string(d.Feature)
	}
	return fmt.Sprintf("%gms", d.Ms)
}

// Kind distinguishes open paths from closed shapes.
type Kind int

const (
	PathItem Kind = iota
	ShapeItem
)

func (k Kind) String() string {
	if k == ShapeItem {
		return "shape"
	}
	return "path"
}

// ParseKind accepts "path" or "shape".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "path", "":
		return PathItem, nil
	case "shape":
		return ShapeItem, nil
	}
	return PathItem, fmt.Errorf("unknown item kind %q", s)
}

// Mode selects how an item plays within its step.
type Mode int

const (
	// Sequential runs a pulse along the item's points.
	Sequential Mode = iota
	// Concurrent lights the whole item at once.
	Concurrent
)

func (m Mode) String() string {
	if m == Concurrent {
		return "concurrent"
	}
	return "sequential"
}

// ParseMode accepts "sequential" or "concurrent".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "sequential", "":
		return Sequential, nil
	case "concurrent":
		return Concurrent, nil
	}
	return Sequential, fmt.Errorf("unknown playback mode %q", s)
}

// Point is a normalized 0..1 canvas coordinate.
type Point struct {
	X, Y float64
}

// Envelope is the ramp-up, sustain and ramp-down profile of a shape.
type Envelope struct {
	RampUp   DurationSource
	Sustain  DurationSource
	RampDown DurationSource
}

// Item is one animatable unit of the pathway.
type Item struct {
	ID       string
	Kind     Kind
	Points   []Point
	Closed   bool
	Mode     Mode
	Step     int
	Duration DurationSource
	Envelope *Envelope // shapes only
}

// NewPath returns an open path item with the default manual duration.
func NewPath(step int, pts ...Point) Item {
	return Item{
		ID:       uuid.NewString(),
		Kind:     PathItem,
		Points:   pts,
		Mode:     Sequential,
		Step:     step,
		Duration: Manual(DefaultManualMs),
	}
}

// NewShape returns a closed shape item that fades through env.
func NewShape(step int, env Envelope, pts ...Point) Item {
	return Item{
		ID:       uuid.NewString(),
		Kind:     ShapeItem,
		Points:   pts,
		Closed:   true,
		Mode:     Concurrent,
		Step:     step,
		Duration: Manual(DefaultManualMs),
		Envelope: &env,
	}
}

// PointAt returns the position a fraction progress of the way along the
// item's outline, measured by arc length.
func (it Item) PointAt(progress float64) Point {
	pts := it.Points
	if len(pts) == 0 {
		return Point{}
	}
	if it.Closed && len(pts) > 2 {
		pts = append(pts[:len(pts):len(pts)], pts[0])
	}
	if len(pts) == 1 {
		return pts[0]
	}

	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += dist(pts[i-1], pts[i])
	}
	if total == 0 {
		return pts[0]
	}

	target := clamp01(progress) * total
	for i := 1; i < len(pts); i++ {
		seg := dist(pts[i-1], pts[i])
		if target <= seg && seg > 0 {
			f := target / seg
			return Point{
				X: pts[i-1].X + (pts[i].X-pts[i-1].X)*f,
				Y: pts[i-1].Y + (pts[i].Y-pts[i-1].Y)*f,
			}
		}
		target -= seg
	}
	return pts[len(pts)-1]
}

func dist(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
