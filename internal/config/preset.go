package config

import (
	"fmt"
	"os"

	"github.com/icco/genecg/internal/conduction"
	"github.com/icco/genecg/internal/ecg"
	"gopkg.in/yaml.v3"
)

// Preset is a conduction pathway on disk.
type Preset struct {
	Items     []PresetItem    `yaml:"items"`
	Overrides map[int]float64 `yaml:"overrides"`
}

// PresetItem is the YAML form of conduction.Item.
type PresetItem struct {
	ID       string          `yaml:"id"`
	Kind     string          `yaml:"kind"`
	Mode     string          `yaml:"mode"`
	Step     int             `yaml:"step"`
	Closed   *bool           `yaml:"closed"`
	Points   [][2]float64    `yaml:"points"`
	Duration *PresetDuration `yaml:"duration"`
	Envelope *PresetEnvelope `yaml:"envelope"`
}

// PresetDuration is either {ms: N} or {feature: NAME}, optionally both.
// A missing ms takes the caller's fallback; an explicit 0 is kept.
type PresetDuration struct {
	Ms      *float64 `yaml:"ms"`
	Feature string   `yaml:"feature"`
}

// PresetEnvelope holds the three shape phases.
type PresetEnvelope struct {
	RampUp   PresetDuration `yaml:"ramp_up"`
	Sustain  PresetDuration `yaml:"sustain"`
	RampDown PresetDuration `yaml:"ramp_down"`
}

// LoadPreset reads a pathway preset file.
func LoadPreset(path string) ([]conduction.Item, map[int]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading preset: %w", err)
	}
	return ParsePreset(data)
}

// ParsePreset decodes preset YAML into scheduler items and step overrides.
func ParsePreset(data []byte) ([]conduction.Item, map[int]float64, error) {
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, nil, fmt.Errorf("decoding preset: %w", err)
	}

	items := make([]conduction.Item, 0, len(p.Items))
	for i, pi := range p.Items {
		it, err := pi.item()
		if err != nil {
			return nil, nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, it)
	}
	return items, p.Overrides, nil
}

func (pi PresetItem) item() (conduction.Item, error) {
	kind, err := conduction.ParseKind(pi.Kind)
	if err != nil {
		return conduction.Item{}, err
	}

	pts := make([]conduction.Point, len(pi.Points))
	for i, xy := range pi.Points {
		pts[i] = conduction.Point{X: xy[0], Y: xy[1]}
	}

	var it conduction.Item
	if kind == conduction.ShapeItem {
		env := conduction.Envelope{
			RampUp:   conduction.Manual(100),
			Sustain:  conduction.Manual(200),
			RampDown: conduction.Manual(100),
		}
		if pi.Envelope != nil {
			if env.RampUp, err = pi.Envelope.RampUp.source(0); err != nil {
				return it, fmt.Errorf("ramp_up: %w", err)
			}
			if env.Sustain, err = pi.Envelope.Sustain.source(0); err != nil {
				return it, fmt.Errorf("sustain: %w", err)
			}
			if env.RampDown, err = pi.Envelope.RampDown.source(0); err != nil {
				return it, fmt.Errorf("ramp_down: %w", err)
			}
		}
		it = conduction.NewShape(pi.Step, env, pts...)
	} else {
		it = conduction.NewPath(pi.Step, pts...)
	}

	if pi.ID != "" {
		it.ID = pi.ID
	}
	if pi.Closed != nil {
		it.Closed = *pi.Closed
	}
	if pi.Mode != "" {
		if it.Mode, err = conduction.ParseMode(pi.Mode); err != nil {
			return it, err
		}
	}
	if pi.Duration != nil {
		if it.Duration, err = pi.Duration.source(conduction.DefaultManualMs); err != nil {
			return it, fmt.Errorf("duration: %w", err)
		}
	}
	return it, nil
}

func (d PresetDuration) source(fallback float64) (conduction.DurationSource, error) {
	ms := fallback
	if d.Ms != nil {
		ms = *d.Ms
	}
	if d.Feature == "" {
		return conduction.Manual(ms), nil
	}
	f, ok := ecg.ParseFeature(d.Feature)
	if !ok {
		return conduction.DurationSource{}, fmt.Errorf("unknown feature %q", d.Feature)
	}
	return conduction.DurationSource{Feature: f, Ms: ms}, nil
}
