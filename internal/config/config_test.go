package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/icco/genecg/internal/conduction"
	"github.com/icco/genecg/internal/ecg"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeFile(t, "genecg.yaml", "monitor:\n  fps: 30\n")

	_, c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Waveform != ecg.DefaultParameters() {
		t.Errorf("waveform = %+v, want defaults", c.Waveform)
	}
	if c.NATS.WaveSubject != "ecg.wave" || c.NATS.Width != 250 {
		t.Errorf("nats = %+v", c.NATS)
	}
	if c.Ischemia.METs != 1 {
		t.Errorf("mets = %v, want 1", c.Ischemia.METs)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeFile(t, "genecg.yaml", `
monitor:
  lead: aVR
  pixels_per_second: 100
waveform:
  heart_rate: 110
  p_biphasic: true
ischemia:
  stenosis: 80
`)
	t.Setenv("GENECG_WAVEFORM_QT_INTERVAL_MS", "420")

	_, c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Waveform.HeartRate != 110 || !c.Waveform.PBiphasic {
		t.Errorf("waveform = %+v", c.Waveform)
	}
	if c.Waveform.QTIntervalMs != 420 {
		t.Errorf("env override: qt = %v, want 420", c.Waveform.QTIntervalMs)
	}
	if c.Monitor.PixelsPerSecond != 100 {
		t.Errorf("pps = %v", c.Monitor.PixelsPerSecond)
	}
	if c.Monitor.LeadMultipliers() != ecg.AVRLead() {
		t.Errorf("lead aVR did not map to inverted multipliers")
	}
	if c.Ischemia.StenosisPct != 80 {
		t.Errorf("stenosis = %v", c.Ischemia.StenosisPct)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing explicit config file")
	}
}

const samplePreset = `
items:
  - id: sa
    kind: path
    step: 0
    points: [[0, 0], [1, 0]]
    duration: {feature: p}
  - kind: shape
    step: 1
    points: [[0, 0], [1, 0], [1, 1]]
    duration: {feature: QT}
    envelope:
      ramp_up: {ms: 400}
      sustain: {feature: T, ms: 300}
      ramp_down: {ms: 400}
  - kind: path
    step: 2
    mode: concurrent
    points: [[0, 0], [0, 1]]
    duration: {ms: 250}
overrides:
  2: 600
`

func TestParsePreset(t *testing.T) {
	items, overrides, err := ParsePreset([]byte(samplePreset))
	if err != nil {
		t.Fatalf("ParsePreset: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}

	if items[0].ID != "sa" || items[0].Duration.Feature != ecg.FeatureP {
		t.Errorf("item 0 = %+v", items[0])
	}
	if items[0].Duration.Ms != conduction.DefaultManualMs {
		t.Errorf("bound duration fallback = %v, want %v", items[0].Duration.Ms, conduction.DefaultManualMs)
	}

	shape := items[1]
	if shape.Kind != conduction.ShapeItem || !shape.Closed || shape.Envelope == nil {
		t.Fatalf("item 1 = %+v", shape)
	}
	if shape.Envelope.Sustain.Feature != ecg.FeatureT || shape.Envelope.Sustain.Ms != 300 {
		t.Errorf("sustain = %+v", shape.Envelope.Sustain)
	}
	if shape.ID == "" {
		t.Error("shape without an id did not get one")
	}

	if items[2].Mode != conduction.Concurrent || items[2].Duration.Ms != 250 {
		t.Errorf("item 2 = %+v", items[2])
	}
	if overrides[2] != 600 {
		t.Errorf("overrides = %v", overrides)
	}
}

func TestParsePresetExplicitZero(t *testing.T) {
	items, _, err := ParsePreset([]byte("items:\n  - kind: path\n    duration: {ms: 0}\n  - kind: path\n    duration: {}\n"))
	if err != nil {
		t.Fatalf("ParsePreset: %v", err)
	}
	if got := items[0].Duration.Ms; got != 0 {
		t.Errorf("explicit ms: 0 parsed as %v", got)
	}
	if got := items[1].Duration.Ms; got != conduction.DefaultManualMs {
		t.Errorf("missing ms parsed as %v, want %v", got, conduction.DefaultManualMs)
	}
	if got := conduction.New(nil).ItemDuration(items[0]); got != conduction.MinDurationMs {
		t.Errorf("zero duration plays for %v ms, want %v", got, conduction.MinDurationMs)
	}
}

func TestParsePresetErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "items: [unterminated"},
		{"bad kind", "items:\n  - kind: blob\n"},
		{"bad mode", "items:\n  - kind: path\n    mode: sideways\n"},
		{"bad feature", "items:\n  - kind: path\n    duration: {feature: ST}\n"},
		{"bad envelope feature", "items:\n  - kind: shape\n    envelope:\n      sustain: {feature: U}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ParsePreset([]byte(tt.yaml)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
