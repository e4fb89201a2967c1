// Package ecg synthesizes a parametric electrocardiogram trace.
//
// A beat is evaluated analytically at any time offset relative to its R-wave.
// Nothing here claims clinical accuracy; the shapes are a visual approximation
// driven by a handful of clinical-style parameters.
package ecg

import "math"

const (
	minDuration  = 0.002 // seconds
	minHeartRate = 20.0
	maxHeartRate = 300.0
)

// Parameters is one snapshot of the waveform configuration.
// Durations are in seconds except QTIntervalMs.
type Parameters struct {
	HeartRate float64 `mapstructure:"heart_rate" json:"heart_rate"`

	QDuration float64 `mapstructure:"q_duration" json:"q_duration"`
	RDuration float64 `mapstructure:"r_duration" json:"r_duration"`
	SDuration float64 `mapstructure:"s_duration" json:"s_duration"`
	QRSWidth  float64 `mapstructure:"qrs_width" json:"qrs_width"`

	PDuration  float64 `mapstructure:"p_duration" json:"p_duration"`
	PAmplitude float64 `mapstructure:"p_amplitude" json:"p_amplitude"`
	PBiphasic  bool    `mapstructure:"p_biphasic" json:"p_biphasic"`
	PRInterval float64 `mapstructure:"pr_interval" json:"pr_interval"`

	QTIntervalMs float64 `mapstructure:"qt_interval_ms" json:"qt_interval_ms"`
	TDuration    float64 `mapstructure:"t_duration" json:"t_duration"`
	TScale       float64 `mapstructure:"t_scale" json:"t_scale"`
	STOffset     float64 `mapstructure:"st_offset" json:"st_offset"`

	PWaveScale float64 `mapstructure:"p_wave_scale" json:"p_wave_scale"`
	QWaveScale float64 `mapstructure:"q_wave_scale" json:"q_wave_scale"`
	RWaveScale float64 `mapstructure:"r_wave_scale" json:"r_wave_scale"`
	SWaveScale float64 `mapstructure:"s_wave_scale" json:"s_wave_scale"`
	TWaveScale float64 `mapstructure:"t_wave_scale" json:"t_wave_scale"`

	// S-raise: once the ST offset exceeds SRaiseThreshold (mV) the S trough
	// is pulled toward SMaxRaise. SFlatten blends the effect in (0..1).
	SRaiseThreshold float64 `mapstructure:"s_raise_threshold" json:"s_raise_threshold"`
	SMaxRaise       float64 `mapstructure:"s_max_raise" json:"s_max_raise"`
	SFlatten        float64 `mapstructure:"s_flatten" json:"s_flatten"`
}

// DefaultParameters returns a normal sinus beat at 72 bpm.
func DefaultParameters() Parameters {
	return Parameters{
		HeartRate:       72,
		QDuration:       0.025,
		RDuration:       0.040,
		SDuration:       0.030,
		QRSWidth:        1.0,
		PDuration:       0.090,
		PAmplitude:      0.15,
		PRInterval:      0.120,
		QTIntervalMs:    380,
		TDuration:       0.160,
		TScale:          0.30,
		STOffset:        0,
		PWaveScale:      1,
		QWaveScale:      1,
		RWaveScale:      1,
		SWaveScale:      1,
		TWaveScale:      1,
		SRaiseThreshold: 0.1,
		SMaxRaise:       0,
		SFlatten:        0.5,
	}
}

// RR returns the beat period in seconds.
func (p Parameters) RR() float64 {
	return 60 / clampHeartRate(p.HeartRate)
}

// Sanitized returns a copy with every duration and rate forced into a range
// the synthesizer can always evaluate. Non-finite values fall back to the
// defaults.
func (p Parameters) Sanitized() Parameters {
	d := DefaultParameters()
	q := p

	q.HeartRate = clampHeartRate(finiteOr(p.HeartRate, d.HeartRate))
	q.QDuration = positive(finiteOr(p.QDuration, d.QDuration))
	q.RDuration = positive(finiteOr(p.RDuration, d.RDuration))
	q.SDuration = positive(finiteOr(p.SDuration, d.SDuration))
	q.QRSWidth = math.Max(0.05, finiteOr(p.QRSWidth, d.QRSWidth))
	q.PDuration = positive(finiteOr(p.PDuration, d.PDuration))
	q.PRInterval = math.Max(0, finiteOr(p.PRInterval, d.PRInterval))
	q.QTIntervalMs = math.Max(minDuration*1000, finiteOr(p.QTIntervalMs, d.QTIntervalMs))
	q.TDuration = positive(finiteOr(p.TDuration, d.TDuration))

	q.PAmplitude = finiteOr(p.PAmplitude, d.PAmplitude)
	q.TScale = finiteOr(p.TScale, d.TScale)
	q.STOffset = finiteOr(p.STOffset, d.STOffset)
	q.PWaveScale = finiteOr(p.PWaveScale, d.PWaveScale)
	q.QWaveScale = finiteOr(p.QWaveScale, d.QWaveScale)
	q.RWaveScale = finiteOr(p.RWaveScale, d.RWaveScale)
	q.SWaveScale = finiteOr(p.SWaveScale, d.SWaveScale)
	q.TWaveScale = finiteOr(p.TWaveScale, d.TWaveScale)
	q.SRaiseThreshold = finiteOr(p.SRaiseThreshold, d.SRaiseThreshold)
	q.SMaxRaise = finiteOr(p.SMaxRaise, d.SMaxRaise)
	q.SFlatten = clamp(finiteOr(p.SFlatten, d.SFlatten), 0, 1)
	return q
}

// Morphology maps an ischemia percentage onto this snapshot's baseline T
// scale and ST offset.
func (p Parameters) Morphology(pct float64) Morphology {
	return MapIschemia(pct, p.TScale, p.STOffset)
}

// LeadMultipliers override the P/Q/R/S/T amplitudes for one rendering
// context. The synthesizer only reads them.
type LeadMultipliers struct {
	P, Q, R, S, T float64
}

// DefaultLead is the limb-lead II view: everything at unit gain.
func DefaultLead() LeadMultipliers {
	return LeadMultipliers{P: 1, Q: 1, R: 1, S: 1, T: 1}
}

// AVRLead looks at the heart from the right shoulder, so P and T invert.
func AVRLead() LeadMultipliers {
	return LeadMultipliers{P: -1, Q: 1, R: 1, S: 1, T: -1}
}

func clampHeartRate(hr float64) float64 {
	if math.IsNaN(hr) {
		return DefaultParameters().HeartRate
	}
	return clamp(hr, minHeartRate, maxHeartRate)
}

func positive(v float64) float64 {
	return math.Max(minDuration, v)
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
