package ecg

import (
	"math"
	"strings"
)

// Feature names an ECG interval that durations can be bound to.
type Feature string

const (
	FeatureP   Feature = "P"
	FeaturePR  Feature = "PR"
	FeatureQRS Feature = "QRS"
	FeatureQT  Feature = "QT"
	FeatureT   Feature = "T"
	FeatureTP  Feature = "TP"
)

// Features lists every resolvable feature in display order.
var Features = []Feature{FeatureP, FeaturePR, FeatureQRS, FeatureQT, FeatureT, FeatureTP}

// ParseFeature is case-insensitive and reports whether name is known.
func ParseFeature(name string) (Feature, bool) {
	f := Feature(strings.ToUpper(strings.TrimSpace(name)))
	for _, known := range Features {
		if f == known {
			return f, true
		}
	}
	return "", false
}

// ResolveFeatureMs returns the live duration of f in milliseconds, floored
// at 1ms. Unknown features report false and the caller keeps its manual
// value.
func (p Parameters) ResolveFeatureMs(f Feature) (float64, bool) {
	var ms float64
	switch f {
	case FeatureP:
		ms = math.Round(p.PDuration * 1000)
	case FeaturePR:
		ms = math.Round(p.PRInterval * 1000)
	case FeatureQRS:
		ms = math.Round((p.QDuration + p.RDuration + p.SDuration) * p.QRSWidth * 1000)
	case FeatureQT:
		ms = math.Round(p.QTIntervalMs)
	case FeatureT:
		ms = math.Round(p.TDuration * 1000)
	case FeatureTP:
		ms = math.Round((p.RR() - (p.PRInterval + p.QTIntervalMs/1000)) * 1000)
	default:
		return 0, false
	}
	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms < 1 {
		ms = 1
	}
	return ms, true
}
