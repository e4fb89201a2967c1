package ecg

import "math"

// Morphology is the ischemia-adjusted T scale and ST offset for one frame.
type Morphology struct {
	EffT  float64
	EffST float64
}

// Ischemia band breakpoints. Worsening ischemia first inverts T, then
// depresses ST, then swings ST up into elevation while T recovers.
const (
	invertedT   = -1.0
	depressedST = -0.4
	crossST     = 0.1
	recoveredT  = -0.25
	elevatedST  = 0.7
)

// MapIschemia maps a 0..100 ischemia percentage onto T/ST morphology.
// baseT and baseST are the values reported at 0%.
func MapIschemia(pct, baseT, baseST float64) Morphology {
	if math.IsNaN(pct) {
		pct = 0
	}
	pct = clamp(pct, 0, 100)

	switch {
	case pct == 0:
		return Morphology{EffT: baseT, EffST: baseST}
	case pct <= 50:
		return Morphology{
			EffT:  lerp(baseT, invertedT, pct/50),
			EffST: baseST,
		}
	case pct <= 90:
		return Morphology{
			EffT:  invertedT,
			EffST: lerp(baseST, depressedST, (pct-50)/40),
		}
	case pct <= 95:
		return Morphology{
			EffT:  invertedT,
			EffST: lerp(depressedST, crossST, (pct-90)/5),
		}
	default:
		return Morphology{
			EffT:  lerp(invertedT, recoveredT, (pct-95)/5),
			EffST: lerp(crossST, elevatedST, (pct-95)/5),
		}
	}
}

// IschemiaInputs are the coronary-supply and demand controls that feed the
// ischemia percentage.
type IschemiaInputs struct {
	StenosisPct float64 `mapstructure:"stenosis" json:"stenosis"`
	ThrombusPct float64 `mapstructure:"thrombus" json:"thrombus"`
	METs        float64 `mapstructure:"mets" json:"mets"`
}

// Percent combines the inputs into a single 0..100 ischemia percentage.
//
// Thrombus occludes whatever lumen the stenosis leaves open. Below the
// critical occlusion the vessel is assumed to autoregulate, and the
// remaining vulnerability only shows under load. The product term makes
// stenosis and thrombus worse together than either alone.
func (in IschemiaInputs) Percent() float64 {
	s := clamp(finiteOr(in.StenosisPct, 0), 0, 100) / 100
	th := clamp(finiteOr(in.ThrombusPct, 0), 0, 100) / 100
	mets := clamp(finiteOr(in.METs, 1), 1, 20)

	occlusion := s + th*(1-s)
	if occlusion >= 1 {
		return 100
	}

	const critical = 0.5
	vulnerability := 0.0
	if occlusion > critical {
		vulnerability = (occlusion - critical) / (1 - critical)
	}

	load := (mets - 1) / 9
	demand := 0.35 + 0.65*math.Min(load, 1)
	synergy := 0.25 * s * th

	pct := 100 * (vulnerability*demand + synergy)
	return clamp(pct, 0, 100)
}
