package conduction

import "github.com/icco/genecg/internal/ecg"

// DefaultPathway is a built-in sinus conduction sequence whose steps follow
// the live P, PR, QRS, QT and TP intervals.
func DefaultPathway() []Item {
	sa := Point{X: 0.30, Y: 0.18}
	av := Point{X: 0.47, Y: 0.45}
	his := Point{X: 0.50, Y: 0.55}
	apex := Point{X: 0.55, Y: 0.90}

	atria := NewShape(0, Envelope{
		RampUp:   Manual(30),
		Sustain:  BoundTo(ecg.FeatureP),
		RampDown: Manual(40),
	}, Point{0.20, 0.12}, Point{0.75, 0.12}, Point{0.75, 0.40}, Point{0.20, 0.40})
	atria.Duration = BoundTo(ecg.FeatureP)

	interatrial := NewPath(0, sa, Point{X: 0.68, Y: 0.22})
	interatrial.Duration = BoundTo(ecg.FeatureP)

	internodal := NewPath(0, sa, Point{X: 0.38, Y: 0.32}, av)
	internodal.Duration = BoundTo(ecg.FeatureP)

	avDelay := NewPath(1, av, his)
	avDelay.Duration = BoundTo(ecg.FeaturePR)

	leftBundle := NewPath(2, his, Point{X: 0.62, Y: 0.68}, apex)
	leftBundle.Duration = BoundTo(ecg.FeatureQRS)

	rightBundle := NewPath(2, his, Point{X: 0.40, Y: 0.70}, apex)
	rightBundle.Duration = BoundTo(ecg.FeatureQRS)

	ventricles := NewShape(2, Envelope{
		RampUp:   Manual(20),
		Sustain:  Manual(40),
		RampDown: Manual(30),
	}, Point{0.25, 0.45}, Point{0.85, 0.45}, Point{0.55, 0.95})
	ventricles.Duration = BoundTo(ecg.FeatureQRS)

	repol := NewShape(3, Envelope{
		RampUp:   Manual(400),
		Sustain:  Manual(800),
		RampDown: BoundTo(ecg.FeatureT),
	}, Point{0.25, 0.45}, Point{0.85, 0.45}, Point{0.55, 0.95})
	repol.Duration = BoundTo(ecg.FeatureQT)

	diastole := NewPath(4, apex)
	diastole.Mode = Concurrent
	diastole.Duration = BoundTo(ecg.FeatureTP)

	return []Item{
		atria, interatrial, internodal,
		avDelay,
		leftBundle, rightBundle, ventricles,
		repol,
		diastole,
	}
}
