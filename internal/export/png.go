package export

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/icco/genecg/internal/ecg"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// StripOptions controls a rendered strip chart.
type StripOptions struct {
	Seconds         float64
	PixelsPerSecond float64
	IschemiaPct     float64
	Lead            ecg.LeadMultipliers
	Width, Height   int
}

// DefaultStripOptions is a six-second lead II strip.
func DefaultStripOptions() StripOptions {
	return StripOptions{
		Seconds:         6,
		PixelsPerSecond: 250,
		Lead:            ecg.DefaultLead(),
		Width:           1200,
		Height:          300,
	}
}

// Strip samples the waveform from t=0 to t=Seconds. The returned slices share
// an index: xs in seconds, ys in millivolts.
func Strip(p ecg.Parameters, opts StripOptions) (xs, ys []float64, err error) {
	if opts.Seconds <= 0 || opts.PixelsPerSecond <= 0 {
		return nil, nil, fmt.Errorf("invalid strip geometry: %gs at %gpx/s", opts.Seconds, opts.PixelsPerSecond)
	}
	syn := ecg.NewSynthesizer(p)
	morph := syn.Params().Morphology(opts.IschemiaPct)
	acc := ecg.Accumulator{
		Width:           int(math.Round(opts.Seconds * opts.PixelsPerSecond)),
		PixelsPerSecond: opts.PixelsPerSecond,
	}
	lead := opts.Lead
	ys = acc.Accumulate(syn, opts.Seconds, morph.EffT, morph.EffST, &lead)
	xs = make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i) / opts.PixelsPerSecond
	}
	return xs, ys, nil
}

// WritePNG renders a strip chart to w.
func WritePNG(w io.Writer, p ecg.Parameters, opts StripOptions) error {
	xs, ys, err := Strip(p, opts)
	if err != nil {
		return err
	}

	lo, hi := -1.0, 1.5
	for _, y := range ys {
		lo = math.Min(lo, y)
		hi = math.Max(hi, y)
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%.0f bpm, ischemia %.0f%%", p.Sanitized().HeartRate, opts.IschemiaPct),
		Width:  opts.Width,
		Height: opts.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 30, Left: 16, Right: 12, Bottom: 16},
		},
		XAxis: chart.XAxis{Name: "s"},
		YAxis: chart.YAxis{
			Name:  "mV",
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "ECG",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: drawing.ColorRed,
					StrokeWidth: 1.5,
				},
			},
		},
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("error rendering strip: %w", err)
	}
	return nil
}

// SavePNG writes a strip chart to path.
func SavePNG(path string, p ecg.Parameters, opts StripOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}
	if err := WritePNG(f, p, opts); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
