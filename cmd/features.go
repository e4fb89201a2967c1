package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/icco/genecg/internal/ecg"
	"github.com/spf13/cobra"
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Print feature durations and the ischemia mapping for the current config",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(false)
		if err != nil {
			return err
		}
		defer func() { _ = e.log.Sync() }()

		p := e.cfg.Waveform.Sanitized()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

		fmt.Fprintln(w, "FEATURE\tMS")
		for _, f := range ecg.Features {
			ms, _ := p.ResolveFeatureMs(f)
			fmt.Fprintf(w, "%s\t%.1f\n", f, ms)
		}
		fmt.Fprintln(w)

		l := ecg.NewLayout(p)
		fmt.Fprintln(w, "WINDOW\tSTART\tEND")
		for _, row := range []struct {
			name string
			win  ecg.Window
		}{
			{"P", l.P}, {"Q", l.Q}, {"R", l.R}, {"S", l.S}, {"T", l.T}, {"ST", l.ST},
		} {
			fmt.Fprintf(w, "%s\t%+.3fs\t%+.3fs\n", row.name, row.win.Start, row.win.End)
		}
		fmt.Fprintln(w)

		pct := e.cfg.Ischemia.Percent()
		m := p.Morphology(pct)
		fmt.Fprintln(w, "ISCHEMIA\tEFF_T\tEFF_ST")
		fmt.Fprintf(w, "%.1f%%\t%+.3f\t%+.3f\n", pct, m.EffT, m.EffST)
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(featuresCmd)
}
