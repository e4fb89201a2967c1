package cmd

import (
	"github.com/icco/genecg/internal/export"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	exportBeats   int
	exportSeconds float64
	exportWidth   int
	exportHeight  int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the configured rhythm to a file",
}

var exportMIDICmd = &cobra.Command{
	Use:   "midi FILE",
	Short: "Write a MIDI click track of P, QRS and T onsets",
	Long: `Write a Standard MIDI File whose tempo equals the heart rate. Each beat is a
quarter note; the P wave, QRS complex and T wave each get a percussion track
holding a note across their windows.

Example:
  genecg export midi rhythm.mid --beats 32
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(true)
		if err != nil {
			return err
		}
		defer func() { _ = e.log.Sync() }()

		if err := export.SaveMIDI(args[0], e.cfg.Waveform, exportBeats); err != nil {
			return err
		}
		e.log.Info("wrote MIDI click track", zap.String("file", args[0]), zap.Int("beats", exportBeats))
		return nil
	},
}

var exportPNGCmd = &cobra.Command{
	Use:   "png FILE",
	Short: "Write a strip chart of the configured rhythm",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(true)
		if err != nil {
			return err
		}
		defer func() { _ = e.log.Sync() }()

		opts := export.DefaultStripOptions()
		opts.Seconds = exportSeconds
		opts.Width = exportWidth
		opts.Height = exportHeight
		opts.IschemiaPct = e.cfg.Ischemia.Percent()
		opts.Lead = e.cfg.Monitor.LeadMultipliers()
		if err := export.SavePNG(args[0], e.cfg.Waveform, opts); err != nil {
			return err
		}
		e.log.Info("wrote strip chart",
			zap.String("file", args[0]),
			zap.Float64("seconds", exportSeconds),
			zap.Float64("ischemia_pct", opts.IschemiaPct),
		)
		return nil
	},
}

func init() {
	exportMIDICmd.Flags().IntVar(&exportBeats, "beats", 16, "number of beats")
	exportPNGCmd.Flags().Float64Var(&exportSeconds, "seconds", 6, "strip length in seconds")
	exportPNGCmd.Flags().IntVar(&exportWidth, "width", 1200, "image width in pixels")
	exportPNGCmd.Flags().IntVar(&exportHeight, "height", 300, "image height in pixels")
	exportCmd.AddCommand(exportMIDICmd, exportPNGCmd)
	rootCmd.AddCommand(exportCmd)
}
