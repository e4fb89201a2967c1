package cmd

import (
	"fmt"
	"math"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/icco/genecg/internal/audio"
	"github.com/icco/genecg/internal/config"
	"github.com/icco/genecg/internal/ecg"
	"github.com/icco/genecg/internal/export"
	"github.com/icco/genecg/internal/session"
	"github.com/icco/genecg/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const sweepSeconds = 5

var (
	monitorAudio   bool
	monitorLead    string
	monitorTempoOf string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the interactive ECG monitor",
	Long: `Run the interactive ECG monitor in the terminal.

The trace sweeps right to left with every visible beat overlaid at whole-pixel
offsets. Heart rate, stenosis, thrombus and exercise load can be changed live;
the conduction pathway plays in step with the waveform. Editing the config file
while the monitor runs reloads the waveform and ischemia sections.

Example:
  genecg monitor --audio --lead aVR
`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().BoolVar(&monitorAudio, "audio", false, "beep on every R wave (overrides monitor.audio)")
	monitorCmd.Flags().StringVar(&monitorLead, "lead", "", "lead to display: II or aVR (overrides monitor.lead)")
	monitorCmd.Flags().StringVar(&monitorTempoOf, "tempo-from", "", "take the heart rate from a MIDI file's tempo")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	e, err := setup(false)
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	mc := e.cfg.Monitor
	if cmd.Flags().Changed("audio") {
		mc.Audio = monitorAudio
	}
	if monitorLead != "" {
		mc.Lead = monitorLead
	}

	params := e.cfg.Waveform
	if monitorTempoOf != "" {
		hr, err := export.ReadHeartRate(monitorTempoOf)
		if err != nil {
			return err
		}
		params.HeartRate = hr
	}

	items, overrides, err := e.pathway()
	if err != nil {
		return err
	}

	sess := session.New(session.Options{
		Params:          params,
		Ischemia:        e.cfg.Ischemia,
		Lead:            mc.LeadMultipliers(),
		Items:           items,
		Overrides:       overrides,
		Width:           int(math.Round(mc.PixelsPerSecond * sweepSeconds)),
		PixelsPerSecond: mc.PixelsPerSecond,
		FPS:             mc.FPS,
		Logger:          e.log,
	})

	var beeper tui.Beeper
	if mc.Audio {
		b, err := audio.NewBeeper(60)
		if err != nil {
			return fmt.Errorf("failed to initialize audio: %w", err)
		}
		defer func() { _ = b.Close() }()
		beeper = b
	}

	m := tui.NewModel(sess, tui.Options{FPS: mc.FPS, Lead: mc.Lead, Beeper: beeper, Logger: e.log})
	p := tea.NewProgram(m, tea.WithAltScreen())

	config.Watch(e.v, e.log, func(c *config.Config) {
		if err := sess.Queue().Push(ecg.Snapshot(c.Waveform)...); err != nil {
			e.log.Error("reloaded waveform rejected", zap.Error(err))
		}
		p.Send(tui.IschemiaMsg(c.Ischemia))
	})

	e.log.Info("monitor starting", zap.Int("fps", mc.FPS), zap.String("lead", mc.Lead), zap.Bool("audio", mc.Audio))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
