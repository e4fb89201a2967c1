package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/icco/genecg/internal/session"
	"github.com/icco/genecg/internal/stream"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Publish the live waveform to NATS",
	Long: `Run the synthesizer headless and publish every frame to NATS.

Each frame's strip goes to nats.wave_subject as little-endian float32 samples
and a JSON status to nats.status_subject. Parameter command batches published
to nats.command_subject are applied atomically at the next frame, e.g.

  nats pub ecg.control '{"commands":[{"param":"heart_rate","value":110}]}'
`,
	RunE: runStream,
}

func init() {
	rootCmd.AddCommand(streamCmd)
}

func runStream(cmd *cobra.Command, args []string) error {
	e, err := setup(true)
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	items, overrides, err := e.pathway()
	if err != nil {
		return err
	}

	nc, err := stream.Connect(e.cfg.NATS.URL, "genecg-stream")
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", e.cfg.NATS.URL, err)
	}
	defer func() { _ = nc.Drain() }()

	mc := e.cfg.Monitor
	sess := session.New(session.Options{
		Params:          e.cfg.Waveform,
		Ischemia:        e.cfg.Ischemia,
		Lead:            mc.LeadMultipliers(),
		Items:           items,
		Overrides:       overrides,
		Width:           e.cfg.NATS.Width,
		PixelsPerSecond: mc.PixelsPerSecond,
		FPS:             mc.FPS,
		Logger:          e.log,
	})
	sess.Scheduler().Play(0)

	sub, err := stream.SubscribeCommands(nc, e.cfg.NATS.CommandSubject, sess.Queue(), e.log)
	if err != nil {
		return fmt.Errorf("subscribing to commands: %w", err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e.log.Info("streaming",
		zap.String("url", e.cfg.NATS.URL),
		zap.String("wave_subject", e.cfg.NATS.WaveSubject),
		zap.String("command_subject", e.cfg.NATS.CommandSubject),
		zap.Int("fps", mc.FPS),
	)
	pub := stream.NewPublisher(nc, e.cfg.NATS.WaveSubject, e.cfg.NATS.StatusSubject)
	return stream.Run(ctx, sess, pub, mc.FPS, e.log)
}
