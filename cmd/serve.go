package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/icco/genecg/internal/stream"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Relay streamed frames from NATS to websocket clients",
	Long: `Subscribe to the frames published by "genecg stream" and fan them out to
browsers on /ws: strips as binary messages, status as text messages. Text
messages sent by a client are forwarded to the command subject.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides serve.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := setup(true)
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	addr := e.cfg.Serve.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	nc, err := stream.Connect(e.cfg.NATS.URL, "genecg-serve")
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", e.cfg.NATS.URL, err)
	}
	defer func() { _ = nc.Drain() }()

	hub := stream.NewHub(e.log)
	hub.OnCommand = func(b []byte) error {
		if _, err := stream.DecodeCommands(b); err != nil {
			return err
		}
		return nc.Publish(e.cfg.NATS.CommandSubject, b)
	}

	subs, err := hub.Relay(nc, e.cfg.NATS.WaveSubject, e.cfg.NATS.StatusSubject)
	if err != nil {
		return err
	}
	defer func() {
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return stream.ListenAndServe(ctx, stream.NewServer(addr, hub), e.log)
}
