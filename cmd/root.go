package cmd

import (
	"fmt"
	"os"

	"github.com/icco/genecg/internal/conduction"
	"github.com/icco/genecg/internal/config"
	"github.com/icco/genecg/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "genecg",
	Short: "A parametric ECG synthesizer and terminal monitor",
	Long: `genecg synthesizes a continuously scrolling ECG whose P/Q/R/S/T morphology,
intervals and ST segment follow heart rate, durations, amplitudes and an
ischemia percentage, alongside a conduction-pathway animation timed against the
same waveform features.

It is a teaching toy. No clinical accuracy is claimed.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default ./genecg.yaml or ~/.config/genecg/genecg.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// env is what every subcommand starts from.
type env struct {
	v   *viper.Viper
	cfg *config.Config
	log *zap.Logger
}

// setup loads configuration and builds the logger. console mirrors logs to
// stderr; the monitor turns it off.
func setup(console bool) (*env, error) {
	v, cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log, err := logging.New(logging.Options{
		File:       cfg.Log.File,
		Level:      cfg.Log.Level,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Console:    console,
	})
	if err != nil {
		return nil, err
	}
	if f := v.ConfigFileUsed(); f != "" {
		log.Info("loaded configuration", zap.String("file", f))
	}
	return &env{v: v, cfg: cfg, log: log}, nil
}

// pathway returns the configured preset or the built-in pathway.
func (e *env) pathway() ([]conduction.Item, map[int]float64, error) {
	if e.cfg.Conduction.Preset == "" {
		return conduction.DefaultPathway(), nil, nil
	}
	items, overrides, err := config.LoadPreset(e.cfg.Conduction.Preset)
	if err != nil {
		return nil, nil, fmt.Errorf("conduction preset %s: %w", e.cfg.Conduction.Preset, err)
	}
	e.log.Info("loaded conduction preset",
		zap.String("file", e.cfg.Conduction.Preset),
		zap.Int("items", len(items)),
	)
	return items, overrides, nil
}
