// Package config loads genecg settings from file, environment and flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/icco/genecg/internal/ecg"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config is the top-level configuration structure.
type Config struct {
	Monitor    MonitorConfig      `mapstructure:"monitor"`
	Log        LogConfig          `mapstructure:"log"`
	NATS       NATSConfig         `mapstructure:"nats"`
	Serve      ServeConfig        `mapstructure:"serve"`
	Waveform   ecg.Parameters     `mapstructure:"waveform"`
	Ischemia   ecg.IschemiaInputs `mapstructure:"ischemia"`
	Conduction ConductionConfig   `mapstructure:"conduction"`
}

// MonitorConfig holds the live display settings.
type MonitorConfig struct {
	FPS             int     `mapstructure:"fps"`
	PixelsPerSecond float64 `mapstructure:"pixels_per_second"`
	Audio           bool    `mapstructure:"audio"`
	Lead            string  `mapstructure:"lead"`
}

// LogConfig holds settings for the logger.
type LogConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// NATSConfig holds the streaming connection settings.
type NATSConfig struct {
	URL            string `mapstructure:"url"`
	WaveSubject    string `mapstructure:"wave_subject"`
	StatusSubject  string `mapstructure:"status_subject"`
	CommandSubject string `mapstructure:"command_subject"`
	Width          int    `mapstructure:"width"`
}

// ServeConfig holds the websocket server settings.
type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

// ConductionConfig points at an optional pathway preset file.
type ConductionConfig struct {
	Preset string `mapstructure:"preset"`
}

func setDefaults(v *viper.Viper) error {
	v.SetDefault("monitor.fps", 30)
	v.SetDefault("monitor.pixels_per_second", 50)
	v.SetDefault("monitor.audio", false)
	v.SetDefault("monitor.lead", "II")

	v.SetDefault("log.file", defaultLogFile())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 7)

	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.wave_subject", "ecg.wave")
	v.SetDefault("nats.status_subject", "ecg.params")
	v.SetDefault("nats.command_subject", "ecg.control")
	v.SetDefault("nats.width", 250)

	v.SetDefault("serve.addr", ":8080")

	v.SetDefault("ischemia.stenosis", 0)
	v.SetDefault("ischemia.thrombus", 0)
	v.SetDefault("ischemia.mets", 1)

	// The waveform section mirrors ecg.Parameters; its json tags carry the
	// same names as the mapstructure tags.
	raw, err := json.Marshal(ecg.DefaultParameters())
	if err != nil {
		return fmt.Errorf("encoding waveform defaults: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("decoding waveform defaults: %w", err)
	}
	for k, val := range fields {
		v.SetDefault("waveform."+k, val)
	}
	return nil
}

func defaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "genecg", "genecg.log")
}

// New builds a viper instance with defaults, the config file (explicit path
// or genecg.yaml in . or ~/.config/genecg) and GENECG_ env overrides.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	if err := setDefaults(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("genecg")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "genecg"))
		}
	}

	v.SetEnvPrefix("GENECG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing file is fine; defaults and env vars still apply.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return v, nil
}

// Decode unmarshals v into a Config.
func Decode(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return &c, nil
}

// Load is New followed by Decode.
func Load(path string) (*viper.Viper, *Config, error) {
	v, err := New(path)
	if err != nil {
		return nil, nil, err
	}
	c, err := Decode(v)
	if err != nil {
		return nil, nil, err
	}
	return v, c, nil
}

// Watch reloads the configuration whenever the file changes and hands the
// new value to onChange. Decoding failures are logged and skipped.
func Watch(v *viper.Viper, log *zap.Logger, onChange func(*Config)) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		c, err := Decode(v)
		if err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
			return
		}
		onChange(c)
	})
	v.WatchConfig()
}

// LeadMultipliers maps the configured lead name onto amplitude overrides.
func (m MonitorConfig) LeadMultipliers() ecg.LeadMultipliers {
	if strings.EqualFold(m.Lead, "avr") {
		return ecg.AVRLead()
	}
	return ecg.DefaultLead()
}
