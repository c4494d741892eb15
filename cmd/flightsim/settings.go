package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Settings controls a flightsim run. Scenario files set their own duration and
// step; the values here apply when a scenario leaves them out.
type Settings struct {
	LogLevel    string   `mapstructure:"logLevel"`
	PilotConfig string   `mapstructure:"pilotConfig"`
	TraceDir    string   `mapstructure:"traceDir"`
	SampleEvery int      `mapstructure:"sampleEvery"`
	Duration    float64  `mapstructure:"duration"`
	DT          float64  `mapstructure:"dt"`
	Parallel    int      `mapstructure:"parallel"`
	Scenarios   []string `mapstructure:"scenarios"`
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("pilotConfig", "")
	viper.SetDefault("traceDir", "")
	viper.SetDefault("sampleEvery", 30)
	viper.SetDefault("duration", 60.0)
	viper.SetDefault("dt", 1.0/60)
	viper.SetDefault("parallel", 4)
	viper.SetDefault("scenarios", []string{})
}

// Flags declares the command-line overrides.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("flightsim", pflag.ContinueOnError)
	fs.String("config", "", "settings file (yaml, json or toml)")
	fs.String("logLevel", "info", "debug, info, warn, error or silent")
	fs.String("pilotConfig", "", "pilot tuning yaml overlaid on the built-in defaults")
	fs.String("traceDir", "", "directory for per-scenario CSV traces; empty disables tracing")
	fs.Int("sampleEvery", 30, "record one trace sample every n steps")
	fs.Float64("duration", 60, "simulated seconds when a scenario does not say")
	fs.Float64("dt", 1.0/60, "step size when a scenario does not say")
	fs.Int("parallel", 4, "scenarios run at once")
	return fs
}

// LoadSettings resolves settings from defaults, the optional config file, the
// FLIGHTSIM_* environment and the parsed flags, in increasing priority.
// Positional arguments are scenario files.
func LoadSettings(fs *pflag.FlagSet) (Settings, error) {
	setDefaults()

	viper.SetEnvPrefix("flightsim")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if fs != nil {
		if err := viper.BindPFlags(fs); err != nil {
			return Settings{}, fmt.Errorf("binding flags: %v", err)
		}
		if path, _ := fs.GetString("config"); path != "" {
			viper.SetConfigFile(path)
			if err := viper.ReadInConfig(); err != nil {
				return Settings{}, fmt.Errorf("error reading config file: %v", err)
			}
		}
	}

	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decoding settings: %v", err)
	}
	if fs != nil && fs.NArg() > 0 {
		s.Scenarios = fs.Args()
	}
	return s, s.Validate()
}

func (s Settings) Validate() error {
	var errs []error
	if len(s.Scenarios) == 0 {
		errs = append(errs, errors.New("no scenario files given"))
	}
	if s.DT <= 0 || s.Duration <= 0 {
		errs = append(errs, fmt.Errorf("duration %v and dt %v must be positive", s.Duration, s.DT))
	}
	if s.SampleEvery <= 0 {
		errs = append(errs, fmt.Errorf("sampleEvery must be positive, got %d", s.SampleEvery))
	}
	if s.Parallel <= 0 {
		errs = append(errs, fmt.Errorf("parallel must be positive, got %d", s.Parallel))
	}
	return errors.Join(errs...)
}
