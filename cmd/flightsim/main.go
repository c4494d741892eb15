// Command flightsim runs pilot scenarios headless and writes flight traces.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/observability/log"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/injector"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "flightsim:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := Flags()
	if err := fs.Parse(args); err != nil {
		return err
	}
	settings, err := LoadSettings(fs)
	if err != nil {
		return err
	}
	level, err := log.ParseLevel(settings.LogLevel)
	if err != nil {
		return err
	}
	rt, err := injector.InitializeRuntime(level, settings.PilotConfig)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := runAll(ctx, rt, settings)
	if err != nil {
		return err
	}
	for _, res := range results {
		rt.Log.Info("scenario finished",
			log.String("scenario", res.Scenario),
			log.Float64("sim_time", res.SimTime),
			log.Int("metric_series", len(res.Metrics)),
		)
		for _, line := range res.Summary {
			fmt.Printf("%s\t%s\n", res.Scenario, line)
		}
	}
	return nil
}
