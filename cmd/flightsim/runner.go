package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/observability/log"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/observability/metrics"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/sim"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/injector"
)

// Result is the outcome of one scenario run.
type Result struct {
	Scenario string
	Path     string
	SimTime  float64
	Summary  []string
	Metrics  []metrics.Family
}

// runAll runs every scenario file, at most settings.Parallel at a time. Each
// simulation is single-threaded and owns its world and bus.
func runAll(ctx context.Context, rt *injector.Runtime, settings Settings) ([]Result, error) {
	results := make([]Result, len(settings.Scenarios))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(settings.Parallel)
	for i, path := range settings.Scenarios {
		g.Go(func() error {
			res, err := runScenario(ctx, rt, settings, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runScenario(ctx context.Context, rt *injector.Runtime, settings Settings, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	sc, err := sim.LoadScenario(f)
	f.Close()
	if err != nil {
		return Result{}, err
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	duration, dt := sc.Duration, sc.DT
	if duration <= 0 {
		duration = settings.Duration
	}
	if dt <= 0 {
		dt = settings.DT
	}

	logger := rt.Log.With(log.String("scenario", sc.Name))
	reg := metrics.NewRegistry()
	opts := []sim.Option{sim.WithMetrics(reg)}

	if settings.TraceDir != "" {
		if err := os.MkdirAll(settings.TraceDir, 0o755); err != nil {
			return Result{}, fmt.Errorf("creating trace directory: %w", err)
		}
		out, err := os.Create(filepath.Join(settings.TraceDir, sc.Name+".csv"))
		if err != nil {
			return Result{}, fmt.Errorf("creating trace: %w", err)
		}
		defer out.Close()
		opts = append(opts, sim.WithRecorder(sim.NewRecorder(out), settings.SampleEvery))
	}

	s, err := sim.Build(sc, rt.Planners, rt.Pilot, rt.NewBus(), logger, opts...)
	if err != nil {
		return Result{}, err
	}
	defer s.Close()

	if err := s.Run(ctx, duration, dt); err != nil {
		return Result{}, err
	}
	return Result{
		Scenario: sc.Name,
		Path:     path,
		SimTime:  s.Now(),
		Summary:  s.Summary(),
		Metrics:  reg.Export(),
	}, nil
}
