package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/observability/log"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/injector"
)

func TestRunAllScenarios(t *testing.T) {
	rt, err := injector.InitializeRuntime(log.LevelSilent, "")
	require.NoError(t, err)

	traces := t.TempDir()
	settings := Settings{
		TraceDir:    traces,
		SampleEvery: 60,
		Duration:    60,
		DT:          1.0 / 60,
		Parallel:    2,
		Scenarios:   []string{"scenarios/convoy.yaml", "scenarios/skirmish.yaml"},
	}
	// Shorten the runs; the scenario files set 20 and 30 seconds.
	dir := t.TempDir()
	for i, path := range settings.Scenarios {
		b, err := os.ReadFile(path)
		require.NoError(t, err)
		doc := strings.Replace(string(b), "\nduration: ", "\nduration: 3 #", 1)
		short := filepath.Join(dir, filepath.Base(path))
		require.NoError(t, os.WriteFile(short, []byte(doc), 0644))
		settings.Scenarios[i] = short
	}

	results, err := runAll(context.Background(), rt, settings)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "convoy", results[0].Scenario)
	assert.Equal(t, "skirmish", results[1].Scenario)
	for _, res := range results {
		assert.InDelta(t, 3, res.SimTime, 0.02)
		assert.Len(t, res.Summary, 3)
		assert.NotEmpty(t, res.Metrics)

		trace, err := os.ReadFile(filepath.Join(traces, res.Scenario+".csv"))
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(trace)), "\n")
		assert.True(t, strings.HasPrefix(lines[0], "time,ship,"))
		assert.Len(t, lines, 1+3*3, "header plus three ships sampled once a second")
	}
}

func TestRunAllReportsBadScenario(t *testing.T) {
	rt, err := injector.InitializeRuntime(log.LevelSilent, "")
	require.NoError(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("bodies:\n  - {name: x, kind: comet, radius: 1}\n"), 0644))

	_, err = runAll(context.Background(), rt, Settings{DT: 1.0 / 60, Duration: 1, SampleEvery: 1, Parallel: 1, Scenarios: []string{bad}})
	assert.ErrorContains(t, err, "bad.yaml")
}
