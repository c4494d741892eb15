package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	fs := Flags()
	require.NoError(t, fs.Parse([]string{"a.yaml", "b.yaml"}))
	s, err := LoadSettings(fs)
	require.NoError(t, err)

	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, 30, s.SampleEvery)
	assert.Equal(t, 4, s.Parallel)
	assert.InDelta(t, 1.0/60, s.DT, 1e-12)
	assert.Equal(t, []string{"a.yaml", "b.yaml"}, s.Scenarios)
	assert.Empty(t, s.TraceDir)
}

func TestLoadSettings_FilePrecedence(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := "logLevel: debug\nparallel: 2\ntraceDir: /tmp/traces\nscenarios: [from-file.yaml]\n"
	path := filepath.Join(dir, "flightsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))

	fs := Flags()
	require.NoError(t, fs.Parse([]string{"--config", path, "--parallel", "8"}))
	s, err := LoadSettings(fs)
	require.NoError(t, err)

	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, 8, s.Parallel, "flags beat the file")
	assert.Equal(t, "/tmp/traces", s.TraceDir)
	assert.Equal(t, []string{"from-file.yaml"}, s.Scenarios)
}

func TestLoadSettings_Env(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("FLIGHTSIM_SAMPLEEVERY", "5")

	fs := Flags()
	require.NoError(t, fs.Parse([]string{"x.yaml"}))
	s, err := LoadSettings(fs)
	require.NoError(t, err)
	assert.Equal(t, 5, s.SampleEvery)
}

func TestLoadSettings_Invalid(t *testing.T) {
	t.Cleanup(viper.Reset)

	fs := Flags()
	require.NoError(t, fs.Parse([]string{"--dt", "0"}))
	_, err := LoadSettings(fs)
	assert.ErrorContains(t, err, "no scenario files")
	assert.ErrorContains(t, err, "must be positive")

	t.Cleanup(viper.Reset)
	viper.Reset()
	fs = Flags()
	require.NoError(t, fs.Parse([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "x.yaml"}))
	_, err = LoadSettings(fs)
	assert.ErrorContains(t, err, "error reading config file")
}
