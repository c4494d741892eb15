package injector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/observability/log"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/pilot"
)

func TestInitializeRuntimeDefaults(t *testing.T) {
	rt, err := InitializeRuntime(log.LevelSilent, "")
	require.NoError(t, err)
	assert.Equal(t, pilot.DefaultConfig(), rt.Pilot)
	assert.Equal(t, []string{"escort", "idle", "patrol", "route"}, rt.Planners.Names())

	a, b := rt.NewBus(), rt.NewBus()
	assert.NotSame(t, a, b)
}

func TestProvidePilotConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pilot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("supervisor:\n  personality: coward\n"), 0644))

	cfg, err := ProvidePilotConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "coward", cfg.Supervisor.Personality)

	_, err = InitializeRuntime(log.LevelSilent, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
