// Package injector wires the process-wide pieces a simulation run needs.
package injector

import (
	"fmt"
	"os"

	"github.com/google/wire"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/events/bus"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/observability/log"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/pilot"
)

// BusFactory makes one event bus per simulation, so that concurrent runs never
// see each other's events.
type BusFactory func() bus.EventBus

// Runtime bundles the shared services of a flightsim process.
type Runtime struct {
	Log      log.Log
	NewBus   BusFactory
	Planners *pilot.Registry
	Pilot    pilot.Config
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideBusFactory,
	ProvidePlannerRegistry,
	ProvidePilotConfig,
	wire.Bind(new(log.Log), new(*log.Logger)),
	wire.Struct(new(Runtime), "*"),
)

func ProvideLogger(level log.Level) *log.Logger {
	return log.New(level)
}

func ProvideBusFactory() BusFactory {
	return bus.New
}

func ProvidePlannerRegistry() *pilot.Registry {
	reg := pilot.NewRegistry()
	pilot.RegisterBuiltins(reg)
	return reg
}

// ProvidePilotConfig loads the tuning file at path over the built-in defaults. An
// empty path yields the defaults.
func ProvidePilotConfig(path string) (pilot.Config, error) {
	if path == "" {
		return pilot.DefaultConfig(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return pilot.Config{}, fmt.Errorf("open pilot config: %w", err)
	}
	defer f.Close()
	return pilot.LoadConfig(f)
}
