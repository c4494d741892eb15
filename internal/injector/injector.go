//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/observability/log"
)

func InitializeRuntime(level log.Level, pilotConfigPath string) (*Runtime, error) {
	wire.Build(ProviderSet)
	return nil, nil
}
