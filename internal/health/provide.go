package health

import (
	"github.com/rs/zerolog"
	"github.com/samber/do"

	"github.com/mcpo-tools/mcpoctl/internal/config"
	"github.com/mcpo-tools/mcpoctl/internal/docker"
)

func Provide(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Checker, error) {
		cfg, err := do.Invoke[config.Config](i)
		if err != nil {
			return nil, err
		}
		logger, err := do.Invoke[zerolog.Logger](i)
		if err != nil {
			return nil, err
		}

		// A missing docker socket surfaces as a skip at check time, not a
		// startup failure.
		var containers ContainerAPI
		if cli, err := do.Invoke[*docker.Docker](i); err == nil {
			containers = cli
		} else {
			logger.Debug().Err(err).Msg("docker client unavailable")
		}

		return NewChecker(cfg, logger, containers), nil
	})
}
