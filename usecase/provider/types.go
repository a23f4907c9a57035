package provider

import (
	"context"
	"fmt"
	"slices"

	"github.com/yaegashi/clusterops/domain"
	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/internal/logging"
)

// Repos holds repositories needed for provider use cases.
type Repos struct {
	Provider    domain.ProviderRepository
	Controller  domain.ControllerRepository
	WorkerGroup domain.WorkerGroupRepository
	Instance    domain.InstanceRepository
}

// UseCase wires repositories and ports needed for provider use cases.
type UseCase struct {
	Repos        *Repos
	ProviderPort model.ProviderPort
	// Drivers restricts the accepted driver names. Empty accepts any.
	Drivers []string
	Logger  logging.Logger
}

func (u *UseCase) logger() logging.Logger {
	if u.Logger == nil {
		return logging.Discard()
	}
	return u.Logger
}

func (u *UseCase) byName(ctx context.Context, name string) (*model.Provider, error) {
	if name == "" {
		return nil, model.ErrProviderInvalid
	}
	return u.Repos.Provider.GetByName(ctx, name)
}

func (u *UseCase) checkDriver(driver string) error {
	if driver == "" {
		return fmt.Errorf("%w: driver is required", model.ErrProviderInvalid)
	}
	if len(u.Drivers) > 0 && !slices.Contains(u.Drivers, driver) {
		return fmt.Errorf("%w: unknown driver %q (available: %v)", model.ErrProviderInvalid, driver, u.Drivers)
	}
	return nil
}
