package providerdrv

import (
	"context"

	"github.com/yaegashi/clusterops/domain/model"
)

// providerPortAdapter implements model.ProviderPort backed by provider drivers.
type providerPortAdapter struct {
	env Env
}

func (a *providerPortAdapter) Prepare(ctx context.Context, provider *model.Provider) ([]string, error) {
	d, err := newDriver(provider, a.env)
	if err != nil {
		return nil, err
	}
	p, ok := d.(Preparer)
	if !ok {
		return []string{"driver " + d.ID() + " has no prerequisites"}, nil
	}
	notes, err := p.Prepare(ctx)
	if err != nil {
		return notes, &model.AdapterError{Op: "prepare", Err: err}
	}
	return notes, nil
}

// GetProviderPort returns a model.ProviderPort implemented via provider drivers.
func GetProviderPort(env Env) model.ProviderPort {
	return &providerPortAdapter{env: env}
}
