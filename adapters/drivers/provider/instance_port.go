package providerdrv

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yaegashi/clusterops/domain"
	"github.com/yaegashi/clusterops/domain/model"
)

// instancePortAdapter implements model.InstancePort backed by provider drivers.
type instancePortAdapter struct {
	providers domain.ProviderRepository
	env       Env

	mu      sync.Mutex
	drivers map[string]Driver // keyed by provider ID
}

// driver returns the cached driver for the provider, building it on first use.
func (a *instancePortAdapter) driver(ctx context.Context, providerID string) (Driver, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if d, ok := a.drivers[providerID]; ok {
		return d, nil
	}
	provider, err := a.providers.Get(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get provider %s: %w", providerID, err)
	}
	d, err := newDriver(provider, a.env)
	if err != nil {
		return nil, err
	}
	a.drivers[providerID] = d
	return d, nil
}

func newDriver(provider *model.Provider, env Env) (Driver, error) {
	factory, exists := GetDriverFactory(provider.Driver)
	if !exists {
		return nil, fmt.Errorf("unknown provider driver: %s", provider.Driver)
	}
	d, err := factory(provider, env)
	if err != nil {
		return nil, fmt.Errorf("failed to create driver %s: %w", provider.Driver, err)
	}
	return d, nil
}

func (a *instancePortAdapter) InstanceStatus(ctx context.Context, inst *model.Instance) (model.InstanceStatus, error) {
	d, err := a.driver(ctx, inst.ProviderID)
	if err != nil {
		return model.StatusUnknown, &model.AdapterError{Op: "status", Err: err}
	}
	st, err := d.InstanceStatus(ctx, inst)
	if err != nil {
		return model.StatusUnknown, &model.AdapterError{Op: "status", Err: err}
	}
	return st, nil
}

func (a *instancePortAdapter) InstanceStart(ctx context.Context, owner model.InstanceOwner, count int) ([]*model.Instance, error) {
	if count <= 0 {
		return nil, nil
	}
	d, err := a.driver(ctx, owner.ProviderID)
	if err != nil {
		return nil, &model.AdapterError{Op: "start", Err: err}
	}
	insts, err := d.InstanceStart(ctx, owner, count)
	for _, inst := range insts {
		inst.ProviderID = owner.ProviderID
		inst.SetOwner(owner)
	}
	if err != nil {
		return insts, &model.AdapterError{Op: "start", Err: err}
	}
	return insts, nil
}

func (a *instancePortAdapter) InstanceResume(ctx context.Context, insts []*model.Instance) error {
	return a.batch(ctx, "resume", insts, Driver.InstanceResume)
}

func (a *instancePortAdapter) InstanceStop(ctx context.Context, insts []*model.Instance) error {
	return a.batch(ctx, "stop", insts, Driver.InstanceStop)
}

func (a *instancePortAdapter) InstanceTerminate(ctx context.Context, insts []*model.Instance) error {
	return a.batch(ctx, "terminate", insts, Driver.InstanceTerminate)
}

// batch splits insts per provider and calls each driver once. Every group is
// attempted; failures are merged into a single *model.BatchError.
func (a *instancePortAdapter) batch(ctx context.Context, op string, insts []*model.Instance, call func(Driver, context.Context, []*model.Instance) error) error {
	var order []string
	groups := map[string][]*model.Instance{}
	for _, inst := range insts {
		if _, ok := groups[inst.ProviderID]; !ok {
			order = append(order, inst.ProviderID)
		}
		groups[inst.ProviderID] = append(groups[inst.ProviderID], inst)
	}

	var failures []model.InstanceError
	failAll := func(group []*model.Instance, err error) {
		for _, inst := range group {
			failures = append(failures, model.InstanceError{Instance: inst, Err: err})
		}
	}
	for _, pid := range order {
		group := groups[pid]
		d, err := a.driver(ctx, pid)
		if err != nil {
			failAll(group, err)
			continue
		}
		if err := call(d, ctx, group); err != nil {
			var be *model.BatchError
			if errors.As(err, &be) {
				failures = append(failures, be.Failures...)
			} else {
				failAll(group, err)
			}
		}
	}
	if len(failures) > 0 {
		return &model.AdapterError{Op: op, Err: &model.BatchError{Op: op, Failures: failures}}
	}
	return nil
}

// GetInstancePort returns a model.InstancePort implemented via provider drivers.
func GetInstancePort(providers domain.ProviderRepository, env Env) model.InstancePort {
	return &instancePortAdapter{providers: providers, env: env, drivers: map[string]Driver{}}
}
