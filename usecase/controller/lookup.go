package controller

import (
	"context"

	"github.com/yaegashi/clusterops/domain/model"
)

// byName resolves a controller by name.
func (u *UseCase) byName(ctx context.Context, name string) (*model.Controller, error) {
	if name == "" {
		return nil, model.ErrControllerInvalid
	}
	return u.Repos.Controller.GetByName(ctx, name)
}

// running returns the running instance of c or ErrControllerNotRunning.
func (u *UseCase) running(ctx context.Context, c *model.Controller) (*model.Instance, error) {
	inst, err := u.Engine.FirstRunning(ctx, c.Owner())
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, model.ErrControllerNotRunning
	}
	return inst, nil
}

// workerInstances lists the instances of every worker group attached to c.
func (u *UseCase) workerInstances(ctx context.Context, c *model.Controller) ([]*model.Instance, error) {
	groups, err := u.Repos.WorkerGroup.ListByController(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	var out []*model.Instance
	for _, g := range groups {
		insts, err := u.Repos.Instance.ListByWorkerGroup(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, insts...)
	}
	return out, nil
}
