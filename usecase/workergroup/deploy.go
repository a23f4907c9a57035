package workergroup

import (
	"context"
	"fmt"

	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/usecase/lifecycle"
)

// target carries what worker deployment needs from the controller side.
type target struct {
	group              *model.WorkerGroup
	groupProvider      *model.Provider
	controller         *model.Controller
	controllerProvider *model.Provider
	controllerInstance *model.Instance
}

// prepare resolves the group's controller and requires it to be running.
func (u *UseCase) prepare(ctx context.Context, g *model.WorkerGroup) (*target, error) {
	c, err := u.Repos.Controller.Get(ctx, g.ControllerID)
	if err != nil {
		return nil, err
	}
	inst, err := u.Engine.FirstRunning(ctx, c.Owner())
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrControllerNotRunning, c.Name)
	}
	cp, err := u.Repos.Provider.Get(ctx, c.ProviderID)
	if err != nil {
		return nil, err
	}
	gp, err := u.Repos.Provider.Get(ctx, g.ProviderID)
	if err != nil {
		return nil, err
	}
	return &target{group: g, groupProvider: gp, controller: c, controllerProvider: cp, controllerInstance: inst}, nil
}

// deploy attaches insts to the controller. The engine connection file is read
// once from the controller and shared by every task.
func (u *UseCase) deploy(ctx context.Context, t *target, insts []*model.Instance) (lifecycle.DeployResults, error) {
	if len(insts) == 0 {
		return nil, nil
	}
	controllerIP := t.controllerInstance.IPAddress
	engine, err := u.DeployPort.EngineConfig(ctx, t.controllerProvider, controllerIP)
	if err != nil {
		return nil, fmt.Errorf("read engine config from controller %s: %w", t.controller.Name, err)
	}
	u.logger().Info(ctx, "deploying workers", "group", t.group.Name, "count", len(insts), "controller", controllerIP)
	results := u.Coordinator.Run(ctx, insts, func(ctx context.Context, inst *model.Instance) error {
		return u.DeployPort.ConfigureWorker(ctx, model.WorkerDeployment{
			Provider:           t.groupProvider,
			Host:               inst.IPAddress,
			ControllerIP:       controllerIP,
			ControllerProvider: t.controllerProvider,
			EngineConfig:       engine,
		})
	})
	return results, results.Err()
}
