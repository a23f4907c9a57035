package workergroup

import (
	"context"
	"errors"
	"fmt"

	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/usecase/lifecycle"
)

// StartInput identifies the worker group to start.
type StartInput struct {
	Name string `json:"name"`
	// Count overrides the stored desired count when set.
	Count *int `json:"count,omitempty"`
}

// StartOutput reports one reconciliation cycle of a worker group.
type StartOutput struct {
	WorkerGroup    *model.WorkerGroup      `json:"worker_group"`
	Desired        int                     `json:"desired"`
	AlreadyRunning []*model.Instance       `json:"already_running"`
	Resumed        []*model.Instance       `json:"resumed"`
	Started        []*model.Instance       `json:"started"`
	Deployed       lifecycle.DeployResults `json:"-"`
}

// Start brings the group to its desired running count, resuming stopped
// workers before starting new ones, then attaches every resumed or new worker
// to the running controller. A running controller is only required when
// there is something to do; a satisfied group just reports its state. Workers that were already running are not
// redeployed. Instances that changed state are deployed even when a later
// provider call in the same cycle failed.
func (u *UseCase) Start(ctx context.Context, in *StartInput) (*StartOutput, error) {
	if in == nil {
		return nil, model.ErrWorkerGroupInvalid
	}
	g, err := u.byName(ctx, in.Name)
	if err != nil {
		return nil, err
	}
	desired := g.DesiredCount
	if in.Count != nil {
		if *in.Count < 0 {
			return nil, fmt.Errorf("%w: count must not be negative", model.ErrWorkerGroupInvalid)
		}
		desired = *in.Count
	}
	out := &StartOutput{WorkerGroup: g, Desired: desired}
	res, err := u.Engine.Plan(ctx, g.Owner(), desired)
	if res != nil {
		out.AlreadyRunning = res.AlreadyRunning()
	}
	if err != nil || res.Plan.Empty() {
		return out, err
	}
	t, err := u.prepare(ctx, g)
	if err != nil {
		return out, err
	}

	scaleErr := u.Engine.Apply(ctx, g.Owner(), res)
	out.Resumed = res.Resumed
	out.Started = res.Started

	var deployErr error
	out.Deployed, deployErr = u.deploy(ctx, t, res.Changed())
	return out, errors.Join(scaleErr, deployErr)
}
