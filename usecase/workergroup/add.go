package workergroup

import (
	"context"
	"errors"
	"fmt"

	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/usecase/lifecycle"
)

// AddInput requests additional workers.
type AddInput struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// AddOutput lists the new workers.
type AddOutput struct {
	WorkerGroup *model.WorkerGroup      `json:"worker_group"`
	Started     []*model.Instance       `json:"started"`
	Deployed    lifecycle.DeployResults `json:"-"`
}

// Add starts Count new workers regardless of the desired count and attaches
// them to the running controller. Stopped workers are left alone.
func (u *UseCase) Add(ctx context.Context, in *AddInput) (*AddOutput, error) {
	if in == nil {
		return nil, model.ErrWorkerGroupInvalid
	}
	if in.Count < 1 {
		return nil, fmt.Errorf("%w: count must be positive", model.ErrWorkerGroupInvalid)
	}
	g, err := u.byName(ctx, in.Name)
	if err != nil {
		return nil, err
	}
	t, err := u.prepare(ctx, g)
	if err != nil {
		return nil, err
	}

	out := &AddOutput{WorkerGroup: g}
	var startErr, deployErr error
	out.Started, startErr = u.Engine.Add(ctx, g.Owner(), in.Count)
	out.Deployed, deployErr = u.deploy(ctx, t, out.Started)
	return out, errors.Join(startErr, deployErr)
}
