package workergroup

import (
	"context"

	"github.com/yaegashi/clusterops/domain/model"
)

// StopInput identifies the worker group to stop.
type StopInput struct {
	Name string `json:"name"`
}

// StopOutput lists the workers that were asked to stop.
type StopOutput struct {
	Stopped []*model.Instance `json:"stopped"`
}

// Stop stops the running workers of the group.
func (u *UseCase) Stop(ctx context.Context, in *StopInput) (*StopOutput, error) {
	if in == nil {
		return nil, model.ErrWorkerGroupInvalid
	}
	g, err := u.byName(ctx, in.Name)
	if err != nil {
		return nil, err
	}
	insts, err := u.Repos.Instance.ListByWorkerGroup(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	stopped, err := u.Engine.Stop(ctx, insts)
	return &StopOutput{Stopped: stopped}, err
}
