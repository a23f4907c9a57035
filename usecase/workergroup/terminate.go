package workergroup

import (
	"context"

	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/usecase/lifecycle"
)

// TerminateInput identifies the worker group to terminate.
type TerminateInput struct {
	Name string `json:"name"`
	// Purge deletes the records of instances whose termination succeeded.
	Purge bool `json:"purge"`
}

// TerminateOutput reports what was terminated.
type TerminateOutput struct {
	Result *lifecycle.TerminateResult `json:"result"`
}

// Terminate destroys the running and stopped workers of this group only.
func (u *UseCase) Terminate(ctx context.Context, in *TerminateInput) (*TerminateOutput, error) {
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
	res, err := u.Engine.Terminate(ctx, insts, in.Purge)
	return &TerminateOutput{Result: res}, err
}
