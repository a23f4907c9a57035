package workergroup

import (
	"context"
	"fmt"

	"github.com/yaegashi/clusterops/domain/model"
)

// DeleteInput identifies the worker group to remove.
type DeleteInput struct {
	Name string `json:"name"`
}

// DeleteOutput is empty because delete has no payload.
type DeleteOutput struct{}

// Delete removes a worker group that has no instance records.
func (u *UseCase) Delete(ctx context.Context, in *DeleteInput) (*DeleteOutput, error) {
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
	if len(insts) > 0 {
		return nil, fmt.Errorf("%w: worker group %s has %d instance record(s)", model.ErrInUse, g.Name, len(insts))
	}
	if err := u.Repos.WorkerGroup.Delete(ctx, g.ID); err != nil {
		return nil, err
	}
	return &DeleteOutput{}, nil
}
