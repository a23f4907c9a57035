package workergroup

import (
	"context"

	"github.com/yaegashi/clusterops/domain/model"
)

// GetInput identifies a worker group by name.
type GetInput struct {
	Name string `json:"name"`
}

// GetOutput wraps the worker group.
type GetOutput struct {
	WorkerGroup *model.WorkerGroup `json:"worker_group"`
}

// Get returns a worker group by name.
func (u *UseCase) Get(ctx context.Context, in *GetInput) (*GetOutput, error) {
	if in == nil {
		return nil, model.ErrWorkerGroupInvalid
	}
	g, err := u.byName(ctx, in.Name)
	if err != nil {
		return nil, err
	}
	return &GetOutput{WorkerGroup: g}, nil
}
