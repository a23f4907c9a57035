package workergroup

import (
	"context"

	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/usecase/lifecycle"
)

// StatusInput identifies the worker group.
type StatusInput struct {
	Name string `json:"name"`
}

// StatusOutput holds one row per worker instance.
type StatusOutput struct {
	Rows []lifecycle.StatusRow `json:"rows"`
}

// Status reports the live status of the group's workers.
func (u *UseCase) Status(ctx context.Context, in *StatusInput) (*StatusOutput, error) {
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
	rows, err := u.Engine.Rows(ctx, insts)
	if err != nil {
		return nil, err
	}
	return &StatusOutput{Rows: rows}, nil
}
