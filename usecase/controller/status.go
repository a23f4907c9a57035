package controller

import (
	"context"

	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/usecase/lifecycle"
)

// StatusInput identifies the controller.
type StatusInput struct {
	Name string `json:"name"`
}

// StatusOutput holds controller rows followed by attached worker rows.
type StatusOutput struct {
	Rows []lifecycle.StatusRow `json:"rows"`
}

// Status reports the live status of the controller and its workers.
func (u *UseCase) Status(ctx context.Context, in *StatusInput) (*StatusOutput, error) {
	if in == nil {
		return nil, model.ErrControllerInvalid
	}
	c, err := u.byName(ctx, in.Name)
	if err != nil {
		return nil, err
	}
	own, err := u.Repos.Instance.ListByController(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	workers, err := u.workerInstances(ctx, c)
	if err != nil {
		return nil, err
	}
	rows, err := u.Engine.Rows(ctx, append(own, workers...))
	if err != nil {
		return nil, err
	}
	return &StatusOutput{Rows: rows}, nil
}
