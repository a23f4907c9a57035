package controller

import (
	"context"
	"errors"

	"github.com/yaegashi/clusterops/domain/model"
)

// StopInput identifies the controller to stop.
type StopInput struct {
	Name string `json:"name"`
}

// StopOutput lists the instances that were asked to stop.
type StopOutput struct {
	Controller []*model.Instance `json:"controller"`
	Workers    []*model.Instance `json:"workers"`
}

// Stop stops the running controller instance and every running instance of the
// worker groups attached to it. Both sets are attempted even if one fails.
func (u *UseCase) Stop(ctx context.Context, in *StopInput) (*StopOutput, error) {
	if in == nil {
		return nil, model.ErrControllerInvalid
	}
	c, err := u.byName(ctx, in.Name)
	if err != nil {
		return nil, err
	}
	out := &StopOutput{}

	workers, err := u.workerInstances(ctx, c)
	if err != nil {
		return nil, err
	}
	var errs []error
	out.Workers, err = u.Engine.Stop(ctx, workers)
	errs = append(errs, err)

	own, err := u.Repos.Instance.ListByController(ctx, c.ID)
	if err != nil {
		return out, errors.Join(append(errs, err)...)
	}
	out.Controller, err = u.Engine.Stop(ctx, own)
	errs = append(errs, err)
	return out, errors.Join(errs...)
}
