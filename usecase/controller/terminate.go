package controller

import (
	"context"
	"errors"

	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/usecase/lifecycle"
)

// TerminateInput identifies the controller to terminate.
type TerminateInput struct {
	Name string `json:"name"`
	// Purge deletes the records of instances whose termination succeeded.
	Purge bool `json:"purge"`
}

// TerminateOutput reports what was terminated.
type TerminateOutput struct {
	Controller *lifecycle.TerminateResult `json:"controller"`
	Workers    *lifecycle.TerminateResult `json:"workers"`
}

// Terminate destroys the controller instances and cascades to every running or
// stopped instance of the worker groups attached to it.
func (u *UseCase) Terminate(ctx context.Context, in *TerminateInput) (*TerminateOutput, error) {
	if in == nil {
		return nil, model.ErrControllerInvalid
	}
	c, err := u.byName(ctx, in.Name)
	if err != nil {
		return nil, err
	}
	out := &TerminateOutput{}

	workers, err := u.workerInstances(ctx, c)
	if err != nil {
		return nil, err
	}
	var errs []error
	out.Workers, err = u.Engine.Terminate(ctx, workers, in.Purge)
	errs = append(errs, err)

	own, err := u.Repos.Instance.ListByController(ctx, c.ID)
	if err != nil {
		return out, errors.Join(append(errs, err)...)
	}
	out.Controller, err = u.Engine.Terminate(ctx, own, in.Purge)
	errs = append(errs, err)
	return out, errors.Join(errs...)
}
