package controller

import (
	"context"

	"github.com/yaegashi/clusterops/domain/model"
)

// GetInput identifies a controller by name.
type GetInput struct {
	Name string `json:"name"`
}

// GetOutput wraps the controller.
type GetOutput struct {
	Controller *model.Controller `json:"controller"`
}

// Get returns a controller by name.
func (u *UseCase) Get(ctx context.Context, in *GetInput) (*GetOutput, error) {
	if in == nil {
		return nil, model.ErrControllerInvalid
	}
	c, err := u.byName(ctx, in.Name)
	if err != nil {
		return nil, err
	}
	return &GetOutput{Controller: c}, nil
}
