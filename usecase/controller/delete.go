package controller

import (
	"context"
	"fmt"

	"github.com/yaegashi/clusterops/domain/model"
)

// DeleteInput identifies the controller to remove.
type DeleteInput struct {
	Name string `json:"name"`
}

// DeleteOutput is empty because delete has no payload.
type DeleteOutput struct{}

// Delete removes a controller that has no worker groups and no instance records.
func (u *UseCase) Delete(ctx context.Context, in *DeleteInput) (*DeleteOutput, error) {
	if in == nil {
		return nil, model.ErrControllerInvalid
	}
	c, err := u.byName(ctx, in.Name)
	if err != nil {
		return nil, err
	}
	groups, err := u.Repos.WorkerGroup.ListByController(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if len(groups) > 0 {
		return nil, fmt.Errorf("%w: controller %s has %d worker group(s)", model.ErrInUse, c.Name, len(groups))
	}
	insts, err := u.Repos.Instance.ListByController(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if len(insts) > 0 {
		return nil, fmt.Errorf("%w: controller %s has %d instance record(s)", model.ErrInUse, c.Name, len(insts))
	}
	if err := u.Repos.Controller.Delete(ctx, c.ID); err != nil {
		return nil, err
	}
	return &DeleteOutput{}, nil
}
