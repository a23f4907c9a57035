package provider

import (
	"context"
	"fmt"

	"github.com/yaegashi/clusterops/domain/model"
)

// DeleteInput identifies the provider to remove.
type DeleteInput struct {
	Name string `json:"name"`
}

// DeleteOutput is empty because delete has no return entity.
type DeleteOutput struct{}

// Delete removes a provider that no controller, worker group or instance
// record refers to. Provider-side resources are left untouched.
func (u *UseCase) Delete(ctx context.Context, in *DeleteInput) (*DeleteOutput, error) {
	if in == nil {
		return nil, model.ErrProviderInvalid
	}
	p, err := u.byName(ctx, in.Name)
	if err != nil {
		return nil, err
	}

	cs, err := u.Repos.Controller.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range cs {
		if c.ProviderID == p.ID {
			return nil, fmt.Errorf("%w: provider %s is used by controller %s", model.ErrInUse, p.Name, c.Name)
		}
	}
	gs, err := u.Repos.WorkerGroup.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, g := range gs {
		if g.ProviderID == p.ID {
			return nil, fmt.Errorf("%w: provider %s is used by worker group %s", model.ErrInUse, p.Name, g.Name)
		}
	}
	insts, err := u.Repos.Instance.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, inst := range insts {
		if inst.ProviderID == p.ID {
			return nil, fmt.Errorf("%w: provider %s has instance record %s", model.ErrInUse, p.Name, inst.ID)
		}
	}

	if err := u.Repos.Provider.Delete(ctx, p.ID); err != nil {
		return nil, err
	}
	return &DeleteOutput{}, nil
}
