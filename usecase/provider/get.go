package provider

import (
	"context"

	"github.com/yaegashi/clusterops/domain/model"
)

// GetInput identifies a provider by name.
type GetInput struct {
	Name string `json:"name"`
}

// GetOutput wraps the provider.
type GetOutput struct {
	Provider *model.Provider `json:"provider"`
}

func (u *UseCase) Get(ctx context.Context, in *GetInput) (*GetOutput, error) {
	if in == nil {
		return nil, model.ErrProviderInvalid
	}
	p, err := u.byName(ctx, in.Name)
	if err != nil {
		return nil, err
	}
	return &GetOutput{Provider: p}, nil
}
