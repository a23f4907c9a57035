package provider

import (
	"context"

	"github.com/yaegashi/clusterops/domain/model"
)

// ListInput is empty; all providers are listed.
type ListInput struct{}

// ListOutput holds the providers in creation order.
type ListOutput struct {
	Providers []*model.Provider `json:"providers"`
}

func (u *UseCase) List(ctx context.Context, _ *ListInput) (*ListOutput, error) {
	ps, err := u.Repos.Provider.List(ctx)
	if err != nil {
		return nil, err
	}
	return &ListOutput{Providers: ps}, nil
}
