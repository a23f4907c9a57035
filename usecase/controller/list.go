package controller

import (
	"context"

	"github.com/yaegashi/clusterops/domain/model"
)

// ListInput is empty; all controllers are listed.
type ListInput struct{}

// ListItem is a controller with its provider name resolved.
type ListItem struct {
	Controller   *model.Controller `json:"controller"`
	ProviderName string            `json:"provider_name"`
}

// ListOutput holds the controllers in creation order.
type ListOutput struct {
	Items []ListItem `json:"items"`
}

// List returns every controller.
func (u *UseCase) List(ctx context.Context, _ *ListInput) (*ListOutput, error) {
	cs, err := u.Repos.Controller.List(ctx)
	if err != nil {
		return nil, err
	}
	out := &ListOutput{Items: make([]ListItem, 0, len(cs))}
	for _, c := range cs {
		item := ListItem{Controller: c, ProviderName: c.ProviderID}
		if p, err := u.Repos.Provider.Get(ctx, c.ProviderID); err == nil {
			item.ProviderName = p.Name
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}
