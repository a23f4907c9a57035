package workergroup

import (
	"context"

	"github.com/yaegashi/clusterops/domain/model"
)

// ListInput is empty; all worker groups are listed.
type ListInput struct{}

// ListItem is a worker group with references resolved to names.
type ListItem struct {
	WorkerGroup    *model.WorkerGroup `json:"worker_group"`
	ProviderName   string             `json:"provider_name"`
	ControllerName string             `json:"controller_name"`
}

// ListOutput holds the worker groups in creation order.
type ListOutput struct {
	Items []ListItem `json:"items"`
}

// List returns every worker group.
func (u *UseCase) List(ctx context.Context, _ *ListInput) (*ListOutput, error) {
	gs, err := u.Repos.WorkerGroup.List(ctx)
	if err != nil {
		return nil, err
	}
	out := &ListOutput{Items: make([]ListItem, 0, len(gs))}
	for _, g := range gs {
		item := ListItem{WorkerGroup: g, ProviderName: g.ProviderID, ControllerName: g.ControllerID}
		if p, err := u.Repos.Provider.Get(ctx, g.ProviderID); err == nil {
			item.ProviderName = p.Name
		}
		if c, err := u.Repos.Controller.Get(ctx, g.ControllerID); err == nil {
			item.ControllerName = c.Name
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}
