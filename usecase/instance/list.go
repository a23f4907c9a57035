package instance

import (
	"context"

	"github.com/yaegashi/clusterops/usecase/lifecycle"
)

// ListInput selects the view. Live queries the provider for each record.
type ListInput struct {
	Live bool `json:"live"`
}

// ListOutput holds one row per instance record.
type ListOutput struct {
	Rows []lifecycle.StatusRow `json:"rows"`
}

// List returns every instance record with owner and provider names resolved.
func (u *UseCase) List(ctx context.Context, in *ListInput) (*ListOutput, error) {
	insts, err := u.Repos.Instance.List(ctx)
	if err != nil {
		return nil, err
	}
	var rows []lifecycle.StatusRow
	if in != nil && in.Live {
		rows, err = u.Engine.Rows(ctx, insts)
	} else {
		rows, err = u.Engine.Describe(ctx, insts)
	}
	if err != nil {
		return nil, err
	}
	return &ListOutput{Rows: rows}, nil
}
