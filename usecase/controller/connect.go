package controller

import (
	"context"

	"github.com/yaegashi/clusterops/domain/model"
)

// ConnectInput identifies the controller.
type ConnectInput struct {
	Name string `json:"name"`
}

// ConnectOutput carries the client connection file of a running controller.
type ConnectOutput struct {
	Address      string `json:"address"`
	ClientConfig []byte `json:"client_config"`
}

// Connect fetches the client connection file from the running controller.
func (u *UseCase) Connect(ctx context.Context, in *ConnectInput) (*ConnectOutput, error) {
	if in == nil {
		return nil, model.ErrControllerInvalid
	}
	c, err := u.byName(ctx, in.Name)
	if err != nil {
		return nil, err
	}
	inst, err := u.running(ctx, c)
	if err != nil {
		return nil, err
	}
	provider, err := u.Repos.Provider.Get(ctx, c.ProviderID)
	if err != nil {
		return nil, err
	}
	data, err := u.DeployPort.ClientConfig(ctx, provider, inst.IPAddress)
	if err != nil {
		return nil, err
	}
	return &ConnectOutput{Address: inst.IPAddress, ClientConfig: data}, nil
}
