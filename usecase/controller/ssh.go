package controller

import (
	"context"

	"github.com/yaegashi/clusterops/domain/model"
)

// SSHInput identifies the controller to log into.
type SSHInput struct {
	Name string `json:"name"`
}

// SSH opens an interactive shell on the running controller instance.
func (u *UseCase) SSH(ctx context.Context, in *SSHInput) error {
	if in == nil {
		return model.ErrControllerInvalid
	}
	c, err := u.byName(ctx, in.Name)
	if err != nil {
		return err
	}
	inst, err := u.running(ctx, c)
	if err != nil {
		return err
	}
	provider, err := u.Repos.Provider.Get(ctx, c.ProviderID)
	if err != nil {
		return err
	}
	u.logger().Info(ctx, "connecting", "controller", c.Name, "address", inst.IPAddress)
	return u.ShellPort.Shell(ctx, provider, inst.IPAddress)
}
