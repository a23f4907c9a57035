package controller

import (
	"context"
	"errors"

	"github.com/yaegashi/clusterops/domain/model"
)

// StartInput identifies the controller to start.
type StartInput struct {
	Name string `json:"name"`
}

// StartOutput reports the controller instance after start.
type StartOutput struct {
	Controller *model.Controller `json:"controller"`
	Instance   *model.Instance   `json:"instance,omitempty"`
	// AlreadyRunning is true when no provider call was made.
	AlreadyRunning bool `json:"already_running"`
	Resumed        bool `json:"resumed"`
}

// Address returns the controller address, or "" if no instance is known.
func (o *StartOutput) Address() string {
	if o == nil || o.Instance == nil {
		return ""
	}
	return o.Instance.IPAddress
}

// Start makes sure the controller has one running instance. A stopped instance
// is resumed in preference to starting a new one. When an instance is already
// running nothing is changed and its address is reported. A resumed or new
// instance is configured before Start returns.
func (u *UseCase) Start(ctx context.Context, in *StartInput) (*StartOutput, error) {
	if in == nil {
		return nil, model.ErrControllerInvalid
	}
	c, err := u.byName(ctx, in.Name)
	if err != nil {
		return nil, err
	}
	out := &StartOutput{Controller: c}

	res, scaleErr := u.Engine.ScaleUp(ctx, c.Owner(), 1)
	if res == nil {
		return out, scaleErr
	}
	if running := res.AlreadyRunning(); len(running) > 0 {
		out.Instance = running[0]
		out.AlreadyRunning = true
		return out, scaleErr
	}
	out.Resumed = len(res.Resumed) > 0
	changed := res.Changed()
	if len(changed) == 0 {
		return out, scaleErr
	}
	out.Instance = changed[0]

	provider, err := u.Repos.Provider.Get(ctx, c.ProviderID)
	if err != nil {
		return out, errors.Join(scaleErr, err)
	}
	results := u.Coordinator.Run(ctx, changed, func(ctx context.Context, inst *model.Instance) error {
		return u.DeployPort.ConfigureController(ctx, provider, inst.IPAddress)
	})
	return out, errors.Join(scaleErr, results.Err())
}
