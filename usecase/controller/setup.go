package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/internal/naming"
)

// SetupInput creates or updates a controller by name.
type SetupInput struct {
	// Name is the controller name.
	Name string `json:"name"`
	// Provider is the provider name. Required on create.
	Provider string `json:"provider"`
}

// SetupOutput wraps the stored controller.
type SetupOutput struct {
	Controller *model.Controller `json:"controller"`
	Created    bool              `json:"created"`
}

// Setup creates the controller when it does not exist, otherwise updates its provider.
func (u *UseCase) Setup(ctx context.Context, in *SetupInput) (*SetupOutput, error) {
	if in == nil {
		return nil, model.ErrControllerInvalid
	}
	if err := naming.ValidateControllerName(in.Name); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrControllerInvalid, err)
	}

	c, err := u.Repos.Controller.GetByName(ctx, in.Name)
	switch {
	case errors.Is(err, model.ErrControllerNotFound):
		c = nil
	case err != nil:
		return nil, err
	}

	var providerID string
	if in.Provider != "" {
		p, err := u.Repos.Provider.GetByName(ctx, in.Provider)
		if err != nil {
			return nil, err
		}
		providerID = p.ID
	}

	now := time.Now().UTC()
	if c == nil {
		if providerID == "" {
			return nil, fmt.Errorf("%w: provider is required", model.ErrControllerInvalid)
		}
		c = &model.Controller{Name: in.Name, ProviderID: providerID, CreatedAt: now, UpdatedAt: now}
		if err := u.Repos.Controller.Create(ctx, c); err != nil {
			return nil, err
		}
		return &SetupOutput{Controller: c, Created: true}, nil
	}

	if providerID != "" {
		c.ProviderID = providerID
	}
	c.UpdatedAt = now
	if err := u.Repos.Controller.Update(ctx, c); err != nil {
		return nil, err
	}
	return &SetupOutput{Controller: c}, nil
}
