package provider

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/internal/naming"
)

// SetupInput creates or updates a provider by name.
type SetupInput struct {
	Name string `json:"name"`
	// Driver is required on create. On update an empty value keeps the stored one.
	Driver string `json:"driver,omitempty"`
	// Settings are merged into the stored settings. An empty value removes the key.
	Settings map[string]string `json:"settings,omitempty"`
	// NoPrepare skips provider-side prerequisite checks.
	NoPrepare bool `json:"no_prepare,omitempty"`
}

// SetupOutput wraps the stored provider and the prerequisite notes.
type SetupOutput struct {
	Provider *model.Provider `json:"provider"`
	Created  bool            `json:"created"`
	Notes    []string        `json:"notes,omitempty"`
}

// Setup creates the provider when it does not exist, otherwise updates it,
// then makes sure the provider-side prerequisites exist. The record is kept
// even when preparation fails so the command can be retried.
func (u *UseCase) Setup(ctx context.Context, in *SetupInput) (*SetupOutput, error) {
	if in == nil {
		return nil, model.ErrProviderInvalid
	}
	if err := naming.ValidateProviderName(in.Name); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrProviderInvalid, err)
	}

	p, err := u.Repos.Provider.GetByName(ctx, in.Name)
	switch {
	case errors.Is(err, model.ErrProviderNotFound):
		p = nil
	case err != nil:
		return nil, err
	}

	now := time.Now().UTC()
	out := &SetupOutput{}
	if p == nil {
		if err := u.checkDriver(in.Driver); err != nil {
			return nil, err
		}
		p = &model.Provider{
			Name:      in.Name,
			Driver:    in.Driver,
			Settings:  mergeSettings(nil, in.Settings),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := u.Repos.Provider.Create(ctx, p); err != nil {
			return nil, err
		}
		out.Created = true
	} else {
		if in.Driver != "" && in.Driver != p.Driver {
			if err := u.checkDriver(in.Driver); err != nil {
				return nil, err
			}
			p.Driver = in.Driver
		}
		p.Settings = mergeSettings(p.Settings, in.Settings)
		p.UpdatedAt = now
		if err := u.Repos.Provider.Update(ctx, p); err != nil {
			return nil, err
		}
	}
	out.Provider = p

	if in.NoPrepare || u.ProviderPort == nil {
		return out, nil
	}
	u.logger().Info(ctx, "preparing provider", "provider", p.Name, "driver", p.Driver)
	out.Notes, err = u.ProviderPort.Prepare(ctx, p)
	if err != nil {
		return out, fmt.Errorf("prepare provider %s: %w", p.Name, err)
	}
	return out, nil
}

func mergeSettings(base, overlay map[string]string) map[string]string {
	out := maps.Clone(base)
	if out == nil {
		out = map[string]string{}
	}
	for k, v := range overlay {
		if v == "" {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}
