package lifecycle

import (
	"context"
	"errors"

	"github.com/yaegashi/clusterops/domain/model"
)

// StatusRow is one line of a status view.
type StatusRow struct {
	Name               string               `json:"name"`
	Status             model.InstanceStatus `json:"status,omitempty"`
	Kind               model.OwnerKind      `json:"kind"`
	Provider           string               `json:"provider"`
	ProviderInstanceID string               `json:"provider_instance_id"`
	IPAddress          string               `json:"ip_address"`
	InstanceID         string               `json:"instance_id"`
}

// Rows joins registry names with live status for display. A failed status
// query yields UNKNOWN for that row rather than aborting the view.
func (e *Engine) Rows(ctx context.Context, insts []*model.Instance) ([]StatusRow, error) {
	return e.rows(ctx, insts, true)
}

// Describe joins registry names without querying providers. Status is left empty.
func (e *Engine) Describe(ctx context.Context, insts []*model.Instance) ([]StatusRow, error) {
	return e.rows(ctx, insts, false)
}

func (e *Engine) rows(ctx context.Context, insts []*model.Instance, live bool) ([]StatusRow, error) {
	names := newNameCache(e)
	rows := make([]StatusRow, 0, len(insts))
	for _, inst := range insts {
		var st model.InstanceStatus
		if live {
			var err error
			st, err = e.Port.InstanceStatus(ctx, inst)
			if err != nil {
				e.Logger.Warn(ctx, "status query failed", "instance", inst.ID, "err", err.Error())
				st = model.StatusUnknown
			}
		}
		owner, err := names.owner(ctx, inst)
		if err != nil {
			return rows, err
		}
		provider, err := names.provider(ctx, inst.ProviderID)
		if err != nil {
			return rows, err
		}
		rows = append(rows, StatusRow{
			Name:               owner,
			Status:             st,
			Kind:               inst.Kind(),
			Provider:           provider,
			ProviderInstanceID: inst.ProviderInstanceID,
			IPAddress:          inst.IPAddress,
			InstanceID:         inst.ID,
		})
	}
	return rows, nil
}

// nameCache resolves record IDs to entity names once per view. Dangling
// references resolve to the raw ID.
type nameCache struct {
	e     *Engine
	names map[string]string
}

func newNameCache(e *Engine) *nameCache {
	return &nameCache{e: e, names: map[string]string{}}
}

func (c *nameCache) owner(ctx context.Context, inst *model.Instance) (string, error) {
	if inst.Kind() == model.OwnerWorker {
		return c.lookup(inst.WorkerGroupID, model.ErrWorkerGroupNotFound, func(id string) (string, error) {
			w, err := c.e.Repos.WorkerGroup.Get(ctx, id)
			if err != nil {
				return "", err
			}
			return w.Name, nil
		})
	}
	return c.lookup(inst.ControllerID, model.ErrControllerNotFound, func(id string) (string, error) {
		ctrl, err := c.e.Repos.Controller.Get(ctx, id)
		if err != nil {
			return "", err
		}
		return ctrl.Name, nil
	})
}

func (c *nameCache) provider(ctx context.Context, id string) (string, error) {
	return c.lookup(id, model.ErrProviderNotFound, func(id string) (string, error) {
		p, err := c.e.Repos.Provider.Get(ctx, id)
		if err != nil {
			return "", err
		}
		return p.Name, nil
	})
}

func (c *nameCache) lookup(id string, notFound error, get func(string) (string, error)) (string, error) {
	if name, ok := c.names[id]; ok {
		return name, nil
	}
	name, err := get(id)
	if errors.Is(err, notFound) {
		name, err = id, nil
	}
	if err != nil {
		return "", err
	}
	c.names[id] = name
	return name, nil
}
