package workergroup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/internal/naming"
)

// DefaultDesiredCount is used when a new group is set up without a count.
const DefaultDesiredCount = 1

// SetupInput creates or updates a worker group by name. Empty fields keep the
// stored values on update.
type SetupInput struct {
	Name       string `json:"name"`
	Provider   string `json:"provider"`
	Controller string `json:"controller"`
	// DesiredCount is the number of workers start brings up. Nil keeps the
	// stored value (or DefaultDesiredCount on create).
	DesiredCount *int `json:"desired_count,omitempty"`
}

// SetupOutput wraps the stored worker group.
type SetupOutput struct {
	WorkerGroup *model.WorkerGroup `json:"worker_group"`
	Created     bool               `json:"created"`
}

// Setup creates the worker group when it does not exist, otherwise updates it.
func (u *UseCase) Setup(ctx context.Context, in *SetupInput) (*SetupOutput, error) {
	if in == nil {
		return nil, model.ErrWorkerGroupInvalid
	}
	if err := naming.ValidateWorkerGroupName(in.Name); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrWorkerGroupInvalid, err)
	}
	if in.DesiredCount != nil && *in.DesiredCount < 0 {
		return nil, fmt.Errorf("%w: desired count must not be negative", model.ErrWorkerGroupInvalid)
	}

	g, err := u.Repos.WorkerGroup.GetByName(ctx, in.Name)
	switch {
	case errors.Is(err, model.ErrWorkerGroupNotFound):
		g = nil
	case err != nil:
		return nil, err
	}

	var providerID, controllerID string
	if in.Provider != "" {
		p, err := u.Repos.Provider.GetByName(ctx, in.Provider)
		if err != nil {
			return nil, err
		}
		providerID = p.ID
	}
	if in.Controller != "" {
		c, err := u.Repos.Controller.GetByName(ctx, in.Controller)
		if err != nil {
			return nil, err
		}
		controllerID = c.ID
	}

	now := time.Now().UTC()
	if g == nil {
		if providerID == "" || controllerID == "" {
			return nil, fmt.Errorf("%w: provider and controller are required", model.ErrWorkerGroupInvalid)
		}
		g = &model.WorkerGroup{
			Name:         in.Name,
			ProviderID:   providerID,
			ControllerID: controllerID,
			DesiredCount: DefaultDesiredCount,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if in.DesiredCount != nil {
			g.DesiredCount = *in.DesiredCount
		}
		if err := u.Repos.WorkerGroup.Create(ctx, g); err != nil {
			return nil, err
		}
		return &SetupOutput{WorkerGroup: g, Created: true}, nil
	}

	if providerID != "" {
		g.ProviderID = providerID
	}
	if controllerID != "" {
		g.ControllerID = controllerID
	}
	if in.DesiredCount != nil {
		g.DesiredCount = *in.DesiredCount
	}
	g.UpdatedAt = now
	if err := u.Repos.WorkerGroup.Update(ctx, g); err != nil {
		return nil, err
	}
	return &SetupOutput{WorkerGroup: g}, nil
}
