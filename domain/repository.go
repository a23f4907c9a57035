package domain

import (
	"context"

	"github.com/yaegashi/clusterops/domain/model"
)

// ProviderRepository stores and retrieves Provider aggregates.
type ProviderRepository interface {
	Create(ctx context.Context, p *model.Provider) error
	Get(ctx context.Context, id string) (*model.Provider, error)
	GetByName(ctx context.Context, name string) (*model.Provider, error)
	List(ctx context.Context) ([]*model.Provider, error)
	Update(ctx context.Context, p *model.Provider) error
	Delete(ctx context.Context, id string) error
}

// ControllerRepository stores and retrieves Controller aggregates.
type ControllerRepository interface {
	Create(ctx context.Context, c *model.Controller) error
	Get(ctx context.Context, id string) (*model.Controller, error)
	GetByName(ctx context.Context, name string) (*model.Controller, error)
	List(ctx context.Context) ([]*model.Controller, error)
	Update(ctx context.Context, c *model.Controller) error
	Delete(ctx context.Context, id string) error
}

// WorkerGroupRepository stores and retrieves WorkerGroup aggregates.
type WorkerGroupRepository interface {
	Create(ctx context.Context, w *model.WorkerGroup) error
	Get(ctx context.Context, id string) (*model.WorkerGroup, error)
	GetByName(ctx context.Context, name string) (*model.WorkerGroup, error)
	List(ctx context.Context) ([]*model.WorkerGroup, error)
	// ListByController returns the worker groups attached to a controller.
	ListByController(ctx context.Context, controllerID string) ([]*model.WorkerGroup, error)
	Update(ctx context.Context, w *model.WorkerGroup) error
	Delete(ctx context.Context, id string) error
}

// InstanceRepository stores instance records. Records carry identity and
// ownership only; status is always queried live from the provider.
type InstanceRepository interface {
	Create(ctx context.Context, i *model.Instance) error
	Get(ctx context.Context, id string) (*model.Instance, error)
	List(ctx context.Context) ([]*model.Instance, error)
	// ListByController returns the controller's own instances (not its workers).
	ListByController(ctx context.Context, controllerID string) ([]*model.Instance, error)
	ListByWorkerGroup(ctx context.Context, workerGroupID string) ([]*model.Instance, error)
	Update(ctx context.Context, i *model.Instance) error
	Delete(ctx context.Context, id string) error
}

// Repositories groups the registry repositories.
type Repositories struct {
	Provider    ProviderRepository
	Controller  ControllerRepository
	WorkerGroup WorkerGroupRepository
	Instance    InstanceRepository
}
