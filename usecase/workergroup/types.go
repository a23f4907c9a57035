package workergroup

import (
	"context"

	"github.com/yaegashi/clusterops/domain"
	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/internal/logging"
	"github.com/yaegashi/clusterops/usecase/lifecycle"
)

// Repos holds repositories needed for worker group use cases.
type Repos struct {
	Provider    domain.ProviderRepository
	Controller  domain.ControllerRepository
	WorkerGroup domain.WorkerGroupRepository
	Instance    domain.InstanceRepository
}

// UseCase wires repositories and ports needed for worker group use cases.
type UseCase struct {
	Repos       *Repos
	Engine      *lifecycle.Engine
	Coordinator *lifecycle.Coordinator
	DeployPort  model.DeployPort
	Logger      logging.Logger
}

func (u *UseCase) logger() logging.Logger {
	if u.Logger == nil {
		return logging.Discard()
	}
	return u.Logger
}

// byName resolves a worker group by name.
func (u *UseCase) byName(ctx context.Context, name string) (*model.WorkerGroup, error) {
	if name == "" {
		return nil, model.ErrWorkerGroupInvalid
	}
	return u.Repos.WorkerGroup.GetByName(ctx, name)
}
