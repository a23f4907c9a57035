package controller

import (
	"github.com/yaegashi/clusterops/domain"
	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/internal/logging"
	"github.com/yaegashi/clusterops/usecase/lifecycle"
)

// Repos holds repositories needed for controller use cases.
type Repos struct {
	Provider    domain.ProviderRepository
	Controller  domain.ControllerRepository
	WorkerGroup domain.WorkerGroupRepository
	Instance    domain.InstanceRepository
}

// UseCase wires repositories and ports needed for controller use cases.
type UseCase struct {
	Repos       *Repos
	Engine      *lifecycle.Engine
	Coordinator *lifecycle.Coordinator
	DeployPort  model.DeployPort
	ShellPort   model.ShellPort
	Logger      logging.Logger
}

func (u *UseCase) logger() logging.Logger {
	if u.Logger == nil {
		return logging.Discard()
	}
	return u.Logger
}
