package instance

import (
	"github.com/yaegashi/clusterops/domain"
	"github.com/yaegashi/clusterops/internal/logging"
	"github.com/yaegashi/clusterops/usecase/lifecycle"
)

// Repos holds repositories needed for instance record use cases.
type Repos struct {
	Instance domain.InstanceRepository
}

// UseCase works on instance records across all controllers and worker groups.
type UseCase struct {
	Repos  *Repos
	Engine *lifecycle.Engine
	Logger logging.Logger
}

func (u *UseCase) logger() logging.Logger {
	if u.Logger == nil {
		return logging.Discard()
	}
	return u.Logger
}
