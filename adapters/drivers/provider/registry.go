package providerdrv

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/internal/logging"
)

// Driver abstracts provider-specific instance control.
// Implementations live under adapters/drivers/provider/<name> and return a
// provider identifier such as "hcloud" via ID().
type Driver interface {
	// ID returns the provider identifier (e.g., "hcloud").
	ID() string

	// InstanceStatus returns the live status of one instance. A resource that
	// no longer exists at the provider is reported as model.StatusTerminated.
	InstanceStatus(ctx context.Context, inst *model.Instance) (model.InstanceStatus, error)

	// InstanceStart boots count new instances for owner. It may return the
	// instances created so far together with an error.
	InstanceStart(ctx context.Context, owner model.InstanceOwner, count int) ([]*model.Instance, error)

	// InstanceResume powers stopped instances on and refreshes their IPAddress.
	// Every instance is attempted; failures are returned as *model.BatchError.
	InstanceResume(ctx context.Context, insts []*model.Instance) error

	// InstanceStop powers running instances off. Best effort like InstanceResume.
	InstanceStop(ctx context.Context, insts []*model.Instance) error

	// InstanceTerminate destroys instances. Best effort like InstanceResume.
	InstanceTerminate(ctx context.Context, insts []*model.Instance) error
}

// Preparer is implemented by drivers that have provider account prerequisites.
type Preparer interface {
	Prepare(ctx context.Context) ([]string, error)
}

// Env carries process-level context that drivers may need when they are built.
type Env struct {
	// BaseDir resolves relative file settings such as ssh_public_key_file.
	BaseDir string
	// Version is reported to provider APIs that accept an application version.
	Version string
	Logger  logging.Logger
}

// ResolvePath returns path joined to base unless it is empty or absolute.
func ResolvePath(base, path string) string {
	if path == "" || filepath.IsAbs(path) || base == "" {
		return path
	}
	return filepath.Join(base, path)
}

// driverFactory is a constructor function for a provider driver.
type driverFactory func(provider *model.Provider, env Env) (Driver, error)

// registry holds registered drivers by name.
var registry = map[string]driverFactory{}

// Register makes a driver available by the given name. Drivers should call
// this from their init() function.
func Register(name string, factory driverFactory) {
	registry[name] = factory
}

// GetDriverFactory returns the driver factory function for the given name.
func GetDriverFactory(name string) (driverFactory, bool) {
	factory, exists := registry[name]
	return factory, exists
}

// Names returns the registered driver names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
