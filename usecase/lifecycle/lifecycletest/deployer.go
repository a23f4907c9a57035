package lifecycletest

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/yaegashi/clusterops/domain/model"
)

// Deployer is a model.DeployPort and model.ShellPort recording every call.
type Deployer struct {
	mu          sync.Mutex
	controllers []string
	workers     []model.WorkerDeployment
	shells      []string
	failHosts   map[string]error

	// Engine and Client are returned by EngineConfig and ClientConfig.
	Engine []byte
	Client []byte
	// Hook runs before each ConfigureWorker call returns.
	Hook func(ctx context.Context, d model.WorkerDeployment)
}

var (
	_ model.DeployPort = (*Deployer)(nil)
	_ model.ShellPort  = (*Deployer)(nil)
)

// NewDeployer returns a Deployer handing out fixed engine and client files.
func NewDeployer() *Deployer {
	return &Deployer{
		failHosts: map[string]error{},
		Engine:    []byte(`{"engine":"cfg"}`),
		Client:    []byte(`{"client":"cfg"}`),
	}
}

// Fail makes configuration of host fail with err.
func (d *Deployer) Fail(host string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failHosts[host] = err
}

// Controllers returns the hosts passed to ConfigureController.
func (d *Deployer) Controllers() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.controllers)
}

// Workers returns the deployments passed to ConfigureWorker, sorted by host.
func (d *Deployer) Workers() []model.WorkerDeployment {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := slices.Clone(d.workers)
	slices.SortFunc(out, func(a, b model.WorkerDeployment) int { return strings.Compare(a.Host, b.Host) })
	return out
}

// WorkerHosts returns the hosts passed to ConfigureWorker, sorted.
func (d *Deployer) WorkerHosts() []string {
	var out []string
	for _, w := range d.Workers() {
		out = append(out, w.Host)
	}
	return out
}

// Shells returns the hosts passed to Shell.
func (d *Deployer) Shells() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.shells)
}

func (d *Deployer) ConfigureController(_ context.Context, _ *model.Provider, host string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.controllers = append(d.controllers, host)
	return d.failHosts[host]
}

func (d *Deployer) EngineConfig(context.Context, *model.Provider, string) ([]byte, error) {
	return d.Engine, nil
}

func (d *Deployer) ClientConfig(context.Context, *model.Provider, string) ([]byte, error) {
	return d.Client, nil
}

func (d *Deployer) ConfigureWorker(ctx context.Context, wd model.WorkerDeployment) error {
	if d.Hook != nil {
		d.Hook(ctx, wd)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.workers = append(d.workers, wd)
	return d.failHosts[wd.Host]
}

func (d *Deployer) Shell(_ context.Context, _ *model.Provider, host string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shells = append(d.shells, host)
	return nil
}
