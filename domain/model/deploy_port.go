package model

import "context"

// WorkerDeployment carries everything needed to attach one worker instance
// to its controller.
type WorkerDeployment struct {
	Provider           *Provider // provider of the worker group (SSH credentials)
	Host               string    // worker address
	ControllerIP       string
	ControllerProvider *Provider // provider of the controller (controller key material)
	EngineConfig       []byte    // engine connection file read from the controller
}

// DeployPort is an interface (domain port) for post-boot remote configuration.
// Each call opens its own transport session, so calls may run concurrently.
type DeployPort interface {
	// ConfigureController installs and starts the controller software on host.
	ConfigureController(ctx context.Context, provider *Provider, host string) error

	// EngineConfig reads the engine connection file from a configured controller.
	EngineConfig(ctx context.Context, provider *Provider, controllerHost string) ([]byte, error)

	// ClientConfig reads the client connection file from a configured controller.
	ClientConfig(ctx context.Context, provider *Provider, controllerHost string) ([]byte, error)

	// ConfigureWorker configures a worker engine and points it at the controller.
	ConfigureWorker(ctx context.Context, d WorkerDeployment) error
}

// ShellPort is an interface (domain port) for interactive remote shells.
type ShellPort interface {
	// Shell attaches the local terminal to a login shell on host until the
	// remote side exits or the escape sequence is typed.
	Shell(ctx context.Context, provider *Provider, host string) error
}
