package model

import "context"

// InstanceStatus is the live state of an instance as reported by its provider.
// It is never persisted.
type InstanceStatus string

const (
	StatusRunning    InstanceStatus = "RUNNING"
	StatusStopped    InstanceStatus = "STOPPED"
	StatusTerminated InstanceStatus = "TERMINATED"
	StatusPending    InstanceStatus = "PENDING"
	StatusUnknown    InstanceStatus = "UNKNOWN"
)

// Active reports whether the instance still holds a provider-level resource
// that can be resumed or is running.
func (s InstanceStatus) Active() bool {
	return s == StatusRunning || s == StatusStopped
}

// InstancePort is an interface (domain port) for provider-level instance control.
// Implementations resolve the provider driver from the instance or owner provider reference.
type InstancePort interface {
	// InstanceStatus queries the live status of a single instance.
	InstanceStatus(ctx context.Context, inst *Instance) (InstanceStatus, error)

	// InstanceStart boots count new instances for owner and returns unsaved records
	// with ProviderID, ProviderInstanceID, IPAddress and the owner reference filled in.
	InstanceStart(ctx context.Context, owner InstanceOwner, count int) ([]*Instance, error)

	// InstanceResume transitions stopped instances back to running.
	// Implementations may refresh IPAddress in place.
	InstanceResume(ctx context.Context, insts []*Instance) error

	// InstanceStop transitions running instances to stopped.
	InstanceStop(ctx context.Context, insts []*Instance) error

	// InstanceTerminate irreversibly destroys the provider-level resources.
	InstanceTerminate(ctx context.Context, insts []*Instance) error
}
