package model

import "time"

// OwnerKind tells which entity an instance belongs to.
type OwnerKind string

const (
	OwnerController OwnerKind = "controller"
	OwnerWorker     OwnerKind = "worker"
)

// InstanceOwner identifies the controller or worker group new instances are started for.
type InstanceOwner struct {
	Kind       OwnerKind
	ID         string
	Name       string
	ProviderID string
}

// Instance is a registry record of one provider-level compute resource.
// Exactly one of ControllerID and WorkerGroupID is set.
type Instance struct {
	ID                 string
	ProviderID         string // references Provider
	ProviderInstanceID string // identifier assigned by the provider
	IPAddress          string
	ControllerID       string // references Controller (controller instances only)
	WorkerGroupID      string // references WorkerGroup (worker instances only)
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Validate checks the owner invariant and required identity fields.
func (i *Instance) Validate() error {
	if i == nil || i.ProviderID == "" || i.ProviderInstanceID == "" {
		return ErrInstanceInvalid
	}
	if (i.ControllerID == "") == (i.WorkerGroupID == "") {
		return ErrInstanceOwner
	}
	return nil
}

// Kind returns the owner kind derived from the set reference.
func (i *Instance) Kind() OwnerKind {
	if i.WorkerGroupID != "" {
		return OwnerWorker
	}
	return OwnerController
}

// SetOwner points the instance at the given owner, clearing the other reference.
func (i *Instance) SetOwner(o InstanceOwner) {
	i.ControllerID, i.WorkerGroupID = "", ""
	switch o.Kind {
	case OwnerController:
		i.ControllerID = o.ID
	case OwnerWorker:
		i.WorkerGroupID = o.ID
	}
	if i.ProviderID == "" {
		i.ProviderID = o.ProviderID
	}
}
