package model

import "time"

// WorkerGroup is a named fleet of worker instances attached to one controller.
type WorkerGroup struct {
	ID           string
	Name         string
	ProviderID   string // references Provider
	ControllerID string // references Controller
	DesiredCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Owner returns the InstanceOwner used when starting instances of this group.
func (w *WorkerGroup) Owner() InstanceOwner {
	return InstanceOwner{Kind: OwnerWorker, ID: w.ID, Name: w.Name, ProviderID: w.ProviderID}
}
