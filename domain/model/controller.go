package model

import "time"

// Controller represents the head node of a cluster. At most one running instance
// of a controller is meaningful at a time.
type Controller struct {
	ID         string
	Name       string
	ProviderID string // references Provider
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Owner returns the InstanceOwner used when starting controller instances.
func (c *Controller) Owner() InstanceOwner {
	return InstanceOwner{Kind: OwnerController, ID: c.ID, Name: c.Name, ProviderID: c.ProviderID}
}
