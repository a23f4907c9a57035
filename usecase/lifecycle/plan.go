// Package lifecycle reconciles provider instances toward a desired count and
// coordinates their post-boot deployment.
package lifecycle

import "github.com/yaegashi/clusterops/domain/model"

// Observed pairs an instance record with the status reported by its provider.
type Observed struct {
	Instance *model.Instance
	Status   model.InstanceStatus
}

// Partitioned splits observed instances by live status. Other holds pending,
// unknown and terminated-but-not-purged instances.
type Partitioned struct {
	Running []*model.Instance
	Stopped []*model.Instance
	Other   []*model.Instance
}

// Partition groups observations by status, preserving input order within each group.
func Partition(observed []Observed) Partitioned {
	var p Partitioned
	for _, o := range observed {
		switch o.Status {
		case model.StatusRunning:
			p.Running = append(p.Running, o.Instance)
		case model.StatusStopped:
			p.Stopped = append(p.Stopped, o.Instance)
		default:
			p.Other = append(p.Other, o.Instance)
		}
	}
	return p
}

// Plan is the set of provider actions needed to reach a desired running count.
type Plan struct {
	Resume     []*model.Instance
	StartCount int
}

// Empty reports whether the plan issues no provider calls.
func (p Plan) Empty() bool { return len(p.Resume) == 0 && p.StartCount == 0 }

// PlanScaleUp resumes stopped instances before starting new ones. Running
// instances count toward desired and are left alone.
func PlanScaleUp(p Partitioned, desired int) Plan {
	shortfall := desired - len(p.Running)
	if shortfall <= 0 {
		return Plan{}
	}
	n := min(len(p.Stopped), shortfall)
	return Plan{
		Resume:     p.Stopped[:n:n],
		StartCount: shortfall - n,
	}
}
