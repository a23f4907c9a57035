package instance

import (
	"context"
	"errors"
	"fmt"

	"github.com/yaegashi/clusterops/domain/model"
)

// ClearInput selects which records to remove.
type ClearInput struct {
	// Terminated limits removal to records whose live status is TERMINATED.
	Terminated bool `json:"terminated"`
}

// ClearOutput lists the removed records.
type ClearOutput struct {
	Deleted []*model.Instance `json:"deleted"`
	// Skipped counts records kept because their status could not be read.
	Skipped int `json:"skipped"`
}

// Clear removes instance records. Without Terminated every record goes.
// Provider resources are never touched.
func (u *UseCase) Clear(ctx context.Context, in *ClearInput) (*ClearOutput, error) {
	if in == nil {
		in = &ClearInput{}
	}
	insts, err := u.Repos.Instance.List(ctx)
	if err != nil {
		return nil, err
	}
	out := &ClearOutput{}
	var errs []error
	for _, inst := range insts {
		if in.Terminated {
			st, err := u.Engine.Port.InstanceStatus(ctx, inst)
			if err != nil {
				u.logger().Warn(ctx, "status query failed, keeping record", "instance", inst.ID, "err", err.Error())
				out.Skipped++
				continue
			}
			if st != model.StatusTerminated {
				continue
			}
		}
		if err := u.Repos.Instance.Delete(ctx, inst.ID); err != nil {
			errs = append(errs, fmt.Errorf("delete instance %s: %w", inst.ID, err))
			continue
		}
		out.Deleted = append(out.Deleted, inst)
	}
	u.logger().Info(ctx, "instance records cleared", "deleted", len(out.Deleted), "skipped", out.Skipped)
	return out, errors.Join(errs...)
}
