package lifecycle

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/internal/logging"
)

// DeployFunc configures one running instance.
type DeployFunc func(ctx context.Context, inst *model.Instance) error

// DeployResult is the outcome of configuring one instance.
type DeployResult struct {
	Instance *model.Instance
	Err      error
}

// DeployResults holds one result per input instance, in input order.
type DeployResults []DeployResult

// Err aggregates the failed results into a *model.DeployBatchError, or returns nil.
func (rs DeployResults) Err() error {
	var failures []*model.DeployError
	for _, r := range rs {
		if r.Err == nil {
			continue
		}
		de := &model.DeployError{Err: r.Err}
		if r.Instance != nil {
			de.InstanceID = r.Instance.ID
			de.Host = r.Instance.IPAddress
		}
		failures = append(failures, de)
	}
	if len(failures) == 0 {
		return nil
	}
	return &model.DeployBatchError{Failures: failures, Total: len(rs)}
}

// Succeeded returns the instances configured without error.
func (rs DeployResults) Succeeded() []*model.Instance {
	var out []*model.Instance
	for _, r := range rs {
		if r.Err == nil {
			out = append(out, r.Instance)
		}
	}
	return out
}

// Coordinator runs deployments, one independent task per instance.
type Coordinator struct {
	// Limit bounds concurrent tasks. Zero or negative means one task per instance.
	Limit  int
	Logger logging.Logger
}

// NewCoordinator returns a Coordinator. A nil logger discards output.
func NewCoordinator(limit int, logger logging.Logger) *Coordinator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Coordinator{Limit: limit, Logger: logger}
}

// Run configures every instance with fn and returns after all of them have
// finished. A single instance runs in the calling goroutine. A failure does not
// cancel the other tasks.
func (c *Coordinator) Run(ctx context.Context, insts []*model.Instance, fn DeployFunc) DeployResults {
	results := make(DeployResults, len(insts))
	if len(insts) == 0 {
		return results
	}
	logger := c.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	logger.Info(ctx, "DEPLOY:START", "count", len(insts))
	startAt := time.Now()

	if len(insts) == 1 {
		results[0] = DeployResult{Instance: insts[0], Err: c.one(ctx, logger, insts[0], fn)}
	} else {
		var g errgroup.Group
		if c.Limit > 0 {
			g.SetLimit(c.Limit)
		}
		for i, inst := range insts {
			g.Go(func() error {
				results[i] = DeployResult{Instance: inst, Err: c.one(ctx, logger, inst, fn)}
				return nil
			})
		}
		_ = g.Wait()
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	logger.Info(ctx, "DEPLOY:END", "count", len(insts), "failed", failed, "elapsed", time.Since(startAt).Seconds())
	return results
}

func (c *Coordinator) one(ctx context.Context, logger logging.Logger, inst *model.Instance, fn DeployFunc) error {
	err := fn(ctx, inst)
	if err != nil {
		logger.Warn(ctx, "deploy failed", "instance", inst.ID, "host", inst.IPAddress, "err", err.Error())
		return err
	}
	logger.Debug(ctx, "deploy done", "instance", inst.ID, "host", inst.IPAddress)
	return nil
}
