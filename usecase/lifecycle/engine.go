package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yaegashi/clusterops/domain"
	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/internal/logging"
)

// Engine issues provider actions for the instances of one owner at a time.
// Every provider call is sequential.
type Engine struct {
	Repos  *domain.Repositories
	Port   model.InstancePort
	Logger logging.Logger
}

// NewEngine returns an Engine. A nil logger discards output.
func NewEngine(repos *domain.Repositories, port model.InstancePort, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Engine{Repos: repos, Port: port, Logger: logger}
}

// ScaleResult describes one reconciliation cycle.
type ScaleResult struct {
	Observed []Observed
	Plan     Plan
	Resumed  []*model.Instance
	Started  []*model.Instance
}

// Changed returns the instances that changed state this cycle, resumed first.
func (r *ScaleResult) Changed() []*model.Instance {
	out := make([]*model.Instance, 0, len(r.Resumed)+len(r.Started))
	out = append(out, r.Resumed...)
	return append(out, r.Started...)
}

// AlreadyRunning returns the instances observed RUNNING before any action.
func (r *ScaleResult) AlreadyRunning() []*model.Instance {
	return Partition(r.Observed).Running
}

// Running returns every instance expected to be running after the cycle.
func (r *ScaleResult) Running() []*model.Instance {
	return append(r.AlreadyRunning(), r.Changed()...)
}

// InstancesOf lists the instance records owned by owner.
func (e *Engine) InstancesOf(ctx context.Context, owner model.InstanceOwner) ([]*model.Instance, error) {
	switch owner.Kind {
	case model.OwnerController:
		return e.Repos.Instance.ListByController(ctx, owner.ID)
	case model.OwnerWorker:
		return e.Repos.Instance.ListByWorkerGroup(ctx, owner.ID)
	default:
		return nil, fmt.Errorf("unknown owner kind %q", owner.Kind)
	}
}

// FirstRunning returns the first instance of owner whose live status is
// RUNNING, or nil if there is none.
func (e *Engine) FirstRunning(ctx context.Context, owner model.InstanceOwner) (*model.Instance, error) {
	insts, err := e.InstancesOf(ctx, owner)
	if err != nil {
		return nil, err
	}
	for _, inst := range insts {
		st, err := e.Port.InstanceStatus(ctx, inst)
		if err != nil {
			return nil, err
		}
		if st == model.StatusRunning {
			return inst, nil
		}
	}
	return nil, nil
}

// Observe queries the live status of each instance in order. The first
// failed query aborts the observation.
func (e *Engine) Observe(ctx context.Context, insts []*model.Instance) ([]Observed, error) {
	out := make([]Observed, 0, len(insts))
	for _, inst := range insts {
		st, err := e.Port.InstanceStatus(ctx, inst)
		if err != nil {
			return out, err
		}
		out = append(out, Observed{Instance: inst, Status: st})
	}
	return out, nil
}

// ScaleUp brings owner to desired running instances. Stopped instances are
// resumed before new ones are started, and new instance records are persisted
// as soon as the provider returns them. A failed resume aborts the cycle before
// any start; instances of a partially failed resume batch that did come back
// are still reported in Resumed. Nothing is rolled back on failure.
func (e *Engine) ScaleUp(ctx context.Context, owner model.InstanceOwner, desired int) (*ScaleResult, error) {
	res, err := e.Plan(ctx, owner, desired)
	if err != nil {
		return res, err
	}
	return res, e.Apply(ctx, owner, res)
}

// Plan observes owner's instances and plans the cycle without changing
// anything.
func (e *Engine) Plan(ctx context.Context, owner model.InstanceOwner, desired int) (*ScaleResult, error) {
	insts, err := e.InstancesOf(ctx, owner)
	if err != nil {
		return nil, err
	}
	res := &ScaleResult{}
	res.Observed, err = e.Observe(ctx, insts)
	if err != nil {
		return res, err
	}
	res.Plan = PlanScaleUp(Partition(res.Observed), desired)
	e.Logger.Info(ctx, "reconcile plan", "owner", owner.Name, "kind", string(owner.Kind), "desired", desired,
		"running", len(res.AlreadyRunning()), "resume", len(res.Plan.Resume), "start", res.Plan.StartCount)
	return res, nil
}

// Apply carries out res.Plan, filling res.Resumed and res.Started.
func (e *Engine) Apply(ctx context.Context, owner model.InstanceOwner, res *ScaleResult) error {
	if res.Plan.Empty() {
		return nil
	}
	if len(res.Plan.Resume) > 0 {
		if err := e.Port.InstanceResume(ctx, res.Plan.Resume); err != nil {
			// The ones that did come back are reported as resumed so the
			// caller still deploys them.
			var batch *model.BatchError
			if errors.As(err, &batch) {
				res.Resumed = without(res.Plan.Resume, batch.FailedInstances())
				if saveErr := e.save(ctx, res.Resumed); saveErr != nil {
					return errors.Join(err, saveErr)
				}
			}
			return err
		}
		res.Resumed = res.Plan.Resume
		if err := e.save(ctx, res.Resumed); err != nil {
			return err
		}
	}
	if res.Plan.StartCount > 0 {
		var err error
		res.Started, err = e.start(ctx, owner, res.Plan.StartCount)
		if err != nil {
			return err
		}
	}
	return nil
}

// Add starts n new instances for owner regardless of its desired count.
func (e *Engine) Add(ctx context.Context, owner model.InstanceOwner, n int) ([]*model.Instance, error) {
	if n <= 0 {
		return nil, nil
	}
	return e.start(ctx, owner, n)
}

// start boots n instances and persists every record the provider returned,
// including on partial failure.
func (e *Engine) start(ctx context.Context, owner model.InstanceOwner, n int) ([]*model.Instance, error) {
	started, startErr := e.Port.InstanceStart(ctx, owner, n)
	saved := make([]*model.Instance, 0, len(started))
	var errs []error
	if startErr != nil {
		errs = append(errs, startErr)
	}
	for _, inst := range started {
		inst.SetOwner(owner)
		if err := e.Repos.Instance.Create(ctx, inst); err != nil {
			errs = append(errs, fmt.Errorf("record instance %s: %w", inst.ProviderInstanceID, err))
			continue
		}
		e.Logger.Info(ctx, "instance started", "owner", owner.Name, "instance", inst.ID, "ip", inst.IPAddress)
		saved = append(saved, inst)
	}
	return saved, errors.Join(errs...)
}

// save persists refreshed records (e.g. a new address after resume).
func (e *Engine) save(ctx context.Context, insts []*model.Instance) error {
	now := time.Now().UTC()
	for _, inst := range insts {
		inst.UpdatedAt = now
		if err := e.Repos.Instance.Update(ctx, inst); err != nil {
			return fmt.Errorf("update instance %s: %w", inst.ID, err)
		}
	}
	return nil
}

// Stop stops the RUNNING instances among insts and returns the ones targeted.
// Instances in any other state are not touched.
func (e *Engine) Stop(ctx context.Context, insts []*model.Instance) ([]*model.Instance, error) {
	observed, err := e.Observe(ctx, insts)
	if err != nil {
		return nil, err
	}
	targets := Partition(observed).Running
	if len(targets) == 0 {
		return nil, nil
	}
	e.Logger.Info(ctx, "stopping instances", "count", len(targets))
	return targets, e.Port.InstanceStop(ctx, targets)
}

// TerminateResult describes a terminate call.
type TerminateResult struct {
	Targets []*model.Instance
	Purged  []*model.Instance
}

// Terminate destroys the RUNNING and STOPPED instances among insts. With purge,
// the records of instances whose termination succeeded are deleted; otherwise
// records are retained.
func (e *Engine) Terminate(ctx context.Context, insts []*model.Instance, purge bool) (*TerminateResult, error) {
	observed, err := e.Observe(ctx, insts)
	if err != nil {
		return nil, err
	}
	res := &TerminateResult{}
	for _, o := range observed {
		if o.Status.Active() {
			res.Targets = append(res.Targets, o.Instance)
		}
	}
	if len(res.Targets) == 0 {
		return res, nil
	}
	e.Logger.Info(ctx, "terminating instances", "count", len(res.Targets), "purge", purge)
	termErr := e.Port.InstanceTerminate(ctx, res.Targets)
	if !purge {
		return res, termErr
	}

	succeeded := res.Targets
	var batch *model.BatchError
	switch {
	case termErr == nil:
	case errors.As(termErr, &batch):
		succeeded = without(res.Targets, batch.FailedInstances())
	default:
		return res, termErr
	}
	errs := []error{termErr}
	for _, inst := range succeeded {
		if err := e.Repos.Instance.Delete(ctx, inst.ID); err != nil {
			errs = append(errs, fmt.Errorf("purge instance %s: %w", inst.ID, err))
			continue
		}
		res.Purged = append(res.Purged, inst)
	}
	return res, errors.Join(errs...)
}

// without returns insts minus the ones in drop, compared by record ID.
func without(insts, drop []*model.Instance) []*model.Instance {
	skip := make(map[string]bool, len(drop))
	for _, inst := range drop {
		skip[inst.ID] = true
	}
	var out []*model.Instance
	for _, inst := range insts {
		if !skip[inst.ID] {
			out = append(out, inst)
		}
	}
	return out
}
