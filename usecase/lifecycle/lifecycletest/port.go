// Package lifecycletest provides in-memory provider and deployer fakes for
// exercising reconciliation without a cloud account.
package lifecycletest

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/yaegashi/clusterops/domain/model"
)

// Call records one provider call.
type Call struct {
	Op    string
	IDs   []string // provider instance IDs for batch operations
	Count int      // requested count for start
}

// Port is a model.InstancePort keeping instance state in memory, keyed by
// provider instance ID. Unknown IDs report TERMINATED.
type Port struct {
	mu     sync.Mutex
	state  map[string]model.InstanceStatus
	seq    int
	calls  []Call
	failOn map[string]error

	// StatusErr makes every status query fail.
	StatusErr error
	// StartErr makes start fail after StartPartial instances were created.
	StartErr     error
	StartPartial int
}

var _ model.InstancePort = (*Port)(nil)

// NewPort returns an empty Port.
func NewPort() *Port {
	return &Port{state: map[string]model.InstanceStatus{}, failOn: map[string]error{}}
}

// Seed registers a provider-side instance with the given status and returns a
// record for it owned by owner. The record is not persisted.
func (p *Port) Seed(owner model.InstanceOwner, st model.InstanceStatus) *model.Instance {
	p.mu.Lock()
	defer p.mu.Unlock()
	inst := p.newInstanceLocked(owner)
	p.state[inst.ProviderInstanceID] = st
	return inst
}

// Fail makes batch operations fail for the given provider instance ID.
func (p *Port) Fail(providerInstanceID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failOn[providerInstanceID] = err
}

// SetStatus overrides the provider-side status of an instance.
func (p *Port) SetStatus(providerInstanceID string, st model.InstanceStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state[providerInstanceID] = st
}

// StatusOf returns the provider-side status of an instance.
func (p *Port) StatusOf(providerInstanceID string) model.InstanceStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st, ok := p.state[providerInstanceID]; ok {
		return st
	}
	return model.StatusTerminated
}

// Calls returns recorded mutating calls (status queries are not recorded).
func (p *Port) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.calls)
}

// CallsOf returns recorded calls of one operation.
func (p *Port) CallsOf(op string) []Call {
	var out []Call
	for _, c := range p.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Requested returns the total number of new instances requested.
func (p *Port) Requested() int {
	n := 0
	for _, c := range p.CallsOf("start") {
		n += c.Count
	}
	return n
}

// Targeted returns every provider instance ID passed to op, in call order.
func (p *Port) Targeted(op string) []string {
	var out []string
	for _, c := range p.CallsOf(op) {
		out = append(out, c.IDs...)
	}
	return out
}

// CountStatus returns how many known instances are in st.
func (p *Port) CountStatus(st model.InstanceStatus) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, s := range p.state {
		if s == st {
			n++
		}
	}
	return n
}

func (p *Port) newInstanceLocked(owner model.InstanceOwner) *model.Instance {
	p.seq++
	inst := &model.Instance{
		ProviderID:         owner.ProviderID,
		ProviderInstanceID: fmt.Sprintf("fake-%d", p.seq),
		IPAddress:          fmt.Sprintf("10.0.0.%d", p.seq),
	}
	inst.SetOwner(owner)
	return inst
}

func (p *Port) InstanceStatus(_ context.Context, inst *model.Instance) (model.InstanceStatus, error) {
	if p.StatusErr != nil {
		return model.StatusUnknown, &model.AdapterError{Op: "status", Err: p.StatusErr}
	}
	return p.StatusOf(inst.ProviderInstanceID), nil
}

func (p *Port) InstanceStart(_ context.Context, owner model.InstanceOwner, count int) ([]*model.Instance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, Call{Op: "start", Count: count})
	n := count
	if p.StartErr != nil {
		n = min(p.StartPartial, count)
	}
	out := make([]*model.Instance, 0, n)
	for range n {
		inst := p.newInstanceLocked(owner)
		p.state[inst.ProviderInstanceID] = model.StatusRunning
		out = append(out, inst)
	}
	if p.StartErr != nil {
		return out, &model.AdapterError{Op: "start", Err: p.StartErr}
	}
	return out, nil
}

func (p *Port) InstanceResume(_ context.Context, insts []*model.Instance) error {
	return p.batch("resume", insts, func(inst *model.Instance) {
		p.state[inst.ProviderInstanceID] = model.StatusRunning
		inst.IPAddress = strings.Replace(inst.IPAddress, "10.0.", "10.1.", 1)
	})
}

func (p *Port) InstanceStop(_ context.Context, insts []*model.Instance) error {
	return p.batch("stop", insts, func(inst *model.Instance) {
		p.state[inst.ProviderInstanceID] = model.StatusStopped
	})
}

func (p *Port) InstanceTerminate(_ context.Context, insts []*model.Instance) error {
	return p.batch("terminate", insts, func(inst *model.Instance) {
		p.state[inst.ProviderInstanceID] = model.StatusTerminated
	})
}

func (p *Port) batch(op string, insts []*model.Instance, apply func(*model.Instance)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	call := Call{Op: op}
	var failures []model.InstanceError
	for _, inst := range insts {
		call.IDs = append(call.IDs, inst.ProviderInstanceID)
		if err, ok := p.failOn[inst.ProviderInstanceID]; ok {
			failures = append(failures, model.InstanceError{Instance: inst, Err: err})
			continue
		}
		apply(inst)
	}
	p.calls = append(p.calls, call)
	if len(failures) > 0 {
		return &model.AdapterError{Op: op, Err: &model.BatchError{Op: op, Failures: failures}}
	}
	return nil
}
