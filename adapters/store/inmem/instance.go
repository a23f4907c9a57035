package inmem

import (
	"context"

	"github.com/yaegashi/clusterops/domain"
	"github.com/yaegashi/clusterops/domain/model"
)

// InstanceRepository is a thread-safe in-memory implementation.
type InstanceRepository struct{ t table[model.Instance] }

func NewInstanceRepository() *InstanceRepository {
	r := &InstanceRepository{}
	r.t.init("inst")
	return r
}

func (r *InstanceRepository) Create(_ context.Context, i *model.Instance) error {
	if err := i.Validate(); err != nil {
		return err
	}
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if i.ID == "" {
		i.ID = r.t.nextID()
	}
	r.t.put(i.ID, i)
	return nil
}

func (r *InstanceRepository) Get(_ context.Context, id string) (*model.Instance, error) {
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	v, ok := r.t.get(id)
	if !ok {
		return nil, model.ErrInstanceNotFound
	}
	return v, nil
}

func (r *InstanceRepository) List(_ context.Context) ([]*model.Instance, error) {
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	return r.t.filter(nil), nil
}

func (r *InstanceRepository) ListByController(_ context.Context, controllerID string) ([]*model.Instance, error) {
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	return r.t.filter(func(v *model.Instance) bool { return v.ControllerID == controllerID }), nil
}

func (r *InstanceRepository) ListByWorkerGroup(_ context.Context, workerGroupID string) ([]*model.Instance, error) {
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	return r.t.filter(func(v *model.Instance) bool { return v.WorkerGroupID == workerGroupID }), nil
}

func (r *InstanceRepository) Update(_ context.Context, i *model.Instance) error {
	if err := i.Validate(); err != nil {
		return err
	}
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if _, ok := r.t.items[i.ID]; !ok {
		return model.ErrInstanceNotFound
	}
	r.t.put(i.ID, i)
	return nil
}

func (r *InstanceRepository) Delete(_ context.Context, id string) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if !r.t.remove(id) {
		return model.ErrInstanceNotFound
	}
	return nil
}

var _ domain.InstanceRepository = (*InstanceRepository)(nil)
