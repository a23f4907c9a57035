package inmem

import (
	"context"

	"github.com/yaegashi/clusterops/domain"
	"github.com/yaegashi/clusterops/domain/model"
)

// WorkerGroupRepository is a thread-safe in-memory implementation.
type WorkerGroupRepository struct{ t table[model.WorkerGroup] }

func NewWorkerGroupRepository() *WorkerGroupRepository {
	r := &WorkerGroupRepository{}
	r.t.init("wg")
	return r
}

func (r *WorkerGroupRepository) Create(_ context.Context, w *model.WorkerGroup) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if r.t.has(func(v *model.WorkerGroup) bool { return v.Name == w.Name }) {
		return model.ErrAlreadyExists
	}
	if w.ID == "" {
		w.ID = r.t.nextID()
	}
	r.t.put(w.ID, w)
	return nil
}

func (r *WorkerGroupRepository) Get(_ context.Context, id string) (*model.WorkerGroup, error) {
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	v, ok := r.t.get(id)
	if !ok {
		return nil, model.ErrWorkerGroupNotFound
	}
	return v, nil
}

func (r *WorkerGroupRepository) GetByName(_ context.Context, name string) (*model.WorkerGroup, error) {
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	found := r.t.filter(func(v *model.WorkerGroup) bool { return v.Name == name })
	if len(found) == 0 {
		return nil, model.ErrWorkerGroupNotFound
	}
	return found[0], nil
}

func (r *WorkerGroupRepository) List(_ context.Context) ([]*model.WorkerGroup, error) {
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	return r.t.filter(nil), nil
}

func (r *WorkerGroupRepository) ListByController(_ context.Context, controllerID string) ([]*model.WorkerGroup, error) {
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	return r.t.filter(func(v *model.WorkerGroup) bool { return v.ControllerID == controllerID }), nil
}

func (r *WorkerGroupRepository) Update(_ context.Context, w *model.WorkerGroup) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if _, ok := r.t.items[w.ID]; !ok {
		return model.ErrWorkerGroupNotFound
	}
	r.t.put(w.ID, w)
	return nil
}

func (r *WorkerGroupRepository) Delete(_ context.Context, id string) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if !r.t.remove(id) {
		return model.ErrWorkerGroupNotFound
	}
	return nil
}

var _ domain.WorkerGroupRepository = (*WorkerGroupRepository)(nil)
