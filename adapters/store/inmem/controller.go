package inmem

import (
	"context"

	"github.com/yaegashi/clusterops/domain"
	"github.com/yaegashi/clusterops/domain/model"
)

// ControllerRepository is a thread-safe in-memory implementation.
type ControllerRepository struct{ t table[model.Controller] }

func NewControllerRepository() *ControllerRepository {
	r := &ControllerRepository{}
	r.t.init("ctrl")
	return r
}

func (r *ControllerRepository) Create(_ context.Context, c *model.Controller) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if r.t.has(func(v *model.Controller) bool { return v.Name == c.Name }) {
		return model.ErrAlreadyExists
	}
	if c.ID == "" {
		c.ID = r.t.nextID()
	}
	r.t.put(c.ID, c)
	return nil
}

func (r *ControllerRepository) Get(_ context.Context, id string) (*model.Controller, error) {
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	v, ok := r.t.get(id)
	if !ok {
		return nil, model.ErrControllerNotFound
	}
	return v, nil
}

func (r *ControllerRepository) GetByName(_ context.Context, name string) (*model.Controller, error) {
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	found := r.t.filter(func(v *model.Controller) bool { return v.Name == name })
	if len(found) == 0 {
		return nil, model.ErrControllerNotFound
	}
	return found[0], nil
}

func (r *ControllerRepository) List(_ context.Context) ([]*model.Controller, error) {
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	return r.t.filter(nil), nil
}

func (r *ControllerRepository) Update(_ context.Context, c *model.Controller) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if _, ok := r.t.items[c.ID]; !ok {
		return model.ErrControllerNotFound
	}
	r.t.put(c.ID, c)
	return nil
}

func (r *ControllerRepository) Delete(_ context.Context, id string) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if !r.t.remove(id) {
		return model.ErrControllerNotFound
	}
	return nil
}

var _ domain.ControllerRepository = (*ControllerRepository)(nil)
