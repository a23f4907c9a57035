package inmem

import (
	"context"
	"maps"

	"github.com/yaegashi/clusterops/domain"
	"github.com/yaegashi/clusterops/domain/model"
)

// ProviderRepository is a thread-safe in-memory implementation.
type ProviderRepository struct{ t table[model.Provider] }

func NewProviderRepository() *ProviderRepository {
	r := &ProviderRepository{}
	r.t.init("prov")
	return r
}

func cloneProvider(p *model.Provider) *model.Provider {
	cp := *p
	cp.Settings = maps.Clone(p.Settings)
	return &cp
}

func (r *ProviderRepository) Create(_ context.Context, p *model.Provider) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if r.t.has(func(v *model.Provider) bool { return v.Name == p.Name }) {
		return model.ErrAlreadyExists
	}
	if p.ID == "" {
		p.ID = r.t.nextID()
	}
	r.t.put(p.ID, cloneProvider(p))
	return nil
}

func (r *ProviderRepository) Get(_ context.Context, id string) (*model.Provider, error) {
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	v, ok := r.t.get(id)
	if !ok {
		return nil, model.ErrProviderNotFound
	}
	return cloneProvider(v), nil
}

func (r *ProviderRepository) GetByName(_ context.Context, name string) (*model.Provider, error) {
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	found := r.t.filter(func(v *model.Provider) bool { return v.Name == name })
	if len(found) == 0 {
		return nil, model.ErrProviderNotFound
	}
	return cloneProvider(found[0]), nil
}

func (r *ProviderRepository) List(_ context.Context) ([]*model.Provider, error) {
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	out := r.t.filter(nil)
	for i, v := range out {
		out[i] = cloneProvider(v)
	}
	return out, nil
}

func (r *ProviderRepository) Update(_ context.Context, p *model.Provider) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if _, ok := r.t.items[p.ID]; !ok {
		return model.ErrProviderNotFound
	}
	r.t.put(p.ID, cloneProvider(p))
	return nil
}

func (r *ProviderRepository) Delete(_ context.Context, id string) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if !r.t.remove(id) {
		return model.ErrProviderNotFound
	}
	return nil
}

var _ domain.ProviderRepository = (*ProviderRepository)(nil)
