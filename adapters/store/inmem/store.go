package inmem

import (
	"fmt"
	"sync"
	"time"

	"github.com/yaegashi/clusterops/domain"
)

// Store provides a unified interface for all in-memory repositories.
type Store struct {
	ProviderRepo    *ProviderRepository
	ControllerRepo  *ControllerRepository
	WorkerGroupRepo *WorkerGroupRepository
	InstanceRepo    *InstanceRepository
}

// NewStore creates a new in-memory store with all repositories.
func NewStore() *Store {
	return &Store{
		ProviderRepo:    NewProviderRepository(),
		ControllerRepo:  NewControllerRepository(),
		WorkerGroupRepo: NewWorkerGroupRepository(),
		InstanceRepo:    NewInstanceRepository(),
	}
}

// Repositories returns the store as a domain.Repositories bundle.
func (s *Store) Repositories() *domain.Repositories {
	return &domain.Repositories{
		Provider:    s.ProviderRepo,
		Controller:  s.ControllerRepo,
		WorkerGroup: s.WorkerGroupRepo,
		Instance:    s.InstanceRepo,
	}
}

// table is an insertion-ordered map guarded by a RWMutex. Values are copied
// in and out so callers never share state with the store.
type table[T any] struct {
	mu     sync.RWMutex
	prefix string
	items  map[string]*T
	order  []string
	seq    int64
}

func (t *table[T]) init(prefix string) {
	t.prefix = prefix
	t.items = make(map[string]*T)
}

func (t *table[T]) nextID() string {
	t.seq++
	return fmt.Sprintf("%s-%d-%d", t.prefix, time.Now().UnixNano(), t.seq)
}

func (t *table[T]) put(id string, v *T) {
	if _, ok := t.items[id]; !ok {
		t.order = append(t.order, id)
	}
	cp := *v
	t.items[id] = &cp
}

func (t *table[T]) get(id string) (*T, bool) {
	v, ok := t.items[id]
	if !ok {
		return nil, false
	}
	cp := *v
	return &cp, true
}

func (t *table[T]) remove(id string) bool {
	if _, ok := t.items[id]; !ok {
		return false
	}
	delete(t.items, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// has reports whether any stored value matches.
func (t *table[T]) has(match func(*T) bool) bool {
	for _, v := range t.items {
		if match(v) {
			return true
		}
	}
	return false
}

// filter returns copies of the values matching keep, in insertion order.
func (t *table[T]) filter(keep func(*T) bool) []*T {
	out := make([]*T, 0, len(t.order))
	for _, id := range t.order {
		v := t.items[id]
		if keep == nil || keep(v) {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out
}
