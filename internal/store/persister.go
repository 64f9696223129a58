package store

import (
	"sort"
	"sync"

	"github.com/Markcrest-dev/EcoSwap-sub000/internal/domain"
)

// Persister is the synchronous load/save collaborator behind the store.
// Save must write the whole request, offers included.
type Persister interface {
	LoadAll() ([]domain.Request, error)
	Save(req domain.Request) error
	Delete(id string) error
}

// MemoryPersister keeps requests in process memory. It backs tests and
// runs without a database.
type MemoryPersister struct {
	mu   sync.Mutex
	data map[string]domain.Request
}

func NewMemoryPersister(seed ...domain.Request) *MemoryPersister {
	p := &MemoryPersister{data: make(map[string]domain.Request, len(seed))}
	for _, r := range seed {
		p.data[r.ID] = r.Clone()
	}
	return p
}

func (p *MemoryPersister) LoadAll() ([]domain.Request, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Request, 0, len(p.data))
	for _, r := range p.data {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (p *MemoryPersister) Save(req domain.Request) error {
	p.mu.Lock()
	p.data[req.ID] = req.Clone()
	p.mu.Unlock()
	return nil
}

func (p *MemoryPersister) Delete(id string) error {
	p.mu.Lock()
	delete(p.data, id)
	p.mu.Unlock()
	return nil
}
