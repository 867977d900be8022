package saga

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/draftea/order-system/shared/models"
)

var ErrSagaNotFound = errors.New("saga not found")

// Store persists saga snapshots for inspection
type Store interface {
	Save(ctx context.Context, instance Instance) error
	Get(ctx context.Context, id models.ID) (*Instance, error)
	ListByStatus(ctx context.Context, status Status, limit int) ([]Instance, error)
}

// MemoryStore keeps snapshots in process memory
type MemoryStore struct {
	mu        sync.RWMutex
	instances map[models.ID]Instance
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{instances: make(map[models.ID]Instance)}
}

func (s *MemoryStore) Save(_ context.Context, instance Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.instances[instance.ID] = instance.Clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id models.ID) (*Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	instance, ok := s.instances[id]
	if !ok {
		return nil, errors.Wrap(ErrSagaNotFound, id.String())
	}

	clone := instance.Clone()
	return &clone, nil
}

// ListByStatus returns up to limit instances, oldest first. A non-positive limit means no limit.
func (s *MemoryStore) ListByStatus(_ context.Context, status Status, limit int) ([]Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Instance
	for _, instance := range s.instances {
		if instance.Status == status {
			out = append(out, instance.Clone())
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
