package storage

import (
	"context"
	"sync"

	"ammLedger/internal/model"
)

// MemoryStore keeps the ledger in process memory. A single mutex linearizes
// every update.
type MemoryStore struct {
	mu    sync.Mutex
	state *ledgerState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newLedgerState()}
}

func (s *MemoryStore) CreateAdmin(_ context.Context, admin model.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.createAdmin(admin)
}

func (s *MemoryStore) GetAdmin(_ context.Context, authority string) (model.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getAdmin(authority)
}

func (s *MemoryStore) CreatePool(_ context.Context, pool model.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.createPool(pool)
}

func (s *MemoryStore) GetPool(_ context.Context, id string) (model.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getPool(id)
}

func (s *MemoryStore) ListPools(_ context.Context, authority string) ([]model.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.listPools(authority), nil
}

func (s *MemoryStore) GetPosition(_ context.Context, poolID, owner string) (model.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getPosition(poolID, owner), nil
}

func (s *MemoryStore) Apply(ctx context.Context, poolID, owner string, fn Mutation) (model.Pool, model.Position, error) {
	if err := ctx.Err(); err != nil {
		return model.Pool{}, model.Position{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.apply(poolID, owner, fn)
}
