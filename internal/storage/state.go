package storage

import (
	"fmt"
	"sort"

	"ammLedger/internal/model"
)

type positionKey struct {
	PoolID string
	Owner  string
}

// ledgerState is the in-memory form shared by MemoryStore and FileStore.
type ledgerState struct {
	admins    map[string]model.Admin
	pools     map[string]model.Pool
	positions map[positionKey]model.Position
}

func newLedgerState() *ledgerState {
	return &ledgerState{
		admins:    make(map[string]model.Admin),
		pools:     make(map[string]model.Pool),
		positions: make(map[positionKey]model.Position),
	}
}

func (s *ledgerState) clone() *ledgerState {
	next := newLedgerState()
	for k, v := range s.admins {
		next.admins[k] = v
	}
	for k, v := range s.pools {
		next.pools[k] = v
	}
	for k, v := range s.positions {
		next.positions[k] = v
	}
	return next
}

func (s *ledgerState) createAdmin(admin model.Admin) error {
	if _, ok := s.admins[admin.Authority]; ok {
		return fmt.Errorf("admin %s: %w", admin.Authority, ErrAlreadyExists)
	}
	s.admins[admin.Authority] = admin
	return nil
}

func (s *ledgerState) getAdmin(authority string) (model.Admin, error) {
	admin, ok := s.admins[authority]
	if !ok {
		return model.Admin{}, fmt.Errorf("admin %s: %w", authority, ErrNotFound)
	}
	return admin, nil
}

func (s *ledgerState) createPool(pool model.Pool) error {
	if _, ok := s.pools[pool.ID]; ok {
		return fmt.Errorf("pool %s: %w", pool.ID, ErrAlreadyExists)
	}
	s.pools[pool.ID] = pool
	return nil
}

func (s *ledgerState) getPool(id string) (model.Pool, error) {
	pool, ok := s.pools[id]
	if !ok {
		return model.Pool{}, fmt.Errorf("pool %s: %w", id, ErrNotFound)
	}
	return pool, nil
}

func (s *ledgerState) listPools(authority string) []model.Pool {
	out := make([]model.Pool, 0, len(s.pools))
	for _, pool := range s.pools {
		if authority != "" && pool.Authority != authority {
			continue
		}
		out = append(out, pool)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *ledgerState) getPosition(poolID, owner string) model.Position {
	pos, ok := s.positions[positionKey{PoolID: poolID, Owner: owner}]
	if !ok {
		return model.Position{PoolID: poolID, Owner: owner}
	}
	return pos
}

func (s *ledgerState) apply(poolID, owner string, fn Mutation) (model.Pool, model.Position, error) {
	pool, err := s.getPool(poolID)
	if err != nil {
		return model.Pool{}, model.Position{}, err
	}
	pos := s.getPosition(poolID, owner)

	nextPool, nextPos, err := fn(pool, pos)
	if err != nil {
		return model.Pool{}, model.Position{}, err
	}
	nextPool.ID = pool.ID
	nextPos.PoolID, nextPos.Owner = poolID, owner

	s.pools[poolID] = nextPool
	s.positions[positionKey{PoolID: poolID, Owner: owner}] = nextPos
	return nextPool, nextPos, nil
}
