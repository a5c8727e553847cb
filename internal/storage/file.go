package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"ammLedger/internal/model"
)

// FileStore keeps the ledger in a local JSON snapshot. Every update is
// applied to a copy, written to a temp file and renamed into place before
// it becomes visible, so a failed write leaves the previous state intact.
type FileStore struct {
	path  string
	mu    sync.Mutex
	state *ledgerState
}

type snapshot struct {
	Admins    []model.Admin    `json:"admins"`
	Pools     []model.Pool     `json:"pools"`
	Positions []model.Position `json:"positions"`
	UpdatedAt string           `json:"updated_at"`
}

// OpenFileStore loads path if it exists and starts empty otherwise.
func OpenFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("state file path is required")
	}
	s := &FileStore{path: path, state: newLedgerState()}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	for _, admin := range snap.Admins {
		s.state.admins[admin.Authority] = admin
	}
	for _, pool := range snap.Pools {
		s.state.pools[pool.ID] = pool
	}
	for _, pos := range snap.Positions {
		s.state.positions[positionKey{PoolID: pos.PoolID, Owner: pos.Owner}] = pos
	}
	return s, nil
}

func (s *FileStore) CreateAdmin(_ context.Context, admin model.Admin) error {
	return s.update(func(next *ledgerState) error {
		return next.createAdmin(admin)
	})
}

func (s *FileStore) GetAdmin(_ context.Context, authority string) (model.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getAdmin(authority)
}

func (s *FileStore) CreatePool(_ context.Context, pool model.Pool) error {
	return s.update(func(next *ledgerState) error {
		return next.createPool(pool)
	})
}

func (s *FileStore) GetPool(_ context.Context, id string) (model.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getPool(id)
}

func (s *FileStore) ListPools(_ context.Context, authority string) ([]model.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.listPools(authority), nil
}

func (s *FileStore) GetPosition(_ context.Context, poolID, owner string) (model.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getPosition(poolID, owner), nil
}

func (s *FileStore) Apply(ctx context.Context, poolID, owner string, fn Mutation) (model.Pool, model.Position, error) {
	if err := ctx.Err(); err != nil {
		return model.Pool{}, model.Position{}, err
	}
	var (
		pool model.Pool
		pos  model.Position
	)
	err := s.update(func(next *ledgerState) error {
		var err error
		pool, pos, err = next.apply(poolID, owner, fn)
		return err
	})
	if err != nil {
		return model.Pool{}, model.Position{}, err
	}
	return pool, pos, nil
}

func (s *FileStore) update(fn func(next *ledgerState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.save(next); err != nil {
		return err
	}
	s.state = next
	return nil
}

func (s *FileStore) save(state *ledgerState) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	snap := snapshot{
		Admins:    make([]model.Admin, 0, len(state.admins)),
		Pools:     state.listPools(""),
		Positions: make([]model.Position, 0, len(state.positions)),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	for _, admin := range state.admins {
		snap.Admins = append(snap.Admins, admin)
	}
	for _, pos := range state.positions {
		snap.Positions = append(snap.Positions, pos)
	}
	sort.Slice(snap.Admins, func(i, j int) bool { return snap.Admins[i].Authority < snap.Admins[j].Authority })
	sort.Slice(snap.Positions, func(i, j int) bool {
		if snap.Positions[i].PoolID != snap.Positions[j].PoolID {
			return snap.Positions[i].PoolID < snap.Positions[j].PoolID
		}
		return snap.Positions[i].Owner < snap.Positions[j].Owner
	})

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state tmp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}
