package storage

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	grid "github.com/goliatone/go-grid"
	"github.com/google/uuid"
)

// ErrGridNotFound indicates no grid is stored under the requested ID.
var ErrGridNotFound = fmt.Errorf("%w: grid", grid.ErrNotFound)

// Memory is an in-process store. New grids receive a random UUID.
type Memory struct {
	mu    sync.RWMutex
	grids map[string]*memoryGrid
}

type memoryGrid struct {
	record   grid.Record
	columns  map[int][]grid.Column
	profiles []grid.Profile
	users    map[string]grid.UserConfig
	roles    map[string]grid.RoleConfig
}

// NewMemory builds an empty store.
func NewMemory() *Memory {
	return &Memory{grids: map[string]*memoryGrid{}}
}

// LoadGrid returns the record stored under gridID.
func (m *Memory) LoadGrid(_ context.Context, gridID string) (grid.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored, ok := m.grids[gridID]
	if !ok {
		return grid.Record{}, storageError("load grid", fmt.Errorf("%w: id=%s", ErrGridNotFound, gridID))
	}
	return stored.record, nil
}

// GridIDs lists the stored grid IDs in lexical order.
func (m *Memory) GridIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.grids))
}

func (m *Memory) LoadColumns(_ context.Context, gridID string, profileID int) ([]grid.Column, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if stored, ok := m.grids[gridID]; ok {
		return slices.Clone(stored.columns[profileID]), nil
	}
	return nil, nil
}

func (m *Memory) LoadProfiles(_ context.Context, gridID string) ([]grid.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if stored, ok := m.grids[gridID]; ok {
		return slices.Clone(stored.profiles), nil
	}
	return nil, nil
}

func (m *Memory) LoadUserConfigs(_ context.Context, gridID string) (map[string]grid.UserConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if stored, ok := m.grids[gridID]; ok {
		return maps.Clone(stored.users), nil
	}
	return nil, nil
}

func (m *Memory) LoadRoleConfigs(_ context.Context, gridID string) (map[string]grid.RoleConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if stored, ok := m.grids[gridID]; ok {
		return maps.Clone(stored.roles), nil
	}
	return nil, nil
}

// SaveGrid stores the record and every collection present in snapshot.
func (m *Memory) SaveGrid(_ context.Context, snapshot grid.Snapshot) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := snapshot.Record.ID
	if id == "" {
		id = uuid.NewString()
	}
	stored, ok := m.grids[id]
	if !ok {
		stored = &memoryGrid{columns: map[int][]grid.Column{}}
		m.grids[id] = stored
	}
	stored.record = snapshot.Record
	stored.record.ID = id

	if snapshot.Columns != nil {
		stored.columns[ColumnsProfileID(snapshot)] = slices.Clone(snapshot.Columns)
	}
	if snapshot.Profiles != nil {
		stored.profiles = slices.Clone(snapshot.Profiles)
	}
	if snapshot.Users != nil {
		stored.users = maps.Clone(snapshot.Users)
	}
	if snapshot.Roles != nil {
		stored.roles = maps.Clone(snapshot.Roles)
	}
	return id, nil
}

// SaveColumns replaces the columns of one profile.
func (m *Memory) SaveColumns(_ context.Context, gridID string, profileID int, columns []grid.Column) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.grids[gridID]
	if !ok {
		return storageError("save columns", fmt.Errorf("%w: id=%s", ErrGridNotFound, gridID))
	}
	stored.columns[profileID] = slices.Clone(columns)
	return nil
}

func (m *Memory) DeleteGrid(_ context.Context, gridID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.grids[gridID]; !ok {
		return storageError("delete grid", fmt.Errorf("%w: id=%s", ErrGridNotFound, gridID))
	}
	delete(m.grids, gridID)
	return nil
}

// ColumnsProfileID returns the profile the columns of snapshot belong to:
// the active profile, else the base profile, else 0.
func ColumnsProfileID(snapshot grid.Snapshot) int {
	if snapshot.ProfileID != nil {
		return *snapshot.ProfileID
	}
	if snapshot.Record.BaseProfileID != nil {
		return *snapshot.Record.BaseProfileID
	}
	return 0
}

func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &grid.StorageError{Op: op, Err: err}
}

var (
	_ grid.Storage   = (*Memory)(nil)
	_ grid.Persister = (*Memory)(nil)
	_ grid.Storage   = (*Postgres)(nil)
	_ grid.Persister = (*Postgres)(nil)
)
