package grid

import (
	"context"
	"testing"

	"github.com/goliatone/go-grid/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func switchFixture() (*ProfileSwitchCoordinator, *ProfileRegistry) {
	registry := NewProfileRegistry([]Profile{
		{ID: 1, Name: "Base", Base: true},
		{ID: 2, Name: "Compact", RememberedParams: []string{"limit"}},
		{ID: 3, Name: "Forgetful", RememberedParams: []string{"none"}},
	}, nil)
	coordinator := &ProfileSwitchCoordinator{
		GridID:                  "7",
		BlockID:                 "productGrid",
		VarNames:                VarNames{Filter: "q"},
		DefaultRememberedParams: []string{"page", "limit", "sort", "dir", "filter"},
	}
	return coordinator, registry
}

func TestProfileSwitchFirstCommitOnlyRecordsID(t *testing.T) {
	ctx := context.Background()
	coordinator, registry := switchFixture()
	store := session.NewMemory()
	require.NoError(t, store.Set(ctx, "productGrid/page", "4"))

	base, _ := registry.Get(1)
	transition, err := coordinator.Commit(ctx, store, base, registry)
	require.NoError(t, err)
	assert.False(t, transition.Changed)

	id, err := coordinator.SessionProfileID(ctx, store)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, 1, *id)

	value, ok, _ := store.Get(ctx, "productGrid/page")
	assert.True(t, ok)
	assert.Equal(t, "4", value)
}

func TestProfileSwitchRoundTripRestoresRememberedValues(t *testing.T) {
	ctx := context.Background()
	coordinator, registry := switchFixture()
	store := session.NewMemory()
	base, _ := registry.Get(1)
	compact, _ := registry.Get(2)

	_, err := coordinator.Commit(ctx, store, base, registry)
	require.NoError(t, err)

	before := map[string]string{
		"productGrid/page":  "3",
		"productGrid/limit": "50",
		"productGrid/sort":  "name",
		"productGrid/dir":   "desc",
		"productGrid/q":     "c3RhdHVzPTE=",
	}
	for key, value := range before {
		require.NoError(t, store.Set(ctx, key, value))
	}

	toCompact, err := coordinator.Commit(ctx, store, compact, registry)
	require.NoError(t, err)
	assert.True(t, toCompact.Changed)
	assert.Equal(t, 1, *toCompact.From)
	assert.Len(t, toCompact.Remembered, 5)

	for key := range before {
		has, _ := store.Has(ctx, key)
		assert.False(t, has, "%s must not leak into the new profile", key)
	}

	require.NoError(t, store.Set(ctx, "productGrid/limit", "200"))
	require.NoError(t, store.Set(ctx, "productGrid/page", "9"))

	back, err := coordinator.Commit(ctx, store, base, registry)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"limit": "200"}, back.Remembered, "compact remembers limit only")

	for key, value := range before {
		got, ok, _ := store.Get(ctx, key)
		assert.True(t, ok, key)
		assert.Equal(t, value, got, key)
	}

	again, err := coordinator.Commit(ctx, store, compact, registry)
	require.NoError(t, err)
	assert.True(t, again.Changed)
	limit, _, _ := store.Get(ctx, "productGrid/limit")
	assert.Equal(t, "200", limit)
	has, _ := store.Has(ctx, "productGrid/page")
	assert.False(t, has)
}

func TestProfileSwitchResetsFilterBookkeeping(t *testing.T) {
	ctx := context.Background()
	coordinator, registry := switchFixture()
	store := session.NewMemory()
	base, _ := registry.Get(1)
	forgetful, _ := registry.Get(3)

	_, err := coordinator.Commit(ctx, store, base, registry)
	require.NoError(t, err)
	require.NoError(t, saveProfileState(ctx, store, ProfileStateSessionKey("7", 1), ProfileSessionState{
		AppliedFilters: map[string]string{"status": "1"},
		RemovedFilters: map[string]string{"sku": "x"},
	}))
	require.NoError(t, store.Set(ctx, "productGrid/q", "c3RhdHVzPTE="))

	_, err = coordinator.Commit(ctx, store, forgetful, registry)
	require.NoError(t, err)

	state, err := coordinator.ProfileState(ctx, store, 1)
	require.NoError(t, err)
	assert.Equal(t, "c3RhdHVzPTE=", state.RememberedValues["filter"])
	assert.Empty(t, state.AppliedFilters)
	assert.Empty(t, state.RemovedFilters)
}

func TestProfileSwitchSameProfileIsNoop(t *testing.T) {
	ctx := context.Background()
	coordinator, registry := switchFixture()
	store := session.NewMemory()
	base, _ := registry.Get(1)

	_, err := coordinator.Commit(ctx, store, base, registry)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "productGrid/page", "2"))

	transition, err := coordinator.Commit(ctx, store, base, registry)
	require.NoError(t, err)
	assert.False(t, transition.Changed)
	page, _, _ := store.Get(ctx, "productGrid/page")
	assert.Equal(t, "2", page)
}

func TestProfileSwitchVanishedPreviousProfile(t *testing.T) {
	ctx := context.Background()
	coordinator, registry := switchFixture()
	store := session.NewMemory()
	require.NoError(t, store.Set(ctx, ProfileSessionKey("7"), "99"))
	require.NoError(t, store.Set(ctx, "productGrid/sort", "sku"))

	compact, _ := registry.Get(2)
	transition, err := coordinator.Commit(ctx, store, compact, registry)
	require.NoError(t, err)
	assert.True(t, transition.Changed)
	assert.Nil(t, transition.Remembered)

	has, _ := store.Has(ctx, "productGrid/sort")
	assert.False(t, has)
}
