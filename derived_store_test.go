package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	hits        []Key
	misses      []Key
	invalidated []Group
}

func (o *recordingObserver) CacheHit(key Key)             { o.hits = append(o.hits, key) }
func (o *recordingObserver) CacheMiss(key Key)            { o.misses = append(o.misses, key) }
func (o *recordingObserver) CacheInvalidated(group Group) { o.invalidated = append(o.invalidated, group) }

func TestDerivedValueStoreGetSet(t *testing.T) {
	observer := &recordingObserver{}
	store := NewDerivedValueStore(observer)

	_, ok := store.Get(KeyTypeCode)
	assert.False(t, ok)

	store.Set(KeyTypeCode, "catalog")
	value, ok := store.Get(KeyTypeCode)
	require.True(t, ok)
	assert.Equal(t, "catalog", value)

	assert.Equal(t, []Key{KeyTypeCode}, observer.misses)
	assert.Equal(t, []Key{KeyTypeCode}, observer.hits)
}

func TestDerivedValueStoreInvalidateProfilesCascades(t *testing.T) {
	store := NewDerivedValueStore(nil)
	store.Set(KeyProfiles, "profiles")
	store.Set(KeyProfileID, 3)
	store.Set(KeyAvailableProfileIDs, "ids")
	store.Set(KeyColumns, "columns")
	store.Set(KeyTypeCode, "catalog")

	store.Invalidate(GroupProfiles)

	assert.False(t, store.Has(KeyProfiles))
	assert.False(t, store.Has(KeyProfileID))
	assert.False(t, store.Has(KeyAvailableProfileIDs))
	assert.False(t, store.Has(KeyColumns), "columns are profile scoped")
	assert.True(t, store.Has(KeyTypeCode), "type belongs to another group")
}

func TestDerivedValueStoreInvalidateTouchesOnlyItsGroup(t *testing.T) {
	cases := []struct {
		group   Group
		dropped []Key
	}{
		{GroupType, []Key{KeyTypeCode, KeyTypeHandler, KeyBaseTypeHandler}},
		{GroupColumns, []Key{KeyColumns}},
		{GroupUsersConfig, []Key{KeyUsersConfig}},
		{GroupRolesConfig, []Key{KeyRolesConfig, KeyAvailableProfileIDs}},
		{GroupAvailableProfiles, []Key{KeyAvailableProfileIDs}},
	}
	all := []Key{
		KeyTypeCode, KeyTypeHandler, KeyBaseTypeHandler, KeyColumns, KeyProfiles,
		KeyProfileID, KeyAvailableProfileIDs, KeyUsersConfig, KeyRolesConfig,
	}

	for _, tc := range cases {
		t.Run(string(tc.group), func(t *testing.T) {
			store := NewDerivedValueStore(nil)
			for _, key := range all {
				store.Set(key, true)
			}
			store.Invalidate(tc.group)

			dropped := map[Key]bool{}
			for _, key := range tc.dropped {
				dropped[key] = true
			}
			for _, key := range all {
				assert.Equal(t, !dropped[key], store.Has(key), "key %s", key)
			}
		})
	}
}

func TestDerivedValueStoreInvalidateAll(t *testing.T) {
	observer := &recordingObserver{}
	store := NewDerivedValueStore(observer)
	store.Set(KeyColumns, 1)
	store.Set(KeyRolesConfig, 2)

	store.InvalidateAll()

	assert.False(t, store.Has(KeyColumns))
	assert.False(t, store.Has(KeyRolesConfig))
	assert.Contains(t, observer.invalidated, GroupType)
	assert.Contains(t, observer.invalidated, GroupAvailableProfiles)
}

func TestLookupRejectsWrongType(t *testing.T) {
	store := NewDerivedValueStore(nil)
	store.Set(KeyProfileID, "not-an-int")

	_, ok := lookup[int](store, KeyProfileID)
	assert.False(t, ok)
}
