package grid

// Key names a derived value cached on a grid.
type Key string

const (
	KeyTypeCode            Key = "type.code"
	KeyTypeHandler         Key = "type.handler"
	KeyBaseTypeHandler     Key = "type.base_handler"
	KeyColumns             Key = "columns"
	KeyProfiles            Key = "profiles"
	KeyProfileID           Key = "profiles.current_id"
	KeyAvailableProfileIDs Key = "profiles.available_ids"
	KeyUsersConfig         Key = "users_config"
	KeyRolesConfig         Key = "roles_config"
)

// Group names a set of keys that are invalidated together.
type Group string

const (
	GroupType              Group = "type"
	GroupColumns           Group = "columns"
	GroupProfiles          Group = "profiles"
	GroupAvailableProfiles Group = "available_profiles"
	GroupUsersConfig       Group = "users_config"
	GroupRolesConfig       Group = "roles_config"
)

// The columns key holds the *ColumnIndex, which owns the origin buckets and
// the max order, so dropping it clears all three at once.
var groupKeys = map[Group][]Key{
	GroupType:              {KeyTypeCode, KeyTypeHandler, KeyBaseTypeHandler},
	GroupColumns:           {KeyColumns},
	GroupProfiles:          {KeyProfiles, KeyProfileID},
	GroupAvailableProfiles: {KeyAvailableProfileIDs},
	GroupUsersConfig:       {KeyUsersConfig},
	GroupRolesConfig:       {KeyRolesConfig},
}

// Column sets are profile scoped, so profiles drag columns along.
var groupDependents = map[Group][]Group{
	GroupProfiles:    {GroupAvailableProfiles, GroupColumns},
	GroupRolesConfig: {GroupAvailableProfiles},
}

// AllGroups returns every declared group.
func AllGroups() []Group {
	return []Group{
		GroupType,
		GroupColumns,
		GroupProfiles,
		GroupAvailableProfiles,
		GroupUsersConfig,
		GroupRolesConfig,
	}
}

// CacheObserver receives derived value cache activity.
type CacheObserver interface {
	CacheHit(key Key)
	CacheMiss(key Key)
	CacheInvalidated(group Group)
}

type noopCacheObserver struct{}

func (noopCacheObserver) CacheHit(Key)           {}
func (noopCacheObserver) CacheMiss(Key)          {}
func (noopCacheObserver) CacheInvalidated(Group) {}

// DerivedValueStore caches lazily computed grid values. Population happens
// in the owning component on a Get miss; the store only removes keys.
type DerivedValueStore struct {
	values   map[Key]any
	observer CacheObserver
}

// NewDerivedValueStore builds an empty store reporting to observer.
func NewDerivedValueStore(observer CacheObserver) *DerivedValueStore {
	if observer == nil {
		observer = noopCacheObserver{}
	}
	return &DerivedValueStore{
		values:   make(map[Key]any),
		observer: observer,
	}
}

// Get returns the cached value for key.
func (s *DerivedValueStore) Get(key Key) (any, bool) {
	value, ok := s.values[key]
	if ok {
		s.observer.CacheHit(key)
	} else {
		s.observer.CacheMiss(key)
	}
	return value, ok
}

// Set caches value under key.
func (s *DerivedValueStore) Set(key Key, value any) {
	s.values[key] = value
}

// Has reports whether key is cached without recording a hit or miss.
func (s *DerivedValueStore) Has(key Key) bool {
	_, ok := s.values[key]
	return ok
}

// Invalidate drops every key of group and of its dependent groups.
func (s *DerivedValueStore) Invalidate(group Group) {
	s.invalidate(group, map[Group]struct{}{})
}

func (s *DerivedValueStore) invalidate(group Group, seen map[Group]struct{}) {
	if _, done := seen[group]; done {
		return
	}
	seen[group] = struct{}{}
	for _, key := range groupKeys[group] {
		delete(s.values, key)
	}
	s.observer.CacheInvalidated(group)
	for _, dependent := range groupDependents[group] {
		s.invalidate(dependent, seen)
	}
}

// InvalidateAll drops every cached value.
func (s *DerivedValueStore) InvalidateAll() {
	for _, group := range AllGroups() {
		s.Invalidate(group)
	}
}

func lookup[T any](s *DerivedValueStore, key Key) (T, bool) {
	var zero T
	value, ok := s.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := value.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
