package grid

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goliatone/go-grid/layering"
	"github.com/goliatone/go-grid/pkg/activity"
	"go.uber.org/zap"
)

// Storage loads the raw rows behind a grid. Failures are returned to the
// caller unchanged, normally as *StorageError.
type Storage interface {
	LoadColumns(ctx context.Context, gridID string, profileID int) ([]Column, error)
	LoadProfiles(ctx context.Context, gridID string) ([]Profile, error)
	LoadUserConfigs(ctx context.Context, gridID string) (map[string]UserConfig, error)
	LoadRoleConfigs(ctx context.Context, gridID string) (map[string]RoleConfig, error)
}

// Persister writes grids back to storage.
type Persister interface {
	SaveGrid(ctx context.Context, snapshot Snapshot) (string, error)
	DeleteGrid(ctx context.Context, gridID string) error
}

// Snapshot is what a Persister receives on save. Collections that were
// never loaded or set are nil and must be left untouched.
type Snapshot struct {
	Record    Record
	ProfileID *int
	Columns   []Column
	Profiles  []Profile
	Users     map[string]UserConfig
	Roles     map[string]RoleConfig
}

// Grid is the aggregate root of one customizable listing. It is bound to
// the actor of a single request and is not safe for concurrent use.
type Grid struct {
	record   Record
	actor    Actor
	values   *DerivedValueStore
	storage  Storage
	types    *TypeRegistry
	sentry   *Sentry
	defaults *DefaultParameterResolver
	validate *validator.Validate
	logger   *zap.Logger
	base     *zap.Logger
	emitter  *activity.Emitter
	observer CacheObserver
	now      func() time.Time
}

// Option configures a Grid.
type Option func(*Grid)

// WithStorage sets where derived collections are loaded from.
func WithStorage(storage Storage) Option {
	return func(g *Grid) {
		g.storage = storage
	}
}

// WithTypeRegistry sets the type handlers matched against the block.
func WithTypeRegistry(types *TypeRegistry) Option {
	return func(g *Grid) {
		if types != nil {
			g.types = types
		}
	}
}

// WithPermissionChecker sets the ACL consulted after role overrides.
func WithPermissionChecker(checker PermissionChecker) Option {
	return func(g *Grid) {
		g.sentry = NewSentry(checker)
	}
}

// WithDefaults sets the resolver holding the global parameter layer.
func WithDefaults(defaults *DefaultParameterResolver) Option {
	return func(g *Grid) {
		if defaults != nil {
			g.defaults = defaults
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Grid) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithCacheObserver reports derived value cache activity to observer.
func WithCacheObserver(observer CacheObserver) Option {
	return func(g *Grid) {
		g.observer = observer
	}
}

// WithValidator sets the validator used for columns, profiles and
// parameters.
func WithValidator(validate *validator.Validate) Option {
	return func(g *Grid) {
		if validate != nil {
			g.validate = validate
		}
	}
}

// WithActivity sets where lifecycle events are emitted.
func WithActivity(emitter *activity.Emitter) Option {
	return func(g *Grid) {
		g.emitter = emitter
	}
}

// WithClock overrides the time source used for events.
func WithClock(now func() time.Time) Option {
	return func(g *Grid) {
		if now != nil {
			g.now = now
		}
	}
}

// New binds record to actor.
func New(record Record, actor Actor, opts ...Option) *Grid {
	g := &Grid{
		record:   layering.Clone(record),
		actor:    actor,
		sentry:   NewSentry(nil),
		defaults: NewDefaultParameterResolver(Parameters{}),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	if g.types == nil {
		g.types, _ = NewTypeRegistry(nil)
	}
	g.values = NewDerivedValueStore(g.observer)
	g.base = g.logger
	g.bindLogger()
	return g
}

// bindLogger tags the logger with the current grid identity.
func (g *Grid) bindLogger() {
	g.logger = g.base.With(zap.String("grid_id", g.record.ID), zap.String("block_type", g.record.BlockType))
}

// ID returns the persisted identity, empty until saved.
func (g *Grid) ID() string {
	return g.record.ID
}

// IsPersisted reports whether the grid has an identity.
func (g *Grid) IsPersisted() bool {
	return g.record.ID != ""
}

// Record returns a copy of the raw attributes.
func (g *Grid) Record() Record {
	return layering.Clone(g.record)
}

// Actor returns the principal and session bound to the grid.
func (g *Grid) Actor() Actor {
	return g.actor
}

// BlockType returns the listing block type.
func (g *Grid) BlockType() string {
	return g.record.BlockType
}

// BlockID returns the listing block identity used in session keys.
func (g *Grid) BlockID() string {
	return g.record.BlockID
}

// Disabled reports whether customization is turned off for the grid.
func (g *Grid) Disabled() bool {
	return g.record.Disabled
}

// VarNames returns the request variable names of the block.
func (g *Grid) VarNames() VarNames {
	return g.record.VarNames
}

// ParamSessionKey returns the session key of a grid param for this block.
func (g *Grid) ParamSessionKey(param GridParam) string {
	return ParamSessionKey(g.record.BlockID, g.record.VarNames.Lookup(param))
}

// Invalidate drops the derived values of group.
func (g *Grid) Invalidate(group Group) {
	g.values.Invalidate(group)
}

// InvalidateAll drops every derived value.
func (g *Grid) InvalidateAll() {
	g.values.InvalidateAll()
}
