package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	grid "github.com/goliatone/go-grid"
	"github.com/goliatone/go-grid/internal/fixture"
	"github.com/goliatone/go-grid/pkg/activity"
	"github.com/goliatone/go-grid/pkg/config"
	"github.com/goliatone/go-grid/pkg/metrics"
	"github.com/goliatone/go-grid/pkg/session"
	"github.com/goliatone/go-grid/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// gridStore is what gridctl needs from a storage backend.
type gridStore interface {
	grid.Storage
	grid.Persister
	LoadGrid(ctx context.Context, gridID string) (grid.Record, error)
	SaveColumns(ctx context.Context, gridID string, profileID int, columns []grid.Column) error
}

type app struct {
	cfg      config.Config
	logger   *zap.Logger
	store    gridStore
	session  grid.SessionStore
	types    *grid.TypeRegistry
	defaults *grid.DefaultParameterResolver
	emitter  *activity.Emitter
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	closers  []func() error
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	a := &app{
		cfg:      cfg,
		logger:   logger,
		defaults: grid.NewDefaultParameterResolver(cfg.Defaults),
	}
	steps := []func(context.Context) error{
		a.openStore,
		a.openSession,
		a.buildTypes,
		a.buildActivity,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.Storage.Driver {
	case "postgres":
		db, err := storage.OpenPostgres(ctx, a.cfg.Storage.DSN, a.cfg.Storage.Pool)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, db.Close)
		pg := storage.NewPostgres(db, a.logger.Named("postgres"))
		if a.cfg.Storage.Migrate {
			if err := pg.Migrate(ctx); err != nil {
				return err
			}
		}
		a.store = pg
	default:
		a.store = storage.NewMemory()
	}
	if path := a.cfg.Storage.Fixtures; path != "" {
		if _, err := a.seed(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) seed(ctx context.Context, path string) ([]string, error) {
	loader := fixture.NewLoader(fixture.WithValidation(validator.New(validator.WithRequiredStructEnabled())))
	file, err := loader.LoadFile(path)
	if err != nil {
		return nil, err
	}
	ids, err := fixture.Apply(ctx, a.store, file)
	if err != nil {
		return ids, err
	}
	a.logger.Info("fixtures applied", zap.String("path", path), zap.Strings("grid_ids", ids))
	return ids, nil
}

func (a *app) openSession(context.Context) error {
	sc := a.cfg.Session
	switch sc.Backend {
	case "redis":
		client := session.NewRedisClient(sc.Redis.Addr, sc.Redis.Password, sc.Redis.DB)
		a.closers = append(a.closers, client.Close)
		a.session = session.NewRedis(client, session.WithRedisPrefix(sc.ID), session.WithRedisTTL(sc.Redis.TTL))
	case "badger":
		db, err := session.OpenBadger(sc.Badger.Dir)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, db.Close)
		a.session = session.NewBadger(db, sc.ID)
	default:
		a.session = session.NewMemory()
	}
	return nil
}

func (a *app) buildTypes(context.Context) error {
	cache := grid.NewProgramCache()
	var cel *grid.CELEngine
	handlers := make([]grid.TypeHandler, 0, len(a.cfg.Types))
	for _, declared := range a.cfg.Types {
		if declared.Rule == "" {
			handlers = append(handlers, grid.NewBlockTypeHandler(declared.Code, declared.Patterns...))
			continue
		}
		var engine grid.RuleEngine = grid.NewExprEngine(cache)
		if declared.Engine == "cel" {
			if cel == nil {
				built, err := grid.NewCELEngine(cache)
				if err != nil {
					return err
				}
				cel = built
			}
			engine = cel
		}
		handlers = append(handlers, grid.NewRuleTypeHandler(declared.Code, declared.Rule, engine))
	}
	types, err := grid.NewTypeRegistry(nil, handlers...)
	if err != nil {
		return fmt.Errorf("gridctl: types: %w", err)
	}
	a.types = types
	return nil
}

func (a *app) buildActivity(context.Context) error {
	events := a.logger.Named("activity")
	hooks := activity.Hooks{
		activity.HookFunc(func(_ context.Context, event activity.Event) error {
			events.Info(event.Verb,
				zap.String("object_type", event.ObjectType),
				zap.String("object_id", event.ObjectID),
				zap.String("user_id", event.UserID),
				zap.Any("metadata", event.Metadata),
			)
			return nil
		}),
	}
	if a.cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		m, err := metrics.New(a.registry)
		if err != nil {
			return err
		}
		a.metrics = m
		hooks = append(hooks, m.Hook())
	}
	a.emitter = activity.NewEmitter(hooks, a.cfg.Activity)
	return nil
}

// Grid loads gridID and binds it to principal.
func (a *app) Grid(ctx context.Context, gridID string, principal grid.Principal, permissions grid.PermissionChecker, notices grid.Notifier) (*grid.Grid, error) {
	record, err := a.store.LoadGrid(ctx, gridID)
	if err != nil {
		return nil, err
	}
	opts := []grid.Option{
		grid.WithStorage(a.store),
		grid.WithTypeRegistry(a.types),
		grid.WithDefaults(a.defaults),
		grid.WithPermissionChecker(permissions),
		grid.WithLogger(a.logger),
		grid.WithActivity(a.emitter),
	}
	if a.metrics != nil {
		opts = append(opts, grid.WithCacheObserver(a.metrics))
	}
	actor := grid.Actor{Principal: principal, Session: a.session, Notices: notices}
	return grid.New(record, actor, opts...), nil
}

// Close releases every opened backend.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
