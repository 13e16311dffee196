// Package fixture loads grids from YAML documents into a store.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/go-playground/validator/v10"
	grid "github.com/goliatone/go-grid"
	"gopkg.in/yaml.v3"
)

// Grid is one grid of a fixture document. Columns are keyed by profile ID.
type Grid struct {
	Record   grid.Record                `yaml:"record"`
	Profiles []grid.Profile             `yaml:"profiles"`
	Columns  map[int][]grid.Column      `yaml:"columns"`
	Users    map[string]grid.UserConfig `yaml:"users"`
	Roles    map[string]grid.RoleConfig `yaml:"roles"`
}

// File is a fixture document.
type File struct {
	Grids []Grid `yaml:"grids"`
}

// PostHook adjusts or validates a decoded grid.
type PostHook func(index int, g *Grid) error

// Option configures a Loader.
type Option func(*Loader)

// Loader decodes fixture documents.
type Loader struct {
	postHooks   []PostHook
	knownFields bool
}

// WithPostHook runs hook on every decoded grid.
func WithPostHook(hook PostHook) Option {
	return func(l *Loader) {
		if hook != nil {
			l.postHooks = append(l.postHooks, hook)
		}
	}
}

// WithKnownFields rejects documents with unknown keys.
func WithKnownFields() Option {
	return func(l *Loader) {
		l.knownFields = true
	}
}

// WithValidation validates profiles, columns and parameters with validate.
func WithValidation(validate *validator.Validate) Option {
	return WithPostHook(func(index int, g *Grid) error {
		for _, profile := range g.Profiles {
			if err := validate.Struct(profile); err != nil {
				return fmt.Errorf("profile %d: %w", profile.ID, err)
			}
		}
		for profileID, columns := range g.Columns {
			for _, column := range columns {
				if err := validate.Struct(column); err != nil {
					return fmt.Errorf("profile %d column %q: %w", profileID, column.ID, err)
				}
			}
		}
		return nil
	})
}

// NewLoader builds a loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Decode reads one document from r.
func (l *Loader) Decode(r io.Reader) (File, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(l.knownFields)

	var file File
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("fixture: decode: %w", err)
	}
	for i := range file.Grids {
		for _, hook := range l.postHooks {
			if err := hook(i, &file.Grids[i]); err != nil {
				return File{}, fmt.Errorf("fixture: grid %d: %w", i, err)
			}
		}
	}
	return file, nil
}

// LoadFile decodes the document at path.
func (l *Loader) LoadFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("fixture: open %s: %w", path, err)
	}
	defer f.Close()
	return l.Decode(f)
}

// Target is where fixtures are written.
type Target interface {
	grid.Persister
	SaveColumns(ctx context.Context, gridID string, profileID int, columns []grid.Column) error
}

// Apply stores every grid of file and returns their IDs in document order.
func Apply(ctx context.Context, target Target, file File) ([]string, error) {
	ids := make([]string, 0, len(file.Grids))
	for i, g := range file.Grids {
		id, err := target.SaveGrid(ctx, grid.Snapshot{
			Record:   g.Record,
			Profiles: g.Profiles,
			Users:    g.Users,
			Roles:    g.Roles,
		})
		if err != nil {
			return ids, fmt.Errorf("fixture: save grid %d: %w", i, err)
		}
		for _, profileID := range slices.Sorted(maps.Keys(g.Columns)) {
			if err := target.SaveColumns(ctx, id, profileID, g.Columns[profileID]); err != nil {
				return ids, fmt.Errorf("fixture: save grid %d columns: %w", i, err)
			}
		}
		ids = append(ids, id)
	}
	return ids, nil
}
