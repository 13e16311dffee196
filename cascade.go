package grid

import (
	"errors"
	"fmt"
	"sort"

	"github.com/goliatone/go-grid/layering"
)

// Scope names one layer of the defaults cascade. Higher priorities win.
type Scope struct {
	Name     string         `json:"name"`
	Label    string         `json:"label,omitempty"`
	Priority int            `json:"priority"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

const (
	ScopeInstance = "instance"
	ScopeUser     = "user"
	ScopeRole     = "role"
	ScopeGlobal   = "global"
	ScopeBuiltin  = "builtin"

	ScopePriorityBuiltin  = 100
	ScopePriorityGlobal   = 200
	ScopePriorityRole     = 300
	ScopePriorityUser     = 400
	ScopePriorityInstance = 500
)

// ScopeOption configures a Scope.
type ScopeOption func(*Scope)

// WithScopeLabel sets a human-friendly label.
func WithScopeLabel(label string) ScopeOption {
	return func(s *Scope) {
		s.Label = label
	}
}

// WithScopeMetadata attaches a copy of metadata.
func WithScopeMetadata(metadata map[string]any) ScopeOption {
	return func(s *Scope) {
		s.Metadata = copyMetadata(metadata)
	}
}

// NewScope builds a Scope. Validation happens when the stack is built.
func NewScope(name string, priority int, opts ...ScopeOption) Scope {
	scope := Scope{Name: name, Priority: priority}
	for _, opt := range opts {
		if opt != nil {
			opt(&scope)
		}
	}
	return scope
}

func (s Scope) clone() Scope {
	s.Metadata = copyMetadata(s.Metadata)
	return s
}

// Layer pairs a scope with the snapshot it contributes.
type Layer[T any] struct {
	Scope    Scope
	Snapshot T
	// Source identifies where the snapshot came from, e.g. a user or role ID.
	Source string
}

// NewLayer builds a Layer holding a copy of snapshot.
func NewLayer[T any](scope Scope, snapshot T, source string) Layer[T] {
	return Layer[T]{
		Scope:    scope.clone(),
		Snapshot: layering.Clone(snapshot),
		Source:   source,
	}
}

var (
	ErrScopeNameRequired  = errors.New("grid: scope name must be provided")
	ErrDuplicateScopeName = errors.New("grid: scope names must be unique")
	ErrPriorityOrder      = errors.New("grid: scope priorities must be strictly ordered")
	ErrEmptyStack         = errors.New("grid: stack must include at least one layer")
)

// Stack is an immutable cascade of layers ordered strongest first.
type Stack[T any] struct {
	layers []Layer[T]
}

// NewStack validates layers and sorts them by descending priority.
func NewStack[T any](layers ...Layer[T]) (*Stack[T], error) {
	seen := make(map[string]struct{}, len(layers))
	copied := make([]Layer[T], 0, len(layers))
	for _, layer := range layers {
		if layer.Scope.Name == "" {
			return nil, ErrScopeNameRequired
		}
		if _, ok := seen[layer.Scope.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateScopeName, layer.Scope.Name)
		}
		seen[layer.Scope.Name] = struct{}{}
		copied = append(copied, cloneLayer(layer))
	}

	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].Scope.Priority > copied[j].Scope.Priority
	})
	for i := 1; i < len(copied); i++ {
		if copied[i-1].Scope.Priority == copied[i].Scope.Priority {
			return nil, fmt.Errorf("%w: %d", ErrPriorityOrder, copied[i].Scope.Priority)
		}
	}
	return &Stack[T]{layers: copied}, nil
}

// Layers returns a copy of the layers, strongest first.
func (s *Stack[T]) Layers() []Layer[T] {
	if s == nil || len(s.layers) == 0 {
		return nil
	}
	out := make([]Layer[T], len(s.layers))
	for i := range s.layers {
		out[i] = cloneLayer(s.layers[i])
	}
	return out
}

// Len returns the number of layers.
func (s *Stack[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.layers)
}

// Merge resolves the cascade.
func (s *Stack[T]) Merge() (T, error) {
	var zero T
	if s.Len() == 0 {
		return zero, ErrEmptyStack
	}
	snapshots := make([]T, len(s.layers))
	for i := range s.layers {
		snapshots[i] = s.layers[i].Snapshot
	}
	return layering.Merge(snapshots...), nil
}

// Trace reports which layers set field and which one won.
func (s *Stack[T]) Trace(field string) Trace {
	trace := Trace{Field: field}
	if s == nil {
		return trace
	}
	for _, layer := range s.layers {
		value, found := layering.Lookup(layer.Snapshot, field)
		trace.Layers = append(trace.Layers, Provenance{
			Scope:  layer.Scope.clone(),
			Source: layer.Source,
			Value:  value,
			Found:  found,
		})
		if found && trace.Winner == nil {
			winner := layer.Scope.clone()
			trace.Winner = &winner
			trace.Value = value
		}
	}
	return trace
}

func cloneLayer[T any](layer Layer[T]) Layer[T] {
	return Layer[T]{
		Scope:    layer.Scope.clone(),
		Snapshot: layering.Clone(layer.Snapshot),
		Source:   layer.Source,
	}
}

func copyMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
