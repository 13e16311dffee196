package layering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type display struct {
	Pinned *bool `json:"pinned,omitempty"`
}

type settings struct {
	Restricted *bool             `json:"restricted,omitempty"`
	Roles      []string          `json:"roles,omitempty"`
	Page       *int              `json:"page,omitempty"`
	Labels     map[string]string `json:"labels,omitempty"`
	Display    *display          `json:"display,omitempty"`
	Name       string
}

func ptr[T any](v T) *T { return &v }

func TestMergeStrongestSetValueWins(t *testing.T) {
	instance := settings{Page: ptr(50)}
	user := settings{Restricted: ptr(true), Page: ptr(30)}
	role := settings{Roles: []string{}}
	builtin := settings{
		Restricted: ptr(false),
		Roles:      []string{"admin"},
		Page:       ptr(20),
		Name:       "builtin",
	}

	got := Merge(instance, user, role, builtin)

	require.NotNil(t, got.Restricted)
	assert.True(t, *got.Restricted)
	assert.Equal(t, 50, *got.Page)
	assert.Equal(t, []string{}, got.Roles, "an empty slice is a set value")
	assert.Equal(t, "", got.Name, "scalars of the strongest layer always win")
}

func TestMergeNestedStructsAndMaps(t *testing.T) {
	strong := settings{
		Labels:  map[string]string{"env": "prod"},
		Display: &display{},
	}
	weak := settings{
		Labels:  map[string]string{"env": "dev", "team": "grid"},
		Display: &display{Pinned: ptr(true)},
	}

	got := Merge(strong, weak)

	assert.Equal(t, map[string]string{"env": "prod", "team": "grid"}, got.Labels)
	require.NotNil(t, got.Display)
	require.NotNil(t, got.Display.Pinned)
	assert.True(t, *got.Display.Pinned)
}

func TestMergeDoesNotAlias(t *testing.T) {
	weak := settings{Roles: []string{"admin"}, Page: ptr(20)}
	got := Merge(settings{}, weak)

	got.Roles[0] = "changed"
	*got.Page = 99

	assert.Equal(t, "admin", weak.Roles[0])
	assert.Equal(t, 20, *weak.Page)
}

func TestMergeZeroInput(t *testing.T) {
	assert.Equal(t, settings{}, Merge[settings]())
}

func TestLookupAndFields(t *testing.T) {
	s := settings{Page: ptr(30), Roles: []string{"a"}}

	value, ok := Lookup(s, "page")
	require.True(t, ok)
	assert.Equal(t, 30, value)

	_, ok = Lookup(&s, "restricted")
	assert.False(t, ok)

	value, ok = Lookup(s, "Name")
	assert.True(t, ok)
	assert.Equal(t, "", value)

	assert.True(t, IsSet(s, "roles"))
	_, ok = Lookup(s, "missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"restricted", "roles", "page", "labels", "display", "Name"}, Fields(settings{}))
}

func TestClone(t *testing.T) {
	original := settings{Labels: map[string]string{"env": "prod"}}
	clone := Clone(original)
	clone.Labels["env"] = "qa"
	assert.Equal(t, "prod", original.Labels["env"])
}
