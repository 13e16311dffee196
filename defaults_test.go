package grid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParameterResolverCascade(t *testing.T) {
	global := Parameters{PinHeader: ptr(true), DefaultPaginationValue: ptr(30)}
	resolver := NewDefaultParameterResolver(global)

	sources := ParameterSources{
		Instance:  Parameters{IgnoreCustomWidths: ptr(true)},
		Principal: Principal{UserID: "u1", RoleID: "r1"},
		User:      &UserConfig{Parameters: Parameters{DefaultPaginationValue: ptr(100)}},
		Role: &RoleConfig{Parameters: Parameters{
			DefaultPaginationValue: ptr(50),
			DisplaySystemPart:      ptr(true),
			IgnoreCustomWidths:     ptr(false),
		}},
	}

	got, err := resolver.Resolve(sources)
	require.NoError(t, err)

	assert.True(t, got.IgnoreCustomWidths, "instance beats role")
	assert.Equal(t, 100, got.DefaultPaginationValue, "user beats role and global")
	assert.True(t, got.DisplaySystemPart, "role beats builtin")
	assert.True(t, got.PinHeader, "global beats builtin")
	assert.True(t, got.MergeBasePagination, "builtin fills the rest")
	assert.Equal(t, []int{20, 30, 50, 100, 200}, got.PaginationValues)
}

func TestDefaultParameterResolverWithoutPrincipalConfigs(t *testing.T) {
	resolver := NewDefaultParameterResolver(Parameters{})
	got, err := resolver.Resolve(ParameterSources{})
	require.NoError(t, err)

	builtin := BuiltinParameters().resolved()
	assert.Equal(t, builtin, got)
}

func TestDefaultParameterResolverTrace(t *testing.T) {
	resolver := NewDefaultParameterResolver(Parameters{DefaultPaginationValue: ptr(30)})
	trace, err := resolver.Trace(ParameterSources{
		Principal: Principal{UserID: "u1", RoleID: "r1"},
		Role:      &RoleConfig{Parameters: Parameters{DefaultPaginationValue: ptr(50)}},
	}, "default_pagination_value")
	require.NoError(t, err)

	require.NotNil(t, trace.Winner)
	assert.Equal(t, ScopeRole, trace.Winner.Name)
	assert.Equal(t, 50, trace.Value)

	var scopes []string
	var found []bool
	for _, layer := range trace.Layers {
		scopes = append(scopes, layer.Scope.Name)
		found = append(found, layer.Found)
	}
	assert.Equal(t, []string{ScopeInstance, ScopeRole, ScopeGlobal, ScopeBuiltin}, scopes)
	assert.Equal(t, []bool{false, true, true, true}, found)
	assert.Equal(t, "r1", trace.Layers[1].Source)

	payload, err := trace.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"field":"default_pagination_value"`)
}

func TestStackRejectsInvalidLayers(t *testing.T) {
	_, err := NewStack(
		NewLayer(NewScope("a", 100), Parameters{}, ""),
		NewLayer(NewScope("a", 50), Parameters{}, ""),
	)
	assert.True(t, errors.Is(err, ErrDuplicateScopeName))

	_, err = NewStack(
		NewLayer(NewScope("a", 100), Parameters{}, ""),
		NewLayer(NewScope("b", 100), Parameters{}, ""),
	)
	assert.ErrorIs(t, err, ErrPriorityOrder)

	_, err = NewStack(NewLayer(NewScope("", 1), Parameters{}, ""))
	assert.ErrorIs(t, err, ErrScopeNameRequired)

	empty, err := NewStack[Parameters]()
	require.NoError(t, err)
	_, err = empty.Merge()
	assert.ErrorIs(t, err, ErrEmptyStack)
}

func TestStackLayersAreCopies(t *testing.T) {
	stack, err := NewStack(NewLayer(
		NewScope("user", 400, WithScopeMetadata(map[string]any{"owner": "u1"})),
		Parameters{PaginationValues: []int{10}},
		"u1",
	))
	require.NoError(t, err)

	layers := stack.Layers()
	layers[0].Scope.Metadata["owner"] = "changed"
	layers[0].Snapshot.PaginationValues[0] = 99

	again := stack.Layers()
	assert.Equal(t, "u1", again[0].Scope.Metadata["owner"])
	assert.Equal(t, []int{10}, again[0].Snapshot.PaginationValues)
}

func TestInstanceOverridesDecodeCSV(t *testing.T) {
	overrides := InstanceOverrides{
		ProfilesDefaultAssignedTo:       ptr(" 3, 4,,3 "),
		ProfilesRememberedSessionParams: ptr("page,bogus,limit"),
		PaginationValues:                ptr("10, x, 25, -1"),
	}
	params := overrides.Parameters()

	assert.Equal(t, []string{"3", "4"}, params.ProfilesDefaultAssignedTo)
	assert.Equal(t, []string{"page", "limit"}, params.ProfilesRememberedSessionParams)
	assert.Equal(t, []int{10, 25}, params.PaginationValues)
	assert.Nil(t, params.PinHeader)
}

func TestNormalizeRememberedParams(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		want []string
	}{
		{"keeps order", []string{"sort", "page"}, []string{"sort", "page"}},
		{"drops unknown and duplicates", []string{"page", "x", "page"}, []string{"page"}},
		{"none wins", []string{"page", "none", "limit"}, []string{"none"}},
		{"empty", nil, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeRememberedParams(tc.in))
		})
	}
}
