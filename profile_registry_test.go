package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProfiles() []Profile {
	return []Profile{
		{ID: 1, Name: "Base", Base: true, Restricted: true},
		{ID: 3, Name: "warehouse", Restricted: true, AssignedRoleIDs: []string{"staff"}},
		{ID: 5, Name: "Archive", Restricted: true},
		{ID: 7, Name: "marketing"},
	}
}

func TestProfileRegistryAvailable(t *testing.T) {
	registry := NewProfileRegistry(sampleProfiles(), nil)

	cases := []struct {
		name string
		in   Availability
		want []int
	}{
		{"access all", Availability{AccessAll: true}, []int{1, 3, 5, 7}},
		{"unrestricted only", Availability{Principal: Principal{RoleID: "guest"}}, []int{7}},
		{"role assigned on profile", Availability{Principal: Principal{RoleID: "staff"}}, []int{3, 7}},
		{
			"role config assignment",
			Availability{Principal: Principal{RoleID: "ops"}, Role: &RoleConfig{AssignedProfileIDs: []int{5}}},
			[]int{5, 7},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, registry.Available(tc.in))
		})
	}
}

func TestProfileRegistryAvailableForcesBase(t *testing.T) {
	registry := NewProfileRegistry([]Profile{
		{ID: 2, Name: "Base", Restricted: true},
		{ID: 4, Name: "Other", Restricted: true},
	}, ptr(2))

	got := registry.Available(Availability{Principal: Principal{RoleID: "nobody"}})
	assert.Equal(t, []int{2}, got)

	empty := NewProfileRegistry([]Profile{{ID: 4, Name: "Other", Restricted: true}}, nil)
	assert.Empty(t, empty.Available(Availability{}))
}

func TestProfileRegistryResolveActivePrecedence(t *testing.T) {
	registry := NewProfileRegistry(sampleProfiles(), nil)
	available := []int{1, 3, 7}

	cases := []struct {
		name       string
		candidates ProfileCandidates
		want       int
		notice     bool
	}{
		{"session wins", ProfileCandidates{Session: ptr(3), UserDefault: ptr(7)}, 3, false},
		{"user default", ProfileCandidates{Session: ptr(5), UserDefault: ptr(3), RoleDefault: ptr(7)}, 3, true},
		{"role default", ProfileCandidates{UserDefault: ptr(99), RoleDefault: ptr(7)}, 7, false},
		{"global default", ProfileCandidates{GlobalDefault: ptr(3), Base: ptr(1)}, 3, false},
		{"base", ProfileCandidates{GlobalDefault: ptr(5), Base: ptr(1)}, 1, false},
		{"first available", ProfileCandidates{}, 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, notice, err := registry.ResolveActive(available, tc.candidates)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			if tc.notice {
				require.NotNil(t, notice)
				assert.Equal(t, NoticePreviousProfileUnavailable, notice.Code)
			} else {
				assert.Nil(t, notice)
			}
		})
	}
}

func TestProfileRegistryResolveActiveEmpty(t *testing.T) {
	registry := NewProfileRegistry(nil, nil)
	_, _, err := registry.ResolveActive(nil, ProfileCandidates{Session: ptr(1)})
	assert.ErrorIs(t, err, ErrNoProfileAvailable)
}

func TestProfileRegistrySortedAndLookup(t *testing.T) {
	registry := NewProfileRegistry(sampleProfiles(), nil)

	sorted := registry.Sorted([]int{7, 5, 3, 1})
	names := make([]string, 0, len(sorted))
	for _, p := range sorted {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Base", "Archive", "marketing", "warehouse"}, names)

	_, err := registry.Lookup(5, []int{1, 3})
	assert.ErrorIs(t, err, ErrProfileUnavailable)
	profile, err := registry.Lookup(3, []int{1, 3})
	require.NoError(t, err)
	assert.Equal(t, "warehouse", profile.Name)

	base, ok := registry.BaseID()
	require.True(t, ok)
	assert.Equal(t, 1, base)
}
