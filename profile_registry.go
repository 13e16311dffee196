package grid

import (
	"fmt"
	"slices"
	"strings"
)

// ProfileRegistry holds every profile of a grid in load order.
type ProfileRegistry struct {
	profiles map[int]*Profile
	order    []int
	baseID   *int
}

// NewProfileRegistry builds a registry. baseID designates the base profile;
// when nil the first profile flagged Base is used.
func NewProfileRegistry(profiles []Profile, baseID *int) *ProfileRegistry {
	r := &ProfileRegistry{profiles: make(map[int]*Profile, len(profiles))}
	for _, profile := range profiles {
		if _, exists := r.profiles[profile.ID]; exists {
			continue
		}
		p := profile
		r.profiles[p.ID] = &p
		r.order = append(r.order, p.ID)
		if baseID == nil && p.Base {
			id := p.ID
			baseID = &id
		}
	}
	if baseID != nil {
		if base, ok := r.profiles[*baseID]; ok {
			base.Base = true
			id := *baseID
			r.baseID = &id
		}
	}
	return r
}

// Len returns the number of profiles.
func (r *ProfileRegistry) Len() int {
	return len(r.order)
}

// BaseID returns the base profile ID when one exists.
func (r *ProfileRegistry) BaseID() (int, bool) {
	if r.baseID == nil {
		return 0, false
	}
	return *r.baseID, true
}

// Get returns the profile id regardless of availability.
func (r *ProfileRegistry) Get(id int) (*Profile, bool) {
	profile, ok := r.profiles[id]
	return profile, ok
}

// All returns every profile in load order.
func (r *ProfileRegistry) All() []*Profile {
	out := make([]*Profile, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.profiles[id])
	}
	return out
}

// Sorted returns the profiles with the base profile first, then by name.
func (r *ProfileRegistry) Sorted(ids []int) []*Profile {
	out := make([]*Profile, 0, len(ids))
	for _, id := range ids {
		if profile, ok := r.profiles[id]; ok {
			out = append(out, profile)
		}
	}
	slices.SortStableFunc(out, func(a, b *Profile) int {
		switch {
		case a.Base:
			return -1
		case b.Base:
			return 1
		default:
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	})
	return out
}

// Availability carries what ProfileRegistry.Available needs to know about
// the acting principal.
type Availability struct {
	Principal Principal
	// AccessAll is the result of the "access all profiles" capability check.
	AccessAll bool
	// Role is the acting principal's role config, if any.
	Role *RoleConfig
}

// Available returns the IDs of the profiles the principal may use, in load
// order. When filtering leaves nothing the base profile is kept.
func (r *ProfileRegistry) Available(a Availability) []int {
	if a.AccessAll {
		return slices.Clone(r.order)
	}
	ids := make([]int, 0, len(r.order))
	for _, id := range r.order {
		profile := r.profiles[id]
		if !profile.Restricted || profile.AssignedTo(a.Principal.RoleID) || a.Role.HasAssignedProfile(id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 && r.baseID != nil {
		ids = append(ids, *r.baseID)
	}
	return ids
}

// ProfileCandidates lists the profile IDs considered during resolution,
// strongest first. Nil entries are skipped.
type ProfileCandidates struct {
	Session       *int
	UserDefault   *int
	RoleDefault   *int
	GlobalDefault *int
	Base          *int
}

func (c ProfileCandidates) ordered() []*int {
	return []*int{c.Session, c.UserDefault, c.RoleDefault, c.GlobalDefault, c.Base}
}

// ResolveActive picks the active profile among available. The returned
// notice is non-nil when the session held a profile that is no longer the
// one resolved.
func (r *ProfileRegistry) ResolveActive(available []int, candidates ProfileCandidates) (int, *Notice, error) {
	if len(available) == 0 {
		return 0, nil, ErrNoProfileAvailable
	}
	resolved := available[0]
	for _, candidate := range candidates.ordered() {
		if candidate != nil && slices.Contains(available, *candidate) {
			resolved = *candidate
			break
		}
	}

	var notice *Notice
	if candidates.Session != nil && *candidates.Session != resolved {
		notice = &Notice{
			Code:    NoticePreviousProfileUnavailable,
			Message: "The previous profile is not available anymore",
			Meta: map[string]any{
				"previous_profile_id": *candidates.Session,
				"profile_id":          resolved,
			},
		}
	}
	return resolved, notice, nil
}

// Lookup returns the profile id when it is part of available.
func (r *ProfileRegistry) Lookup(id int, available []int) (*Profile, error) {
	profile, ok := r.profiles[id]
	if !ok || !slices.Contains(available, id) {
		return nil, fmt.Errorf("%w: id=%d", ErrProfileUnavailable, id)
	}
	return profile, nil
}
