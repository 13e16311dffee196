package grid

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/goliatone/go-grid/pkg/activity"
	"go.uber.org/zap"
)

func (g *Grid) profileRegistry(ctx context.Context) (*ProfileRegistry, error) {
	if registry, ok := lookup[*ProfileRegistry](g.values, KeyProfiles); ok {
		return registry, nil
	}
	var profiles []Profile
	if g.IsPersisted() && g.storage != nil {
		loaded, err := g.storage.LoadProfiles(ctx, g.record.ID)
		if err != nil {
			return nil, err
		}
		for _, profile := range loaded {
			if err := g.validate.Struct(profile); err != nil {
				g.logger.Warn("skipping invalid stored profile", zap.Int("profile_id", profile.ID), zap.Error(err))
				continue
			}
			profiles = append(profiles, profile)
		}
	}
	registry := NewProfileRegistry(profiles, g.record.BaseProfileID)
	g.values.Set(KeyProfiles, registry)
	return registry, nil
}

// SetProfiles replaces every profile of the grid. Columns are profile
// scoped and are dropped too.
func (g *Grid) SetProfiles(ctx context.Context, profiles []Profile) error {
	for _, profile := range profiles {
		if err := g.validate.Struct(profile); err != nil {
			return fmt.Errorf("%w: profile %d: %w", ErrInvalidArgument, profile.ID, err)
		}
	}
	g.values.Invalidate(GroupProfiles)
	g.values.Set(KeyProfiles, NewProfileRegistry(profiles, g.record.BaseProfileID))
	return nil
}

// Profiles returns the profiles of the grid, base first then by name. With
// onlyAvailable only those the actor may use are returned.
func (g *Grid) Profiles(ctx context.Context, onlyAvailable bool) ([]Profile, error) {
	registry, err := g.profileRegistry(ctx)
	if err != nil {
		return nil, err
	}
	var ids []int
	if onlyAvailable {
		if ids, err = g.AvailableProfileIDs(ctx); err != nil {
			return nil, err
		}
	} else {
		for _, profile := range registry.All() {
			ids = append(ids, profile.ID)
		}
	}
	sorted := registry.Sorted(ids)
	out := make([]Profile, 0, len(sorted))
	for _, profile := range sorted {
		out = append(out, *profile)
	}
	return out, nil
}

// BaseProfileID returns the base profile ID when the grid has one.
func (g *Grid) BaseProfileID(ctx context.Context) (int, bool, error) {
	registry, err := g.profileRegistry(ctx)
	if err != nil {
		return 0, false, err
	}
	id, ok := registry.BaseID()
	return id, ok, nil
}

// AvailableProfileIDs returns the profiles the actor may use, in load
// order.
func (g *Grid) AvailableProfileIDs(ctx context.Context) ([]int, error) {
	if ids, ok := lookup[[]int](g.values, KeyAvailableProfileIDs); ok {
		return slices.Clone(ids), nil
	}
	registry, err := g.profileRegistry(ctx)
	if err != nil {
		return nil, err
	}
	role, err := g.actorRoleConfig(ctx)
	if err != nil {
		return nil, err
	}
	accessAll, err := g.sentry.Allowed(ctx, g.actor.Principal, role, ActionAccessAllProfiles)
	if err != nil {
		return nil, err
	}
	ids := registry.Available(Availability{
		Principal: g.actor.Principal,
		AccessAll: accessAll,
		Role:      role,
	})
	g.values.Set(KeyAvailableProfileIDs, ids)
	return slices.Clone(ids), nil
}

// IsAvailableProfile reports whether the actor may use profile id.
func (g *Grid) IsAvailableProfile(ctx context.Context, id int) (bool, error) {
	ids, err := g.AvailableProfileIDs(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, id), nil
}

// ProfileID returns the active profile. On first use it is resolved from,
// in order: the session, the user default, the role default, the global
// default, the base profile and the first available profile. The result
// becomes the permanent profile of the session.
func (g *Grid) ProfileID(ctx context.Context) (int, error) {
	if id, ok := lookup[int](g.values, KeyProfileID); ok {
		return id, nil
	}
	if !g.IsPersisted() {
		return 0, ErrNotPersisted
	}
	registry, err := g.profileRegistry(ctx)
	if err != nil {
		return 0, err
	}
	available, err := g.AvailableProfileIDs(ctx)
	if err != nil {
		return 0, err
	}
	candidates, err := g.profileCandidates(ctx, registry)
	if err != nil {
		return 0, err
	}
	id, notice, err := registry.ResolveActive(available, candidates)
	if err != nil {
		return 0, err
	}
	if notice != nil {
		g.notify(ctx, *notice)
	}
	if err := g.setProfileID(ctx, id, false); err != nil {
		return 0, err
	}
	return id, nil
}

func (g *Grid) profileCandidates(ctx context.Context, registry *ProfileRegistry) (ProfileCandidates, error) {
	var candidates ProfileCandidates
	coordinator, err := g.coordinator(ctx)
	if err != nil {
		return candidates, err
	}
	if candidates.Session, err = coordinator.SessionProfileID(ctx, g.actor.Session); err != nil {
		return candidates, err
	}
	user, err := g.UserConfig(ctx, g.actor.Principal.UserID)
	if err != nil {
		return candidates, err
	}
	if user != nil {
		candidates.UserDefault = user.DefaultProfileID
	}
	role, err := g.actorRoleConfig(ctx)
	if err != nil {
		return candidates, err
	}
	if role != nil {
		candidates.RoleDefault = role.DefaultProfileID
	}
	candidates.GlobalDefault = g.record.GlobalDefaultProfileID
	if base, ok := registry.BaseID(); ok {
		candidates.Base = &base
	}
	return candidates, nil
}

// SetProfileID makes id the active profile. A temporary selection only
// lasts for this grid instance; otherwise it becomes the permanent profile
// of the session and remembered values are moved between profiles.
func (g *Grid) SetProfileID(ctx context.Context, id int, temporary bool) error {
	return g.setProfileID(ctx, id, temporary)
}

func (g *Grid) setProfileID(ctx context.Context, id int, temporary bool) error {
	if !temporary && !g.IsPersisted() {
		return ErrNotPersisted
	}
	registry, err := g.profileRegistry(ctx)
	if err != nil {
		return err
	}
	available, err := g.AvailableProfileIDs(ctx)
	if err != nil {
		return err
	}
	profile, err := registry.Lookup(id, available)
	if err != nil {
		return err
	}

	g.values.Invalidate(GroupColumns)
	g.values.Set(KeyProfileID, id)
	if temporary {
		return nil
	}

	coordinator, err := g.coordinator(ctx)
	if err != nil {
		return err
	}
	transition, err := coordinator.Commit(ctx, g.actor.Session, profile, registry)
	if err != nil {
		return err
	}
	if transition.Changed {
		input := g.eventInput(strconv.Itoa(id))
		if transition.From != nil {
			input.OldValue = *transition.From
		}
		input.NewValue = id
		g.emit(ctx, activity.BuildProfileEvent(activity.VerbProfileSwitched, input))
	}
	return nil
}

// Profile returns profile id, or the active profile when id is nil.
func (g *Grid) Profile(ctx context.Context, id *int) (Profile, error) {
	var profileID int
	if id != nil {
		profileID = *id
	} else {
		resolved, err := g.ProfileID(ctx)
		if err != nil {
			return Profile{}, err
		}
		profileID = resolved
	}
	registry, err := g.profileRegistry(ctx)
	if err != nil {
		return Profile{}, err
	}
	available, err := g.AvailableProfileIDs(ctx)
	if err != nil {
		return Profile{}, err
	}
	profile, err := registry.Lookup(profileID, available)
	if err != nil {
		return Profile{}, err
	}
	return *profile, nil
}

// ProfileSessionState returns the session bookkeeping of profile id.
func (g *Grid) ProfileSessionState(ctx context.Context, id int) (ProfileSessionState, error) {
	coordinator, err := g.coordinator(ctx)
	if err != nil {
		return ProfileSessionState{}, err
	}
	return coordinator.ProfileState(ctx, g.actor.Session, id)
}

func (g *Grid) coordinator(ctx context.Context) (*ProfileSwitchCoordinator, error) {
	params, err := g.Parameters(ctx)
	if err != nil {
		return nil, err
	}
	return &ProfileSwitchCoordinator{
		GridID:                  g.record.ID,
		BlockID:                 g.record.BlockID,
		VarNames:                g.record.VarNames,
		DefaultRememberedParams: params.ProfilesRememberedSessionParams,
		Logger:                  g.logger,
	}, nil
}
