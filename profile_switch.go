package grid

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// ProfileSwitchCoordinator keeps the permanent profile of a grid in the
// session and moves remembered parameter values between profiles when it
// changes.
type ProfileSwitchCoordinator struct {
	GridID   string
	BlockID  string
	VarNames VarNames
	// DefaultRememberedParams applies to profiles that do not declare
	// their own remembered params.
	DefaultRememberedParams []string
	Logger                  *zap.Logger
}

// Transition describes a permanent profile change.
type Transition struct {
	From    *int
	To      int
	Changed bool
	// Remembered holds the values captured for the previous profile.
	Remembered map[string]string
}

// SessionProfileID returns the permanent profile ID stored in the session.
func (c *ProfileSwitchCoordinator) SessionProfileID(ctx context.Context, session SessionStore) (*int, error) {
	if session == nil {
		return nil, nil
	}
	return sessionInt(ctx, session, ProfileSessionKey(c.GridID))
}

// Commit makes next the permanent profile. The first selection of a
// session only records the ID; later changes restore the remembered
// values of next and snapshot those of the previous profile.
func (c *ProfileSwitchCoordinator) Commit(ctx context.Context, session SessionStore, next *Profile, profiles *ProfileRegistry) (Transition, error) {
	transition := Transition{To: next.ID}
	if session == nil {
		return transition, nil
	}
	key := ProfileSessionKey(c.GridID)

	had, err := session.Has(ctx, key)
	if err != nil {
		return transition, err
	}
	var previousID *int
	if had {
		if previousID, err = sessionInt(ctx, session, key); err != nil {
			return transition, err
		}
	}
	transition.From = previousID

	if err := session.Set(ctx, key, fmt.Sprint(next.ID)); err != nil {
		return transition, err
	}
	if !had || (previousID != nil && *previousID == next.ID) {
		return transition, nil
	}
	transition.Changed = true

	var previous *Profile
	if previousID != nil && profiles != nil {
		previous, _ = profiles.Get(*previousID)
	}

	// Captured before next overwrites the shared parameter keys.
	var remembered map[string]string
	if previous != nil {
		if remembered, err = c.rememberableValues(ctx, session, previous); err != nil {
			return transition, err
		}
	}

	if err := c.reapply(ctx, session, next); err != nil {
		return transition, err
	}

	if previous != nil {
		if err := c.remember(ctx, session, previous, remembered); err != nil {
			return transition, err
		}
		transition.Remembered = remembered
	}

	c.logger().Info("grid profile switched",
		zap.String("grid_id", c.GridID),
		zap.Intp("from", previousID),
		zap.Int("to", next.ID),
		zap.Int("remembered", len(remembered)),
	)
	return transition, nil
}

// ProfileState returns the session bookkeeping of profileID.
func (c *ProfileSwitchCoordinator) ProfileState(ctx context.Context, session SessionStore, profileID int) (ProfileSessionState, error) {
	if session == nil {
		return ProfileSessionState{}, nil
	}
	return loadProfileState(ctx, session, ProfileStateSessionKey(c.GridID, profileID))
}

func (c *ProfileSwitchCoordinator) reapply(ctx context.Context, session SessionStore, profile *Profile) error {
	state, err := c.ProfileState(ctx, session, profile.ID)
	if err != nil {
		return err
	}
	params := c.rememberedParams(profile)
	for _, param := range GridParams(false) {
		key := ParamSessionKey(c.BlockID, c.VarNames.Lookup(param))
		if key == "" {
			continue
		}
		value, ok := state.RememberedValues[string(param)]
		if ok && slices.Contains(params, param) {
			if err := session.Set(ctx, key, value); err != nil {
				return err
			}
			continue
		}
		if err := session.Unset(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (c *ProfileSwitchCoordinator) rememberableValues(ctx context.Context, session SessionStore, profile *Profile) (map[string]string, error) {
	values := map[string]string{}
	params := c.rememberedParams(profile)
	for _, param := range GridParams(false) {
		key := ParamSessionKey(c.BlockID, c.VarNames.Lookup(param))
		if key == "" || !slices.Contains(params, param) {
			continue
		}
		value, ok, err := session.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			values[string(param)] = value
		}
	}
	return values, nil
}

func (c *ProfileSwitchCoordinator) remember(ctx context.Context, session SessionStore, profile *Profile, values map[string]string) error {
	key := ProfileStateSessionKey(c.GridID, profile.ID)
	state, err := loadProfileState(ctx, session, key)
	if err != nil {
		return err
	}
	state.RememberedValues = values
	if _, ok := values[string(ParamFilter)]; ok {
		// Stale filter bookkeeping would be reconciled against the restored
		// filter on the way back.
		state.AppliedFilters = map[string]string{}
		state.RemovedFilters = map[string]string{}
	}
	return saveProfileState(ctx, session, key, state)
}

func (c *ProfileSwitchCoordinator) rememberedParams(profile *Profile) []GridParam {
	if profile.RememberedParams != nil {
		return rememberableParams(profile.RememberedParams)
	}
	return rememberableParams(c.DefaultRememberedParams)
}

func (c *ProfileSwitchCoordinator) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
