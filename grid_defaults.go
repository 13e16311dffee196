package grid

import (
	"context"
	"fmt"
	"slices"

	"github.com/goliatone/go-grid/pkg/activity"
)

func (g *Grid) parameterSources(ctx context.Context) (ParameterSources, error) {
	user, err := g.UserConfig(ctx, g.actor.Principal.UserID)
	if err != nil {
		return ParameterSources{}, err
	}
	role, err := g.actorRoleConfig(ctx)
	if err != nil {
		return ParameterSources{}, err
	}
	return ParameterSources{
		Instance:  g.record.Overrides.Parameters(),
		Principal: g.actor.Principal,
		User:      user,
		Role:      role,
	}, nil
}

// Parameters returns the effective parameters for the actor.
func (g *Grid) Parameters(ctx context.Context) (ResolvedParameters, error) {
	sources, err := g.parameterSources(ctx)
	if err != nil {
		return ResolvedParameters{}, err
	}
	return g.defaults.Resolve(sources)
}

// TraceParameter reports which layer supplied field, named by its json tag.
func (g *Grid) TraceParameter(ctx context.Context, field string) (Trace, error) {
	sources, err := g.parameterSources(ctx)
	if err != nil {
		return Trace{}, err
	}
	return g.defaults.Trace(sources, field)
}

// ProfilesDefaultsUpdate changes the defaults applied to new profiles.
// Fields without Present are left untouched.
type ProfilesDefaultsUpdate struct {
	Restricted              Patch[bool]
	AssignedTo              Patch[[]string]
	RememberedSessionParams Patch[[]string]
}

func (u ProfilesDefaultsUpdate) assignment() bool {
	return u.Restricted.Present || u.AssignedTo.Present
}

// UpdateProfilesDefaults stores the profile defaults on the grid.
// Assignment fields need ActionAssignProfiles and remembered params need
// ActionEditProfiles, each only when supplied.
func (g *Grid) UpdateProfilesDefaults(ctx context.Context, update ProfilesDefaultsUpdate) error {
	if update.assignment() {
		if err := g.require(ctx, ActionAssignProfiles); err != nil {
			return err
		}
	}
	if update.RememberedSessionParams.Present {
		if err := g.require(ctx, ActionEditProfiles); err != nil {
			return err
		}
	}

	overrides := g.record.Overrides
	update.Restricted.applyTo(&overrides.ProfilesDefaultRestricted)
	if update.AssignedTo.Present {
		overrides.ProfilesDefaultAssignedTo = joinCSV(patchedSlice(update.AssignedTo))
	}
	if update.RememberedSessionParams.Present {
		var params []string
		if update.RememberedSessionParams.Value != nil {
			params = NormalizeRememberedParams(*update.RememberedSessionParams.Value)
		}
		overrides.ProfilesRememberedSessionParams = joinCSV(params)
	}
	g.record.Overrides = overrides

	input := g.eventInput("")
	input.NewValue = overrides.Parameters()
	g.emit(ctx, activity.BuildGridEvent(activity.VerbProfilesDefaultsSaved, input))
	return nil
}

// CustomizationUpdate changes the display parameters stored on the grid.
// Fields without Present are left untouched.
type CustomizationUpdate struct {
	DisplaySystemPart       Patch[bool]
	IgnoreCustomHeaders     Patch[bool]
	IgnoreCustomWidths      Patch[bool]
	IgnoreCustomAlignments  Patch[bool]
	MergeBasePagination     Patch[bool]
	PinHeader               Patch[bool]
	UseRSSLinksWindow       Patch[bool]
	HideOriginalExportBlock Patch[bool]
	HideFilterResetButton   Patch[bool]
	PaginationValues        Patch[[]int]
	DefaultPaginationValue  Patch[int]
}

// UpdateCustomizationParameters stores the display parameters on the grid.
// It always needs ActionEditCustomizationParams.
func (g *Grid) UpdateCustomizationParameters(ctx context.Context, update CustomizationUpdate) error {
	if err := g.require(ctx, ActionEditCustomizationParams); err != nil {
		return err
	}
	if value := update.DefaultPaginationValue.Value; value != nil && *value < 1 {
		return fmt.Errorf("%w: default pagination value %d", ErrInvalidArgument, *value)
	}
	if values := update.PaginationValues.Value; values != nil && slices.ContainsFunc(*values, func(v int) bool { return v < 1 }) {
		return fmt.Errorf("%w: pagination values %v", ErrInvalidArgument, *values)
	}

	overrides := g.record.Overrides
	update.DisplaySystemPart.applyTo(&overrides.DisplaySystemPart)
	update.IgnoreCustomHeaders.applyTo(&overrides.IgnoreCustomHeaders)
	update.IgnoreCustomWidths.applyTo(&overrides.IgnoreCustomWidths)
	update.IgnoreCustomAlignments.applyTo(&overrides.IgnoreCustomAlignments)
	update.MergeBasePagination.applyTo(&overrides.MergeBasePagination)
	update.PinHeader.applyTo(&overrides.PinHeader)
	update.UseRSSLinksWindow.applyTo(&overrides.UseRSSLinksWindow)
	update.HideOriginalExportBlock.applyTo(&overrides.HideOriginalExportBlock)
	update.HideFilterResetButton.applyTo(&overrides.HideFilterResetButton)
	update.DefaultPaginationValue.applyTo(&overrides.DefaultPaginationValue)
	if update.PaginationValues.Present {
		overrides.PaginationValues = joinCSVInts(patchedSlice(update.PaginationValues))
	}
	g.record.Overrides = overrides

	input := g.eventInput("")
	input.NewValue = overrides.Parameters()
	g.emit(ctx, activity.BuildGridEvent(activity.VerbCustomizationUpdated, input))
	return nil
}

func patchedSlice[T any](patch Patch[[]T]) []T {
	if patch.Value == nil {
		return nil
	}
	return *patch.Value
}
