package grid

import (
	"context"
	"fmt"

	"github.com/goliatone/go-grid/pkg/activity"
)

// BeforeSave prepares the record for persistence.
func (g *Grid) BeforeSave(context.Context) error {
	if g.record.MaxAttributeColumnBaseID == nil {
		g.record.MaxAttributeColumnBaseID = new(int)
	}
	if g.record.MaxCustomColumnBaseID == nil {
		g.record.MaxCustomColumnBaseID = new(int)
	}
	return nil
}

// AfterSave drops every derived value so the next read sees stored state.
func (g *Grid) AfterSave(context.Context) error {
	g.values.InvalidateAll()
	return nil
}

// BeforeDelete checks the actor may delete the grid.
func (g *Grid) BeforeDelete(ctx context.Context) error {
	return g.require(ctx, ActionDelete)
}

// Snapshot returns the record and every collection currently held.
func (g *Grid) Snapshot() Snapshot {
	snapshot := Snapshot{Record: g.Record()}
	if id, ok := lookup[int](g.values, KeyProfileID); ok {
		snapshot.ProfileID = &id
	}
	if idx, ok := lookup[*ColumnIndex](g.values, KeyColumns); ok {
		snapshot.Columns = copyColumns(idx.Columns())
	}
	if registry, ok := lookup[*ProfileRegistry](g.values, KeyProfiles); ok {
		snapshot.Profiles = make([]Profile, 0, registry.Len())
		for _, profile := range registry.All() {
			snapshot.Profiles = append(snapshot.Profiles, *profile)
		}
	}
	if users, ok := lookup[map[string]UserConfig](g.values, KeyUsersConfig); ok {
		snapshot.Users = cloneConfigs(users)
	}
	if roles, ok := lookup[map[string]RoleConfig](g.values, KeyRolesConfig); ok {
		snapshot.Roles = make(map[string]RoleConfig, len(roles))
		for roleID, config := range roles {
			snapshot.Roles[roleID] = normalizeRoleConfig(config)
		}
	}
	return snapshot
}

// Save runs the save hooks around persister and adopts the returned ID.
func (g *Grid) Save(ctx context.Context, persister Persister) error {
	if persister == nil {
		return fmt.Errorf("%w: nil persister", ErrInvalidArgument)
	}
	if err := g.BeforeSave(ctx); err != nil {
		return err
	}
	created := !g.IsPersisted()
	id, err := persister.SaveGrid(ctx, g.Snapshot())
	if err != nil {
		return err
	}
	if g.record.ID != id {
		g.record.ID = id
		g.bindLogger()
	}
	if created {
		g.logger.Info("grid created")
	}
	if err := g.AfterSave(ctx); err != nil {
		return err
	}

	input := g.eventInput("")
	input.Metadata = map[string]any{"created": created}
	g.emit(ctx, activity.BuildGridEvent(activity.VerbGridSaved, input))
	return nil
}

// Delete removes the grid through persister.
func (g *Grid) Delete(ctx context.Context, persister Persister) error {
	if persister == nil {
		return fmt.Errorf("%w: nil persister", ErrInvalidArgument)
	}
	if !g.IsPersisted() {
		return ErrNotPersisted
	}
	if err := g.BeforeDelete(ctx); err != nil {
		return err
	}
	if err := persister.DeleteGrid(ctx, g.record.ID); err != nil {
		return err
	}
	input := g.eventInput("")
	g.values.InvalidateAll()
	g.record.ID = ""
	g.bindLogger()
	g.emit(ctx, activity.BuildGridEvent(activity.VerbGridDeleted, input))
	return nil
}
