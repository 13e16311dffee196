package grid

import (
	"context"
	"maps"
	"slices"
)

// UsersConfig returns the per-user configs keyed by user ID.
func (g *Grid) UsersConfig(ctx context.Context) (map[string]UserConfig, error) {
	configs, err := g.usersConfig(ctx)
	if err != nil {
		return nil, err
	}
	return maps.Clone(configs), nil
}

func (g *Grid) usersConfig(ctx context.Context) (map[string]UserConfig, error) {
	if configs, ok := lookup[map[string]UserConfig](g.values, KeyUsersConfig); ok {
		return configs, nil
	}
	configs := map[string]UserConfig{}
	if g.IsPersisted() && g.storage != nil {
		loaded, err := g.storage.LoadUserConfigs(ctx, g.record.ID)
		if err != nil {
			return nil, err
		}
		maps.Copy(configs, loaded)
	}
	g.values.Set(KeyUsersConfig, configs)
	return configs, nil
}

// SetUsersConfig replaces every per-user config.
func (g *Grid) SetUsersConfig(configs map[string]UserConfig) error {
	for userID, config := range configs {
		if err := g.validate.Struct(config.Parameters); err != nil {
			return wrapConfigError("user", userID, err)
		}
	}
	g.values.Invalidate(GroupUsersConfig)
	g.values.Set(KeyUsersConfig, cloneConfigs(configs))
	return nil
}

// UserConfig returns the config of userID, nil when none is stored.
func (g *Grid) UserConfig(ctx context.Context, userID string) (*UserConfig, error) {
	if userID == "" {
		return nil, nil
	}
	configs, err := g.usersConfig(ctx)
	if err != nil {
		return nil, err
	}
	config, ok := configs[userID]
	if !ok {
		return nil, nil
	}
	return &config, nil
}

// RolesConfig returns the per-role configs keyed by role ID.
func (g *Grid) RolesConfig(ctx context.Context) (map[string]RoleConfig, error) {
	configs, err := g.rolesConfig(ctx)
	if err != nil {
		return nil, err
	}
	return maps.Clone(configs), nil
}

func (g *Grid) rolesConfig(ctx context.Context) (map[string]RoleConfig, error) {
	if configs, ok := lookup[map[string]RoleConfig](g.values, KeyRolesConfig); ok {
		return configs, nil
	}
	configs := map[string]RoleConfig{}
	if g.IsPersisted() && g.storage != nil {
		loaded, err := g.storage.LoadRoleConfigs(ctx, g.record.ID)
		if err != nil {
			return nil, err
		}
		for roleID, config := range loaded {
			configs[roleID] = normalizeRoleConfig(config)
		}
	}
	g.values.Set(KeyRolesConfig, configs)
	return configs, nil
}

// SetRolesConfig replaces every per-role config. Available profiles are
// recomputed on next read.
func (g *Grid) SetRolesConfig(configs map[string]RoleConfig) error {
	normalized := make(map[string]RoleConfig, len(configs))
	for roleID, config := range configs {
		if err := g.validate.Struct(config.Parameters); err != nil {
			return wrapConfigError("role", roleID, err)
		}
		normalized[roleID] = normalizeRoleConfig(config)
	}
	g.values.Invalidate(GroupRolesConfig)
	g.values.Set(KeyRolesConfig, normalized)
	return nil
}

// RoleConfig returns the config of roleID, nil when none is stored.
func (g *Grid) RoleConfig(ctx context.Context, roleID string) (*RoleConfig, error) {
	if roleID == "" {
		return nil, nil
	}
	configs, err := g.rolesConfig(ctx)
	if err != nil {
		return nil, err
	}
	config, ok := configs[roleID]
	if !ok {
		return nil, nil
	}
	return &config, nil
}

func (g *Grid) actorRoleConfig(ctx context.Context) (*RoleConfig, error) {
	return g.RoleConfig(ctx, g.actor.Principal.RoleID)
}

func normalizeRoleConfig(config RoleConfig) RoleConfig {
	if config.Permissions == nil {
		config.Permissions = map[Action]Access{}
	} else {
		config.Permissions = maps.Clone(config.Permissions)
	}
	if config.AssignedProfileIDs == nil {
		config.AssignedProfileIDs = []int{}
	} else {
		config.AssignedProfileIDs = slices.Clone(config.AssignedProfileIDs)
	}
	return config
}

func cloneConfigs(configs map[string]UserConfig) map[string]UserConfig {
	out := make(map[string]UserConfig, len(configs))
	maps.Copy(out, configs)
	return out
}
