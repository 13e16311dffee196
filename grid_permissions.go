package grid

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Can reports whether the actor may perform action. Failures to evaluate
// the check are logged and count as a denial.
func (g *Grid) Can(ctx context.Context, action Action) bool {
	role, err := g.actorRoleConfig(ctx)
	if err != nil {
		g.logger.Warn("grid role config unavailable", zap.String("action", string(action)), zap.Error(err))
		return false
	}
	allowed, err := g.sentry.Allowed(ctx, g.actor.Principal, role, action)
	if err != nil {
		g.logger.Warn("grid permission check failed", zap.String("action", string(action)), zap.Error(err))
		return false
	}
	return allowed
}

func (g *Grid) require(ctx context.Context, action Action) error {
	role, err := g.actorRoleConfig(ctx)
	if err != nil {
		return err
	}
	return g.sentry.Require(ctx, g.actor.Principal, role, action)
}

func wrapConfigError(kind, id string, err error) error {
	return fmt.Errorf("%w: %s config %q: %w", ErrInvalidArgument, kind, id, err)
}
