package grid

import (
	"context"
	"fmt"

	"github.com/goliatone/go-grid/pkg/activity"
	"go.uber.org/zap"
)

// TypeHandler returns the handler customizing the grid: the forced type
// when one is set, otherwise the first registered handler matching the
// block, or the default handler when the grid has no block type.
func (g *Grid) TypeHandler(ctx context.Context) (TypeHandler, error) {
	if handler, ok := lookup[TypeHandler](g.values, KeyTypeHandler); ok {
		return handler, nil
	}
	if err := g.resolveType(ctx); err != nil {
		return nil, err
	}
	handler, _ := lookup[TypeHandler](g.values, KeyTypeHandler)
	return handler, nil
}

// BaseTypeHandler returns the automatically matched handler, ignoring the
// forced type. It is nil when only the forced type applies.
func (g *Grid) BaseTypeHandler(ctx context.Context) (TypeHandler, error) {
	if _, err := g.TypeHandler(ctx); err != nil {
		return nil, err
	}
	handler, _ := lookup[TypeHandler](g.values, KeyBaseTypeHandler)
	return handler, nil
}

// TypeCode returns the code of the automatically matched handler.
func (g *Grid) TypeCode(ctx context.Context) (string, error) {
	if _, err := g.TypeHandler(ctx); err != nil {
		return "", err
	}
	code, _ := lookup[string](g.values, KeyTypeCode)
	return code, nil
}

func (g *Grid) resolveType(ctx context.Context) error {
	var base TypeHandler
	if g.record.BlockType == "" {
		base = g.types.Default()
	} else {
		matched, ok, err := g.types.MatchingHandler(ctx, g.record.BlockType, g.record.RewritingClassName)
		if err != nil {
			return err
		}
		if ok {
			base = matched
		}
	}

	handler := base
	if forced := g.record.ForcedTypeCode; forced != "" {
		if byCode, ok := g.types.ByCode(forced); ok {
			handler = byCode
		} else {
			g.logger.Warn("forced grid type is not registered", zap.String("forced_type_code", forced))
		}
	}
	if handler == nil {
		return fmt.Errorf("%w: block_type=%q", ErrHandlerNotFound, g.record.BlockType)
	}

	if base != nil {
		g.values.Set(KeyTypeCode, base.Code())
		g.values.Set(KeyBaseTypeHandler, base)
	}
	g.values.Set(KeyTypeHandler, handler)
	g.logger.Debug("grid type resolved", zap.String("type", handler.Code()))
	return nil
}

// SetBlockType changes the listing block type.
func (g *Grid) SetBlockType(blockType string) {
	if g.record.BlockType == blockType {
		return
	}
	g.record.BlockType = blockType
	g.values.Invalidate(GroupType)
	g.bindLogger()
}

// SetRewritingClassName changes the class override used for matching.
func (g *Grid) SetRewritingClassName(name string) {
	if g.record.RewritingClassName == name {
		return
	}
	g.record.RewritingClassName = name
	g.values.Invalidate(GroupType)
}

// UpdateForcedType forces the grid to use the handler registered under
// code. An empty code restores automatic matching.
func (g *Grid) UpdateForcedType(ctx context.Context, code string) error {
	if err := g.require(ctx, ActionEditForcedType); err != nil {
		return err
	}
	if code != "" {
		if _, ok := g.types.ByCode(code); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownType, code)
		}
	}
	previous := g.record.ForcedTypeCode
	g.record.ForcedTypeCode = code
	g.values.Invalidate(GroupType)

	input := g.eventInput("")
	input.OldValue = previous
	input.NewValue = code
	g.emit(ctx, activity.BuildGridEvent(activity.VerbForcedTypeUpdated, input))
	return nil
}

// SetDisabled turns customization off or back on.
func (g *Grid) SetDisabled(ctx context.Context, disabled bool) error {
	if err := g.require(ctx, ActionEnableDisable); err != nil {
		return err
	}
	if g.record.Disabled == disabled {
		return nil
	}
	g.record.Disabled = disabled
	verb := activity.VerbGridEnabled
	if disabled {
		verb = activity.VerbGridDisabled
	}
	g.emit(ctx, activity.BuildGridEvent(verb, g.eventInput("")))
	return nil
}
