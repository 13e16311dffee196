package grid

import (
	"context"

	"github.com/goliatone/go-grid/pkg/activity"
	"go.uber.org/zap"
)

func (g *Grid) eventInput(subject string) activity.GridEventInput {
	return activity.GridEventInput{
		ActorID:    g.actor.Principal.UserID,
		UserID:     g.actor.Principal.UserID,
		RoleID:     g.actor.Principal.RoleID,
		GridID:     g.record.ID,
		BlockType:  g.record.BlockType,
		Subject:    subject,
		OccurredAt: g.now(),
	}
}

// emit never fails the calling operation; hook errors are logged.
func (g *Grid) emit(ctx context.Context, event activity.Event) {
	if !g.emitter.Enabled() {
		return
	}
	if err := g.emitter.Emit(ctx, event); err != nil {
		g.logger.Warn("grid activity hook failed", zap.String("verb", event.Verb), zap.Error(err))
	}
}

func (g *Grid) notify(ctx context.Context, notice Notice) {
	if g.actor.Notices != nil {
		g.actor.Notices.Notify(ctx, notice)
	}
	g.logger.Warn("grid notice", zap.String("code", notice.Code), zap.String("message", notice.Message))

	input := g.eventInput("")
	input.Metadata = map[string]any{"code": notice.Code}
	for key, value := range notice.Meta {
		input.Metadata[key] = value
	}
	g.emit(ctx, activity.BuildProfileEvent(activity.VerbProfileNotice, input))
}
