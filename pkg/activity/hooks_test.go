package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNormalizeEventTrimsClonesAndDefaults(t *testing.T) {
	meta := map[string]any{"k": "v"}
	evt := Event{
		Verb:       " grid.saved ",
		ActorID:    " actor ",
		UserID:     " user ",
		RoleID:     " editors ",
		ObjectType: " grid ",
		ObjectID:   " 42 ",
		Channel:    " grid ",
		Metadata:   meta,
	}

	got := NormalizeEvent(evt)

	if got.Verb != "grid.saved" || got.ObjectType != "grid" || got.ObjectID != "42" {
		t.Fatalf("unexpected normalized fields: %+v", got)
	}
	if got.ActorID != "actor" || got.UserID != "user" || got.RoleID != "editors" || got.Channel != "grid" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}
	got.Metadata["k"] = "changed"
	if evt.Metadata["k"] != "v" {
		t.Fatalf("expected original metadata untouched: %+v", evt.Metadata)
	}
}

func TestHooksNotifyShortCircuitsMissingRequired(t *testing.T) {
	capture := &CaptureHook{}
	if err := (Hooks{capture}).Notify(context.Background(), Event{Verb: "grid.saved"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured, got %d", len(capture.Events))
	}
}

func TestHooksNotifyFanOutAndJoinErrors(t *testing.T) {
	capture := &CaptureHook{}
	boom1 := errors.New("boom1")
	boom2 := errors.New("boom2")
	var ctxSeen bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, _ Event) error {
			ctxSeen = ctx != nil
			return nil
		}),
		capture,
		HookFunc(func(context.Context, Event) error { return boom1 }),
		nil,
		HookFunc(func(context.Context, Event) error { return boom2 }),
	}

	//nolint:staticcheck // nil context exercises the fallback
	err := hooks.Notify(nil, Event{Verb: "grid.column.added", ObjectType: ObjectColumn, ObjectID: "sku"})
	if !errors.Is(err, boom1) || !errors.Is(err, boom2) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !ctxSeen {
		t.Fatalf("expected context fallback to be non-nil")
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected event to be captured once, got %d", len(capture.Events))
	}
}

func TestEmitterDefaultsChannel(t *testing.T) {
	capture := &CaptureHook{}

	disabled := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if disabled.Enabled() {
		t.Fatalf("expected emitter to be disabled")
	}
	_ = disabled.Emit(context.Background(), BuildGridEvent(VerbGridSaved, GridEventInput{GridID: "1"}))
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured when disabled")
	}

	if NewEmitter(nil, Config{Enabled: true}).Enabled() {
		t.Fatalf("expected emitter without hooks to be disabled")
	}

	enabled := NewEmitter(Hooks{capture}, Config{Enabled: true})
	if err := enabled.Emit(context.Background(), BuildGridEvent(VerbGridSaved, GridEventInput{GridID: "1"})); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(capture.Events) != 1 || capture.Events[0].Channel != DefaultChannel {
		t.Fatalf("expected default channel applied, got %+v", capture.Events)
	}

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = enabled.Emit(context.Background(), BuildGridEvent(VerbGridSaved, GridEventInput{GridID: "1", Channel: "audit", OccurredAt: at}))
	if capture.Events[1].Channel != "audit" || !capture.Events[1].OccurredAt.Equal(at) {
		t.Fatalf("expected explicit channel and time preserved, got %+v", capture.Events[1])
	}
}

func TestBuildEvents(t *testing.T) {
	input := GridEventInput{
		UserID:    "u1",
		GridID:    "7",
		BlockType: "sales/order_grid",
		Subject:   "3",
		OldValue:  1,
		NewValue:  3,
	}

	grid := BuildGridEvent(VerbForcedTypeUpdated, input)
	if grid.ObjectType != ObjectGrid || grid.ObjectID != "7" {
		t.Fatalf("unexpected grid event object: %+v", grid)
	}

	profile := BuildProfileEvent(VerbProfileSwitched, input)
	if profile.ObjectType != ObjectProfile || profile.ObjectID != "3" {
		t.Fatalf("unexpected profile event object: %+v", profile)
	}
	if profile.Metadata["grid_id"] != "7" || profile.Metadata["old_value"] != 1 || profile.Metadata["new_value"] != 3 {
		t.Fatalf("unexpected metadata: %+v", profile.Metadata)
	}
	if profile.Metadata["block_type"] != "sales/order_grid" {
		t.Fatalf("expected block type metadata, got %+v", profile.Metadata)
	}

	unsaved := BuildGridEvent(VerbGridSaved, GridEventInput{})
	if unsaved.ObjectID != "new" || unsaved.Metadata != nil {
		t.Fatalf("unexpected unsaved event: %+v", unsaved)
	}
}
