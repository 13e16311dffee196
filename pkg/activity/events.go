package activity

import (
	"strings"
	"time"
)

const (
	ObjectGrid    = "grid"
	ObjectColumn  = "grid.column"
	ObjectProfile = "grid.profile"

	VerbGridSaved             = "grid.saved"
	VerbGridDeleted           = "grid.deleted"
	VerbGridDisabled          = "grid.disabled"
	VerbGridEnabled           = "grid.enabled"
	VerbForcedTypeUpdated     = "grid.forced_type.updated"
	VerbCustomizationUpdated  = "grid.customization.updated"
	VerbProfilesDefaultsSaved = "grid.profiles_defaults.updated"
	VerbColumnAdded           = "grid.column.added"
	VerbColumnUpdated         = "grid.column.updated"
	VerbColumnRemoved         = "grid.column.removed"
	VerbProfileSwitched       = "grid.profile.switched"
	VerbProfileNotice         = "grid.profile.notice"
)

// GridEventInput carries the fields shared by grid events.
type GridEventInput struct {
	ActorID   string
	UserID    string
	RoleID    string
	TenantID  string
	GridID    string
	BlockType string
	// Subject is the column or profile ID for column and profile events.
	Subject    string
	Channel    string
	OldValue   any
	NewValue   any
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildGridEvent builds an event about the grid itself.
func BuildGridEvent(verb string, input GridEventInput) Event {
	return buildEvent(verb, ObjectGrid, input)
}

// BuildColumnEvent builds an event about one column of a grid.
func BuildColumnEvent(verb string, input GridEventInput) Event {
	return buildEvent(verb, ObjectColumn, input)
}

// BuildProfileEvent builds an event about one profile of a grid.
func BuildProfileEvent(verb string, input GridEventInput) Event {
	return buildEvent(verb, ObjectProfile, input)
}

func buildEvent(verb, objectType string, input GridEventInput) Event {
	metadata := cloneMap(input.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	if input.GridID != "" {
		set("grid_id", input.GridID)
	}
	if input.BlockType != "" {
		set("block_type", input.BlockType)
	}
	if input.OldValue != nil {
		set("old_value", input.OldValue)
	}
	if input.NewValue != nil {
		set("new_value", input.NewValue)
	}

	objectID := strings.TrimSpace(input.GridID)
	if objectType != ObjectGrid {
		objectID = strings.TrimSpace(input.Subject)
	}
	if objectID == "" {
		objectID = "new"
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		RoleID:     strings.TrimSpace(input.RoleID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
