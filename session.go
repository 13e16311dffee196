package grid

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// SessionStore keeps per-session values. Keys are composite strings built
// from the grid and block identities.
type SessionStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Unset(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
}

// ProfileSessionKey is where the permanent profile ID of a grid is kept.
func ProfileSessionKey(gridID string) string {
	return fmt.Sprintf("grid/%s/current_profile", gridID)
}

// ProfileStateSessionKey is where the session state of one profile is kept.
func ProfileStateSessionKey(gridID string, profileID int) string {
	return fmt.Sprintf("grid/%s/profile/%d/state", gridID, profileID)
}

// ParamSessionKey is where a grid block keeps a request parameter. It is
// empty when the block has no identity.
func ParamSessionKey(blockID, varName string) string {
	if blockID == "" || varName == "" {
		return ""
	}
	return blockID + "/" + varName
}

func sessionInt(ctx context.Context, session SessionStore, key string) (*int, error) {
	raw, ok, err := session.Get(ctx, key)
	if err != nil || !ok {
		return nil, err
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		// Unparseable values behave as if nothing was stored.
		return nil, nil
	}
	return &value, nil
}

func loadProfileState(ctx context.Context, session SessionStore, key string) (ProfileSessionState, error) {
	var state ProfileSessionState
	raw, ok, err := session.Get(ctx, key)
	if err != nil || !ok || raw == "" {
		return state, err
	}
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return ProfileSessionState{}, nil
	}
	return state, nil
}

func saveProfileState(ctx context.Context, session SessionStore, key string, state ProfileSessionState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("grid: encode profile session state: %w", err)
	}
	return session.Set(ctx, key, string(payload))
}
