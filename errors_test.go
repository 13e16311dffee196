package grid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleErrorFormatting(t *testing.T) {
	base := errors.New("boom")
	err := &RuleError{Engine: "expr", Rule: "block_type == 'x'", Err: base}

	assert.Equal(t, `grid: expr rule rule="block_type == 'x'": boom`, err.Error())
	assert.ErrorIs(t, err, base)

	empty := &RuleError{Engine: "cel", Err: base}
	assert.Contains(t, empty.Error(), "rule=<empty>")
}

func TestWrapRuleErrorFillsMissingFields(t *testing.T) {
	existing := &RuleError{Err: errors.New("bad")}
	wrapped := wrapRuleError("cel", "true", existing)

	var ruleErr *RuleError
	require.ErrorAs(t, wrapped, &ruleErr)
	assert.Same(t, existing, ruleErr)
	assert.Equal(t, "cel", ruleErr.Engine)
	assert.Equal(t, "true", ruleErr.Rule)

	assert.Nil(t, wrapRuleError("expr", "x", nil))
}

func TestErrorKinds(t *testing.T) {
	assert.ErrorIs(t, ErrHandlerNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrProfileUnavailable, ErrNotFound)
	assert.ErrorIs(t, ErrNoProfileAvailable, ErrInvalidState)
	assert.ErrorIs(t, ErrUnknownType, ErrInvalidState)

	perm := &PermissionError{Action: ActionDelete, Principal: Principal{UserID: "u1"}}
	assert.ErrorIs(t, perm, ErrPermissionDenied)
	assert.Contains(t, perm.Error(), "action=delete")

	cause := errors.New("connection reset")
	storage := &StorageError{Op: "load profiles", Err: cause}
	assert.ErrorIs(t, storage, ErrStorage)
	assert.ErrorIs(t, storage, cause)
}
